//go:build !linux

package thread

import "os"

// gettid has no portable equivalent; threads get a synthetic id instead
func gettid() int {
	return 0
}

func getpid() int {
	return os.Getpid()
}

func setThreadName(string) error {
	return nil
}
