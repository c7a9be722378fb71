//go:build linux

package thread

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// maxNameLen is the kernel's TASK_COMM_LEN minus the terminating NUL
const maxNameLen = 15

func gettid() int {
	return unix.Gettid()
}

func getpid() int {
	return unix.Getpid()
}

// setThreadName sets the name of the calling OS thread as shown by ps, top and /proc
func setThreadName(name string) error {
	if len(name) > maxNameLen {
		name = name[:maxNameLen]
	}
	p, err := unix.BytePtrFromString(name)
	if err != nil {
		return err
	}
	return unix.Prctl(unix.PR_SET_NAME, uintptr(unsafe.Pointer(p)), 0, 0, 0)
}
