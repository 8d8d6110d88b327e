//go:build !linux

package endpoint

import (
	"errors"

	"golang.org/x/sys/unix"
)

const corkingSupported = false

// errUnsupported is returned by the Linux-only socket options on other
// platforms — spec.md §4.5 calls both out as "where supported".
var errUnsupported = errors.New("endpoint: not supported on this platform")

func setCork(fd int, on bool) error {
	return errUnsupported
}

func setLinger2(fd int, seconds int) error {
	return errUnsupported
}

func acceptConn(listenFd int) (int, unix.Sockaddr, error) {
	fd, sa, err := unix.Accept(listenFd)
	if err != nil {
		return -1, nil, err
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		_ = unix.Close(fd)
		return -1, nil, err
	}
	unix.CloseOnExec(fd)
	return fd, sa, nil
}
