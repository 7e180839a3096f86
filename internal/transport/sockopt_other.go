//go:build !unix

package transport

import "syscall"

// The runtime already enables SO_BROADCAST on UDP sockets.
func control(network, address string, c syscall.RawConn) error {
	return nil
}
