//go:build !linux

package netif

// DefaultLister returns the lister for the current platform.
func DefaultLister() Lister {
	return NetLister{}
}
