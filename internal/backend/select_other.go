//go:build !windows

package backend

// New returns the CUPS backend, the only print system outside Windows.
func New(opts Options) (Backend, error) {
	return NewCUPS(opts), nil
}
