//go:build windows

package backend

// New returns the winspool backend.
func New(opts Options) (Backend, error) {
	return NewSpooler(opts), nil
}
