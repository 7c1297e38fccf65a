package orchestrator

import "github.com/xkilldash9x/triage-cli/api/schemas"

// Registry holds the active scanner set. It is a closed collection built at
// startup; registration order carries no semantic weight because execution
// is concurrent.
type Registry struct {
	scanners []schemas.Scanner
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends a scanner to the active set.
func (r *Registry) Register(s schemas.Scanner) {
	r.scanners = append(r.scanners, s)
}

// Scanners returns the registered scanners in registration order.
func (r *Registry) Scanners() []schemas.Scanner {
	return r.scanners
}

// Len returns the number of registered scanners.
func (r *Registry) Len() int {
	return len(r.scanners)
}
