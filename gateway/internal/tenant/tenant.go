// Package tenant decides which hub tenant a request acts on.
package tenant

// Resolver maps the optional tenant path segment to the effective tenant.
type Resolver struct {
	Default string
}

// NewResolver returns a Resolver falling back to defaultTenant.
func NewResolver(defaultTenant string) Resolver {
	return Resolver{Default: defaultTenant}
}

// Resolve returns pathTenant verbatim when present, the default otherwise.
func (r Resolver) Resolve(pathTenant string) string {
	if pathTenant != "" {
		return pathTenant
	}
	return r.Default
}
