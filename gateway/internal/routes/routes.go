// Package routes declares every public gateway operation once. The router
// generates the tenant-explicit and shortcut HTTP variants from each entry.
package routes

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/lotuspetal/lotuspetal-api/gateway/internal/hubclient"
)

// TimeoutClass selects which configured hub timeout a route uses.
type TimeoutClass int

const (
	// ControlTimeout applies to test, poll, register and submit calls.
	ControlTimeout TimeoutClass = iota
	// ReadTimeout applies to row reads and exports.
	ReadTimeout
)

func (c TimeoutClass) String() string {
	if c == ReadTimeout {
		return "read"
	}
	return "control"
}

// Request is the inbound data a route needs to build its hub call.
type Request struct {
	// Tenant is the resolved tenant; empty for tenantless routes.
	Tenant  string
	Logical string
	Query   url.Values
	Body    []byte
}

// Route is one public operation.
type Route struct {
	Name    string
	Summary string
	Methods []string

	// Path is the tenant-explicit pattern, containing {tenant} unless the
	// route is tenantless.
	Path string
	// Shortcut is Path without the tenant segment; it uses the default tenant.
	Shortcut string
	// Aliases are extra paths served by the same handler.
	Aliases []string

	Tenantless bool
	Timeout    TimeoutClass

	// Relaxed routes answer 200 {ok:false,...} when the hub responds >= 400.
	Relaxed bool

	// Build validates the request and returns the single hub call to make.
	// Errors are *hubclient.UpstreamError of kind validation.
	Build func(Request) (hubclient.Call, error)
}

// Paths returns every path the route is served on.
func (r Route) Paths() []string {
	paths := []string{r.Path}
	if r.Shortcut != "" {
		paths = append(paths, r.Shortcut)
	}
	return append(paths, r.Aliases...)
}

// Patterns returns the ServeMux patterns ("METHOD /path") for the route.
func (r Route) Patterns() []string {
	var patterns []string
	for _, path := range r.Paths() {
		for _, method := range r.Methods {
			patterns = append(patterns, method+" "+path)
		}
	}
	return patterns
}

// MethodList renders the methods as "GET|POST".
func (r Route) MethodList() string {
	return strings.Join(r.Methods, "|")
}

// Route names, used as metric labels and usage-stats keys.
const (
	NameConnectionTest = "connection_test"
	NamePoll           = "poll"
	NameListTables     = "list_tables"
	NameRegisterTables = "register_tables"
	NameConnectionRows = "connection_rows"
	NameReadRows       = "read_rows"
	NameExportTable    = "export_table"
	NameSubmitPackage  = "submit_package"
)

// Row limits per entry point.
const (
	ConnectionRowsDefaultTop = 50
	ConnectionRowsMaxTop     = 500
	ReadRowsDefaultTop       = 100
	ReadRowsMaxTop           = 5000
	ExportDefaultTop         = 1000
	ExportMaxTop             = 5000
)

// Table returns the full route table in registration order.
func Table() []Route {
	return []Route{
		{
			Name:     NameConnectionTest,
			Summary:  "Test the tenant's D365 connection",
			Methods:  []string{http.MethodPost},
			Path:     "/connections/{tenant}/d365/test",
			Shortcut: "/connections/d365/test",
			Timeout:  ControlTimeout,
			Build:    buildConnectionTest,
		},
		{
			Name:     NamePoll,
			Summary:  "Trigger an incremental or full sync",
			Methods:  []string{http.MethodPost},
			Path:     "/connections/{tenant}/d365/pull",
			Shortcut: "/connections/d365/pull",
			Timeout:  ControlTimeout,
			Build:    buildPoll,
		},
		{
			Name:       NameListTables,
			Summary:    "List D365 tables known to the hub",
			Methods:    []string{http.MethodGet},
			Path:       "/connectors/d365/tables",
			Aliases:    []string{"/connections/d365/tables"},
			Tenantless: true,
			Timeout:    ControlTimeout,
			Relaxed:    true,
			Build:      buildListTables,
		},
		{
			Name:     NameRegisterTables,
			Summary:  "Register tables for syncing",
			Methods:  []string{http.MethodPost},
			Path:     "/connections/{tenant}/d365/tables/register",
			Shortcut: "/connections/d365/tables/register",
			Timeout:  ControlTimeout,
			Build:    buildRegisterTables,
		},
		{
			Name:     NameConnectionRows,
			Summary:  "Read a page of table rows",
			Methods:  []string{http.MethodGet},
			Path:     "/connections/{tenant}/d365/tables/{logical}/rows",
			Shortcut: "/connections/d365/tables/{logical}/rows",
			Timeout:  ReadTimeout,
			Build:    rowsBuilder(ConnectionRowsDefaultTop, ConnectionRowsMaxTop),
		},
		{
			Name:     NameReadRows,
			Summary:  "Read table rows with OData options",
			Methods:  []string{http.MethodGet},
			Path:     "/tenants/{tenant}/connectors/d365/tables/{logical}/rows",
			Shortcut: "/connectors/d365/tables/{logical}/rows",
			Timeout:  ReadTimeout,
			Build:    rowsBuilder(ReadRowsDefaultTop, ReadRowsMaxTop),
		},
		{
			Name:     NameExportTable,
			Summary:  "Export a table through the hub",
			Methods:  []string{http.MethodPost, http.MethodGet},
			Path:     "/tenants/{tenant}/connectors/d365/tables/{logical}/export",
			Shortcut: "/connectors/d365/tables/{logical}/export",
			Timeout:  ReadTimeout,
			Build:    buildExport,
		},
		{
			Name:     NameSubmitPackage,
			Summary:  "Submit a sourcing answer package",
			Methods:  []string{http.MethodPost},
			Path:     "/submissions/{tenant}/d365/export",
			Shortcut: "/submissions/d365/export",
			Timeout:  ControlTimeout,
			Build:    buildSubmit,
		},
	}
}

// tenantPath joins path segments under /tenants/{tenant}, escaping each
// caller-supplied value.
func tenantPath(tenant string, rest string) string {
	return "/tenants/" + url.PathEscape(tenant) + rest
}
