package routes

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/lotuspetal/lotuspetal-api/common/httputil"
	"github.com/lotuspetal/lotuspetal-api/gateway/internal/hubclient"
)

// Export formats accepted by the hub.
var exportFormats = map[string]bool{"json": true, "csv": true, "ndjson": true}

func buildListTables(req Request) (hubclient.Call, error) {
	query := url.Values{}
	if prefix := req.Query.Get("prefix"); prefix != "" {
		query.Set("prefix", prefix)
	}
	return hubclient.Call{
		Method: http.MethodGet,
		Path:   "/connectors/d365/tables",
		Query:  query,
	}, nil
}

// TableQuery is a validated row read.
type TableQuery struct {
	Logical string
	Top     int
	Skip    int
	Select  string
	OrderBy string
	Filter  string
}

// Values renders the OData query sent to the hub.
func (q TableQuery) Values() url.Values {
	v := url.Values{}
	v.Set("$top", strconv.Itoa(q.Top))
	if q.Skip > 0 {
		v.Set("$skip", strconv.Itoa(q.Skip))
	}
	if q.Select != "" {
		v.Set("$select", q.Select)
	}
	if q.OrderBy != "" {
		v.Set("$orderby", q.OrderBy)
	}
	if q.Filter != "" {
		v.Set("$filter", q.Filter)
	}
	return v
}

func parseTableQuery(req Request, defaultTop, maxTop int) (TableQuery, error) {
	if req.Logical == "" {
		return TableQuery{}, hubclient.Validation("logical table name is required")
	}

	top, err := boundedInt(req.Query, "top", odataNames("top"), defaultTop, 1, maxTop)
	if err != nil {
		return TableQuery{}, err
	}

	rawSkip, _ := httputil.FirstParam(req.Query, odataNames("skip")...)
	skip, err := minInt(rawSkip, "skip", 0)
	if err != nil {
		return TableQuery{}, err
	}

	tq := TableQuery{Logical: req.Logical, Top: top}
	if skip != nil {
		tq.Skip = *skip
	}
	tq.Select, _ = httputil.FirstParam(req.Query, odataNames("select")...)
	tq.OrderBy, _ = httputil.FirstParam(req.Query, odataNames("orderby")...)
	tq.Filter, _ = httputil.FirstParam(req.Query, odataNames("filter")...)
	return tq, nil
}

// rowsBuilder returns the row-read builder for one entry point's top limits.
func rowsBuilder(defaultTop, maxTop int) func(Request) (hubclient.Call, error) {
	return func(req Request) (hubclient.Call, error) {
		if err := requireTenant(req); err != nil {
			return hubclient.Call{}, err
		}
		tq, err := parseTableQuery(req, defaultTop, maxTop)
		if err != nil {
			return hubclient.Call{}, err
		}
		return hubclient.Call{
			Method: http.MethodGet,
			Path:   tenantPath(req.Tenant, "/connectors/d365/tables/"+url.PathEscape(tq.Logical)+"/rows"),
			Query:  tq.Values(),
			Tenant: req.Tenant,
		}, nil
	}
}

func buildExport(req Request) (hubclient.Call, error) {
	if err := requireTenant(req); err != nil {
		return hubclient.Call{}, err
	}
	if req.Logical == "" {
		return hubclient.Call{}, hubclient.Validation("logical table name is required")
	}

	format := req.Query.Get("fmt")
	if format == "" {
		format = "json"
	}
	if !exportFormats[format] {
		return hubclient.Call{}, hubclient.Validation("fmt must be one of json, csv, ndjson, got %q", format)
	}

	route := req.Query.Get("route")
	if route == "" {
		route = "local"
	}

	top, err := boundedInt(req.Query, "top", odataNames("top"), ExportDefaultTop, 1, ExportMaxTop)
	if err != nil {
		return hubclient.Call{}, err
	}

	query := url.Values{}
	query.Set("fmt", format)
	query.Set("route", route)
	query.Set("$top", strconv.Itoa(top))
	if sel, _ := httputil.FirstParam(req.Query, odataNames("select")...); sel != "" {
		query.Set("$select", sel)
	}

	return hubclient.Call{
		Method: http.MethodPost,
		Path:   tenantPath(req.Tenant, "/connectors/d365/tables/"+url.PathEscape(req.Logical)+"/export"),
		Query:  query,
		Tenant: req.Tenant,
	}, nil
}
