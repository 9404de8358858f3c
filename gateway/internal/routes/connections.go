package routes

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/lotuspetal/lotuspetal-api/common/httputil"
	"github.com/lotuspetal/lotuspetal-api/gateway/internal/hubclient"
)

// Poll limits.
const (
	PollDefaultLimitPages = 2
	PollMaxLimitPages     = 50
)

func requireTenant(req Request) error {
	if req.Tenant == "" {
		return hubclient.Validation("tenant is required")
	}
	return nil
}

func buildConnectionTest(req Request) (hubclient.Call, error) {
	if err := requireTenant(req); err != nil {
		return hubclient.Call{}, err
	}
	return hubclient.Call{
		Method: http.MethodPost,
		Path:   tenantPath(req.Tenant, "/connectors/d365:test"),
		Tenant: req.Tenant,
	}, nil
}

// pollBody is the inbound pull body. Every field is optional.
type pollBody struct {
	Tables     []string `json:"tables"`
	ForceFull  *bool    `json:"force_full"`
	LimitPages *int     `json:"limit_pages"`
	MaxRecords *int     `json:"max_records"`
	SinceISO   *string  `json:"since_iso"`
}

// PollRequest is a validated pull request.
type PollRequest struct {
	Tables     []string
	ForceFull  bool
	LimitPages int
	MaxRecords *int
	SinceISO   string
}

// parsePoll merges body and query; query values win.
func parsePoll(req Request) (PollRequest, error) {
	var body pollBody
	if err := decodeBody(req.Body, &body, false); err != nil {
		return PollRequest{}, err
	}

	p := PollRequest{Tables: body.Tables, LimitPages: PollDefaultLimitPages}
	if body.ForceFull != nil {
		p.ForceFull = *body.ForceFull
	}
	if body.LimitPages != nil {
		p.LimitPages = *body.LimitPages
	}
	if body.SinceISO != nil {
		p.SinceISO = *body.SinceISO
	}
	p.MaxRecords = body.MaxRecords

	q := req.Query
	if raw := q.Get("force_full"); raw != "" {
		v, err := httputil.ParseBoolParam(raw)
		if err != nil {
			return PollRequest{}, hubclient.Validation("force_full must be a boolean")
		}
		p.ForceFull = v
	}
	if raw := q.Get("limit_pages"); raw != "" {
		v, err := httputil.ParseIntParam(raw, 0)
		if err != nil {
			return PollRequest{}, hubclient.Validation("limit_pages must be an integer")
		}
		p.LimitPages = v
	}
	if raw := q.Get("max_records"); raw != "" {
		v, err := minInt(raw, "max_records", 1)
		if err != nil {
			return PollRequest{}, err
		}
		p.MaxRecords = v
	}
	if raw, _ := httputil.FirstParam(q, "since_iso", "since"); raw != "" {
		p.SinceISO = raw
	}

	if p.LimitPages < 1 || p.LimitPages > PollMaxLimitPages {
		return PollRequest{}, hubclient.Validation("limit_pages must be between 1 and %d, got %d", PollMaxLimitPages, p.LimitPages)
	}
	if p.MaxRecords != nil && *p.MaxRecords < 1 {
		return PollRequest{}, hubclient.Validation("max_records must be at least 1, got %d", *p.MaxRecords)
	}
	if p.SinceISO != "" && !validTimestamp(p.SinceISO) {
		return PollRequest{}, hubclient.Validation("since_iso must be an ISO-8601 timestamp, got %q", p.SinceISO)
	}
	if err := nonEmptyStrings("tables", p.Tables); err != nil {
		return PollRequest{}, err
	}

	return p, nil
}

func buildPoll(req Request) (hubclient.Call, error) {
	if err := requireTenant(req); err != nil {
		return hubclient.Call{}, err
	}
	p, err := parsePoll(req)
	if err != nil {
		return hubclient.Call{}, err
	}

	query := url.Values{}
	query.Set("limit_pages", strconv.Itoa(p.LimitPages))
	if p.MaxRecords != nil {
		query.Set("max_records", strconv.Itoa(*p.MaxRecords))
	}
	if p.SinceISO != "" {
		query.Set("since", p.SinceISO)
	}

	// the hub treats a missing body as "all registered tables, incremental"
	payload := map[string]any{}
	if len(p.Tables) > 0 {
		payload["tables"] = p.Tables
	}
	if p.ForceFull {
		payload["force_full"] = true
	}

	call := hubclient.Call{
		Method: http.MethodPost,
		Path:   tenantPath(req.Tenant, "/connectors/d365:poll"),
		Query:  query,
		Tenant: req.Tenant,
	}
	if len(payload) > 0 {
		call.Body = payload
	}
	return call, nil
}

type registerBody struct {
	Tables []string `json:"tables"`
}

func buildRegisterTables(req Request) (hubclient.Call, error) {
	if err := requireTenant(req); err != nil {
		return hubclient.Call{}, err
	}

	var body registerBody
	if err := decodeBody(req.Body, &body, true); err != nil {
		return hubclient.Call{}, err
	}
	if len(body.Tables) == 0 {
		return hubclient.Call{}, hubclient.Validation("tables must be a non-empty list")
	}
	if err := nonEmptyStrings("tables", body.Tables); err != nil {
		return hubclient.Call{}, err
	}

	return hubclient.Call{
		Method: http.MethodPost,
		Path:   tenantPath(req.Tenant, "/connectors/d365/tables:register"),
		Body:   map[string]any{"tables": body.Tables},
		Tenant: req.Tenant,
	}, nil
}
