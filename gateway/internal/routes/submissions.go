package routes

import (
	"encoding/json"
	"net/http"
	"unicode/utf8"

	"github.com/lotuspetal/lotuspetal-api/gateway/internal/hubclient"
)

// Attachment references a file submitted with a package.
type Attachment struct {
	Name        string  `json:"name"`
	URL         *string `json:"url"`
	ByteSize    *int64  `json:"byte_size"`
	ContentType *string `json:"content_type"`
}

// SubmissionPackage is forwarded to the hub as-is after validation.
type SubmissionPackage struct {
	SubmissionPackageID string          `json:"submission_package_id"`
	Answers             json.RawMessage `json:"answers"`
	Attachments         []Attachment    `json:"attachments"`
	Route               string          `json:"route"`
}

// Validate checks the package and fills defaults.
func (p *SubmissionPackage) Validate() error {
	if utf8.RuneCountInString(p.SubmissionPackageID) < 3 {
		return hubclient.Validation("submission_package_id must be at least 3 characters")
	}

	var answers map[string]any
	if len(p.Answers) == 0 || json.Unmarshal(p.Answers, &answers) != nil || answers == nil {
		return hubclient.Validation("answers must be an object")
	}

	for i, a := range p.Attachments {
		if a.Name == "" {
			return hubclient.Validation("attachments[%d].name is required", i)
		}
		if a.ByteSize != nil && *a.ByteSize < 0 {
			return hubclient.Validation("attachments[%d].byte_size must not be negative", i)
		}
	}

	if p.Attachments == nil {
		p.Attachments = []Attachment{}
	}
	if p.Route == "" {
		p.Route = "dryrun"
	}
	return nil
}

func buildSubmit(req Request) (hubclient.Call, error) {
	if err := requireTenant(req); err != nil {
		return hubclient.Call{}, err
	}

	var pkg SubmissionPackage
	if err := decodeBody(req.Body, &pkg, true); err != nil {
		return hubclient.Call{}, err
	}
	if err := pkg.Validate(); err != nil {
		return hubclient.Call{}, err
	}

	return hubclient.Call{
		Method: http.MethodPost,
		Path:   tenantPath(req.Tenant, "/connectors/d365/submit"),
		Body:   pkg,
		Tenant: req.Tenant,
	}, nil
}
