// Package events stores sourcing-event records: one row per event id,
// upserted as the hub or operators report them and listed per tenant.
package events

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// DefaultPlatform is assigned to events inserted without a platform.
const DefaultPlatform = "d365"

var (
	ErrNotFound     = errors.New("sourcing event not found")
	ErrInvalidEvent = errors.New("invalid sourcing event")
)

// SourcingEvent is a sourcing event as reported by the hub. Dates are kept
// in the textual form they were received in.
type SourcingEvent struct {
	ID        string  `json:"id" yaml:"id"`
	TenantID  string  `json:"tenant_id" yaml:"tenant_id"`
	Title     *string `json:"title" yaml:"title"`
	Status    *string `json:"status" yaml:"status"`
	CreatedAt *string `json:"created_at" yaml:"created_at"`
	DueAt     *string `json:"due_at" yaml:"due_at"`
	Platform  string  `json:"platform" yaml:"platform"`
}

// Validate checks the key fields and fills the default platform.
func (e *SourcingEvent) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidEvent)
	}
	if strings.TrimSpace(e.TenantID) == "" {
		return fmt.Errorf("%w: tenant_id is required for event %s", ErrInvalidEvent, e.ID)
	}
	if e.Platform == "" {
		e.Platform = DefaultPlatform
	}
	return nil
}

// Store persists sourcing events.
//
// Upsert updates title, status, created_at, due_at and tenant_id of an
// existing id and inserts otherwise; platform is only set on insert.
// List returns a tenant's events ordered by id.
type Store interface {
	Upsert(ctx context.Context, events []SourcingEvent) (int, error)
	List(ctx context.Context, tenantID string) ([]SourcingEvent, error)
	Get(ctx context.Context, id string) (*SourcingEvent, error)
	Ping(ctx context.Context) error
	Close()
}

// validateAll validates every event before anything is written.
func validateAll(events []SourcingEvent) error {
	for i := range events {
		if err := events[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}
