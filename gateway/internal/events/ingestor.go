package events

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/lotuspetal/lotuspetal-api/common/messaging"
	"github.com/lotuspetal/lotuspetal-api/gateway/internal/metrics"
)

// UpsertedNotice is published after an ingested batch is stored.
type UpsertedNotice struct {
	TenantIDs []string `json:"tenant_ids"`
	EventIDs  []string `json:"event_ids"`
}

// Ingestor consumes sourcing events from the message bus into a Store.
// A message carries one event object or an array of them; a tenant header
// fills tenant_id where the payload omits it.
type Ingestor struct {
	sub    messaging.Subscriber
	pub    messaging.Publisher
	store  Store
	logger *slog.Logger

	subscription messaging.Subscription
}

// NewIngestor creates an Ingestor. pub may be nil to skip notifications.
func NewIngestor(sub messaging.Subscriber, pub messaging.Publisher, store Store, logger *slog.Logger) *Ingestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{sub: sub, pub: pub, store: store, logger: logger.With("component", "event_ingestor")}
}

// Start joins queue on subject.
func (i *Ingestor) Start(subject, queue string) error {
	sub, err := i.sub.QueueSubscribe(subject, queue, i.Handle)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", subject, err)
	}
	i.subscription = sub
	i.logger.Info("event ingestor started", "subject", subject, "queue", queue)
	return nil
}

// Stop leaves the subscription.
func (i *Ingestor) Stop() error {
	if i.subscription == nil {
		return nil
	}
	return i.subscription.Unsubscribe()
}

// Handle stores the events carried by msg.
func (i *Ingestor) Handle(ctx context.Context, msg *messaging.Message) error {
	batch, err := DecodeEvents(msg.Data)
	if err != nil {
		metrics.EventIngestErrors.Inc()
		return err
	}

	if tenant := msg.Metadata[messaging.HeaderTenant]; tenant != "" {
		for j := range batch {
			if batch[j].TenantID == "" {
				batch[j].TenantID = tenant
			}
		}
	}

	n, err := i.store.Upsert(ctx, batch)
	if err != nil {
		metrics.EventIngestErrors.Inc()
		return fmt.Errorf("store events: %w", err)
	}
	metrics.EventsUpserted.WithLabelValues("nats").Add(float64(n))
	i.logger.Debug("ingested sourcing events", "count", n, "subject", msg.Subject)

	if i.pub != nil && n > 0 {
		notice, err := json.Marshal(noticeFor(batch))
		if err != nil {
			return fmt.Errorf("marshal notice: %w", err)
		}
		if err := i.pub.Publish(ctx, messaging.SubjectSourcingEventsUpserted, notice); err != nil {
			i.logger.Warn("failed to publish upsert notice", "error", err)
		}
	}
	return nil
}

// DecodeEvents accepts a JSON object or an array of objects.
func DecodeEvents(data []byte) ([]SourcingEvent, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidEvent)
	}

	if trimmed[0] == '[' {
		var batch []SourcingEvent
		if err := json.Unmarshal(trimmed, &batch); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
		}
		return batch, nil
	}

	var ev SourcingEvent
	if err := json.Unmarshal(trimmed, &ev); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	return []SourcingEvent{ev}, nil
}

func noticeFor(batch []SourcingEvent) UpsertedNotice {
	seen := map[string]bool{}
	notice := UpsertedNotice{EventIDs: make([]string, 0, len(batch))}
	for _, ev := range batch {
		notice.EventIDs = append(notice.EventIDs, ev.ID)
		if !seen[ev.TenantID] {
			seen[ev.TenantID] = true
			notice.TenantIDs = append(notice.TenantIDs, ev.TenantID)
		}
	}
	return notice
}
