package events

import (
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v6"
)

var fakeStatuses = []string{"draft", "open", "submitted", "awarded", "closed"}

// Fake generates n plausible sourcing events for tenant. Used by the
// `events seed` command and by tests. seed 0 picks a random seed.
func Fake(tenant string, n int, seed int64) []SourcingEvent {
	faker := gofakeit.New(seed)

	out := make([]SourcingEvent, 0, n)
	for i := 0; i < n; i++ {
		created := faker.DateRange(time.Now().AddDate(0, -6, 0), time.Now())
		due := created.AddDate(0, 0, faker.Number(7, 60))

		title := fmt.Sprintf("%s %s RFQ", faker.Company(), faker.ProductName())
		status := faker.RandomString(fakeStatuses)
		createdAt := created.UTC().Format(time.RFC3339)
		dueAt := due.UTC().Format(time.RFC3339)

		out = append(out, SourcingEvent{
			ID:        fmt.Sprintf("se-%s", faker.UUID()),
			TenantID:  tenant,
			Title:     &title,
			Status:    &status,
			CreatedAt: &createdAt,
			DueAt:     &dueAt,
			Platform:  DefaultPlatform,
		})
	}
	return out
}
