// Package usagestats keeps Redis-backed counters of hub calls per tenant.
//
// Several gateway instances may write concurrently; any of them can read.
//
// Redis Key Structure:
//
//	gw:stats:{scope}                    - Hash with totals, last call and per-route counts
//	gw:hourly:{scope}:{YYYYMMDDHH}      - Call count for specific hour (expires 48h)
//	gw:daily:{scope}:{YYYYMMDD}         - Call count for specific day (expires 7d)
//	gw:instances:{scope}                - Hash of gateway instance -> last seen timestamp
//
// {scope} is "tenant:{tenant}" for tenant calls and "tenantless" for calls
// that carry no tenant, so no tenant id can collide with the tenantless bucket.
package usagestats

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const routeFieldPrefix = "route:"

// ErrNoStats is returned when a tenant has never been recorded.
var ErrNoStats = errors.New("no usage recorded for tenant")

// Stats is the usage summary for one tenant.
type Stats struct {
	Tenant           string            `json:"tenant"`
	LastCallAt       *time.Time        `json:"last_call_at,omitempty"`
	LastStatus       int               `json:"last_status,omitempty"`
	TotalCalls       int64             `json:"total_calls"`
	TotalErrors      int64             `json:"total_errors"`
	CallsLastHour    int64             `json:"calls_last_hour"`
	CallsLast24h     int64             `json:"calls_last_24h"`
	CallsToday       int64             `json:"calls_today"`
	Routes           map[string]int64  `json:"routes,omitempty"`
	Instances        map[string]string `json:"instances,omitempty"`
	StatsRetrievedAt time.Time         `json:"stats_retrieved_at"`
}

// Client records and reads tenant usage.
type Client struct {
	redis      *redis.Client
	instanceID string
}

// NewClient connects to redisURL and verifies the connection.
// instanceID should be unique per gateway process (hostname, pod name).
func NewClient(redisURL string, instanceID string) (*Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &Client{redis: client, instanceID: instanceID}, nil
}

// NewClientFromRedis wraps an existing connection.
func NewClientFromRedis(client *redis.Client, instanceID string) *Client {
	return &Client{redis: client, instanceID: instanceID}
}

// Tenantless is the tenant value of calls made without a tenant.
const Tenantless = ""

func scope(tenant string) string {
	if tenant == Tenantless {
		return "tenantless"
	}
	return "tenant:" + tenant
}

func statsKey(tenant string) string { return "gw:stats:" + scope(tenant) }

func hourlyKey(tenant string, t time.Time) string {
	return fmt.Sprintf("gw:hourly:%s:%s", scope(tenant), t.Format("2006010215"))
}

func dailyKey(tenant string, t time.Time) string {
	return fmt.Sprintf("gw:daily:%s:%s", scope(tenant), t.Format("20060102"))
}

func instancesKey(tenant string) string { return "gw:instances:" + scope(tenant) }

// Batch accumulates calls for one tenant between flushes.
type Batch struct {
	Tenant     string
	Calls      int64
	Errors     int64
	LastStatus int
	LastCallAt time.Time
	Routes     map[string]int64
}

// NewBatch creates an empty accumulator for tenant.
func NewBatch(tenant string) *Batch {
	return &Batch{Tenant: tenant, Routes: make(map[string]int64)}
}

// Add counts one upstream call. Status >= 400 (or 0 for transport
// failures) counts as an error.
func (b *Batch) Add(route string, status int, at time.Time) {
	b.Calls++
	if status == 0 || status >= 400 {
		b.Errors++
	}
	b.Routes[route]++
	b.LastStatus = status
	b.LastCallAt = at
}

// Merge folds other into b.
func (b *Batch) Merge(other *Batch) {
	b.Calls += other.Calls
	b.Errors += other.Errors
	for route, n := range other.Routes {
		b.Routes[route] += n
	}
	if other.LastCallAt.After(b.LastCallAt) {
		b.LastCallAt = other.LastCallAt
		b.LastStatus = other.LastStatus
	}
}

// FlushBatch writes an accumulated batch in one pipeline.
func (c *Client) FlushBatch(ctx context.Context, batch *Batch) error {
	if batch.Calls == 0 {
		return nil
	}

	now := time.Now()
	lastAt := batch.LastCallAt
	if lastAt.IsZero() {
		lastAt = now
	}
	nowUnix := strconv.FormatInt(now.Unix(), 10)

	pipe := c.redis.Pipeline()

	sk := statsKey(batch.Tenant)
	pipe.HSet(ctx, sk, map[string]any{
		"last_call_at": strconv.FormatInt(lastAt.Unix(), 10),
		"last_status":  strconv.Itoa(batch.LastStatus),
	})
	pipe.HIncrBy(ctx, sk, "total_calls", batch.Calls)
	pipe.HIncrBy(ctx, sk, "total_errors", batch.Errors)
	for route, n := range batch.Routes {
		pipe.HIncrBy(ctx, sk, routeFieldPrefix+route, n)
	}

	hk := hourlyKey(batch.Tenant, now)
	pipe.IncrBy(ctx, hk, batch.Calls)
	pipe.Expire(ctx, hk, 48*time.Hour)

	dk := dailyKey(batch.Tenant, now)
	pipe.IncrBy(ctx, dk, batch.Calls)
	pipe.Expire(ctx, dk, 7*24*time.Hour)

	ik := instancesKey(batch.Tenant)
	pipe.HSet(ctx, ik, c.instanceID, nowUnix)
	pipe.Expire(ctx, ik, 24*time.Hour)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to flush batch: %w", err)
	}
	return nil
}

// GetStats reads the usage summary for tenant.
// Returns ErrNoStats if nothing was ever flushed for it.
func (c *Client) GetStats(ctx context.Context, tenant string) (*Stats, error) {
	now := time.Now()

	pipe := c.redis.Pipeline()

	statsCmd := pipe.HGetAll(ctx, statsKey(tenant))
	currentHourCmd := pipe.Get(ctx, hourlyKey(tenant, now))

	hourlyCmds := make([]*redis.StringCmd, 24)
	for i := range hourlyCmds {
		hourlyCmds[i] = pipe.Get(ctx, hourlyKey(tenant, now.Add(-time.Duration(i)*time.Hour)))
	}

	todayCmd := pipe.Get(ctx, dailyKey(tenant, now))
	instancesCmd := pipe.HGetAll(ctx, instancesKey(tenant))

	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}

	statsMap, err := statsCmd.Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read stats hash: %w", err)
	}
	if len(statsMap) == 0 {
		return nil, ErrNoStats
	}

	stats := &Stats{
		Tenant:           tenant,
		Routes:           make(map[string]int64),
		Instances:        make(map[string]string),
		StatsRetrievedAt: now,
	}

	for field, value := range statsMap {
		switch {
		case field == "last_call_at":
			if unix, err := strconv.ParseInt(value, 10, 64); err == nil {
				t := time.Unix(unix, 0)
				stats.LastCallAt = &t
			}
		case field == "last_status":
			stats.LastStatus, _ = strconv.Atoi(value)
		case field == "total_calls":
			stats.TotalCalls, _ = strconv.ParseInt(value, 10, 64)
		case field == "total_errors":
			stats.TotalErrors, _ = strconv.ParseInt(value, 10, 64)
		case strings.HasPrefix(field, routeFieldPrefix):
			n, _ := strconv.ParseInt(value, 10, 64)
			stats.Routes[strings.TrimPrefix(field, routeFieldPrefix)] = n
		}
	}

	if val, err := currentHourCmd.Int64(); err == nil {
		stats.CallsLastHour = val
	}
	for _, cmd := range hourlyCmds {
		if val, err := cmd.Int64(); err == nil {
			stats.CallsLast24h += val
		}
	}
	if val, err := todayCmd.Int64(); err == nil {
		stats.CallsToday = val
	}

	if instances, err := instancesCmd.Result(); err == nil {
		for instance, lastSeen := range instances {
			if unix, err := strconv.ParseInt(lastSeen, 10, 64); err == nil {
				stats.Instances[instance] = time.Unix(unix, 0).UTC().Format(time.RFC3339)
			}
		}
	}

	return stats, nil
}

// Ping checks the Redis connection.
func (c *Client) Ping(ctx context.Context) error {
	return c.redis.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.redis.Close()
}
