package stats

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/coviddx/platform/internal/shared/config"
	"github.com/coviddx/platform/internal/shared/errors"
	"github.com/coviddx/platform/internal/shared/metrics"
)

// Provenance values reported in a Snapshot.
const (
	SourceFeed     = "feed"
	SourceFallback = "fallback"
	SourceCache    = "cache"
)

// cacheTTL bounds how stale a served snapshot may be before the feed is
// asked again.
const cacheTTL = 5 * time.Minute

// Client fetches the statistics feed, serving a cached or bundled
// snapshot when the upstream is unreachable.
type Client struct {
	http         *resty.Client
	fallbackFile string

	mu        sync.Mutex
	cached    *Snapshot
	fetchedAt time.Time
}

// NewClient creates a statistics client
func NewClient(cfg config.StatsConfig) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(cfg.FeedURL).
			SetTimeout(10 * time.Second).
			SetRetryCount(2).
			SetRetryWaitTime(time.Second),
		fallbackFile: cfg.FallbackFile,
	}
}

// Current returns the current statistics snapshot. Order of preference:
// fresh cache, upstream feed, stale cache, bundled fallback file.
func (c *Client) Current(ctx context.Context) (*Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cached != nil && time.Since(c.fetchedAt) < cacheTTL {
		return c.cached, nil
	}

	states, err := c.fetch(ctx)
	if err == nil {
		metrics.RecordStatsFeedFetch(SourceFeed, "ok")
		c.cached = &Snapshot{Source: SourceFeed, States: states}
		c.fetchedAt = time.Now()
		return c.cached, nil
	}
	metrics.RecordStatsFeedFetch(SourceFeed, "error")

	if c.cached != nil {
		stale := &Snapshot{Source: SourceCache, States: c.cached.States}
		return stale, nil
	}

	states, ferr := c.loadFallback()
	if ferr != nil {
		metrics.RecordStatsFeedFetch(SourceFallback, "error")
		return nil, errors.Wrap(err, "statistics feed unavailable and no fallback")
	}

	metrics.RecordStatsFeedFetch(SourceFallback, "ok")
	return &Snapshot{Source: SourceFallback, States: states}, nil
}

func (c *Client) fetch(ctx context.Context) ([]StateStats, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		Get("")

	if err != nil {
		return nil, fmt.Errorf("fetch statistics feed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("statistics feed returned status %d", resp.StatusCode())
	}

	return decodeStates(resp.Body())
}

func (c *Client) loadFallback() ([]StateStats, error) {
	data, err := os.ReadFile(c.fallbackFile)
	if err != nil {
		return nil, fmt.Errorf("read fallback snapshot: %w", err)
	}

	return decodeStates(data)
}

// decodeStates accepts both bodies the feed has served over time: a
// JSON array of state rows and the fixed-schema CSV export.
func decodeStates(data []byte) ([]StateStats, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty statistics payload")
	}

	if trimmed[0] == '[' || trimmed[0] == '{' {
		var states []StateStats
		if err := json.Unmarshal(trimmed, &states); err != nil {
			return nil, fmt.Errorf("parse statistics JSON: %w", err)
		}
		return states, nil
	}

	return decodeStatesCSV(trimmed)
}

func decodeStatesCSV(data []byte) ([]StateStats, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse statistics CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("statistics CSV has no header")
	}

	index := map[string]int{}
	for i, name := range records[0] {
		index[strings.TrimSpace(name)] = i
	}
	if _, ok := index["state"]; !ok {
		return nil, fmt.Errorf("statistics CSV is missing the state column")
	}

	cell := func(row []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}
	// Empty and NaN cells count as zero, the way the upstream export
	// leaves gaps for states that do not report a counter.
	count := func(row []string, name string) int64 {
		s := cell(row, name)
		if s == "" {
			return 0
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return int64(f)
		}
		return 0
	}

	var states []StateStats
	for _, row := range records[1:] {
		states = append(states, StateStats{
			State:                 cell(row, "state"),
			Positive:              count(row, "positive"),
			Negative:              count(row, "negative"),
			Pending:               count(row, "pending"),
			TotalTestResults:      count(row, "totalTestResults"),
			HospitalizedCurrently: count(row, "hospitalizedCurrently"),
			Recovered:             count(row, "recovered"),
			CheckTimeEt:           cell(row, "checkTimeEt"),
			Death:                 count(row, "death"),
			Total:                 count(row, "total"),
		})
	}

	return states, nil
}
