package stats

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coviddx/platform/internal/shared/config"
)

const feedBody = `[
	{"state":"CA","positive":1200,"negative":9000,"pending":30,
	 "totalTestResults":10200,"hospitalizedCurrently":180,"recovered":700,
	 "checkTimeEt":"4/07 18:00","death":45,"total":10230},
	{"state":"NY","positive":4000,"negative":12000,"pending":0,
	 "totalTestResults":16000,"hospitalizedCurrently":900,"recovered":1500,
	 "checkTimeEt":"4/07 19:00","death":210,"total":16000}
]`

func TestCurrentFromFeed(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(feedBody))
	}))
	defer ts.Close()

	c := NewClient(config.StatsConfig{FeedURL: ts.URL})

	snapshot, err := c.Current(context.Background())
	require.NoError(t, err)

	assert.Equal(t, SourceFeed, snapshot.Source)
	require.Len(t, snapshot.States, 2)
	assert.Equal(t, "CA", snapshot.States[0].State)
	assert.Equal(t, int64(4000), snapshot.States[1].Positive)
	assert.Equal(t, "4/07 19:00", snapshot.States[1].CheckTimeEt)
}

func TestCurrentServesCachedSnapshot(t *testing.T) {
	calls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(feedBody))
	}))
	defer ts.Close()

	c := NewClient(config.StatsConfig{FeedURL: ts.URL})

	_, err := c.Current(context.Background())
	require.NoError(t, err)
	_, err = c.Current(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
}

func TestCurrentFallsBackToFile(t *testing.T) {
	fallback := filepath.Join(t.TempDir(), "snapshot.json")
	require.NoError(t, os.WriteFile(fallback, []byte(feedBody), 0o644))

	// Unroutable feed URL forces the fallback path.
	c := NewClient(config.StatsConfig{
		FeedURL:      "http://127.0.0.1:1",
		FallbackFile: fallback,
	})

	snapshot, err := c.Current(context.Background())
	require.NoError(t, err)

	assert.Equal(t, SourceFallback, snapshot.Source)
	assert.Len(t, snapshot.States, 2)
}

func TestCurrentNoFeedNoFallback(t *testing.T) {
	c := NewClient(config.StatsConfig{
		FeedURL:      "http://127.0.0.1:1",
		FallbackFile: filepath.Join(t.TempDir(), "absent.json"),
	})

	_, err := c.Current(context.Background())
	assert.Error(t, err)
}

func TestAggregate(t *testing.T) {
	s := Snapshot{States: []StateStats{
		{Positive: 10, Negative: 100, Death: 1, Total: 111},
		{Positive: 20, Negative: 200, Death: 2, Total: 222},
	}}

	totals := s.Aggregate()
	assert.Equal(t, Totals{Positive: 30, Negative: 300, Death: 3, Total: 333}, totals)
}

func TestAggregateEmpty(t *testing.T) {
	s := Snapshot{}
	assert.Equal(t, Totals{}, s.Aggregate())
}

const feedBodyCSV = `state,positive,negative,pending,totalTestResults,hospitalizedCurrently,recovered,checkTimeEt,death,total
CA,1200,9000,30,10200,180,700,4/07 18:00,45,10230
NY,4000,12000,,16000,900.0,1500,4/07 19:00,210,16000
`

func TestCurrentFromCSVFeed(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		w.Write([]byte(feedBodyCSV))
	}))
	defer ts.Close()

	c := NewClient(config.StatsConfig{FeedURL: ts.URL})

	snapshot, err := c.Current(context.Background())
	require.NoError(t, err)

	assert.Equal(t, SourceFeed, snapshot.Source)
	require.Len(t, snapshot.States, 2)
	assert.Equal(t, "CA", snapshot.States[0].State)
	assert.Equal(t, int64(4000), snapshot.States[1].Positive)

	// Empty cells read as zero, float cells as their integer value.
	assert.Equal(t, int64(0), snapshot.States[1].Pending)
	assert.Equal(t, int64(900), snapshot.States[1].HospitalizedCurrently)
}

func TestCurrentFallsBackToCSVFile(t *testing.T) {
	fallback := filepath.Join(t.TempDir(), "coviddata.csv")
	require.NoError(t, os.WriteFile(fallback, []byte(feedBodyCSV), 0o644))

	c := NewClient(config.StatsConfig{
		FeedURL:      "http://127.0.0.1:1",
		FallbackFile: fallback,
	})

	snapshot, err := c.Current(context.Background())
	require.NoError(t, err)

	assert.Equal(t, SourceFallback, snapshot.Source)
	require.Len(t, snapshot.States, 2)
	assert.Equal(t, int64(45), snapshot.States[0].Death)
}

func TestDecodeStatesRejectsGarbage(t *testing.T) {
	_, err := decodeStates(nil)
	assert.Error(t, err)

	_, err = decodeStates([]byte("{not json"))
	assert.Error(t, err)

	// CSV without a state column is not the feed schema.
	_, err = decodeStates([]byte("positive,negative\n1,2\n"))
	assert.Error(t, err)
}
