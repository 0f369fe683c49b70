package scraper

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testutilCounter(t *testing.T, s *Stats, name, label string) float64 {
	t.Helper()
	m := s.Metrics()
	switch name {
	case "scraper_errors_total":
		return testutil.ToFloat64(m.ErrorsTotal.WithLabelValues(label))
	case "scraper_warnings_total":
		return testutil.ToFloat64(m.WarningsTotal.WithLabelValues(label))
	case "scraper_entities_found_total":
		return testutil.ToFloat64(m.EntitiesFound.WithLabelValues(label))
	}
	t.Fatalf("unknown metric %s", name)
	return 0
}

func TestStatsCounters(t *testing.T) {
	s := NewStats("product", "https://shop.example.com/p/1")
	s.PageFetched(0, 2048, nil)
	s.AddItems(1)
	s.AddEntities(entityImages, 4)
	s.AddEntities(entityReviews, 0)
	s.Warning("price")
	s.Warning("price")
	s.Error("timeout")

	snap := s.Snapshot()
	assert.Equal(t, 1, snap.PagesVisited)
	assert.EqualValues(t, 2048, snap.BytesDownloaded)
	assert.Equal(t, 4, snap.ImagesFound)
	assert.Zero(t, snap.ReviewsFound)
	assert.Equal(t, 2, snap.Warnings)
	assert.Equal(t, 1, snap.Errors)

	assert.Equal(t, 2.0, testutilCounter(t, s, "scraper_warnings_total", "price"))
	assert.Equal(t, 4.0, testutilCounter(t, s, "scraper_entities_found_total", entityImages))
	assert.Equal(t, 2048.0, testutil.ToFloat64(s.Metrics().BytesDownloaded))
}

func TestStatsFinalizeOnce(t *testing.T) {
	s := NewStats("content", "https://example.com")
	first := s.Finalize()
	second := s.Finalize()
	assert.Equal(t, first.EndTime, second.EndTime)
	assert.GreaterOrEqual(t, first.ElapsedSeconds, 0.0)
	assert.NotEmpty(t, first.RunID)
}

func TestWriteMetricsFile(t *testing.T) {
	s := NewStats("content", "https://example.com")
	s.AddItems(3)
	path := filepath.Join(t.TempDir(), "scraper.prom")
	require.NoError(t, s.WriteMetricsFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `scraper_items_scraped_total{scraper="content"} 3`))
}
