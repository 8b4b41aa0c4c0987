package sink

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Coderopp/vc-thesis-scraper/internal/domain"
	"github.com/Coderopp/vc-thesis-scraper/internal/logger"
)

func csvArticle(url string) *domain.Article {
	return &domain.Article{
		SiteName:      "Peak XV",
		Title:         "From Seed to Series A",
		URL:           url,
		Body:          "A long-form essay on early-stage fundraising, with \"quotes\" and, commas.",
		PublishedDate: "2026-03-14",
		FetchedAt:     time.Date(2026, 3, 15, 9, 30, 0, 0, time.UTC),
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestAppendCreatesFileWithHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "articles.csv")
	sink := NewCSVSink(path, logger.NewNoOp())

	require.NoError(t, sink.Append([]*domain.Article{csvArticle("https://peakxv.com/blog/a")}))

	rows := readCSV(t, path)
	require.Len(t, rows, 2)
	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, []string{
		"Peak XV",
		"From Seed to Series A",
		"https://peakxv.com/blog/a",
		"A long-form essay on early-stage fundraising, with \"quotes\" and, commas.",
		"2026-03-14",
		"2026-03-15T09:30:00Z",
	}, rows[1])
}

func TestAppendWritesHeaderOnlyOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "articles.csv")
	sink := NewCSVSink(path, logger.NewNoOp())

	require.NoError(t, sink.Append([]*domain.Article{csvArticle("https://peakxv.com/blog/a")}))
	require.NoError(t, sink.Append([]*domain.Article{csvArticle("https://peakxv.com/blog/b")}))

	rows := readCSV(t, path)
	require.Len(t, rows, 3)
	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, "https://peakxv.com/blog/a", rows[1][2])
	assert.Equal(t, "https://peakxv.com/blog/b", rows[2][2])
}

func TestAppendPreservesExistingRows(t *testing.T) {
	// A pre-existing file keeps its contents; new rows only append.
	path := filepath.Join(t.TempDir(), "articles.csv")
	sink := NewCSVSink(path, logger.NewNoOp())

	require.NoError(t, sink.Append([]*domain.Article{csvArticle("https://peakxv.com/blog/a")}))
	before := readCSV(t, path)

	require.NoError(t, sink.Append([]*domain.Article{csvArticle("https://peakxv.com/blog/b")}))
	after := readCSV(t, path)

	assert.Equal(t, before, after[:len(before)])
}

func TestAppendNothingIsNoOp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "articles.csv")
	sink := NewCSVSink(path, logger.NewNoOp())

	require.NoError(t, sink.Append(nil))

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "empty append must not create the file")
}
