package sink

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	es "github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/Coderopp/vc-thesis-scraper/internal/domain"
	"github.com/Coderopp/vc-thesis-scraper/internal/state"
	loggermocks "github.com/Coderopp/vc-thesis-scraper/testutils/mocks/logger"
)

// mockTransport implements http.RoundTripper for mocking Elasticsearch responses
type mockTransport struct {
	RoundTripFn func(req *http.Request) (*http.Response, error)
}

func (t *mockTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.RoundTripFn(req)
}

// setupMockClient creates a new Elasticsearch client with mock transport
func setupMockClient(transport http.RoundTripper) (*es.Client, error) {
	return es.NewClient(es.Config{
		Transport: transport,
	})
}

func esResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     http.Header{"X-Elastic-Product": []string{"Elasticsearch"}},
	}
}

func TestExistsNotIndexed(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	transport := &mockTransport{
		RoundTripFn: func(req *http.Request) (*http.Response, error) {
			return esResponse(http.StatusNotFound, ""), nil
		},
	}
	client, err := setupMockClient(transport)
	require.NoError(t, err)

	s := &ElasticSink{client: client, index: "vc-articles", logger: loggermocks.NewMockInterface(ctrl)}

	found, err := s.Exists(context.Background(), "deadbeef")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestExistsIndexed(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	var gotPath string
	transport := &mockTransport{
		RoundTripFn: func(req *http.Request) (*http.Response, error) {
			gotPath = req.URL.Path
			return esResponse(http.StatusOK, ""), nil
		},
	}
	client, err := setupMockClient(transport)
	require.NoError(t, err)

	s := &ElasticSink{client: client, index: "vc-articles", logger: loggermocks.NewMockInterface(ctrl)}

	found, err := s.Exists(context.Background(), "deadbeef")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "/vc-articles/_doc/deadbeef", gotPath)
}

func TestCreateIndexesByFingerprint(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	article := &domain.Article{
		SiteName:      "Accel India",
		Title:         "Our investment in Acme",
		URL:           "https://www.accel.com/noteworthy/acme",
		Body:          "We are excited to lead the Series A in Acme, a fintech startup.",
		PublishedDate: "2026-08-01",
		FetchedAt:     time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC),
	}
	fingerprint := state.Fingerprint(article.Title, article.URL, article.Body)

	var gotReq *http.Request
	var gotBody []byte
	transport := &mockTransport{
		RoundTripFn: func(req *http.Request) (*http.Response, error) {
			gotReq = req
			gotBody, _ = io.ReadAll(req.Body)
			return esResponse(http.StatusCreated, `{"result":"created"}`), nil
		},
	}
	client, err := setupMockClient(transport)
	require.NoError(t, err)

	mockLogger := loggermocks.NewMockInterface(ctrl)
	mockLogger.EXPECT().Debug("Indexed article", "index", "vc-articles", "doc_id", fingerprint)

	s := &ElasticSink{client: client, index: "vc-articles", logger: mockLogger}

	id, err := s.Create(context.Background(), article)
	require.NoError(t, err)
	assert.Equal(t, fingerprint, id)

	require.NotNil(t, gotReq)
	assert.Equal(t, "/vc-articles/_doc/"+fingerprint, gotReq.URL.Path)
	assert.Contains(t, string(gotBody), `"site_name":"Accel India"`)
	assert.Contains(t, string(gotBody), `"company":`)
}

func TestCreateServerError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	transport := &mockTransport{
		RoundTripFn: func(req *http.Request) (*http.Response, error) {
			return esResponse(http.StatusInternalServerError, `{"error":"boom"}`), nil
		},
	}
	client, err := setupMockClient(transport)
	require.NoError(t, err)

	s := &ElasticSink{client: client, index: "vc-articles", logger: loggermocks.NewMockInterface(ctrl)}

	_, err = s.Create(context.Background(), &domain.Article{
		Title: "t", URL: "https://x.example/p", Body: "b",
	})
	assert.Error(t, err)
}
