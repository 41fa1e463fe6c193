package serpapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fd1az/fba-sourcing/business/catalog/domain"
	"github.com/fd1az/fba-sourcing/internal/logger"
)

type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, args ...any)              {}
func (m *mockLogger) Info(ctx context.Context, msg string, args ...any)               {}
func (m *mockLogger) Warn(ctx context.Context, msg string, args ...any)               {}
func (m *mockLogger) Error(ctx context.Context, msg string, args ...any)              {}
func (m *mockLogger) Debugc(ctx context.Context, caller int, msg string, args ...any) {}
func (m *mockLogger) Infoc(ctx context.Context, caller int, msg string, args ...any)  {}
func (m *mockLogger) Warnc(ctx context.Context, caller int, msg string, args ...any)  {}
func (m *mockLogger) Errorc(ctx context.Context, caller int, msg string, args ...any) {}

var _ logger.LoggerInterface = (*mockLogger)(nil)

const productJSON = `{
  "product_results": {
    "title": "Stainless Steel Garlic Press",
    "price": {"raw": "$19.99", "value": 19.99},
    "rating": 4.6,
    "reviews": "2,315",
    "link": "https://www.amazon.com/dp/B0TEST0001"
  },
  "product_information": [
    {"title": "Item Weight", "value": "8 ounces"},
    {"title": "Best Sellers Rank", "value": "#412 in Kitchen & Dining"}
  ]
}`

const searchJSON = `{
  "organic_results": [
    {"asin": "b0test0002", "title": "Silicone Spatula", "price": "$8.49", "rating": "4.4", "reviews": 98, "link": "https://www.amazon.com/dp/B0TEST0002"},
    {"asin": "B0TEST0003", "title": "Other", "price": "$1.00"}
  ]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c, err := New(Config{BaseURL: server.URL, APIKey: "secret"}, &mockLogger{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func TestClient_FetchByIdentifier(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if r.URL.Path != "/search.json" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if q.Get("engine") != "amazon" || q.Get("type") != "product" || q.Get("asin") != "B0TEST0001" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		if q.Get("api_key") != "secret" || q.Get("amazon_domain") != "amazon.com" {
			t.Errorf("missing key or domain in %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(productJSON))
	})

	rec, err := c.FetchByIdentifier(context.Background(), "B0TEST0001")
	if err != nil {
		t.Fatalf("FetchByIdentifier() error = %v", err)
	}

	if rec.ID != "B0TEST0001" {
		t.Errorf("ID = %q", rec.ID)
	}
	if rec.Price.StringFixed(2) != "19.99" {
		t.Errorf("Price = %s", rec.Price)
	}
	if rec.Rating == nil || rec.Rating.String() != "4.6" {
		t.Errorf("Rating = %v", rec.Rating)
	}
	if rec.ReviewCount == nil || *rec.ReviewCount != 2315 {
		t.Errorf("ReviewCount = %v", rec.ReviewCount)
	}
	if n, ok := rec.Rank.Value(); !ok || n != 412 {
		t.Errorf("Rank = %q", rec.Rank.Raw())
	}
	if rec.Source != domain.SourceSerpAPI {
		t.Errorf("Source = %s", rec.Source)
	}
}

func TestClient_FetchByKeyword(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("search_term"); got != "silicone spatula" {
			t.Errorf("search_term = %q", got)
		}
		w.Write([]byte(searchJSON))
	})

	rec, err := c.FetchByKeyword(context.Background(), "silicone spatula")
	if err != nil {
		t.Fatalf("FetchByKeyword() error = %v", err)
	}
	if rec.ID != "B0TEST0002" || rec.Title != "Silicone Spatula" {
		t.Errorf("unexpected record %+v", rec)
	}
	if rec.Rank.Present() {
		t.Error("search results carry no rank")
	}
}

func TestClient_Failures(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind domain.FailureKind
	}{
		{"empty search", 200, `{"error":"Amazon hasn't returned any results for this query."}`, domain.FailureNotFound},
		{"no product", 200, `{}`, domain.FailureNotFound},
		{"invalid key", 200, `{"error":"Invalid API key."}`, domain.FailureTransport},
		{"rate limited", 429, `{"error":"quota"}`, domain.FailureRateLimited},
		{"server error", 502, `bad gateway`, domain.FailureTransport},
		{"malformed", 200, `{"product_results": [`, domain.FailureMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := c.FetchByIdentifier(context.Background(), "B0TEST0001")
			var fe *domain.FetchError
			if !errors.As(err, &fe) {
				t.Fatalf("expected *domain.FetchError, got %v", err)
			}
			if fe.Kind != tt.wantKind {
				t.Errorf("kind = %s, want %s", fe.Kind, tt.wantKind)
			}
		})
	}
}
