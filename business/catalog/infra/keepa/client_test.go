package keepa

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

func TestClient_FetchByIdentifier(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if r.URL.Path != "/product" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if q.Get("key") != "k" || q.Get("domain") != "1" || q.Get("asin") != "B0TEST0001" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{"tokensLeft": 42, "products": [{
			"asin": "B0TEST0001", "title": "Cast Iron Skillet",
			"buyBoxSellerPrice": null, "buyBoxPrice": 34.95,
			"rating": 4.7, "reviewCount": 1500, "salesRank": 850
		}]}`))
	}))
	defer server.Close()

	c, err := New(Config{BaseURL: server.URL, APIKey: "k"}, &mockLogger{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	rec, err := c.FetchByIdentifier(context.Background(), "B0TEST0001")
	if err != nil {
		t.Fatalf("FetchByIdentifier() error = %v", err)
	}
	if rec.Price.StringFixed(2) != "34.95" {
		t.Errorf("Price = %s, want buy box fallback 34.95", rec.Price)
	}
	if n, ok := rec.Rank.Value(); !ok || n != 850 {
		t.Errorf("Rank = %q", rec.Rank.Raw())
	}
	if rec.URL != "https://www.amazon.com/dp/B0TEST0001" {
		t.Errorf("URL = %q", rec.URL)
	}
	if rec.ReviewCount == nil || *rec.ReviewCount != 1500 {
		t.Errorf("ReviewCount = %v", rec.ReviewCount)
	}
}

func TestClient_FetchByKeyword(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" || r.URL.Query().Get("term") != "cast iron skillet" {
			t.Errorf("unexpected request %s", r.URL)
		}
		w.Write([]byte(`{"products": [{"asin": "B0TEST0009", "title": "Skillet", "buyBoxSellerPrice": "29.99"}]}`))
	}))
	defer server.Close()

	c, err := New(Config{BaseURL: server.URL, APIKey: "k"}, &mockLogger{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	rec, err := c.FetchByKeyword(context.Background(), "cast iron skillet")
	if err != nil {
		t.Fatalf("FetchByKeyword() error = %v", err)
	}
	if rec.ID != "B0TEST0009" || rec.Price.StringFixed(2) != "29.99" {
		t.Errorf("unexpected record %+v", rec)
	}
}

func TestClient_Failures(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind domain.FailureKind
	}{
		{"no products", 200, `{"products": []}`, domain.FailureNotFound},
		{"api error", 200, `{"error": {"type": "invalidKey", "message": "bad key"}}`, domain.FailureTransport},
		{"tokens exhausted", 429, `{"refillIn": 6000}`, domain.FailureRateLimited},
		{"not found", 404, ``, domain.FailureNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			c, err := New(Config{BaseURL: server.URL}, &mockLogger{})
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}

			_, err = c.FetchByIdentifier(context.Background(), "B0TEST0001")
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
