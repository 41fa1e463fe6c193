package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fd1az/fba-sourcing/business/catalog/domain"
	"github.com/fd1az/fba-sourcing/internal/logger"
	"github.com/fd1az/fba-sourcing/internal/money"
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

type call struct {
	mode  domain.LookupMode
	query string
}

// fakeProvider answers from a table keyed by mode and query.
type fakeProvider struct {
	source  domain.Source
	records map[call]*domain.ProductRecord
	delay   time.Duration
	shared  bool

	mu    sync.Mutex
	calls []call
}

func newFakeProvider(source domain.Source) *fakeProvider {
	return &fakeProvider{source: source, records: map[call]*domain.ProductRecord{}}
}

func (f *fakeProvider) onID(id string, rec *domain.ProductRecord) *fakeProvider {
	f.records[call{domain.ModeIdentifier, id}] = rec
	return f
}

func (f *fakeProvider) onKeyword(text string, rec *domain.ProductRecord) *fakeProvider {
	f.records[call{domain.ModeKeyword, text}] = rec
	return f
}

func (f *fakeProvider) Source() domain.Source { return f.source }

func (f *fakeProvider) FetchByIdentifier(ctx context.Context, id string) (*domain.ProductRecord, error) {
	return f.fetch(ctx, call{domain.ModeIdentifier, id})
}

func (f *fakeProvider) FetchByKeyword(ctx context.Context, text string) (*domain.ProductRecord, error) {
	return f.fetch(ctx, call{domain.ModeKeyword, text})
}

func (f *fakeProvider) fetch(ctx context.Context, c call) (*domain.ProductRecord, error) {
	f.mu.Lock()
	f.calls = append(f.calls, c)
	f.mu.Unlock()

	if f.delay > 0 {
		// ignores ctx on purpose
		time.Sleep(f.delay)
	}
	rec, ok := f.records[c]
	if !ok {
		return nil, domain.NotFound(f.source, c.query)
	}
	cp := *rec
	return &cp, nil
}

func (f *fakeProvider) SharedQuota() bool { return f.shared }

func (f *fakeProvider) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func record(id, title, price string) *domain.ProductRecord {
	return &domain.ProductRecord{
		ID:    id,
		Title: title,
		Price: money.RequireFromString(price),
	}
}

func testConfig() ResolverConfig {
	cfg := DefaultResolverConfig()
	cfg.PostSuccessPause = 0
	cfg.CallTimeout = time.Second
	cfg.Denylist = []string{"Paperback", "kindle"}
	return cfg
}

func newTestResolver(t *testing.T, primary, secondary ProductProvider, cfg ResolverConfig, opts ...ResolverOption) *Resolver {
	t.Helper()
	r, err := NewResolver(primary, secondary, cfg, &mockLogger{}, opts...)
	if err != nil {
		t.Fatalf("NewResolver() error = %v", err)
	}
	return r
}

func TestResolver_CascadeSteps(t *testing.T) {
	tests := []struct {
		name          string
		candidate     domain.CandidateRef
		primary       func(*fakeProvider)
		secondary     func(*fakeProvider)
		wantOutcome   domain.Outcome
		wantStep      domain.Step
		wantEstimated bool
		wantID        string
	}{
		{
			name:      "primary by confirmed id",
			candidate: domain.CandidateRef{ID: "b000000001", Title: "Garlic Press"},
			primary: func(p *fakeProvider) {
				p.onID("B000000001", record("B000000001", "Garlic Press", "20"))
			},
			wantOutcome: domain.OutcomeResolved,
			wantStep:    domain.StepPrimaryByID,
			wantID:      "B000000001",
		},
		{
			name:      "estimated id used only when id is invalid",
			candidate: domain.CandidateRef{ID: "garbage", EstimatedID: "B000000002", Title: "Peeler"},
			primary: func(p *fakeProvider) {
				p.onID("B000000002", record("", "Peeler", "9.99"))
			},
			wantOutcome:   domain.OutcomeResolved,
			wantStep:      domain.StepPrimaryByEstimatedID,
			wantEstimated: true,
			wantID:        "B000000002",
		},
		{
			name:      "title lookup is estimated",
			candidate: domain.CandidateRef{ID: "B000000003", Title: "Silicone Spatula Set"},
			primary: func(p *fakeProvider) {
				p.onKeyword("Silicone Spatula Set", record("B0000000ZZ", "Silicone Spatula Set", "12"))
			},
			wantOutcome:   domain.OutcomeResolved,
			wantStep:      domain.StepPrimaryByTitle,
			wantEstimated: true,
			wantID:        "B0000000ZZ",
		},
		{
			name:      "secondary by confirmed id is not estimated",
			candidate: domain.CandidateRef{ID: "B000000004", Title: "Whisk"},
			secondary: func(p *fakeProvider) {
				p.onID("B000000004", record("B000000004", "Whisk", "7"))
			},
			wantOutcome: domain.OutcomeResolved,
			wantStep:    domain.StepSecondaryByID,
			wantID:      "B000000004",
		},
		{
			name:      "secondary by guessed id is estimated",
			candidate: domain.CandidateRef{EstimatedID: "B000000005"},
			secondary: func(p *fakeProvider) {
				p.onID("B000000005", record("B000000005", "Ladle", "7"))
			},
			wantOutcome:   domain.OutcomeResolved,
			wantStep:      domain.StepSecondaryByID,
			wantEstimated: true,
			wantID:        "B000000005",
		},
		{
			name:      "secondary keywords truncate title",
			candidate: domain.CandidateRef{Title: "One, two three four five six seven eight nine ten"},
			secondary: func(p *fakeProvider) {
				p.onKeyword("One two three four five six seven eight", record("B000000006", "Numbers", "5"))
			},
			wantOutcome:   domain.OutcomeResolved,
			wantStep:      domain.StepSecondaryByKeywords,
			wantEstimated: true,
			wantID:        "B000000006",
		},
		{
			name:        "nothing found",
			candidate:   domain.CandidateRef{ID: "B000000007", Title: "Ghost"},
			wantOutcome: domain.OutcomeSkippedNoData,
		},
		{
			name:        "invalid input",
			candidate:   domain.CandidateRef{ID: "nope", EstimatedID: "bad", Title: "   "},
			wantOutcome: domain.OutcomeSkippedInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			primary := newFakeProvider(domain.SourceSerpAPI)
			secondary := newFakeProvider(domain.SourceKeepa)
			if tt.primary != nil {
				tt.primary(primary)
			}
			if tt.secondary != nil {
				tt.secondary(secondary)
			}

			r := newTestResolver(t, primary, secondary, testConfig())
			batch, err := r.Resolve(context.Background(), []domain.CandidateRef{tt.candidate})
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if len(batch.Resolutions) != 1 {
				t.Fatalf("expected 1 resolution, got %d", len(batch.Resolutions))
			}

			res := batch.Resolutions[0]
			if res.Outcome != tt.wantOutcome {
				t.Fatalf("outcome = %s, want %s", res.Outcome, tt.wantOutcome)
			}
			if tt.wantOutcome != domain.OutcomeResolved {
				if len(batch.Records) != 0 {
					t.Errorf("expected no records, got %d", len(batch.Records))
				}
				return
			}
			if res.Step != tt.wantStep {
				t.Errorf("step = %s, want %s", res.Step, tt.wantStep)
			}
			if len(batch.Records) != 1 {
				t.Fatalf("expected 1 record, got %d", len(batch.Records))
			}
			rec := batch.Records[0]
			if rec.Estimated != tt.wantEstimated {
				t.Errorf("estimated = %v, want %v", rec.Estimated, tt.wantEstimated)
			}
			if rec.ID != tt.wantID {
				t.Errorf("id = %q, want %q", rec.ID, tt.wantID)
			}
		})
	}
}

func TestResolver_InvalidInputMakesNoCalls(t *testing.T) {
	primary := newFakeProvider(domain.SourceSerpAPI)
	secondary := newFakeProvider(domain.SourceKeepa)
	r := newTestResolver(t, primary, secondary, testConfig())

	batch, err := r.Resolve(context.Background(), []domain.CandidateRef{{ID: "x"}})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if primary.callCount()+secondary.callCount() != 0 {
		t.Error("expected no provider calls")
	}
	if batch.Stats.SkippedInvalid != 1 {
		t.Errorf("SkippedInvalid = %d, want 1", batch.Stats.SkippedInvalid)
	}
}

func TestResolver_FilteredRecordStopsCascade(t *testing.T) {
	tests := []struct {
		name   string
		rec    *domain.ProductRecord
		reason domain.DiscardReason
	}{
		{"missing price", record("B000000001", "Pan", "0"), domain.DiscardMissingPrice},
		{"missing title", record("B000000001", "  ", "10"), domain.DiscardMissingTitle},
		{"denylisted", record("B000000001", "Cookbook (PAPERBACK)", "10"), domain.DiscardDenylisted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			primary := newFakeProvider(domain.SourceSerpAPI).onID("B000000001", tt.rec)
			// would succeed if the cascade continued
			primary.onKeyword("Pan", record("B000000009", "Pan", "10"))
			secondary := newFakeProvider(domain.SourceKeepa).onID("B000000001", record("B000000001", "Pan", "10"))

			r := newTestResolver(t, primary, secondary, testConfig())
			batch, err := r.Resolve(context.Background(), []domain.CandidateRef{{ID: "B000000001", Title: "Pan"}})
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}

			if primary.callCount() != 1 || secondary.callCount() != 0 {
				t.Errorf("calls primary=%d secondary=%d, want 1/0", primary.callCount(), secondary.callCount())
			}
			if len(batch.Records) != 0 {
				t.Errorf("expected no records, got %d", len(batch.Records))
			}
			if batch.Stats.Discarded != 1 || batch.Stats.DiscardReasons[tt.reason] != 1 {
				t.Errorf("stats = %+v, want one %s discard", batch.Stats, tt.reason)
			}
		})
	}
}

func TestResolver_NoFallbackSkipsKeywordStep(t *testing.T) {
	primary := newFakeProvider(domain.SourceSerpAPI)
	secondary := newFakeProvider(domain.SourceKeepa).onKeyword("Garlic Press", record("B000000001", "Garlic Press", "10"))

	cfg := testConfig()
	cfg.NoFallback = true
	r := newTestResolver(t, primary, secondary, cfg)

	batch, err := r.Resolve(context.Background(), []domain.CandidateRef{{Title: "Garlic Press"}})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if batch.Stats.SkippedNoData != 1 {
		t.Errorf("SkippedNoData = %d, want 1", batch.Stats.SkippedNoData)
	}
	if secondary.callCount() != 0 {
		t.Errorf("secondary called %d times, want 0", secondary.callCount())
	}
}

func TestResolver_NilSecondary(t *testing.T) {
	primary := newFakeProvider(domain.SourceSerpAPI)
	r, err := NewResolver(primary, nil, testConfig(), &mockLogger{})
	if err != nil {
		t.Fatalf("NewResolver() error = %v", err)
	}

	batch, err := r.Resolve(context.Background(), []domain.CandidateRef{{ID: "B000000001", Title: "Pan"}})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got := len(batch.Resolutions[0].Attempts); got != 2 {
		t.Errorf("attempts = %d, want 2", got)
	}
}

func TestResolver_CountersAndOrder(t *testing.T) {
	primary := newFakeProvider(domain.SourceSerpAPI)
	secondary := newFakeProvider(domain.SourceKeepa)

	var candidates []domain.CandidateRef
	for i := range 40 {
		id := fmt.Sprintf("B%09d", i)
		candidates = append(candidates, domain.CandidateRef{ID: id, Title: "Item " + id})
		switch i % 4 {
		case 0:
			primary.onID(id, record(id, "Item "+id, "10"))
		case 1:
			secondary.onID(id, record(id, "Item "+id, "10"))
		case 2:
			primary.onID(id, record(id, "Kindle Edition", "10"))
		}
	}
	candidates = append(candidates, domain.CandidateRef{ID: "bad"})
	primary.delay = time.Millisecond

	cfg := testConfig()
	cfg.Workers = 8
	r := newTestResolver(t, primary, secondary, cfg)

	batch, err := r.Resolve(context.Background(), candidates)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	s := batch.Stats
	if s.Analyzed != 10 || s.FallbackSuccess != 10 || s.Discarded != 10 || s.SkippedNoData != 10 || s.SkippedInvalid != 1 {
		t.Errorf("unexpected stats %+v", s)
	}
	if s.Accepted() != len(batch.Records) {
		t.Errorf("Accepted() = %d, records = %d", s.Accepted(), len(batch.Records))
	}
	if s.Completed != len(candidates) || s.Attempted != len(candidates) {
		t.Errorf("completed=%d attempted=%d, want %d", s.Completed, s.Attempted, len(candidates))
	}

	for i := 1; i < len(batch.Resolutions); i++ {
		if batch.Resolutions[i-1].Index >= batch.Resolutions[i].Index {
			t.Fatalf("resolutions out of input order at %d", i)
		}
	}
	for i := 1; i < len(batch.Records); i++ {
		if batch.Records[i-1].ID >= batch.Records[i].ID {
			t.Fatalf("records out of input order: %s before %s", batch.Records[i-1].ID, batch.Records[i].ID)
		}
	}
}

func TestResolver_CallTimeout(t *testing.T) {
	primary := newFakeProvider(domain.SourceSerpAPI).onID("B000000001", record("B000000001", "Pan", "10"))
	primary.delay = 200 * time.Millisecond
	secondary := newFakeProvider(domain.SourceKeepa).onID("B000000001", record("B000000001", "Pan", "11"))

	cfg := testConfig()
	cfg.CallTimeout = 20 * time.Millisecond
	r := newTestResolver(t, primary, secondary, cfg)

	start := time.Now()
	batch, err := r.Resolve(context.Background(), []domain.CandidateRef{{ID: "B000000001"}})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed > 150*time.Millisecond {
		t.Errorf("resolve took %v, timeout not enforced", elapsed)
	}

	res := batch.Resolutions[0]
	if res.Step != domain.StepSecondaryByID {
		t.Fatalf("step = %s, want secondary_by_id", res.Step)
	}
	if res.Attempts[0].Failure != domain.FailureTimeout {
		t.Errorf("first attempt failure = %s, want timeout", res.Attempts[0].Failure)
	}
}

func TestResolver_PauseSkippedForSharedQuota(t *testing.T) {
	tests := []struct {
		name      string
		shared    bool
		wantPause int32
	}{
		{"unshared provider pauses", false, 3},
		{"shared quota skips pause", true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			primary := newFakeProvider(domain.SourceSerpAPI)
			primary.shared = tt.shared
			var candidates []domain.CandidateRef
			for i := range 3 {
				id := fmt.Sprintf("B%09d", i)
				primary.onID(id, record(id, "Pan", "10"))
				candidates = append(candidates, domain.CandidateRef{ID: id})
			}

			var pauses atomic.Int32
			cfg := testConfig()
			cfg.PostSuccessPause = time.Hour
			r := newTestResolver(t, primary, nil, cfg, WithPauseFunc(func(ctx context.Context, d time.Duration) error {
				pauses.Add(1)
				return nil
			}))

			if _, err := r.Resolve(context.Background(), candidates); err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if got := pauses.Load(); got != tt.wantPause {
				t.Errorf("pauses = %d, want %d", got, tt.wantPause)
			}
		})
	}
}

func TestResolver_CancellationKeepsCountersConsistent(t *testing.T) {
	primary := newFakeProvider(domain.SourceSerpAPI)
	var candidates []domain.CandidateRef
	for i := range 20 {
		id := fmt.Sprintf("B%09d", i)
		primary.onID(id, record(id, "Pan "+id, "10"))
		candidates = append(candidates, domain.CandidateRef{ID: id})
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var successes atomic.Int32
	cfg := testConfig()
	cfg.Workers = 2
	cfg.PostSuccessPause = time.Hour
	r := newTestResolver(t, primary, nil, cfg, WithPauseFunc(func(pctx context.Context, d time.Duration) error {
		if successes.Add(1) == 2 {
			cancel()
		}
		<-pctx.Done()
		return pctx.Err()
	}))

	batch, err := r.Resolve(ctx, candidates)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Resolve() error = %v, want context.Canceled", err)
	}
	if !batch.Cancelled {
		t.Error("expected Cancelled batch")
	}

	s := batch.Stats
	if s.Completed >= len(candidates) {
		t.Errorf("completed = %d, expected fewer than %d", s.Completed, len(candidates))
	}
	if s.Completed != len(batch.Resolutions) {
		t.Errorf("completed = %d, resolutions = %d", s.Completed, len(batch.Resolutions))
	}
	if s.Accepted() != len(batch.Records) {
		t.Errorf("accepted = %d, records = %d", s.Accepted(), len(batch.Records))
	}
	if s.Completed > s.Attempted {
		t.Errorf("completed %d exceeds attempted %d", s.Completed, s.Attempted)
	}
	for _, res := range batch.Resolutions {
		if res.Outcome != domain.OutcomeResolved {
			t.Errorf("unexpected outcome %s in cancelled batch", res.Outcome)
		}
	}
}

func TestNewResolver_RequiresPrimary(t *testing.T) {
	if _, err := NewResolver(nil, nil, testConfig(), &mockLogger{}); err == nil {
		t.Fatal("expected error without primary provider")
	}
}
