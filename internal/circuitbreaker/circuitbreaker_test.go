package circuitbreaker_test

import (
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/fd1az/fba-sourcing/internal/circuitbreaker"
)

func TestCircuitBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	cfg := circuitbreaker.DefaultConfig("test")
	cfg.ConsecutiveFailures = 2
	cfg.Timeout = time.Hour

	var transitions []gobreaker.State
	cfg.OnStateChange = func(_ string, _, to gobreaker.State) {
		transitions = append(transitions, to)
	}

	cb := circuitbreaker.New[int](cfg)
	boom := errors.New("boom")

	for i := 0; i < 2; i++ {
		if _, err := cb.Execute(func() (int, error) { return 0, boom }); !errors.Is(err, boom) {
			t.Fatalf("call %d: expected wrapped error, got %v", i, err)
		}
	}

	if !cb.IsOpen() {
		t.Fatalf("expected open breaker, state=%s", cb.State())
	}

	called := false
	_, err := cb.Execute(func() (int, error) {
		called = true
		return 1, nil
	})
	if called {
		t.Fatal("open breaker must not invoke the call")
	}
	if !circuitbreaker.IsRejection(err) {
		t.Fatalf("expected rejection error, got %v", err)
	}
	if len(transitions) != 1 || transitions[0] != gobreaker.StateOpen {
		t.Fatalf("unexpected transitions %v", transitions)
	}
}

func TestCircuitBreaker_IgnoresSuccessfulErrors(t *testing.T) {
	notFound := errors.New("not found")

	cfg := circuitbreaker.DefaultConfig("test")
	cfg.ConsecutiveFailures = 1
	cfg.IsSuccessful = func(err error) bool {
		return err == nil || errors.Is(err, notFound)
	}
	cb := circuitbreaker.New[int](cfg)

	for i := 0; i < 3; i++ {
		_, _ = cb.Execute(func() (int, error) { return 0, notFound })
	}

	if cb.IsOpen() {
		t.Fatal("errors treated as successful must not trip the breaker")
	}
}
