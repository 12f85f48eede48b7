package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fastPolicy — политика с миллисекундными задержками для тестов.
func fastPolicy(maxRetries int) Policy {
	return Policy{
		MaxRetries: maxRetries,
		BaseDelay:  time.Millisecond,
		MaxDelay:   5 * time.Millisecond,
	}
}

func TestDo_SucceedsFirstTry(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastPolicy(3), func(context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDo_RetriesUntilSuccess(t *testing.T) {
	// Падает дважды, на третьей попытке успех: ровно 3 вызова.
	calls := 0
	err := Do(context.Background(), fastPolicy(3), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected exactly 3 calls, got %d", calls)
	}
}

func TestDo_ExhaustionReturnsLastError(t *testing.T) {
	last := errors.New("attempt 3 failed")
	calls := 0
	err := Do(context.Background(), fastPolicy(3), func(context.Context) error {
		calls++
		if calls == 3 {
			return last
		}
		return errors.New("earlier failure")
	})
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
	// Последняя ошибка возвращается без обёрток
	if !errors.Is(err, last) {
		t.Errorf("expected last error, got %v", err)
	}
	if err.Error() != last.Error() {
		t.Errorf("error should not be wrapped: %v", err)
	}
}

func TestDo_NonRetryableImmediate(t *testing.T) {
	permanent := errors.New("permanent")
	policy := fastPolicy(5)
	policy.RetryIf = func(err error) bool {
		return !errors.Is(err, permanent)
	}

	calls := 0
	err := Do(context.Background(), policy, func(context.Context) error {
		calls++
		return permanent
	})
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
	if !errors.Is(err, permanent) {
		t.Errorf("expected permanent error, got %v", err)
	}
}

func TestDo_CancelDuringWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	policy := Policy{
		MaxRetries: 3,
		BaseDelay:  time.Minute, // ожидание заведомо дольше теста
		MaxDelay:   time.Minute,
	}

	calls := 0
	done := make(chan error, 1)
	go func() {
		done <- Do(ctx, policy, func(context.Context) error {
			calls++
			return errors.New("transient")
		})
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Do did not return after cancellation")
	}

	if calls != 1 {
		t.Errorf("expected 1 call before cancellation, got %d", calls)
	}
}

func TestBackoff_Bounds(t *testing.T) {
	policy := Policy{
		BaseDelay:  100 * time.Millisecond,
		MaxDelay:   time.Second,
		MaxRetries: 10,
	}

	// Ожидаемые значения до jitter: 100ms, 200ms, 400ms, 800ms, 1s, 1s...
	expected := []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
		800 * time.Millisecond,
		time.Second,
		time.Second,
	}

	for i, base := range expected {
		attempt := i + 1
		got := Backoff(attempt, policy)

		lo := time.Duration(float64(base) * 0.8)
		hi := time.Duration(float64(base) * 1.2)
		if got < lo || got > hi {
			t.Errorf("attempt %d: backoff %v outside [%v, %v]", attempt, got, lo, hi)
		}
	}
}

func TestBackoff_Jittered(t *testing.T) {
	policy := Policy{
		BaseDelay:  100 * time.Millisecond,
		MaxDelay:   time.Second,
		MaxRetries: 3,
	}

	// С jitter подряд идущие значения почти никогда не совпадают все.
	first := Backoff(1, policy)
	varied := false
	for i := 0; i < 16; i++ {
		if Backoff(1, policy) != first {
			varied = true
			break
		}
	}
	if !varied {
		t.Error("expected jitter to vary backoff durations")
	}
}

func TestPolicy_Defaults(t *testing.T) {
	p := Policy{}.normalized()
	if p.MaxRetries != DefaultMaxRetries {
		t.Errorf("expected default MaxRetries, got %d", p.MaxRetries)
	}
	if p.BaseDelay != DefaultBaseDelay {
		t.Errorf("expected default BaseDelay, got %v", p.BaseDelay)
	}
	if p.MaxDelay != DefaultMaxDelay {
		t.Errorf("expected default MaxDelay, got %v", p.MaxDelay)
	}
}
