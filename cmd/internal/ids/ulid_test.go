package ids

import (
	"testing"
	"time"
)

func TestNewULID_MonotonicWithinMillisecond(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)

	prev := ""
	for i := 0; i < 100; i++ {
		id, err := NewULID(now)
		if err != nil {
			t.Fatalf("NewULID error: %v", err)
		}
		if len(id) != 26 {
			t.Fatalf("len(id)=%d want 26", len(id))
		}
		if prev != "" && id <= prev {
			t.Fatalf("ids not increasing: %q <= %q", id, prev)
		}
		prev = id
	}
}

func TestTime_RoundTrip(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)
	id, err := NewULID(now)
	if err != nil {
		t.Fatalf("NewULID error: %v", err)
	}

	got, err := Time(id)
	if err != nil {
		t.Fatalf("Time error: %v", err)
	}
	if !got.Equal(now) {
		t.Fatalf("Time()=%v want=%v", got, now)
	}
}

func TestRequestID_Unique(t *testing.T) {
	t.Parallel()

	seen := make(map[string]struct{}, 64)
	for i := 0; i < 64; i++ {
		id := RequestID()
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate request id %q", id)
		}
		seen[id] = struct{}{}
	}
}

func TestTime_Invalid(t *testing.T) {
	t.Parallel()

	if _, err := Time("not-a-ulid"); err == nil {
		t.Fatalf("expected error")
	}
}
