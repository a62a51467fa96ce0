package file

import (
	"bytes"
	"context"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close(context.Background()) })
	return s
}

func TestSetGetDelRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if _, ok, err := s.Get(ctx, "snapshot:product"); err != nil || ok {
		t.Fatalf("expected clean miss, got ok=%v err=%v", ok, err)
	}

	if err := s.Set(ctx, "snapshot:product", []byte("v1")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	b, ok, err := s.Get(ctx, "snapshot:product")
	if err != nil || !ok || !bytes.Equal(b, []byte("v1")) {
		t.Fatalf("Get = %q ok=%v err=%v", b, ok, err)
	}

	// overwrite
	if err := s.Set(ctx, "snapshot:product", []byte("v2")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if b, _, _ := s.Get(ctx, "snapshot:product"); !bytes.Equal(b, []byte("v2")) {
		t.Fatalf("overwrite lost: %q", b)
	}

	if err := s.Del(ctx, "snapshot:product"); err != nil {
		t.Fatalf("Del: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "snapshot:product"); ok {
		t.Fatalf("key survived Del")
	}
	if err := s.Del(ctx, "snapshot:product"); err != nil {
		t.Fatalf("Del of missing key: %v", err)
	}
}

func TestWatchDeliversSetAndDel(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	got := make(chan []byte, 4)
	stop, err := s.Watch("entsync:events", func(value []byte) { got <- value })
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer stop()

	if err := s.Set(ctx, "entsync:events", []byte("hello")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	select {
	case v := <-got:
		if !bytes.Equal(v, []byte("hello")) {
			t.Fatalf("delivered %q", v)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("no delivery after Set")
	}

	if err := s.Del(ctx, "entsync:events"); err != nil {
		t.Fatalf("Del: %v", err)
	}
	select {
	case v := <-got:
		if v != nil {
			t.Fatalf("expected nil for delete, got %q", v)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("no delivery after Del")
	}
}

func TestWatchIgnoresOtherKeys(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	got := make(chan []byte, 4)
	stop, err := s.Watch("entsync:events", func(value []byte) { got <- value })
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer stop()

	if err := s.Set(ctx, "snapshot:product", []byte("noise")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	select {
	case v := <-got:
		t.Fatalf("unexpected delivery %q for foreign key", v)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestUnwatchStopsDelivery(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	got := make(chan []byte, 4)
	stop, err := s.Watch("entsync:events", func(value []byte) { got <- value })
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	stop()

	if err := s.Set(ctx, "entsync:events", []byte("late")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	select {
	case v := <-got:
		t.Fatalf("unexpected delivery %q after unwatch", v)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestFileNameFlattensKeys(t *testing.T) {
	if got := fileName("snapshot:a/b"); got != "snapshot_a_b" {
		t.Fatalf("fileName = %q", got)
	}
}
