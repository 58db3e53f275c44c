package relay

import (
	"errors"
	"testing"
)

// Tests share process-wide channel state, so each test binds to its own
// channel name.

func newTestEmitter(t *testing.T, opts ...Option) *Emitter {
	t.Helper()
	return New(append([]Option{WithChannel("test." + t.Name())}, opts...)...)
}

func TestNew(t *testing.T) {
	e := newTestEmitter(t)
	if e == nil {
		t.Fatal("New() returned nil")
	}
	if e.All() == nil {
		t.Fatal("All() returned nil registry")
	}
	if e.Channel() != "test."+t.Name() {
		t.Errorf("unexpected channel %q", e.Channel())
	}
}

func TestNew_DefaultChannel(t *testing.T) {
	e := New()
	if e.Channel() != DefaultChannel {
		t.Errorf("expected channel %q, got %q", DefaultChannel, e.Channel())
	}
	if New().All() != e.All() {
		t.Error("expected default-channel emitters to share one registry")
	}
}

func TestOn_NilHandler(t *testing.T) {
	e := newTestEmitter(t)
	if _, err := e.On("x", nil); err != ErrNilHandler {
		t.Errorf("expected ErrNilHandler, got %v", err)
	}
}

func TestOn_EmptyType(t *testing.T) {
	e := newTestEmitter(t)
	if _, err := e.On("", func(any) error { return nil }); err != ErrEmptyType {
		t.Errorf("expected ErrEmptyType, got %v", err)
	}
}

func TestEmit_RegistrationOrder(t *testing.T) {
	e := newTestEmitter(t)

	var order []string
	handler := func(name string) Handler {
		return func(event any) error {
			order = append(order, name)
			if event != "v" {
				t.Errorf("handler %s got %v, want v", name, event)
			}
			return nil
		}
	}

	for _, name := range []string{"h1", "h2", "h3"} {
		if _, err := e.On("x", handler(name)); err != nil {
			t.Fatalf("On(%s) failed: %v", name, err)
		}
	}

	if err := e.Emit("x", "v"); err != nil {
		t.Fatalf("Emit() failed: %v", err)
	}

	want := []string{"h1", "h2", "h3"}
	if len(order) != len(want) {
		t.Fatalf("expected %d invocations, got %d", len(want), len(order))
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("invocation %d: expected %s, got %s", i, want[i], order[i])
		}
	}
}

func TestEmit_WildcardAfterTyped(t *testing.T) {
	e := newTestEmitter(t)

	var order []string
	e.OnAll(func(eventType string, event any) error {
		if eventType != "x" || event != "v" {
			t.Errorf("wildcard got (%q, %v), want (x, v)", eventType, event)
		}
		order = append(order, "wildcard")
		return nil
	})
	e.On("x", func(event any) error {
		order = append(order, "typed")
		return nil
	})

	if err := e.Emit("x", "v"); err != nil {
		t.Fatalf("Emit() failed: %v", err)
	}

	// The wildcard registered first but must still run last.
	if len(order) != 2 || order[0] != "typed" || order[1] != "wildcard" {
		t.Errorf("expected [typed wildcard], got %v", order)
	}
}

func TestEmit_WildcardLiteralNotFireAll(t *testing.T) {
	e := newTestEmitter(t)

	typedCalls := 0
	wildCalls := 0
	e.On("x", func(any) error { typedCalls++; return nil })
	e.OnAll(func(string, any) error { wildCalls++; return nil })

	if err := e.Emit(Wildcard, "v"); err != nil {
		t.Fatalf("Emit(*) failed: %v", err)
	}

	if typedCalls != 0 {
		t.Errorf("emitting %q reached a typed handler", Wildcard)
	}
	if wildCalls != 1 {
		t.Errorf("expected 1 wildcard invocation, got %d", wildCalls)
	}
	if v, ok := e.All().Last(Wildcard); !ok || v != "v" {
		t.Errorf("expected cached value under %q, got (%v, %v)", Wildcard, v, ok)
	}
}

func TestOn_Replay(t *testing.T) {
	e := newTestEmitter(t)

	if err := e.Emit("x", 42); err != nil {
		t.Fatalf("Emit() failed: %v", err)
	}

	var got []any
	if _, err := e.On("x", func(event any) error {
		got = append(got, event)
		return nil
	}); err != nil {
		t.Fatalf("On() failed: %v", err)
	}

	if len(got) != 1 || got[0] != 42 {
		t.Fatalf("expected immediate replay of 42, got %v", got)
	}

	if err := e.Emit("x", 7); err != nil {
		t.Fatalf("Emit() failed: %v", err)
	}
	if len(got) != 2 || got[1] != 7 {
		t.Fatalf("expected second delivery of 7, got %v", got)
	}
}

func TestOn_ReplaySuppressed(t *testing.T) {
	e := newTestEmitter(t)
	e.Emit("x", 42)

	calls := 0
	e.On("x", func(any) error { calls++; return nil }, WithoutReplay())

	if calls != 0 {
		t.Fatalf("expected no replay, got %d invocations", calls)
	}

	e.Emit("x", 7)
	if calls != 1 {
		t.Fatalf("expected 1 invocation after emit, got %d", calls)
	}
}

func TestOn_NoReplayWithoutPriorEmit(t *testing.T) {
	e := newTestEmitter(t)

	calls := 0
	e.On("x", func(any) error { calls++; return nil })
	if calls != 0 {
		t.Errorf("handler invoked with no cached value")
	}
}

func TestOn_ReplayError(t *testing.T) {
	e := newTestEmitter(t)
	e.Emit("x", 1)

	boom := errors.New("boom")
	sub, err := e.On("x", func(any) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected replay error, got %v", err)
	}
	var herr *HandlerError
	if !errors.As(err, &herr) || !herr.Replay {
		t.Fatalf("expected replay HandlerError, got %#v", err)
	}
	if sub == nil || !sub.IsActive() {
		t.Error("handler should stay registered after a replay error")
	}
}

func TestOff(t *testing.T) {
	e := newTestEmitter(t)

	calls := 0
	sub, _ := e.On("x", func(any) error { calls++; return nil })

	if err := e.Off(sub); err != nil {
		t.Fatalf("Off() failed: %v", err)
	}
	e.Emit("x", "v")
	if calls != 0 {
		t.Errorf("removed handler was invoked %d times", calls)
	}
}

func TestOff_NotFound(t *testing.T) {
	e := newTestEmitter(t)

	keep := 0
	e.On("x", func(any) error { keep++; return nil })

	sub, _ := e.On("x", func(any) error { return nil })
	if err := e.Off(sub); err != nil {
		t.Fatalf("Off() failed: %v", err)
	}
	// Second removal must be a no-op, never touching another entry.
	if err := e.Off(sub); err != ErrSubscriptionNotFound {
		t.Errorf("expected ErrSubscriptionNotFound, got %v", err)
	}

	e.Emit("x", "v")
	if keep != 1 {
		t.Errorf("unrelated handler affected by double Off: %d invocations", keep)
	}
}

func TestOff_OtherChannelLeavesSubscriptionAlive(t *testing.T) {
	home := New(WithChannel("test." + t.Name() + ".home"))
	other := New(WithChannel("test." + t.Name() + ".other"))

	calls := 0
	sub, _ := home.On("x", func(any) error { calls++; return nil })

	// The subscription lives on home's registry; other's Off must refuse it
	// without touching its state.
	if err := other.Off(sub); err != ErrSubscriptionNotFound {
		t.Fatalf("expected ErrSubscriptionNotFound, got %v", err)
	}
	if !sub.IsActive() {
		t.Error("failed Off on another channel cancelled the subscription")
	}

	home.Emit("x", 1)
	if calls != 1 {
		t.Errorf("handler invoked %d times after failed cross-channel Off, want 1", calls)
	}
}

func TestOn_WildcardTypeRejected(t *testing.T) {
	e := newTestEmitter(t)
	if _, err := e.On(Wildcard, func(any) error { return nil }); err != ErrWildcardType {
		t.Errorf("expected ErrWildcardType, got %v", err)
	}
	if e.All().CountByType(Wildcard) != 0 {
		t.Error("rejected wildcard registration left an entry behind")
	}
}

func TestOff_Nil(t *testing.T) {
	e := newTestEmitter(t)
	if err := e.Off(nil); err != ErrInvalidSubscription {
		t.Errorf("expected ErrInvalidSubscription, got %v", err)
	}
}

func TestOn_DuplicateHandlerIndependentEntries(t *testing.T) {
	e := newTestEmitter(t)

	calls := 0
	h := func(any) error { calls++; return nil }

	sub1, _ := e.On("x", h)
	sub2, _ := e.On("x", h)
	if sub1.ID() == sub2.ID() {
		t.Fatal("duplicate registrations must produce distinct subscriptions")
	}

	e.Emit("x", "v")
	if calls != 2 {
		t.Fatalf("expected 2 invocations, got %d", calls)
	}

	if err := e.Off(sub1); err != nil {
		t.Fatalf("Off(sub1) failed: %v", err)
	}
	calls = 0
	e.Emit("x", "v")
	if calls != 1 {
		t.Fatalf("expected 1 invocation after removing one entry, got %d", calls)
	}
}

func TestChannel_Aliasing(t *testing.T) {
	name := "test." + t.Name()
	a := New(WithChannel(name))
	b := New(WithChannel(name))

	calls := 0
	a.On("x", func(any) error { calls++; return nil })
	b.Emit("x", "v")

	if calls != 1 {
		t.Errorf("expected delivery across handles of one channel, got %d", calls)
	}
	if a.All() != b.All() {
		t.Error("expected both handles to share one registry")
	}
}

func TestChannel_Isolation(t *testing.T) {
	a := New(WithChannel("test." + t.Name() + ".a"))
	b := New(WithChannel("test." + t.Name() + ".b"))

	calls := 0
	a.On("x", func(any) error { calls++; return nil })
	a.Emit("x", 1)
	b.Emit("x", 2)

	if calls != 1 {
		t.Errorf("expected 1 invocation, got %d", calls)
	}

	// The cache is per-channel too.
	bCalls := 0
	b.On("x", func(event any) error {
		bCalls++
		if event != 2 {
			t.Errorf("replay leaked across channels: got %v", event)
		}
		return nil
	})
	if bCalls != 1 {
		t.Errorf("expected replay of channel b's own cache, got %d invocations", bCalls)
	}
}

func TestEmit_ReentrantOn(t *testing.T) {
	e := newTestEmitter(t)

	lateCalls := 0
	e.On("x", func(any) error {
		_, err := e.On("x", func(any) error { lateCalls++; return nil }, WithoutReplay())
		return err
	})

	e.Emit("x", "v")
	if lateCalls != 0 {
		t.Fatalf("handler registered mid-dispatch ran in the same emission")
	}

	e.Emit("x", "v")
	if lateCalls != 1 {
		t.Fatalf("expected 1 invocation on the next emission, got %d", lateCalls)
	}
}

func TestEmit_ReentrantOff(t *testing.T) {
	e := newTestEmitter(t)

	var secondSub Subscription
	secondCalls := 0
	e.On("x", func(any) error {
		return e.Off(secondSub)
	})
	secondSub, _ = e.On("x", func(any) error { secondCalls++; return nil })

	// The invocation set is fixed at snapshot time, so the second handler
	// still runs in the emission that removed it.
	e.Emit("x", "v")
	if secondCalls != 1 {
		t.Errorf("expected snapshot to deliver to removed handler once, got %d", secondCalls)
	}

	e.Emit("x", "v")
	if secondCalls != 1 {
		t.Errorf("removed handler ran in a later emission")
	}
}

func TestEmit_HandlerErrorAbortsPass(t *testing.T) {
	e := newTestEmitter(t)

	boom := errors.New("boom")
	afterCalls := 0
	wildCalls := 0
	e.On("x", func(any) error { return boom })
	e.On("x", func(any) error { afterCalls++; return nil })
	e.OnAll(func(string, any) error { wildCalls++; return nil })

	err := e.Emit("x", "v")
	if !errors.Is(err, boom) {
		t.Fatalf("expected handler error to propagate, got %v", err)
	}
	if afterCalls != 0 || wildCalls != 0 {
		t.Errorf("handlers after the failure ran: typed=%d wildcard=%d", afterCalls, wildCalls)
	}

	// The aborted pass must not update the cache.
	if _, ok := e.All().Last("x"); ok {
		t.Error("cache written despite aborted emission")
	}
}

func TestEmit_CacheWrittenWithoutSubscribers(t *testing.T) {
	e := newTestEmitter(t)

	if err := e.Emit("x", 42); err != nil {
		t.Fatalf("Emit() failed: %v", err)
	}
	v, ok := e.All().Last("x")
	if !ok || v != 42 {
		t.Errorf("expected cached 42, got (%v, %v)", v, ok)
	}

	e.Emit("x", 7)
	if v, _ := e.All().Last("x"); v != 7 {
		t.Errorf("expected cache overwrite to 7, got %v", v)
	}
}

func TestEmit_PanicPropagatesByDefault(t *testing.T) {
	e := newTestEmitter(t)
	e.On("x", func(any) error { panic("boom") })

	defer func() {
		if recover() == nil {
			t.Error("expected panic to propagate out of Emit")
		}
	}()
	e.Emit("x", "v")
}

func TestEmit_WithRecovery(t *testing.T) {
	var reportedType string
	var reportedValue any
	e := newTestEmitter(t, WithRecovery(func(eventType string, event any, recovered any, stack []byte) {
		reportedType = eventType
		reportedValue = recovered
		if len(stack) == 0 {
			t.Error("expected a captured stack")
		}
	}))

	afterCalls := 0
	e.On("x", func(any) error { panic("boom") })
	e.On("x", func(any) error { afterCalls++; return nil })

	if err := e.Emit("x", "v"); err != nil {
		t.Fatalf("Emit() failed: %v", err)
	}
	if afterCalls != 1 {
		t.Errorf("expected the pass to continue after a recovered panic")
	}
	if reportedType != "x" || reportedValue != "boom" {
		t.Errorf("panic report got (%q, %v)", reportedType, reportedValue)
	}

	// A completed pass updates the cache even when a handler panicked.
	if v, ok := e.All().Last("x"); !ok || v != "v" {
		t.Errorf("expected cached value after recovered pass, got (%v, %v)", v, ok)
	}
}

func TestEmit_EmptyType(t *testing.T) {
	e := newTestEmitter(t)
	if err := e.Emit("", "v"); err != ErrEmptyType {
		t.Errorf("expected ErrEmptyType, got %v", err)
	}
}

func TestOnce(t *testing.T) {
	e := newTestEmitter(t)

	calls := 0
	e.On("x", func(any) error { calls++; return nil }, WithOnce())

	e.Emit("x", 1)
	e.Emit("x", 2)
	if calls != 1 {
		t.Fatalf("expected once handler to run once, got %d", calls)
	}
	if e.All().CountByType("x") != 0 {
		t.Error("once entry not removed from the registry")
	}
}

func TestOnce_ReplayCountsAsDelivery(t *testing.T) {
	e := newTestEmitter(t)
	e.Emit("x", 1)

	calls := 0
	e.On("x", func(any) error { calls++; return nil }, WithOnce())
	if calls != 1 {
		t.Fatalf("expected replay delivery, got %d", calls)
	}

	e.Emit("x", 2)
	if calls != 1 {
		t.Errorf("once handler ran after being consumed by replay")
	}
}

func TestWithFilter(t *testing.T) {
	e := newTestEmitter(t)

	var got []any
	e.On("x", func(event any) error {
		got = append(got, event)
		return nil
	}, WithFilter(FilterPayload(func(n int) bool { return n > 10 })))

	e.Emit("x", 5)
	e.Emit("x", 50)
	e.Emit("x", "not an int")

	if len(got) != 1 || got[0] != 50 {
		t.Errorf("expected only 50 to pass the filter, got %v", got)
	}
}

func TestWithFilter_GatesReplay(t *testing.T) {
	e := newTestEmitter(t)
	e.Emit("x", 5)

	calls := 0
	e.On("x", func(any) error { calls++; return nil },
		WithFilter(FilterPayload(func(n int) bool { return n > 10 })))
	if calls != 0 {
		t.Errorf("filtered cached value was replayed")
	}
}

func TestStats(t *testing.T) {
	e := newTestEmitter(t)

	e.Emit("x", 1)
	e.On("x", func(any) error { return nil }) // replay
	e.Emit("x", 2)
	e.On("y", func(any) error { return errors.New("bad") }, WithoutReplay())
	e.Emit("y", 3)

	stats := e.Stats()
	if stats.Emitted != 3 {
		t.Errorf("Emitted = %d, want 3", stats.Emitted)
	}
	if stats.Replayed != 1 {
		t.Errorf("Replayed = %d, want 1", stats.Replayed)
	}
	if stats.Delivered != 2 {
		t.Errorf("Delivered = %d, want 2", stats.Delivered)
	}
	if stats.HandlerErrors != 1 {
		t.Errorf("HandlerErrors = %d, want 1", stats.HandlerErrors)
	}
	if stats.Subscriptions != 2 {
		t.Errorf("Subscriptions = %d, want 2", stats.Subscriptions)
	}
}
