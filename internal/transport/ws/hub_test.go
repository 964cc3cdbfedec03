package ws

import (
	"testing"
	"time"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestHubBroadcastReachesSessionObservers(t *testing.T) {
	h := NewHub()
	go h.Run()

	watcher := h.NewConnection(nil, "s1")
	h.Register(watcher)
	bystander := h.NewConnection(nil, "s2")
	h.Register(bystander)

	waitFor(t, func() bool { return h.ConnectionCount() == 2 })

	h.Broadcast("s1", []byte("hello"))

	select {
	case data := <-watcher.Send:
		if string(data) != "hello" {
			t.Fatalf("unexpected payload: %s", data)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not receive broadcast")
	}

	select {
	case data := <-bystander.Send:
		t.Fatalf("bystander received foreign session data: %s", data)
	default:
	}
}

func TestHubUnregisterRemovesObserver(t *testing.T) {
	h := NewHub()
	go h.Run()

	conn := h.NewConnection(nil, "s1")
	h.Register(conn)
	waitFor(t, func() bool { return h.HasObservers("s1") })

	h.Unregister(conn)
	waitFor(t, func() bool { return !h.HasObservers("s1") })

	if _, ok := <-conn.Send; ok {
		t.Fatal("expected send channel to be closed")
	}
}

func TestHubDropsSlowObserver(t *testing.T) {
	h := NewHub()
	go h.Run()

	conn := h.NewConnection(nil, "s1")
	h.Register(conn)
	waitFor(t, func() bool { return h.HasObservers("s1") })

	// Never read from Send; once the buffer fills the hub must drop the
	// observer instead of blocking the stream.
	for i := 0; i < cap(conn.Send)+16; i++ {
		h.Broadcast("s1", []byte("x"))
	}

	waitFor(t, func() bool { return !h.HasObservers("s1") })
}
