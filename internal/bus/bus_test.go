package bus

import (
	"testing"
	"time"
)

func TestPubSubBusDeliversToSubscribedTopics(t *testing.T) {
	b := New(nil)
	defer b.Close()

	sub := b.Subscribe("a", "b")
	b.Publish("a", 1)
	b.Publish("c", 2)
	b.Publish("b", 3)

	for _, want := range []int{1, 3} {
		select {
		case got := <-sub:
			if got != want {
				t.Fatalf("expected %d, got %v", want, got)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for %d", want)
		}
	}
}

func TestPubSubBusCloseIsIdempotent(t *testing.T) {
	b := New(nil)
	sub := b.Subscribe("a")
	b.Close()
	b.Close()

	b.Publish("a", "dropped")
	b.Unsubscribe(sub)

	select {
	case _, ok := <-sub:
		if ok {
			t.Fatalf("expected subscription to be closed")
		}
	case <-time.After(time.Second):
		t.Fatalf("subscription was not closed on shutdown")
	}
}
