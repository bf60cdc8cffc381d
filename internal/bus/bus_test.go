package bus

import (
	"errors"
	"testing"

	"cargodesk/pkg/logger"
)

func TestPublishDeliversToTopicAndWildcard(t *testing.T) {
	b := New(logger.Nop())

	var topicGot, allGot []Event
	b.Subscribe("customers", func(e Event) error {
		topicGot = append(topicGot, e)
		return nil
	})
	b.Subscribe(TopicAll, func(e Event) error {
		allGot = append(allGot, e)
		return nil
	})

	b.Publish("customers", "create", "payload-1")
	b.Publish("vendors", "create", "payload-2")

	if len(topicGot) != 1 {
		t.Fatalf("topic subscriber got %d events, want 1", len(topicGot))
	}
	if topicGot[0].Action != "create" || topicGot[0].Payload != "payload-1" {
		t.Errorf("unexpected event %+v", topicGot[0])
	}
	if len(allGot) != 2 {
		t.Fatalf("wildcard subscriber got %d events, want 2", len(allGot))
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := New(logger.Nop())

	count := 0
	unsub := b.Subscribe("orders", func(Event) error {
		count++
		return nil
	})

	b.Publish("orders", "create", nil)
	unsub()
	b.Publish("orders", "create", nil)

	if count != 1 {
		t.Errorf("got %d deliveries, want 1", count)
	}
	if got := b.SubscriberCount("orders"); got != 0 {
		t.Errorf("SubscriberCount = %d, want 0", got)
	}
}

func TestNestedPublishIsSuppressed(t *testing.T) {
	b := New(logger.Nop())

	inner := 0
	b.Subscribe("orders", func(Event) error {
		// A subscriber reacting by publishing must not start a storm.
		b.Publish("shipments", "create", nil)
		return nil
	})
	b.Subscribe("shipments", func(Event) error {
		inner++
		return nil
	})

	b.Publish("orders", "update", nil)

	if inner != 0 {
		t.Errorf("nested publish was delivered %d times, want 0", inner)
	}
	if got := b.Suppressed(); got != 1 {
		t.Errorf("Suppressed = %d, want 1", got)
	}
}

func TestGuardReleasesWhenOuterPublishReturns(t *testing.T) {
	b := New(logger.Nop())

	b.Subscribe("orders", func(Event) error {
		b.Publish("orders", "nested", nil) // suppressed
		return nil
	})

	got := 0
	b.Subscribe("shipments", func(Event) error {
		got++
		return nil
	})

	b.Publish("orders", "update", nil)
	// The outer publish returned, so the guard must be clear again.
	b.Publish("shipments", "create", nil)

	if got != 1 {
		t.Errorf("post-burst publish delivered %d times, want 1", got)
	}
}

func TestSubscriberErrorAndPanicAreContained(t *testing.T) {
	b := New(logger.Nop())

	order := []string{}
	b.Subscribe("t", func(Event) error {
		order = append(order, "failing")
		return errors.New("boom")
	})
	b.Subscribe("t", func(Event) error {
		order = append(order, "panicking")
		panic("boom")
	})
	b.Subscribe("t", func(Event) error {
		order = append(order, "healthy")
		return nil
	})

	b.Publish("t", "a", nil)

	if len(order) != 3 || order[2] != "healthy" {
		t.Errorf("delivery order = %v, want all three in subscription order", order)
	}
}
