package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/agentvault/agentvault/internal/logging"
)

func TestRedisSinkPublishes(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer mr.Close()

	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer cache.Close()

	ctx := context.Background()
	sub := cache.Subscribe(ctx, Channel)
	defer sub.Close()

	// Wait for the subscription to be active before publishing.
	if _, err := sub.Receive(ctx); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	sink := NewRedisSink(cache, logging.Discard())
	sink.Emit(ctx, Event{
		Kind:       KindPurchaseExecuted,
		Fund:       "0x1111111111111111111111111111111111111111",
		Bot:        "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		Amount:     150_000000,
		Fee:        3_000000,
		PurchaseID: 1,
		Timestamp:  1756464000,
	})

	select {
	case msg := <-sub.Channel():
		var got Event
		if err := json.Unmarshal([]byte(msg.Payload), &got); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		if got.Kind != KindPurchaseExecuted {
			t.Fatalf("expected kind %q got %q", KindPurchaseExecuted, got.Kind)
		}
		if got.Amount != 150_000000 || got.Fee != 3_000000 {
			t.Fatalf("unexpected amounts: %+v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
	}
}

func TestMultiFansOut(t *testing.T) {
	var a, b captureSink
	m := Multi{&a, &b}
	m.Emit(context.Background(), Event{Kind: KindDeposited})

	if len(a.events) != 1 || len(b.events) != 1 {
		t.Fatalf("expected both sinks to receive the event, got %d and %d", len(a.events), len(b.events))
	}
}

type captureSink struct {
	events []Event
}

func (c *captureSink) Emit(_ context.Context, e Event) {
	c.events = append(c.events, e)
}
