package events

import (
	"context"
	"errors"
	"testing"

	"github.com/phambaophuc/masscrop/internal/models"
)

func TestFanout_DeliversToEveryNotifier(t *testing.T) {
	var got []string
	record := func(name string) Notifier {
		return NotifierFunc(func(_ context.Context, e models.StatusEvent) error {
			got = append(got, name+":"+e.Status)
			return nil
		})
	}

	n := Fanout(record("a"), nil, record("b"))
	if err := n.Notify(context.Background(), models.StatusEvent{Status: models.StatusCompleted}); err != nil {
		t.Fatalf("Notify failed: %v", err)
	}

	if len(got) != 2 || got[0] != "a:completed" || got[1] != "b:completed" {
		t.Errorf("Unexpected deliveries %v", got)
	}
}

func TestFanout_JoinsErrors(t *testing.T) {
	boom := errors.New("boom")
	delivered := false

	n := Fanout(
		NotifierFunc(func(context.Context, models.StatusEvent) error { return boom }),
		NotifierFunc(func(context.Context, models.StatusEvent) error { delivered = true; return nil }),
	)

	err := n.Notify(context.Background(), models.StatusEvent{})
	if !errors.Is(err, boom) {
		t.Errorf("Expected joined error, got %v", err)
	}
	if !delivered {
		t.Error("Expected later notifiers to run after a failure")
	}
}

func TestFanout_EmptyIsNop(t *testing.T) {
	if err := Fanout().Notify(context.Background(), models.StatusEvent{}); err != nil {
		t.Errorf("Expected nil, got %v", err)
	}
}

func TestRoutingKey(t *testing.T) {
	key := RoutingKey(models.StatusEvent{SessionID: "s1", Status: models.StatusError})
	if key != "s1.error" {
		t.Errorf("Unexpected routing key %q", key)
	}
}

func TestPublisher_HealthCheckWithoutBroker(t *testing.T) {
	var p *Publisher
	if got := p.HealthCheck(); got != "not configured" {
		t.Errorf("Expected not configured, got %q", got)
	}
}
