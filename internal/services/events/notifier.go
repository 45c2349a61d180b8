// Package events fans item status transitions out to interested listeners.
package events

import (
	"context"
	"errors"

	"github.com/phambaophuc/masscrop/internal/models"
)

type Notifier interface {
	Notify(ctx context.Context, event models.StatusEvent) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, event models.StatusEvent) error

func (f NotifierFunc) Notify(ctx context.Context, event models.StatusEvent) error {
	return f(ctx, event)
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, models.StatusEvent) error { return nil }

// Nop discards every event.
func Nop() Notifier {
	return nopNotifier{}
}

type fanout []Notifier

func (f fanout) Notify(ctx context.Context, event models.StatusEvent) error {
	var errs []error
	for _, n := range f {
		if err := n.Notify(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Fanout delivers each event to every non-nil notifier, in order.
func Fanout(notifiers ...Notifier) Notifier {
	var f fanout
	for _, n := range notifiers {
		if n != nil {
			f = append(f, n)
		}
	}
	if len(f) == 0 {
		return Nop()
	}
	return f
}
