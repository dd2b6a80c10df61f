// Package notifier delivers job lifecycle events to observers. Delivery is
// fire-and-forget from the queue's point of view: a failing sink never
// changes job processing.
package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ncobase/jobqueue/job/structs"
)

// Notifier receives job lifecycle events
type Notifier interface {
	Notify(ctx context.Context, event *structs.Event) error
}

// Func adapts a function to Notifier
type Func func(ctx context.Context, event *structs.Event) error

func (f Func) Notify(ctx context.Context, event *structs.Event) error {
	return f(ctx, event)
}

// Multi fans an event out to every notifier and joins their errors
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, event *structs.Event) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Combine returns a single notifier for ns, skipping nil entries. It returns
// nil when nothing is left.
func Combine(ns ...Notifier) Notifier {
	var m Multi
	for _, n := range ns {
		if n != nil {
			m = append(m, n)
		}
	}
	switch len(m) {
	case 0:
		return nil
	case 1:
		return m[0]
	default:
		return m
	}
}

// Encode marshals an event for the wire
func Encode(event *structs.Event) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("encode %s event: %w", event.Type, err)
	}
	return data, nil
}

// jobID returns the id of the job an event belongs to
func jobID(event *structs.Event) string {
	if event == nil || event.Job == nil {
		return ""
	}
	return event.Job.ID
}
