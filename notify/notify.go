// Package notify delivers alerts raised by the gate.
//
// Information Hiding:
// - Console banner layout
// - Webhook payload format and transport
// - Fan-out and error aggregation
package notify

import (
	"context"
	"errors"

	"github.com/richinex/supplysentinel/model"
)

// Notifier delivers one alert.
type Notifier interface {
	Notify(ctx context.Context, a model.Alert) error
}

// Multi delivers to every notifier in order and joins their errors.
type Multi []Notifier

// Notify implements Notifier.
func (m Multi) Notify(ctx context.Context, a model.Alert) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, a); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
