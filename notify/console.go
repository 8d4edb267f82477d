package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/richinex/supplysentinel/model"
)

const bannerWidth = 40

// Console prints a critical-alert banner.
type Console struct {
	w io.Writer
}

// NewConsole creates a Console writing to w, or stdout when w is nil.
func NewConsole(w io.Writer) *Console {
	if w == nil {
		w = os.Stdout
	}
	return &Console{w: w}
}

// Notify implements Notifier.
func (c *Console) Notify(ctx context.Context, a model.Alert) error {
	rule := strings.Repeat("=", bannerWidth)
	_, err := fmt.Fprintf(c.w, "\n%s\n🚨 🚨 CRITICAL ALERT: %s Supply Chain Risk!\n   Location: %s\n   Score: %g/10\n   Reason: %s\n   [Sent alert to procurement team]\n%s\n",
		rule,
		a.Dependency.Material,
		a.Dependency.Origin,
		a.Assessment.Score,
		a.Assessment.Reason,
		rule,
	)
	if err != nil {
		return fmt.Errorf("console: write banner: %w", err)
	}
	return nil
}
