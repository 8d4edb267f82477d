// Package alert decides when a risk assessment becomes an alert and keeps
// the once-per-day dedup record.
//
// Information Hiding:
// - Key format
// - History file layout and atomic rewrite
// - Ordering of the gate checks
package alert

import (
	"time"

	"github.com/richinex/supplysentinel/model"
)

// dateLayout is the calendar date portion of a key.
const dateLayout = "2006-01-02"

// Key returns the dedup key for dep on the local calendar date of t:
// material-origin-YYYY-MM-DD.
func Key(dep model.Dependency, t time.Time) string {
	return dep.Material + "-" + dep.Origin + "-" + t.Local().Format(dateLayout)
}
