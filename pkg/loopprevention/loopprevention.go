// Package loopprevention guards the webhook intake against echoes of our
// own activity write-backs.
//
// Updating an activity on the source platform fires an "update" push for
// that same activity. Without a guard, every write-back would immediately
// re-queue the activity it just processed.
package loopprevention

import (
	"time"

	"github.com/pedalhub/automator/pkg/types"
)

// EchoWindow is how long after a write-back an update push for the same
// activity is treated as a bounceback rather than a genuine edit by the
// athlete.
const EchoWindow = 5 * time.Minute

// IsBounceback reports whether an update push for an activity is the echo
// of our own write-back: a receipt exists, it is not re-queued, it recorded
// field updates, and the write-back happened within window of now.
func IsBounceback(receipt *types.ProcessedActivity, now time.Time, window time.Duration) bool {
	if receipt == nil || receipt.Queued() {
		return false
	}
	if receipt.DateProcessed.IsZero() || len(receipt.UpdatedFields) == 0 {
		return false
	}
	return now.Sub(receipt.DateProcessed) < window
}
