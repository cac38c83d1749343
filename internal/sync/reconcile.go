package sync

import (
	"fmt"
	"math"
	"time"

	"reelsync/internal/export"
	"reelsync/internal/identity"
)

// ratingEpsilon absorbs floating-point rounding from the scale conversion
// when comparing against a service's existing rating.
const ratingEpsilon = 0.1

// timestampLayout is the fixed submission timestamp format.
const timestampLayout = "2006-01-02T15:04:05.000Z"

// Action classifies a reconciliation decision.
type Action int

const (
	ActionSkip Action = iota
	ActionCreate
	ActionUpdate
)

func (a Action) String() string {
	switch a {
	case ActionCreate:
		return "create"
	case ActionUpdate:
		return "update"
	default:
		return "skip"
	}
}

// Decision is the outcome of reconciling one resolved record against a
// service's rating snapshot. Only Create/Update effects leave the process.
type Decision struct {
	Action    Action
	Reason    string
	Identity  identity.Identity
	Title     string
	Rating    float64
	OldRating float64
	Timestamp string
}

// Decide compares a record's normalized rating with the service's snapshot.
// Absent from the snapshot means Create; within ratingEpsilon of the existing
// value means Skip; anything else is an Update carrying both values.
func Decide(record export.Record, id identity.Identity, snapshot map[string]float64, multiplier float64, now time.Time) Decision {
	normalized := record.Rating * multiplier
	decision := Decision{
		Identity:  id,
		Title:     record.Title,
		Rating:    normalized,
		Timestamp: submissionTimestamp(record, now),
	}

	existing, rated := snapshot[id.ProviderID]
	switch {
	case !rated:
		decision.Action = ActionCreate
	case math.Abs(existing-normalized) < ratingEpsilon:
		decision.Action = ActionSkip
		decision.Reason = fmt.Sprintf("already rated %g", existing)
		decision.OldRating = existing
	default:
		decision.Action = ActionUpdate
		decision.OldRating = existing
	}
	return decision
}

// submissionTimestamp prefers the record's native watch date, pinned to noon
// UTC so timezone drift cannot move it across a day boundary. Records without
// one stamp "now".
func submissionTimestamp(record export.Record, now time.Time) string {
	if record.WatchDate != "" {
		return record.WatchDate + "T12:00:00.000Z"
	}
	return now.UTC().Format(timestampLayout)
}
