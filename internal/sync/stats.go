package sync

// Stats aggregates one service's run outcome. Unresolved counts records whose
// reference never produced an identity, kept distinct from deliberate
// already-correct skips.
type Stats struct {
	Resolved        int
	Unresolved      int
	SkippedExisting int
	Created         int
	Updated         int
	Rejected        int
}

// Submitted is the number of records that produced a remote effect.
func (s Stats) Submitted() int {
	return s.Created + s.Updated
}

// Processed is the number of records that reached a terminal outcome.
func (s Stats) Processed() int {
	return s.Resolved + s.Unresolved
}
