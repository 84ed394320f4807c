package lodestar

// Phase is one of the three fixed slots a pass can run in. Phases always execute in
// declaration order: Pre, Main, Post.
type Phase uint8

const (
	PhasePre Phase = iota
	PhaseMain
	PhasePost
	phaseCount
)

func (p Phase) String() string {
	switch p {
	case PhasePre:
		return "pre"
	case PhaseMain:
		return "main"
	case PhasePost:
		return "post"
	default:
		return "unknown"
	}
}

// CommitPoint says what happens at the end of a pass, before the next pass starts.
type CommitPoint uint8

const (
	// CommitNone runs the next pass with no barrier in between.
	CommitNone CommitPoint = iota

	// CommitPassEvents publishes pass-scope events pushed so far. Deferred commands
	// stay queued.
	CommitPassEvents

	// CommitStructural publishes pass-scope events and flushes the command buffer,
	// so the next pass sees every structural change requested before the commit.
	CommitStructural
)

func (c CommitPoint) String() string {
	switch c {
	case CommitNone:
		return "none"
	case CommitPassEvents:
		return "pass-events"
	case CommitStructural:
		return "structural"
	default:
		return "unknown"
	}
}
