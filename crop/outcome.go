package crop

// Outcome reports what a tick or an accelerant application did.
type Outcome uint8

const (
	Unchanged Outcome = iota
	Grew
	Emitted
	Destroyed
	SkippedUnloaded
	SkippedDark
)

var outcomeNames = [...]string{
	Unchanged:       "unchanged",
	Grew:            "grew",
	Emitted:         "emitted",
	Destroyed:       "destroyed",
	SkippedUnloaded: "skipped_unloaded",
	SkippedDark:     "skipped_dark",
}

func (o Outcome) String() string {
	if int(o) < len(outcomeNames) {
		return outcomeNames[o]
	}
	return "unknown"
}

// Changed is true when the outcome mutated the world.
func (o Outcome) Changed() bool {
	return o == Grew || o == Emitted || o == Destroyed
}
