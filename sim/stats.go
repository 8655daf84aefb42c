package sim

import (
	"fmt"

	"github.com/astei/druidcraft/crop"
)

// Stats counts tick outcomes. Broken counts plants removed by a neighbour
// update rather than by their own tick.
type Stats struct {
	Ticks     int64
	Evaluated int
	Grew      int
	Emitted   int
	Destroyed int
	Broken    int
	Dark      int
	Unloaded  int
}

func (s *Stats) count(out crop.Outcome) {
	switch out {
	case crop.Grew:
		s.Grew++
	case crop.Emitted:
		s.Emitted++
	case crop.Destroyed:
		s.Destroyed++
	case crop.SkippedDark:
		s.Dark++
	case crop.SkippedUnloaded:
		s.Unloaded++
	}
}

func (s *Stats) add(o Stats) {
	s.Ticks += o.Ticks
	s.Evaluated += o.Evaluated
	s.Grew += o.Grew
	s.Emitted += o.Emitted
	s.Destroyed += o.Destroyed
	s.Broken += o.Broken
	s.Dark += o.Dark
	s.Unloaded += o.Unloaded
}

func (s Stats) String() string {
	return fmt.Sprintf("%d ticks, %d evaluated: %d grew, %d emitted, %d destroyed, %d broken, %d dark, %d unloaded",
		s.Ticks, s.Evaluated, s.Grew, s.Emitted, s.Destroyed, s.Broken, s.Dark, s.Unloaded)
}
