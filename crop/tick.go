package crop

// Tick runs one scheduled update of the plant at pos.
func (c *Crop) Tick(w World, pos Pos, state State, r Rand) Outcome {
	if !c.ValidGround(w, pos) {
		w.DestroyBlock(pos, true)
		return Destroyed
	}
	if !w.IsAreaLoaded(pos, 1) {
		return SkippedUnloaded
	}
	if w.Light(pos) < c.Params.MinLight {
		return SkippedDark
	}

	age := c.Age(state)
	if age < c.Params.MaxAge {
		if !c.rollGrowth(w, pos, r) {
			return Unchanged
		}
		w.SetBlock(pos, c.WithAge(age+1), SendToClients)
		return Grew
	}
	if c.emitStem(w, pos) {
		return Emitted
	}
	return Unchanged
}

// emitStem places an age 0 stem above a mature plant. Only the bottom of a
// stack may emit, and only into a replaceable cell.
func (c *Crop) emitStem(w World, pos Pos) bool {
	if c.SingleBlock || c.is(w, pos.Down()) {
		return false
	}
	up := pos.Up()
	if !w.IsReplaceable(up) {
		return false
	}
	w.SetBlock(up, c.WithAge(0), DefaultFlags)
	return true
}

// CanAccelerate reports whether an accelerant would have any effect.
func (c *Crop) CanAccelerate(w World, pos Pos, state State) bool {
	if !c.IsMaxAge(state) {
		return true
	}
	if c.SingleBlock {
		return false
	}
	return !c.is(w, pos.Down()) && !c.is(w, pos.Up())
}

// Accelerate applies an instant age boost, capped at MaxAge. A plant that is
// already mature tries to emit a stem instead.
func (c *Crop) Accelerate(w World, pos Pos, state State, r Rand) Outcome {
	age := c.Age(state)
	if age == c.Params.MaxAge {
		if c.emitStem(w, pos) {
			return Emitted
		}
		return Unchanged
	}

	next := age + c.accelerantIncrease(r)
	if next > c.Params.MaxAge {
		next = c.Params.MaxAge
	}
	w.SetBlock(pos, c.WithAge(next), SendToClients)
	return Grew
}

func (c *Crop) accelerantIncrease(r Rand) int {
	span := c.Params.AccelerantMax - c.Params.AccelerantMin
	if span <= 0 {
		return c.Params.AccelerantMin
	}
	return c.Params.AccelerantMin + r.Intn(span+1)
}

// NeighborChanged re-checks support after an adjacent block update. A plant that
// lost its ground is removed without drops. It returns whether the plant survived.
func (c *Crop) NeighborChanged(w World, pos Pos) bool {
	if c.ValidGround(w, pos) {
		return true
	}
	w.DestroyBlock(pos, false)
	return false
}
