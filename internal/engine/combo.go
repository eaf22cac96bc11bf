package engine

// ComboStep maps a minimum streak length to a score multiplier.
type ComboStep struct {
	MinStreak  int
	Multiplier float64
}

// DefaultComboSteps are the canonical breakpoints: the step function must be
// monotonic non-decreasing in streak and never below 1.
func DefaultComboSteps() []ComboStep {
	return []ComboStep{
		{MinStreak: 0, Multiplier: 1.0},
		{MinStreak: 3, Multiplier: 1.5},
		{MinStreak: 6, Multiplier: 2.0},
	}
}

// ComboTracker tracks the consecutive-correct streak within one battle.
type ComboTracker struct {
	steps  []ComboStep
	streak int
	max    int
}

// NewComboTracker builds a tracker; nil or empty steps fall back to the
// canonical breakpoints. Steps must be sorted by MinStreak ascending.
func NewComboTracker(steps []ComboStep) *ComboTracker {
	if len(steps) == 0 {
		steps = DefaultComboSteps()
	}
	return &ComboTracker{steps: steps}
}

// OnAnswer advances the streak on a correct answer and zeroes it otherwise.
func (c *ComboTracker) OnAnswer(correct bool) {
	if correct {
		c.streak++
		if c.streak > c.max {
			c.max = c.streak
		}
		return
	}
	c.streak = 0
}

// Streak returns the current consecutive-correct count.
func (c *ComboTracker) Streak() int {
	return c.streak
}

// Multiplier returns the damage/score multiplier for the current streak.
func (c *ComboTracker) Multiplier() float64 {
	m := 1.0
	for _, step := range c.steps {
		if c.streak >= step.MinStreak {
			m = step.Multiplier
		}
	}
	return m
}

// MaxReached is the session high-water mark; it never decreases within a battle.
func (c *ComboTracker) MaxReached() int {
	return c.max
}

// Reset clears streak and high-water mark for a battle restart.
func (c *ComboTracker) Reset() {
	c.streak = 0
	c.max = 0
}
