package engine

import "battle-quiz-service/internal/domain"

// BattleTimer is a cooperative countdown driven by an external tick source;
// it performs no real threading. While paused, ticks do not decrement but
// Add/Subtract still apply instantly. Once expired, every operation except
// Start is a no-op, and the expiry callback fires exactly once per Start.
type BattleTimer struct {
	remaining float64
	started   bool
	paused    bool
	expired   bool
	onExpire  func()
}

func NewBattleTimer() *BattleTimer {
	return &BattleTimer{}
}

// OnExpire registers the expiry callback. Replaces any previous callback.
func (t *BattleTimer) OnExpire(fn func()) {
	t.onExpire = fn
}

// Start arms the countdown and clears any prior expiry.
func (t *BattleTimer) Start(seconds float64) {
	if seconds < 0 {
		seconds = 0
	}
	t.remaining = seconds
	t.started = true
	t.paused = false
	t.expired = false
}

// Stop disarms the timer without firing expiry; used on abort and restart.
func (t *BattleTimer) Stop() {
	t.started = false
	t.remaining = 0
	t.paused = false
}

func (t *BattleTimer) Pause() {
	if !t.started || t.expired {
		return
	}
	t.paused = true
}

func (t *BattleTimer) Resume() {
	if !t.started || t.expired {
		return
	}
	t.paused = false
}

// Add extends the countdown; applies even while paused.
func (t *BattleTimer) Add(delta float64) {
	if !t.started || t.expired || delta <= 0 {
		return
	}
	t.remaining += delta
}

// Subtract shrinks the countdown, clamped at zero; reaching zero triggers
// immediate expiry even while paused.
func (t *BattleTimer) Subtract(delta float64) {
	if !t.started || t.expired || delta <= 0 {
		return
	}
	t.remaining -= delta
	if t.remaining <= 0 {
		t.remaining = 0
		t.expire()
	}
}

// Tick advances the countdown by delta seconds of external time.
func (t *BattleTimer) Tick(delta float64) {
	if !t.started || t.expired || t.paused || delta <= 0 {
		return
	}
	t.remaining -= delta
	if t.remaining <= 0 {
		t.remaining = 0
		t.expire()
	}
}

func (t *BattleTimer) expire() {
	if t.expired {
		return
	}
	t.expired = true
	if t.onExpire != nil {
		t.onExpire()
	}
}

// Remaining never goes negative.
func (t *BattleTimer) Remaining() float64 {
	return t.remaining
}

func (t *BattleTimer) Paused() bool {
	return t.paused
}

func (t *BattleTimer) Expired() bool {
	return t.expired
}

func (t *BattleTimer) View() domain.TimerView {
	return domain.TimerView{
		RemainingSeconds: t.remaining,
		Paused:           t.paused,
		Expired:          t.expired,
	}
}
