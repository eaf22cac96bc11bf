package engine

import (
	"log"
	"math/rand"
	"strings"

	"battle-quiz-service/internal/domain"
)

// Config holds per-battle parameters supplied at init.
type Config struct {
	Topic       string
	Tier        int
	MaxPlayerHP int
	MaxEnemyHP  int

	// BaseDamage is dealt to the enemy per correct answer, before the combo
	// multiplier. EnemyDamage is the flat hit the player takes on a wrong one.
	BaseDamage  int
	EnemyDamage int

	InitialSeconds   float64
	CorrectTimeBonus float64 // seconds added on a correct answer
	WrongTimePenalty float64 // seconds removed on a wrong answer

	// QuestionBudget caps how many questions the battle asks; answering the
	// whole budget without dying counts as a win. 0 means HP and timer decide.
	QuestionBudget int

	TargetSecondsPerQuestion float64
	DifficultyWeight         float64

	// ComboSteps overrides the canonical multiplier breakpoints; nil keeps
	// the defaults.
	ComboSteps []ComboStep
}

func (c *Config) applyDefaults() {
	if c.MaxPlayerHP <= 0 {
		c.MaxPlayerHP = 100
	}
	if c.MaxEnemyHP <= 0 {
		c.MaxEnemyHP = 100
	}
	if c.BaseDamage <= 0 {
		c.BaseDamage = 10
	}
	if c.EnemyDamage <= 0 {
		c.EnemyDamage = 10
	}
	if c.InitialSeconds <= 0 {
		c.InitialSeconds = 30
	}
	if c.CorrectTimeBonus == 0 {
		c.CorrectTimeBonus = 5
	}
	if c.WrongTimePenalty == 0 {
		c.WrongTimePenalty = 3
	}
	if c.TargetSecondsPerQuestion <= 0 {
		c.TargetSecondsPerQuestion = 10
	}
	if c.DifficultyWeight <= 0 {
		c.DifficultyWeight = float64(c.Tier)
	}
}

// Battle is the quiz battle state machine. It owns all battle state; nothing
// else mutates it. Not safe for concurrent use — the application layer
// serializes calls per battle, matching the single-actor cooperative model.
type Battle struct {
	cfg      Config
	bank     *Bank
	answered *AnsweredSet
	combo    *ComboTracker
	timer    *BattleTimer
	scoring  ScoringConfig
	rnd      *rand.Rand

	phase     domain.Phase
	playerHP  int
	enemyHP   int
	score     int
	correct   int
	wrong     int
	battleWon bool
	uiPaused  bool

	// current is the shuffled presentation copy of the active question;
	// submitted indices refer to its option/block order.
	current      *domain.Question
	questionTime float64
	answerTimes  []float64
}

// NewBattle builds a battle in AwaitingStart. The bank must already be
// validated; rnd drives both selection and option shuffling.
func NewBattle(cfg Config, bank *Bank, scoring ScoringConfig, rnd *rand.Rand) (*Battle, error) {
	cfg.applyDefaults()
	if !bank.TierDefined(cfg.Topic, cfg.Tier) {
		return nil, domain.ErrPoolEmpty
	}
	b := &Battle{
		cfg:      cfg,
		bank:     bank,
		answered: NewAnsweredSet(),
		combo:    NewComboTracker(cfg.ComboSteps),
		timer:    NewBattleTimer(),
		scoring:  scoring,
		rnd:      rnd,
		phase:    domain.PhaseAwaitingStart,
		playerHP: cfg.MaxPlayerHP,
		enemyHP:  cfg.MaxEnemyHP,
	}
	b.timer.OnExpire(b.onTimerExpired)
	return b, nil
}

// SetPlayerHP seeds the starting player HP from a career store, clamped to
// [1, max]. Only meaningful before Start.
func (b *Battle) SetPlayerHP(hp int) {
	if b.phase != domain.PhaseAwaitingStart {
		return
	}
	if hp > b.cfg.MaxPlayerHP {
		hp = b.cfg.MaxPlayerHP
	}
	if hp < 1 {
		hp = 1
	}
	b.playerHP = hp
}

// Start moves AwaitingStart → QuestionActive: pulls the first question and
// arms the timer.
func (b *Battle) Start() error {
	if b.phase != domain.PhaseAwaitingStart {
		log.Printf("battle: Start ignored in phase %s", b.phase)
		return nil
	}
	if err := b.nextQuestion(); err != nil {
		return err
	}
	b.timer.Start(b.cfg.InitialSeconds)
	b.phase = domain.PhaseQuestionActive
	return nil
}

// Submit resolves an answer. Outside QuestionActive (including while the
// external-UI gate is closed) it is a logged no-op that mutates nothing —
// this shields the engine from duplicate or late renderer events. The full
// resolution (validation, combo, HP, timer) completes before returning, so
// no two resolutions ever interleave.
func (b *Battle) Submit(a domain.Answer) domain.AnswerResult {
	if b.phase != domain.PhaseQuestionActive || b.uiPaused || b.current == nil {
		log.Printf("battle: Submit ignored in phase %s (uiPaused=%v)", b.phase, b.uiPaused)
		return b.answerSnapshot("", false, false)
	}

	q := *b.current
	b.phase = domain.PhaseResolving
	b.timer.Pause()
	b.answerTimes = append(b.answerTimes, b.questionTime)

	// Blank fill-in submissions are rejected before validation.
	correct := false
	if q.Type != domain.TypeFillInBlank || strings.TrimSpace(a.Text) != "" {
		correct = CheckAnswer(q, a)
	}

	b.combo.OnAnswer(correct)
	if correct {
		b.correct++
		damage := int(float64(b.cfg.BaseDamage) * b.combo.Multiplier())
		b.enemyHP = clampHP(b.enemyHP-damage, b.cfg.MaxEnemyHP)
		b.score += damage
		if b.enemyHP == 0 {
			// Commit the win before any expiry check can run this frame.
			b.battleWon = true
		}
		b.timer.Add(b.cfg.CorrectTimeBonus)
	} else {
		b.wrong++
		b.playerHP = clampHP(b.playerHP-b.cfg.EnemyDamage, b.cfg.MaxPlayerHP)
		b.timer.Subtract(b.cfg.WrongTimePenalty)
	}

	b.resolve()
	return b.answerSnapshot(q.ID, correct, true)
}

// resolve decides the post-answer transition. Victory takes precedence over
// timer expiry raced in the same frame.
func (b *Battle) resolve() {
	switch {
	case b.battleWon:
		b.finish(domain.PhaseVictory)
	case b.playerHP == 0:
		b.finish(domain.PhaseDefeat)
	case b.timer.Expired():
		b.finish(domain.PhaseDefeat)
	case b.cfg.QuestionBudget > 0 && b.correct+b.wrong >= b.cfg.QuestionBudget:
		// No more questions configured for this battle: survivor wins.
		b.finish(domain.PhaseVictory)
	default:
		if err := b.nextQuestion(); err != nil {
			// Pool became undefined mid-battle cannot happen after validation;
			// treat defensively as battle completion.
			b.finish(domain.PhaseVictory)
			return
		}
		b.phase = domain.PhaseQuestionActive
		b.timer.Resume()
	}
}

// Tick advances battle time by delta seconds. Expiry is checked here, after
// any same-frame answer has already been resolved by the caller's ordering.
func (b *Battle) Tick(delta float64) domain.TimerView {
	if b.phase.Terminal() {
		return b.timer.View()
	}
	if b.phase == domain.PhaseQuestionActive && !b.timer.Paused() {
		b.questionTime += delta
	}
	b.timer.Tick(delta)
	return b.timer.View()
}

func (b *Battle) onTimerExpired() {
	if b.phase.Terminal() || b.battleWon {
		// Expiry arriving after victory is committed never downgrades it.
		return
	}
	b.finish(domain.PhaseDefeat)
}

// PauseForExternalUI closes the cooperative gate while tutorials or power-up
// pickers are on screen; the timer freezes and submissions become no-ops.
func (b *Battle) PauseForExternalUI() {
	if b.phase.Terminal() {
		return
	}
	b.uiPaused = true
	b.timer.Pause()
}

// ResumeFromExternalUI reopens the gate.
func (b *Battle) ResumeFromExternalUI() {
	if b.phase.Terminal() {
		return
	}
	b.uiPaused = false
	if b.phase == domain.PhaseQuestionActive {
		b.timer.Resume()
	}
}

// Restart returns to AwaitingStart with HP, score, combo, and timer reset.
// The answered set is preserved so retries on the same topic avoid repeats.
func (b *Battle) Restart() {
	b.phase = domain.PhaseAwaitingStart
	b.playerHP = b.cfg.MaxPlayerHP
	b.enemyHP = b.cfg.MaxEnemyHP
	b.score = 0
	b.correct = 0
	b.wrong = 0
	b.battleWon = false
	b.uiPaused = false
	b.current = nil
	b.questionTime = 0
	b.answerTimes = nil
	b.combo.Reset()
	b.timer.Stop()
}

// Abort marks the battle terminal without invoking the scoring policy and
// releases the timer.
func (b *Battle) Abort() {
	if b.phase.Terminal() {
		return
	}
	b.phase = domain.PhaseAborted
	b.current = nil
	b.timer.Stop()
}

// CurrentQuestion returns the sanitized view of the active question.
func (b *Battle) CurrentQuestion() (domain.QuestionView, error) {
	if b.current == nil || b.phase != domain.PhaseQuestionActive {
		return domain.QuestionView{}, domain.ErrNoActiveQuestion
	}
	return b.current.View(), nil
}

// Final computes the end-of-battle result. Valid only in Victory or Defeat;
// aborted battles never reach the scoring policy.
func (b *Battle) Final() (domain.FinalResult, error) {
	if b.phase != domain.PhaseVictory && b.phase != domain.PhaseDefeat {
		return domain.FinalResult{}, domain.ErrBattleNotFinished
	}
	total := b.correct + b.wrong
	avg := 0.0
	if len(b.answerTimes) > 0 {
		sum := 0.0
		for _, t := range b.answerTimes {
			sum += t
		}
		avg = sum / float64(len(b.answerTimes))
	}
	return domain.FinalResult{
		Phase:          b.phase,
		CorrectAnswers: b.correct,
		WrongAnswers:   b.wrong,
		MaxCombo:       b.combo.MaxReached(),
		Score: FinalScore(b.scoring, b.correct, total, b.combo.MaxReached(),
			avg, b.cfg.TargetSecondsPerQuestion, b.cfg.DifficultyWeight),
	}, nil
}

// Status snapshots the battle for renderers.
func (b *Battle) Status() domain.BattleStatus {
	return domain.BattleStatus{
		Phase:            b.phase,
		PlayerHP:         b.playerHP,
		EnemyHP:          b.enemyHP,
		MaxPlayerHP:      b.cfg.MaxPlayerHP,
		MaxEnemyHP:       b.cfg.MaxEnemyHP,
		ComboCount:       b.combo.Streak(),
		Score:            b.score,
		RemainingSeconds: b.timer.Remaining(),
	}
}

// Phase exposes the current phase.
func (b *Battle) Phase() domain.Phase {
	return b.phase
}

// PlayerHP exposes the player's remaining HP for the career handoff.
func (b *Battle) PlayerHP() int {
	return b.playerHP
}

func (b *Battle) nextQuestion() error {
	q, err := b.bank.Select(b.cfg.Topic, b.cfg.Tier, b.answered)
	if err != nil {
		return err
	}
	b.answered.Mark(q)
	shuffled := q.Shuffle(b.rnd)
	b.current = &shuffled
	b.questionTime = 0
	return nil
}

func (b *Battle) finish(phase domain.Phase) {
	b.phase = phase
	b.current = nil
	b.timer.Pause()
}

func (b *Battle) answerSnapshot(questionID string, correct, accepted bool) domain.AnswerResult {
	mult := 1.0
	if accepted {
		mult = b.combo.Multiplier()
	}
	return domain.AnswerResult{
		QuestionID: questionID,
		Correct:    correct,
		Accepted:   accepted,
		PlayerHP:   b.playerHP,
		EnemyHP:    b.enemyHP,
		ComboCount: b.combo.Streak(),
		Multiplier: mult,
		Phase:      b.phase,
	}
}

func clampHP(hp, max int) int {
	if hp < 0 {
		return 0
	}
	if hp > max {
		return max
	}
	return hp
}
