package domain

// Answer is a submitted response. The field read depends on the active
// question's type: OptionIndex for choice questions, Text for fill-in-blank,
// Order (indices into the presented blocks) for drag-and-drop.
type Answer struct {
	OptionIndex int    `json:"optionIndex"`
	Text        string `json:"text"`
	Order       []int  `json:"order"`
}

// Phase is the discrete state of a battle.
type Phase string

const (
	PhaseAwaitingStart  Phase = "awaiting_start"
	PhaseQuestionActive Phase = "question_active"
	PhaseResolving      Phase = "resolving"
	PhaseVictory        Phase = "victory"
	PhaseDefeat         Phase = "defeat"
	PhaseAborted        Phase = "aborted"
)

// Terminal reports whether no further answers or ticks can change the battle.
func (p Phase) Terminal() bool {
	return p == PhaseVictory || p == PhaseDefeat || p == PhaseAborted
}

// BattleStatus is the renderer-facing snapshot of a battle.
type BattleStatus struct {
	Handle           string  `json:"handle"`
	Phase            Phase   `json:"phase"`
	PlayerHP         int     `json:"playerHp"`
	EnemyHP          int     `json:"enemyHp"`
	MaxPlayerHP      int     `json:"maxPlayerHp"`
	MaxEnemyHP       int     `json:"maxEnemyHp"`
	ComboCount       int     `json:"comboCount"`
	Score            int     `json:"score"`
	RemainingSeconds float64 `json:"remainingSeconds"`
}

// AnswerResult summarizes one resolved submission. Accepted is false when
// the submission arrived outside QuestionActive and was ignored; the rest of
// the fields then just snapshot the unchanged battle.
type AnswerResult struct {
	QuestionID string  `json:"questionId"`
	Correct    bool    `json:"correct"`
	Accepted   bool    `json:"accepted"`
	PlayerHP   int     `json:"playerHp"`
	EnemyHP    int     `json:"enemyHp"`
	ComboCount int     `json:"comboCount"`
	Multiplier float64 `json:"multiplier"`
	Phase      Phase   `json:"phase"`
}

// TimerView is the countdown snapshot returned by Tick.
type TimerView struct {
	RemainingSeconds float64 `json:"remainingSeconds"`
	Paused           bool    `json:"paused"`
	Expired          bool    `json:"expired"`
}

// FinalResult is produced once a battle reaches Victory or Defeat.
type FinalResult struct {
	Handle         string `json:"handle"`
	Phase          Phase  `json:"phase"`
	CorrectAnswers int    `json:"correctAnswers"`
	WrongAnswers   int    `json:"wrongAnswers"`
	MaxCombo       int    `json:"maxCombo"`
	Score          int    `json:"score"`
}
