package app

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"battle-quiz-service/internal/domain"
	"battle-quiz-service/internal/engine"
	"github.com/google/uuid"
)

// BattleStore abstracts how live battles are kept (in-memory, per instance).
type BattleStore interface {
	Put(handle string, session *BattleSession)
	Get(handle string) (*BattleSession, bool)
	Delete(handle string)
}

// BankRepository loads validated question sets per topic (from cache/backing store).
type BankRepository interface {
	GetSet(ctx context.Context, topic string) (domain.QuestionSet, error)
}

// CareerStore carries player HP between battles. Its backing format is
// outside this service's responsibility.
type CareerStore interface {
	GetHP(ctx context.Context, playerID string) (int, bool, error)
	SetHP(ctx context.Context, playerID string, hp int) error
}

// BattleSession pairs a battle with the lock that serializes its calls: a
// submission is fully resolved before any subsequent call is accepted, and a
// same-frame tick is applied after the answer, preserving victory precedence.
type BattleSession struct {
	mu        sync.Mutex
	battle    *engine.Battle
	playerID  string
	persisted bool
}

// StartConfig is the renderer-facing battle configuration.
type StartConfig struct {
	PlayerID       string  `json:"playerId"`
	Topic          string  `json:"topic"`
	Tier           int     `json:"tier"`
	MaxPlayerHP    int     `json:"maxPlayerHp"`
	MaxEnemyHP     int     `json:"maxEnemyHp"`
	BaseDamage     int     `json:"baseDamage"`
	EnemyDamage    int     `json:"enemyDamage"`
	InitialSeconds float64 `json:"initialSeconds"`
	QuestionBudget int     `json:"questionBudget"`
}

// BattleService contains the battle use cases exposed to renderers.
type BattleService struct {
	battles   BattleStore
	banks     BankRepository
	careers   CareerStore
	scoring   engine.ScoringConfig
	newHandle func() string
	newRand   func() *rand.Rand
}

// NewBattleService wires the service; careers may be nil when no career
// store is configured.
func NewBattleService(battles BattleStore, banks BankRepository, careers CareerStore) *BattleService {
	return &BattleService{
		battles:   battles,
		banks:     banks,
		careers:   careers,
		scoring:   engine.DefaultScoringConfig(),
		newHandle: uuid.NewString,
		newRand: func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		},
	}
}

// WithRand overrides the per-battle random source; test-only.
func (s *BattleService) WithRand(newRand func() *rand.Rand) *BattleService {
	s.newRand = newRand
	return s
}

// StartBattle loads content, seeds player HP from the career store, and
// starts a battle. Content failures (malformed data, empty pools, unknown
// topics) surface here so the caller can route back to a safe menu — no
// partial battle state is ever stored.
func (s *BattleService) StartBattle(ctx context.Context, cfg StartConfig) (domain.BattleStatus, error) {
	set, err := s.banks.GetSet(ctx, cfg.Topic)
	if err != nil {
		return domain.BattleStatus{}, err
	}

	rnd := s.newRand()
	bank, err := engine.NewBank([]domain.QuestionSet{set}, rnd)
	if err != nil {
		return domain.BattleStatus{}, err
	}

	battle, err := engine.NewBattle(engine.Config{
		Topic:          cfg.Topic,
		Tier:           cfg.Tier,
		MaxPlayerHP:    cfg.MaxPlayerHP,
		MaxEnemyHP:     cfg.MaxEnemyHP,
		BaseDamage:     cfg.BaseDamage,
		EnemyDamage:    cfg.EnemyDamage,
		InitialSeconds: cfg.InitialSeconds,
		QuestionBudget: cfg.QuestionBudget,
	}, bank, s.scoring, rnd)
	if err != nil {
		return domain.BattleStatus{}, err
	}

	if s.careers != nil && cfg.PlayerID != "" {
		if hp, ok, err := s.careers.GetHP(ctx, cfg.PlayerID); err == nil && ok {
			battle.SetPlayerHP(hp)
		}
	}

	if err := battle.Start(); err != nil {
		return domain.BattleStatus{}, err
	}

	handle := s.newHandle()
	s.battles.Put(handle, &BattleSession{battle: battle, playerID: cfg.PlayerID})

	status := battle.Status()
	status.Handle = handle
	return status, nil
}

// CurrentQuestion returns the sanitized active question for a handle.
func (s *BattleService) CurrentQuestion(handle string) (domain.QuestionView, error) {
	session, ok := s.battles.Get(handle)
	if !ok {
		return domain.QuestionView{}, domain.ErrBattleNotFound
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	return session.battle.CurrentQuestion()
}

// SubmitAnswer resolves an answer end to end under the session lock.
func (s *BattleService) SubmitAnswer(ctx context.Context, handle string, a domain.Answer) (domain.AnswerResult, error) {
	session, ok := s.battles.Get(handle)
	if !ok {
		return domain.AnswerResult{}, domain.ErrBattleNotFound
	}
	session.mu.Lock()
	defer session.mu.Unlock()

	result := session.battle.Submit(a)
	s.persistCareerLocked(ctx, session)
	return result, nil
}

// Tick advances the battle clock. Because Submit and Tick share the session
// lock, an answer racing a tick in the same frame is always resolved first.
func (s *BattleService) Tick(ctx context.Context, handle string, deltaSeconds float64) (domain.TimerView, error) {
	session, ok := s.battles.Get(handle)
	if !ok {
		return domain.TimerView{}, domain.ErrBattleNotFound
	}
	session.mu.Lock()
	defer session.mu.Unlock()

	view := session.battle.Tick(deltaSeconds)
	s.persistCareerLocked(ctx, session)
	return view, nil
}

// PauseForExternalUI freezes the battle while tutorials or power-up pickers
// are shown.
func (s *BattleService) PauseForExternalUI(handle string) error {
	session, ok := s.battles.Get(handle)
	if !ok {
		return domain.ErrBattleNotFound
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	session.battle.PauseForExternalUI()
	return nil
}

// ResumeFromExternalUI reopens the cooperative gate.
func (s *BattleService) ResumeFromExternalUI(handle string) error {
	session, ok := s.battles.Get(handle)
	if !ok {
		return domain.ErrBattleNotFound
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	session.battle.ResumeFromExternalUI()
	return nil
}

// Restart resets HP/score/combo/timer and re-enters the battle, keeping the
// answered set so retries avoid repeats.
func (s *BattleService) Restart(handle string) (domain.BattleStatus, error) {
	session, ok := s.battles.Get(handle)
	if !ok {
		return domain.BattleStatus{}, domain.ErrBattleNotFound
	}
	session.mu.Lock()
	defer session.mu.Unlock()

	session.battle.Restart()
	session.persisted = false
	if err := session.battle.Start(); err != nil {
		return domain.BattleStatus{}, err
	}
	status := session.battle.Status()
	status.Handle = handle
	return status, nil
}

// Abort marks the battle terminal without scoring and drops it from the store.
func (s *BattleService) Abort(handle string) error {
	session, ok := s.battles.Get(handle)
	if !ok {
		return domain.ErrBattleNotFound
	}
	session.mu.Lock()
	session.battle.Abort()
	session.mu.Unlock()
	s.battles.Delete(handle)
	return nil
}

// FinalResult is valid only once the battle reached Victory or Defeat.
func (s *BattleService) FinalResult(handle string) (domain.FinalResult, error) {
	session, ok := s.battles.Get(handle)
	if !ok {
		return domain.FinalResult{}, domain.ErrBattleNotFound
	}
	session.mu.Lock()
	defer session.mu.Unlock()

	result, err := session.battle.Final()
	if err != nil {
		return domain.FinalResult{}, err
	}
	result.Handle = handle
	return result, nil
}

// Status snapshots the battle for a handle.
func (s *BattleService) Status(handle string) (domain.BattleStatus, error) {
	session, ok := s.battles.Get(handle)
	if !ok {
		return domain.BattleStatus{}, domain.ErrBattleNotFound
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	status := session.battle.Status()
	status.Handle = handle
	return status, nil
}

// persistCareerLocked writes surviving player HP back to the career store
// once, when a battle ends in victory. Defeats and aborts leave the stored
// HP untouched. Caller holds the session lock.
func (s *BattleService) persistCareerLocked(ctx context.Context, session *BattleSession) {
	if s.careers == nil || session.playerID == "" || session.persisted {
		return
	}
	if session.battle.Phase() != domain.PhaseVictory {
		return
	}
	session.persisted = true
	// best-effort handoff
	_ = s.careers.SetHP(ctx, session.playerID, session.battle.PlayerHP())
}
