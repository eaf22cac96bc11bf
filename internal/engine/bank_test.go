package engine

import (
	"fmt"
	"math/rand"
	"testing"

	"battle-quiz-service/internal/domain"
)

func trueFalseSet(topic string, tier, n int) domain.QuestionSet {
	set := domain.QuestionSet{Topic: topic}
	for i := 0; i < n; i++ {
		set.Questions = append(set.Questions, domain.Question{
			Type:         domain.TypeTrueFalse,
			Prompt:       fmt.Sprintf("%s tier %d statement %d", topic, tier, i),
			Tier:         tier,
			Options:      []string{"True", "False"},
			CorrectIndex: i % 2,
		})
	}
	return set
}

func TestNewBankRejectsMalformedSets(t *testing.T) {
	sets := []domain.QuestionSet{{
		Topic: "t",
		Questions: []domain.Question{
			{Type: domain.TypeMultipleChoice, Prompt: "ok", Tier: 1, Options: []string{"a", "b"}, CorrectIndex: 0},
			{Type: domain.TypeMultipleChoice, Prompt: "bad", Tier: 1, Options: []string{"a"}, CorrectIndex: 0},
		},
	}}
	if _, err := NewBank(sets, rand.New(rand.NewSource(1))); err == nil {
		t.Fatalf("expected content error for malformed record")
	}
}

func TestSelectNeverRepeatsUntilExhaustion(t *testing.T) {
	const n = 8
	bank, err := NewBank([]domain.QuestionSet{trueFalseSet("algo", 1, n)}, rand.New(rand.NewSource(3)))
	if err != nil {
		t.Fatalf("bank: %v", err)
	}
	answered := NewAnsweredSet()
	seen := make(map[string]bool)
	for i := 0; i < n; i++ {
		q, err := bank.Select("algo", 1, answered)
		if err != nil {
			t.Fatalf("draw %d: %v", i, err)
		}
		if seen[q.ID] {
			t.Fatalf("draw %d repeated %s before exhaustion", i, q.ID)
		}
		seen[q.ID] = true
		answered.Mark(q)
	}
	// Pool exhausted: the next draw resets the tier partition and repeats.
	q, err := bank.Select("algo", 1, answered)
	if err != nil {
		t.Fatalf("post-exhaustion draw: %v", err)
	}
	if !seen[q.ID] {
		t.Fatalf("post-exhaustion draw produced unknown question %s", q.ID)
	}
}

func TestSelectResetIsScopedToTier(t *testing.T) {
	sets := []domain.QuestionSet{trueFalseSet("algo", 1, 2), trueFalseSet("algo", 2, 2)}
	// Flatten both tiers into one set slice per topic.
	merged := domain.QuestionSet{Topic: "algo"}
	for _, s := range sets {
		merged.Questions = append(merged.Questions, s.Questions...)
	}
	bank, err := NewBank([]domain.QuestionSet{merged}, rand.New(rand.NewSource(5)))
	if err != nil {
		t.Fatalf("bank: %v", err)
	}
	answered := NewAnsweredSet()

	var tier2 domain.Question
	if tier2, err = bank.Select("algo", 2, answered); err != nil {
		t.Fatalf("tier 2 draw: %v", err)
	}
	answered.Mark(tier2)

	// Exhaust tier 1 and force its reset.
	for i := 0; i < 3; i++ {
		q, err := bank.Select("algo", 1, answered)
		if err != nil {
			t.Fatalf("tier 1 draw %d: %v", i, err)
		}
		answered.Mark(q)
	}
	if !answered.Contains(tier2) {
		t.Fatalf("tier 1 reset clobbered tier 2 history")
	}
}

func TestSelectFallsBackAcrossTypeClasses(t *testing.T) {
	set := domain.QuestionSet{
		Topic: "algo",
		Questions: []domain.Question{
			{Type: domain.TypeTrueFalse, Prompt: "tf", Tier: 1, Options: []string{"True", "False"}},
			{Type: domain.TypeFillInBlank, Prompt: "fib", Tier: 1, CorrectAnswers: []string{"x"}},
		},
		// Only true/false ever wins the weighted roll.
		TypeWeights: map[domain.QuestionType]int{
			domain.TypeTrueFalse:   1,
			domain.TypeFillInBlank: 0,
		},
	}
	bank, err := NewBank([]domain.QuestionSet{set}, rand.New(rand.NewSource(9)))
	if err != nil {
		t.Fatalf("bank: %v", err)
	}
	answered := NewAnsweredSet()

	first, err := bank.Select("algo", 1, answered)
	if err != nil {
		t.Fatalf("first draw: %v", err)
	}
	if first.Type != domain.TypeTrueFalse {
		t.Fatalf("weighted pick ignored weights: %s", first.Type)
	}
	answered.Mark(first)

	// Weighted class exhausted: the union fallback must surface the other type
	// instead of resetting.
	second, err := bank.Select("algo", 1, answered)
	if err != nil {
		t.Fatalf("second draw: %v", err)
	}
	if second.Type != domain.TypeFillInBlank {
		t.Fatalf("expected union fallback to other class, got %s", second.Type)
	}
}

func TestSelectPoolEmptyOnlyWhenNothingDefined(t *testing.T) {
	bank, err := NewBank([]domain.QuestionSet{trueFalseSet("algo", 1, 1)}, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("bank: %v", err)
	}
	if _, err := bank.Select("algo", 7, NewAnsweredSet()); err != domain.ErrPoolEmpty {
		t.Fatalf("undefined tier: got %v", err)
	}
	if _, err := bank.Select("missing", 1, NewAnsweredSet()); err != domain.ErrPoolEmpty {
		t.Fatalf("undefined topic: got %v", err)
	}
	if !bank.TierDefined("algo", 1) || bank.TierDefined("algo", 7) {
		t.Fatalf("TierDefined mismatch")
	}
}
