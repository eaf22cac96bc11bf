package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"battle-quiz-service/internal/app"
	"battle-quiz-service/internal/domain"
)

func validSet(topic string) domain.QuestionSet {
	return domain.QuestionSet{
		Topic: topic,
		Questions: []domain.Question{
			{Type: domain.TypeTrueFalse, Prompt: "statement", Tier: 1, Options: []string{"True", "False"}},
		},
	}
}

func TestBattleStoreLifecycle(t *testing.T) {
	store := NewBattleStore()
	if _, ok := store.Get("h"); ok {
		t.Fatalf("empty store returned a session")
	}
	session := &app.BattleSession{}
	store.Put("h", session)
	got, ok := store.Get("h")
	if !ok || got != session {
		t.Fatalf("round trip failed")
	}
	store.Delete("h")
	if _, ok := store.Get("h"); ok {
		t.Fatalf("delete did not remove session")
	}
}

func TestCareerStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewCareerStore()
	if _, ok, err := store.GetHP(ctx, "p1"); err != nil || ok {
		t.Fatalf("missing player: ok=%v err=%v", ok, err)
	}
	if err := store.SetHP(ctx, "p1", 64); err != nil {
		t.Fatalf("set: %v", err)
	}
	hp, ok, err := store.GetHP(ctx, "p1")
	if err != nil || !ok || hp != 64 {
		t.Fatalf("get: hp=%d ok=%v err=%v", hp, ok, err)
	}
}

type countingLoader struct {
	sets  map[string]domain.QuestionSet
	calls int
}

func (l *countingLoader) LoadSet(_ context.Context, topic string) (domain.QuestionSet, error) {
	l.calls++
	if set, ok := l.sets[topic]; ok {
		return set, nil
	}
	return domain.QuestionSet{}, domain.ErrTopicNotFound
}

func TestBankRepositoryCachesWithinTTL(t *testing.T) {
	ctx := context.Background()
	loader := &countingLoader{sets: map[string]domain.QuestionSet{"algo": validSet("algo")}}
	repo := NewBankRepository(loader, time.Minute)

	for i := 0; i < 3; i++ {
		set, err := repo.GetSet(ctx, "algo")
		if err != nil {
			t.Fatalf("get %d: %v", i, err)
		}
		if set.Topic != "algo" {
			t.Fatalf("get %d: topic %q", i, set.Topic)
		}
	}
	if loader.calls != 1 {
		t.Fatalf("loader called %d times", loader.calls)
	}
}

func TestBankRepositoryReloadsAfterExpiry(t *testing.T) {
	ctx := context.Background()
	loader := &countingLoader{sets: map[string]domain.QuestionSet{"algo": validSet("algo")}}
	repo := NewBankRepository(loader, time.Minute)

	now := time.Now()
	repo.clock = func() time.Time { return now }
	if _, err := repo.GetSet(ctx, "algo"); err != nil {
		t.Fatalf("first get: %v", err)
	}
	// Past the TTL plus maximum jitter.
	repo.clock = func() time.Time { return now.Add(2 * time.Minute) }
	if _, err := repo.GetSet(ctx, "algo"); err != nil {
		t.Fatalf("second get: %v", err)
	}
	if loader.calls != 2 {
		t.Fatalf("loader called %d times", loader.calls)
	}
}

func TestBankRepositoryValidatesLoadedContent(t *testing.T) {
	ctx := context.Background()
	broken := domain.QuestionSet{
		Topic: "broken",
		Questions: []domain.Question{
			{Type: domain.TypeMultipleChoice, Prompt: "p", Tier: 1, Options: []string{"only"}},
		},
	}
	repo := NewBankRepository(&countingLoader{sets: map[string]domain.QuestionSet{"broken": broken}}, time.Minute)
	_, err := repo.GetSet(ctx, "broken")
	var contentErr *domain.ContentError
	if !errors.As(err, &contentErr) {
		t.Fatalf("expected content error, got %v", err)
	}
}

func TestStaticSetLoaderUnknownTopic(t *testing.T) {
	loader := NewStaticSetLoader(map[string]domain.QuestionSet{"algo": validSet("algo")})
	if _, err := loader.LoadSet(context.Background(), "missing"); !errors.Is(err, domain.ErrTopicNotFound) {
		t.Fatalf("got %v", err)
	}
}
