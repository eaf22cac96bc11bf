package engine

import (
	"math/rand"

	"battle-quiz-service/internal/domain"
)

type partitionKey struct {
	topic string
	tier  int
	qtype domain.QuestionType
}

// AnsweredSet tracks question IDs already presented in a battle, partitioned
// by (topic, tier, type). It lives for the battle and is preserved across
// restarts of the same handle so retries do not repeat questions.
type AnsweredSet struct {
	parts map[partitionKey]map[string]struct{}
}

func NewAnsweredSet() *AnsweredSet {
	return &AnsweredSet{parts: make(map[partitionKey]map[string]struct{})}
}

// Mark records a question as presented. Called after presentation, never by
// selection itself.
func (s *AnsweredSet) Mark(q domain.Question) {
	key := partitionKey{topic: q.Topic, tier: q.Tier, qtype: q.Type}
	part, ok := s.parts[key]
	if !ok {
		part = make(map[string]struct{})
		s.parts[key] = part
	}
	part[q.ID] = struct{}{}
}

// Contains reports whether the question was already presented.
func (s *AnsweredSet) Contains(q domain.Question) bool {
	part, ok := s.parts[partitionKey{topic: q.Topic, tier: q.Tier, qtype: q.Type}]
	if !ok {
		return false
	}
	_, seen := part[q.ID]
	return seen
}

// resetTier clears every partition for (topic, tier). Only those partitions
// are cleared; other topics and tiers keep their history.
func (s *AnsweredSet) resetTier(topic string, tier int) {
	for key := range s.parts {
		if key.topic == topic && key.tier == tier {
			delete(s.parts, key)
		}
	}
}

// Bank holds validated question records grouped by topic, tier, and type.
// Selection never mutates the bank or the answered set.
type Bank struct {
	pools   map[partitionKey][]domain.Question
	weights map[string]map[domain.QuestionType]int
	rnd     *rand.Rand
}

// NewBank validates every set and indexes its questions. A single malformed
// record fails construction; battles never see partially loaded content.
func NewBank(sets []domain.QuestionSet, rnd *rand.Rand) (*Bank, error) {
	b := &Bank{
		pools:   make(map[partitionKey][]domain.Question),
		weights: make(map[string]map[domain.QuestionType]int),
		rnd:     rnd,
	}
	for i := range sets {
		set := &sets[i]
		if err := set.Validate(); err != nil {
			return nil, err
		}
		for _, q := range set.Questions {
			key := partitionKey{topic: q.Topic, tier: q.Tier, qtype: q.Type}
			b.pools[key] = append(b.pools[key], q)
		}
		if len(set.TypeWeights) > 0 {
			b.weights[set.Topic] = set.TypeWeights
		}
	}
	return b, nil
}

// Select picks a question for (topic, tier) uniformly at random over the
// unanswered subset. For tiers that blend types, a type-class is picked
// first using the configured weights; an exhausted class falls back to the
// union of all classes in the tier, and only when that union is exhausted
// is the tier's answered partition reset. Returns domain.ErrPoolEmpty only
// when the topic+tier has no questions defined at all.
func (b *Bank) Select(topic string, tier int, answered *AnsweredSet) (domain.Question, error) {
	pools := b.tierPools(topic, tier)
	if len(pools) == 0 {
		return domain.Question{}, domain.ErrPoolEmpty
	}

	if qtype, ok := b.pickType(topic, pools); ok {
		if q, ok := b.pickUnanswered(pools[qtype], answered); ok {
			return q, nil
		}
	}

	// Chosen class exhausted: combine all classes in the tier into one pool.
	var union []domain.Question
	for _, pool := range pools {
		union = append(union, pool...)
	}
	if q, ok := b.pickUnanswered(union, answered); ok {
		return q, nil
	}

	// Whole tier exhausted: clear its partitions and draw from the full pool.
	answered.resetTier(topic, tier)
	return union[b.rnd.Intn(len(union))], nil
}

// TierDefined reports whether any questions exist for (topic, tier).
func (b *Bank) TierDefined(topic string, tier int) bool {
	return len(b.tierPools(topic, tier)) > 0
}

func (b *Bank) tierPools(topic string, tier int) map[domain.QuestionType][]domain.Question {
	pools := make(map[domain.QuestionType][]domain.Question)
	for key, pool := range b.pools {
		if key.topic == topic && key.tier == tier && len(pool) > 0 {
			pools[key.qtype] = pool
		}
	}
	return pools
}

// pickType draws a type-class using the topic's configured weights.
// Types absent from the weight table default to weight 1; iteration order is
// fixed so equal rolls are stable.
func (b *Bank) pickType(topic string, pools map[domain.QuestionType][]domain.Question) (domain.QuestionType, bool) {
	order := []domain.QuestionType{
		domain.TypeMultipleChoice,
		domain.TypeTrueFalse,
		domain.TypeFillInBlank,
		domain.TypeDragAndDrop,
	}
	configured := b.weights[topic]

	total := 0
	weights := make(map[domain.QuestionType]int, len(pools))
	for _, t := range order {
		if _, ok := pools[t]; !ok {
			continue
		}
		w := 1
		if tw, ok := configured[t]; ok {
			w = tw
		}
		if w <= 0 {
			continue
		}
		weights[t] = w
		total += w
	}
	if total == 0 {
		return "", false
	}
	roll := b.rnd.Intn(total)
	for _, t := range order {
		w, ok := weights[t]
		if !ok {
			continue
		}
		if roll < w {
			return t, true
		}
		roll -= w
	}
	return "", false
}

func (b *Bank) pickUnanswered(pool []domain.Question, answered *AnsweredSet) (domain.Question, bool) {
	available := make([]domain.Question, 0, len(pool))
	for _, q := range pool {
		if !answered.Contains(q) {
			available = append(available, q)
		}
	}
	if len(available) == 0 {
		return domain.Question{}, false
	}
	return available[b.rnd.Intn(len(available))], true
}
