package domain

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"strings"
)

// QuestionType discriminates the payload shape of a Question.
type QuestionType string

const (
	TypeMultipleChoice QuestionType = "multiple_choice"
	TypeTrueFalse      QuestionType = "true_false"
	TypeFillInBlank    QuestionType = "fill_in_blank"
	TypeDragAndDrop    QuestionType = "drag_and_drop"
)

// Question is an immutable content record. The payload fields used depend on
// Type; Validate enforces the shape once at load time so battle code never
// re-checks it.
type Question struct {
	ID     string       `json:"id"`
	Type   QuestionType `json:"type"`
	Prompt string       `json:"prompt"`
	Topic  string       `json:"topic"`
	Tier   int          `json:"tier"`

	// multiple_choice / true_false
	Options      []string `json:"options,omitempty"`
	CorrectIndex int      `json:"correctIndex,omitempty"`

	// fill_in_blank
	CorrectAnswers []string `json:"correctAnswers,omitempty"`

	// drag_and_drop: Blocks[CorrectOrder[0]], Blocks[CorrectOrder[1]], ...
	// is the correct sequence.
	Blocks       []string `json:"blocks,omitempty"`
	CorrectOrder []int    `json:"correctOrder,omitempty"`
}

// QuestionSet is the content unit loaded per topic: questions plus optional
// per-type selection weights used when a tier blends question types.
type QuestionSet struct {
	Topic       string               `json:"topic"`
	Questions   []Question           `json:"questions"`
	TypeWeights map[QuestionType]int `json:"typeWeights,omitempty"`
}

// DeriveID computes a stable content-derived question ID from the prompt, so
// structurally identical questions from different sources collide on purpose.
func DeriveID(prompt string) string {
	h := fnv.New64a()
	h.Write([]byte(strings.ToLower(strings.TrimSpace(prompt))))
	return fmt.Sprintf("q-%016x", h.Sum64())
}

// Validate checks the record against its declared type. Battles rely on every
// banked question having passed this once.
func (q Question) Validate() error {
	if strings.TrimSpace(q.Prompt) == "" {
		return &ContentError{Field: "prompt", Reason: "empty"}
	}
	if q.Topic == "" {
		return &ContentError{QuestionID: q.ID, Field: "topic", Reason: "empty"}
	}
	if q.Tier < 1 {
		return &ContentError{QuestionID: q.ID, Field: "tier", Reason: "must be >= 1"}
	}

	switch q.Type {
	case TypeMultipleChoice:
		if len(q.Options) < 2 {
			return &ContentError{QuestionID: q.ID, Field: "options", Reason: "need at least two"}
		}
		if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
			return &ContentError{QuestionID: q.ID, Field: "correctIndex", Reason: "out of range"}
		}
	case TypeTrueFalse:
		if len(q.Options) != 2 {
			return &ContentError{QuestionID: q.ID, Field: "options", Reason: "true/false needs exactly two"}
		}
		if q.CorrectIndex != 0 && q.CorrectIndex != 1 {
			return &ContentError{QuestionID: q.ID, Field: "correctIndex", Reason: "must be 0 or 1"}
		}
	case TypeFillInBlank:
		if len(q.CorrectAnswers) == 0 {
			return &ContentError{QuestionID: q.ID, Field: "correctAnswers", Reason: "empty"}
		}
		for _, a := range q.CorrectAnswers {
			if strings.TrimSpace(a) == "" {
				return &ContentError{QuestionID: q.ID, Field: "correctAnswers", Reason: "blank accepted answer"}
			}
		}
	case TypeDragAndDrop:
		if len(q.Blocks) < 2 {
			return &ContentError{QuestionID: q.ID, Field: "blocks", Reason: "need at least two"}
		}
		if len(q.CorrectOrder) != len(q.Blocks) {
			return &ContentError{QuestionID: q.ID, Field: "correctOrder", Reason: "length mismatch"}
		}
		seen := make(map[int]bool, len(q.CorrectOrder))
		for _, idx := range q.CorrectOrder {
			if idx < 0 || idx >= len(q.Blocks) || seen[idx] {
				return &ContentError{QuestionID: q.ID, Field: "correctOrder", Reason: "not a permutation"}
			}
			seen[idx] = true
		}
	default:
		return &ContentError{QuestionID: q.ID, Field: "type", Reason: fmt.Sprintf("unknown type %q", q.Type)}
	}
	return nil
}

// Validate checks every question in the set and fills in derived IDs.
// A single malformed record fails the whole set; partial content never loads.
func (s *QuestionSet) Validate() error {
	if s.Topic == "" {
		return &ContentError{Field: "topic", Reason: "empty"}
	}
	if len(s.Questions) == 0 {
		return &ContentError{Field: "questions", Reason: "empty set"}
	}
	for i := range s.Questions {
		q := &s.Questions[i]
		if q.Topic == "" {
			q.Topic = s.Topic
		}
		if q.ID == "" {
			q.ID = DeriveID(q.Prompt)
		}
		if err := q.Validate(); err != nil {
			return err
		}
	}
	for t, w := range s.TypeWeights {
		if w < 0 {
			return &ContentError{Field: "typeWeights", Reason: fmt.Sprintf("negative weight for %s", t)}
		}
	}
	return nil
}

// Shuffle returns a presentation copy with option/block order randomized and
// the correct index/order recomputed on the copy. The canonical record is
// never mutated; true/false layouts are fixed and pass through unchanged.
func (q Question) Shuffle(rnd *rand.Rand) Question {
	out := q
	switch q.Type {
	case TypeMultipleChoice:
		perm := rnd.Perm(len(q.Options))
		out.Options = make([]string, len(q.Options))
		for dst, src := range perm {
			out.Options[dst] = q.Options[src]
			if src == q.CorrectIndex {
				out.CorrectIndex = dst
			}
		}
	case TypeDragAndDrop:
		perm := rnd.Perm(len(q.Blocks))
		inverse := make([]int, len(perm))
		out.Blocks = make([]string, len(q.Blocks))
		for dst, src := range perm {
			out.Blocks[dst] = q.Blocks[src]
			inverse[src] = dst
		}
		out.CorrectOrder = make([]int, len(q.CorrectOrder))
		for i, src := range q.CorrectOrder {
			out.CorrectOrder[i] = inverse[src]
		}
	}
	return out
}

// QuestionView is the sanitized shape handed to renderers: no correct index,
// no correct order, no accepted answers.
type QuestionView struct {
	ID      string       `json:"id"`
	Type    QuestionType `json:"type"`
	Prompt  string       `json:"prompt"`
	Topic   string       `json:"topic"`
	Tier    int          `json:"tier"`
	Options []string     `json:"options,omitempty"`
	Blocks  []string     `json:"blocks,omitempty"`
}

// View strips correctness from a (usually shuffled) question copy.
func (q Question) View() QuestionView {
	return QuestionView{
		ID:      q.ID,
		Type:    q.Type,
		Prompt:  q.Prompt,
		Topic:   q.Topic,
		Tier:    q.Tier,
		Options: q.Options,
		Blocks:  q.Blocks,
	}
}
