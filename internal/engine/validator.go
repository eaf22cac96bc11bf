package engine

import (
	"strings"

	"battle-quiz-service/internal/domain"
)

// CheckAnswer decides correctness for a submitted answer against a question.
// Pure: same (question, answer) pair always yields the same result. The
// question is expected to be the presented copy, so indices refer to the
// option/block order the renderer showed.
func CheckAnswer(q domain.Question, a domain.Answer) bool {
	switch q.Type {
	case domain.TypeMultipleChoice, domain.TypeTrueFalse:
		return a.OptionIndex == q.CorrectIndex
	case domain.TypeFillInBlank:
		return checkFillIn(q, a.Text)
	case domain.TypeDragAndDrop:
		return checkOrder(q, a.Order)
	}
	return false
}

func checkFillIn(q domain.Question, submitted string) bool {
	normalized := Normalize(submitted)
	if normalized == "" {
		return false
	}
	for _, accepted := range q.CorrectAnswers {
		if normalized == Normalize(accepted) {
			return true
		}
	}
	return false
}

// checkOrder compares by block content, not index, so duplicate blocks in
// different slots still validate. All-or-nothing; no partial credit.
func checkOrder(q domain.Question, order []int) bool {
	if len(order) != len(q.CorrectOrder) {
		return false
	}
	for i, idx := range order {
		if idx < 0 || idx >= len(q.Blocks) {
			return false
		}
		if q.Blocks[idx] != q.Blocks[q.CorrectOrder[i]] {
			return false
		}
	}
	return true
}

// Normalize trims and case-folds a free-text submission.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
