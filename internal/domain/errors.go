package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrPoolEmpty is returned when a topic/tier has zero questions defined
	// at all. Mere exhaustion resets the pool and is never an error.
	ErrPoolEmpty = errors.New("no questions defined for topic and tier")
	// ErrTopicNotFound indicates the question content could not be loaded.
	ErrTopicNotFound = errors.New("topic not found")
	// ErrBattleNotFound is returned when a handle does not resolve to a battle.
	ErrBattleNotFound = errors.New("battle not found")
	// ErrBattleNotFinished is returned when a final result is requested early.
	ErrBattleNotFinished = errors.New("battle not finished")
	// ErrNoActiveQuestion is returned when no question is currently presented.
	ErrNoActiveQuestion = errors.New("no active question")
)

// ContentError reports malformed question data. It is fatal at load time and
// aborts bank initialization so battles never see an invalid record.
type ContentError struct {
	QuestionID string
	Field      string
	Reason     string
}

func (e *ContentError) Error() string {
	if e.QuestionID == "" {
		return fmt.Sprintf("invalid question content: %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid question %s: %s: %s", e.QuestionID, e.Field, e.Reason)
}
