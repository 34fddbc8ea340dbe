// Package quiz drives one user's attempt through the quiz state machine:
// category and difficulty selection, setup validation, timed answering and
// final scoring.
package quiz

import (
	"errors"
	"fmt"
	"time"

	"rcsquiz/internal/question"
)

type State string

const (
	StateCategorySelection   State = "category_selection"
	StateDifficultySelection State = "difficulty_selection"
	StateSetup               State = "setup"
	StateInProgress          State = "in_progress"
	StateCompleted           State = "completed"
)

const (
	minTimeLimitMinutes = 1
	maxTimeLimitMinutes = 120
)

var (
	ErrInvalidSetup      = errors.New("invalid setup")
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrNotCompleted      = errors.New("attempt is not completed")
	ErrCompleted         = errors.New("attempt is already completed")
)

// Answer records one submitted choice. The correct answer is kept alongside
// so the results view can show both without another bank lookup.
type Answer struct {
	Question  string `json:"question"`
	Chosen    string `json:"chosen"`
	Correct   string `json:"correct"`
	IsCorrect bool   `json:"isCorrect"`
}

// Attempt is one quiz run. It is ephemeral: it lives in the user's session
// context only and is discarded after results are shown or the user
// restarts. A single session drives it, so it carries no lock of its own.
type Attempt struct {
	UserID        string
	State         State
	Category      string
	Difficulty    string
	QuestionCount int
	TimeLimit     time.Duration
	Questions     []question.Question
	CurrentIndex  int
	Answers       []Answer
	Score         int
	StartedAt     time.Time
}

// NewAttempt starts the state machine at category selection.
func NewAttempt(userID string) *Attempt {
	return &Attempt{UserID: userID, State: StateCategorySelection}
}

func (a *Attempt) ChooseCategory(category string) error {
	if a.State != StateCategorySelection {
		return ErrInvalidTransition
	}
	a.Category = category
	a.State = StateDifficultySelection
	return nil
}

func (a *Attempt) ChooseDifficulty(difficulty string) error {
	if a.State != StateDifficultySelection {
		return ErrInvalidTransition
	}
	a.Difficulty = difficulty
	a.State = StateSetup
	return nil
}

// ValidateSetup checks the question count against availability and the time
// limit against the 1..120 minute window. Violations are user errors, not
// fatal ones.
func ValidateSetup(questionCount, available, timeLimitMinutes int) error {
	if questionCount < 1 || questionCount > available {
		return fmt.Errorf("%w: question count must be between 1 and %d", ErrInvalidSetup, available)
	}
	if timeLimitMinutes < minTimeLimitMinutes || timeLimitMinutes > maxTimeLimitMinutes {
		return fmt.Errorf("%w: time limit must be between %d and %d minutes",
			ErrInvalidSetup, minTimeLimitMinutes, maxTimeLimitMinutes)
	}
	return nil
}

// Start transitions to in-progress with the selected question sequence.
// The caller validates setup and samples the questions from the bank.
func (a *Attempt) Start(questions []question.Question, timeLimit time.Duration, now time.Time) error {
	if a.State != StateSetup {
		return ErrInvalidTransition
	}
	if len(questions) == 0 {
		return fmt.Errorf("%w: no questions selected", ErrInvalidSetup)
	}
	a.Questions = questions
	a.QuestionCount = len(questions)
	a.TimeLimit = timeLimit
	a.StartedAt = now
	a.CurrentIndex = 0
	a.State = StateInProgress
	return nil
}

// Deadline is the instant the timer reaches zero.
func (a *Attempt) Deadline() time.Time {
	return a.StartedAt.Add(a.TimeLimit)
}

// Remaining returns the whole seconds left on the timer, never negative.
func (a *Attempt) Remaining(now time.Time) int {
	if a.State != StateInProgress {
		return 0
	}
	left := a.Deadline().Sub(now)
	if left < 0 {
		return 0
	}
	return int(left / time.Second)
}

// ExpireIfDue force-completes the attempt once the deadline has passed.
// Answers recorded so far stand; the unanswered remainder is absent, not
// wrong. Reports whether the attempt is (now) completed.
func (a *Attempt) ExpireIfDue(now time.Time) bool {
	if a.State == StateCompleted {
		return true
	}
	if a.State != StateInProgress {
		return false
	}
	if now.Before(a.Deadline()) {
		return false
	}
	a.State = StateCompleted
	return true
}

// CurrentQuestion returns the question awaiting an answer.
func (a *Attempt) CurrentQuestion() (question.Question, bool) {
	if a.State != StateInProgress || a.CurrentIndex >= len(a.Questions) {
		return question.Question{}, false
	}
	return a.Questions[a.CurrentIndex], true
}

// SubmitAnswer records the choice for the question at index. The first
// submission per question is final: an index that is not the current one is
// a no-op and applied=false is returned. Answering the last question, or
// submitting past the deadline, completes the attempt.
func (a *Attempt) SubmitAnswer(index int, choice string, now time.Time) (applied bool, err error) {
	if a.State == StateCompleted {
		return false, ErrCompleted
	}
	if a.State != StateInProgress {
		return false, ErrInvalidTransition
	}
	// Timer beats the answer: a submission after the deadline does not
	// count, the attempt just completes with what was recorded.
	if a.ExpireIfDue(now) {
		return false, nil
	}
	if index != a.CurrentIndex {
		return false, nil
	}

	q := a.Questions[a.CurrentIndex]
	correct := choice == q.TrueAnswer
	a.Answers = append(a.Answers, Answer{
		Question:  q.Text,
		Chosen:    choice,
		Correct:   q.TrueAnswer,
		IsCorrect: correct,
	})
	if correct {
		a.Score++
	}
	a.CurrentIndex++
	if a.CurrentIndex >= len(a.Questions) {
		a.State = StateCompleted
	}
	return true, nil
}

// Result summarizes a completed attempt. Percentage is computed over the
// answered questions only; zero answered yields 0%.
type Result struct {
	Category      string   `json:"category"`
	Difficulty    string   `json:"difficulty"`
	QuestionCount int      `json:"questionCount"`
	Answered      int      `json:"answered"`
	Score         int      `json:"score"`
	Percentage    float64  `json:"percentage"`
	Band          string   `json:"band"`
	Answers       []Answer `json:"answers"`
}

func (a *Attempt) Result() (Result, error) {
	if a.State != StateCompleted {
		return Result{}, ErrNotCompleted
	}
	answered := len(a.Answers)
	pct := 0.0
	if answered > 0 {
		pct = float64(a.Score) / float64(answered) * 100
	}
	return Result{
		Category:      a.Category,
		Difficulty:    a.Difficulty,
		QuestionCount: a.QuestionCount,
		Answered:      answered,
		Score:         a.Score,
		Percentage:    pct,
		Band:          Band(pct),
		Answers:       a.Answers,
	}, nil
}

// Band classifies a percentage into a presentational performance label.
func Band(percentage float64) string {
	switch {
	case percentage >= 90:
		return "Excellent"
	case percentage >= 80:
		return "Good"
	case percentage >= 60:
		return "Average"
	default:
		return "Needs Improvement"
	}
}
