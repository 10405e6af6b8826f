// Package examsession runs the lifecycle of one user attempting one exam:
// answer capture, question cursor, countdown, submission (manual or forced),
// and scoring. All transitions of a Session funnel through one mutex, so a
// timer tick and a user-driven submit can never both finalize an attempt.
package examsession

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/examhall/examhall-backend/internal/model"
)

// State errors surfaced to callers as precondition violations. They never
// mutate session state.
var (
	ErrNotInProgress    = errors.New("attempt is not in progress")
	ErrAlreadyStarted   = errors.New("attempt already started")
	ErrAlreadyCompleted = errors.New("attempt is already completed")
	ErrQuestionIndex    = errors.New("question index out of range")
	ErrChoiceIndex      = errors.New("choice index out of range")
	ErrNoQuestions      = errors.New("exam definition has no questions")
	ErrAnswerCount      = errors.New("saved answers do not match question count")
)

// State tags the attempt lifecycle. Submitted is terminal; the tag (not a
// bare completed flag) is what guards against double finalization.
type State int

const (
	StateNotStarted State = iota
	StateInProgress
	StateSubmitted
)

// String returns the state name for logging.
func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "NOT_STARTED"
	case StateInProgress:
		return "IN_PROGRESS"
	case StateSubmitted:
		return "SUBMITTED"
	}
	return "UNKNOWN"
}

// Clock abstracts wall time so tests can drive expiry deterministically.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the production clock.
var SystemClock Clock = systemClock{}

// ResultStore persists attempts. Upsert is keyed by (UserID, ExamID): storing
// the initial attempt twice must not create a duplicate, and storing the
// final attempt twice must be harmless.
type ResultStore interface {
	Upsert(ctx context.Context, attempt *model.ExamAttempt) error
}

// Definition bundles an exam with its ordered questions.
type Definition struct {
	Exam      *model.Exam
	Questions []model.Question
}

// Session is the single-writer state machine for one (user, exam) attempt.
type Session struct {
	mu    sync.Mutex
	clock Clock
	store ResultStore

	state     State
	def       Definition
	attempt   *model.ExamAttempt
	countdown *countdown
}

// New creates a session in NotStarted. A nil clock selects the system clock.
func New(store ResultStore, clock Clock) *Session {
	if clock == nil {
		clock = SystemClock
	}
	return &Session{clock: clock, store: store}
}

// Start allocates a fresh attempt with every answer unanswered, persists it
// immediately (so a reload can resume instead of losing progress), and enters
// InProgress. If persistence fails the session stays in NotStarted untouched
// and the caller may retry.
func (s *Session) Start(ctx context.Context, def Definition, userID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateNotStarted {
		return ErrAlreadyStarted
	}
	if len(def.Questions) == 0 {
		return ErrNoQuestions
	}

	attempt := model.NewExamAttempt(userID, def.Exam.ID, len(def.Questions), s.clock.Now())
	if err := s.store.Upsert(ctx, attempt); err != nil {
		return err
	}

	s.def = def
	s.attempt = attempt
	s.state = StateInProgress
	s.armCountdownLocked()
	return nil
}

// Resume re-enters a saved attempt. A completed attempt goes straight to
// Submitted with its stored answers and score — no re-scoring. An open
// attempt re-enters InProgress with the countdown recomputed from StartedAt;
// if the time limit already elapsed, the forced-submit path runs immediately.
func (s *Session) Resume(ctx context.Context, saved *model.ExamAttempt, def Definition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateNotStarted {
		return ErrAlreadyStarted
	}
	if len(def.Questions) == 0 {
		return ErrNoQuestions
	}
	if len(saved.Answers) != len(def.Questions) {
		return ErrAnswerCount
	}

	s.def = def
	s.attempt = saved

	if saved.Completed {
		s.state = StateSubmitted
		return nil
	}

	s.state = StateInProgress
	if remaining, limited := s.remainingLocked(); limited && remaining <= 0 {
		return s.submitLocked(ctx, true)
	}
	s.armCountdownLocked()
	return nil
}

// SelectAnswer overwrites the answer for one question. Repeated selections
// replace the prior value; no history is kept. Out-of-range indexes are
// rejected without mutation.
func (s *Session) SelectAnswer(questionIndex, choiceIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInProgress {
		return ErrNotInProgress
	}
	if questionIndex < 0 || questionIndex >= len(s.def.Questions) {
		return ErrQuestionIndex
	}
	q := s.def.Questions[questionIndex]
	if choiceIndex < 0 || choiceIndex >= len(q.Choices) {
		return ErrChoiceIndex
	}

	s.attempt.Answers[questionIndex] = choiceIndex
	return nil
}

// Navigate moves the current-question cursor by delta, clamped to the valid
// range. The cursor is pure UI state and never touches answers.
func (s *Session) Navigate(delta int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInProgress {
		return 0, ErrNotInProgress
	}

	cursor := s.attempt.CurrentQuestion + delta
	if cursor < 0 {
		cursor = 0
	}
	if max := len(s.def.Questions) - 1; cursor > max {
		cursor = max
	}
	s.attempt.CurrentQuestion = cursor
	return cursor, nil
}

// Submit finalizes the attempt: scores it, marks it completed, persists it,
// and enters Submitted. forced marks countdown expiry rather than user
// action; the transition is otherwise identical. If persistence fails the
// in-memory state is left exactly as before the call so Submit can be
// retried — scoring is a pure recomputation from the same answers.
func (s *Session) Submit(ctx context.Context, forced bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateSubmitted:
		return ErrAlreadyCompleted
	case StateInProgress:
		return s.submitLocked(ctx, forced)
	}
	return ErrNotInProgress
}

// submitLocked runs the finalize transition. Caller holds the mutex and has
// verified state == StateInProgress.
func (s *Session) submitLocked(ctx context.Context, forced bool) error {
	_ = forced // same transition either way; callers differ only in notification

	score := Score(s.def.Questions, s.attempt.Answers)
	now := s.clock.Now()

	final := *s.attempt
	final.Answers = append([]int(nil), s.attempt.Answers...)
	final.Completed = true
	final.CompletedAt = &now
	final.ScorePercent = &score

	if err := s.store.Upsert(ctx, &final); err != nil {
		return err
	}

	s.attempt = &final
	s.state = StateSubmitted
	s.stopCountdownLocked()
	return nil
}

// Remaining returns the time left and whether the exam has a limit at all.
// Without a limit the attempt never expires.
func (s *Session) Remaining() (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remainingLocked()
}

func (s *Session) remainingLocked() (time.Duration, bool) {
	if s.attempt == nil || s.def.Exam == nil || s.def.Exam.TimeLimitMinutes == nil {
		return 0, false
	}
	limit := time.Duration(*s.def.Exam.TimeLimitMinutes) * time.Minute
	remaining := limit - s.clock.Now().Sub(s.attempt.StartedAt)
	if remaining < 0 {
		remaining = 0
	}
	return remaining, true
}

// State returns the current lifecycle tag.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Attempt returns a snapshot copy of the attempt, or nil before Start.
func (s *Session) Attempt() *model.ExamAttempt {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.attempt == nil {
		return nil
	}
	snapshot := *s.attempt
	snapshot.Answers = append([]int(nil), s.attempt.Answers...)
	return &snapshot
}

// Close tears down the countdown without touching the persisted attempt.
// Navigating away from an exam keeps it resumable; only the timer dies.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopCountdownLocked()
}

// Score computes the automatic score: round(100 * correct / questionCount).
// A question is correct iff it is MULTIPLE_CHOICE, has a defined
// CorrectChoice, and the 0-based answer matches CorrectChoice-1. OPEN_ENDED
// questions require manual grading and never count toward the score.
func Score(questions []model.Question, answers []int) int {
	if len(questions) == 0 {
		return 0
	}

	correct := 0
	for i, q := range questions {
		if q.Kind != model.QuestionKindMultipleChoice || q.CorrectChoice == nil {
			continue
		}
		if i < len(answers) && answers[i] == *q.CorrectChoice-1 {
			correct++
		}
	}

	return int(math.Round(100 * float64(correct) / float64(len(questions))))
}
