package examsession

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/examhall/examhall-backend/internal/model"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// fakeClock returns a settable instant so expiry can be driven without
// sleeping.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// memoryStore records upserts in order, keyed like the real repository.
type memoryStore struct {
	upserts []model.ExamAttempt
}

func (s *memoryStore) Upsert(_ context.Context, attempt *model.ExamAttempt) error {
	snapshot := *attempt
	snapshot.Answers = append([]int(nil), attempt.Answers...)
	s.upserts = append(s.upserts, snapshot)
	return nil
}

func (s *memoryStore) last(t *testing.T) model.ExamAttempt {
	t.Helper()
	if len(s.upserts) == 0 {
		t.Fatal("expected at least one upsert")
	}
	return s.upserts[len(s.upserts)-1]
}

// failingStore fails every upsert until healed.
type failingStore struct {
	memoryStore
	fail bool
}

var errStoreDown = errors.New("store down")

func (s *failingStore) Upsert(ctx context.Context, attempt *model.ExamAttempt) error {
	if s.fail {
		return errStoreDown
	}
	return s.memoryStore.Upsert(ctx, attempt)
}

func intPtr(v int) *int { return &v }

func mcQuestion(correct int, choices ...string) model.Question {
	return model.Question{
		ID:            uuid.New(),
		Kind:          model.QuestionKindMultipleChoice,
		Choices:       choices,
		CorrectChoice: intPtr(correct),
	}
}

func testDefinition(timeLimitMinutes *int, questions ...model.Question) Definition {
	return Definition{
		Exam: &model.Exam{
			ID:               uuid.New(),
			Title:            "Unit Exam",
			TimeLimitMinutes: timeLimitMinutes,
			Status:           model.ExamStatusPublished,
		},
		Questions: questions,
	}
}

func TestStartPersistsFreshAttempt(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	store := &memoryStore{}
	def := testDefinition(nil, mcQuestion(1, "a", "b"), mcQuestion(2, "a", "b"))

	sess := New(store, clock)
	if err := sess.Start(context.Background(), def, 42); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if sess.State() != StateInProgress {
		t.Fatalf("expected InProgress, got %s", sess.State())
	}
	saved := store.last(t)
	if saved.UserID != 42 || saved.ExamID != def.Exam.ID {
		t.Errorf("persisted attempt keyed (%d, %s)", saved.UserID, saved.ExamID)
	}
	if !saved.StartedAt.Equal(clock.now) {
		t.Errorf("StartedAt = %s, want %s", saved.StartedAt, clock.now)
	}
	if len(saved.Answers) != 2 {
		t.Fatalf("answers sized %d, want 2", len(saved.Answers))
	}
	for i, a := range saved.Answers {
		if a != model.UnansweredChoice {
			t.Errorf("answer %d = %d, want unanswered", i, a)
		}
	}
}

func TestStartRejectsEmptyDefinition(t *testing.T) {
	sess := New(&memoryStore{}, &fakeClock{now: time.Now()})
	err := sess.Start(context.Background(), testDefinition(nil), 1)
	if !errors.Is(err, ErrNoQuestions) {
		t.Fatalf("expected ErrNoQuestions, got %v", err)
	}
	if sess.State() != StateNotStarted {
		t.Errorf("state mutated to %s", sess.State())
	}
}

func TestStartPersistFailureLeavesNotStarted(t *testing.T) {
	store := &failingStore{fail: true}
	sess := New(store, &fakeClock{now: time.Now()})
	def := testDefinition(nil, mcQuestion(1, "a", "b"))

	if err := sess.Start(context.Background(), def, 1); !errors.Is(err, errStoreDown) {
		t.Fatalf("expected store error, got %v", err)
	}
	if sess.State() != StateNotStarted {
		t.Fatalf("expected NotStarted after failed persist, got %s", sess.State())
	}

	// The same call succeeds once the store recovers.
	store.fail = false
	if err := sess.Start(context.Background(), def, 1); err != nil {
		t.Fatalf("retry Start: %v", err)
	}
	if sess.State() != StateInProgress {
		t.Errorf("expected InProgress after retry, got %s", sess.State())
	}
}

func TestSelectAnswerOverwrites(t *testing.T) {
	sess := New(&memoryStore{}, &fakeClock{now: time.Now()})
	def := testDefinition(nil, mcQuestion(1, "a", "b", "c"))
	if err := sess.Start(context.Background(), def, 1); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if err := sess.SelectAnswer(0, 2); err != nil {
		t.Fatalf("SelectAnswer: %v", err)
	}
	if err := sess.SelectAnswer(0, 0); err != nil {
		t.Fatalf("SelectAnswer overwrite: %v", err)
	}
	if got := sess.Attempt().Answers[0]; got != 0 {
		t.Errorf("answer = %d, want 0", got)
	}
}

func TestSelectAnswerRejectsOutOfRange(t *testing.T) {
	sess := New(&memoryStore{}, &fakeClock{now: time.Now()})
	open := model.Question{ID: uuid.New(), Kind: model.QuestionKindOpenEnded}
	def := testDefinition(nil, mcQuestion(1, "a", "b"), open)
	if err := sess.Start(context.Background(), def, 1); err != nil {
		t.Fatalf("Start: %v", err)
	}

	cases := []struct {
		name          string
		questionIndex int
		choiceIndex   int
		want          error
	}{
		{"negative question", -1, 0, ErrQuestionIndex},
		{"question past end", 2, 0, ErrQuestionIndex},
		{"negative choice", 0, -1, ErrChoiceIndex},
		{"choice past end", 0, 2, ErrChoiceIndex},
		{"open ended has no choices", 1, 0, ErrChoiceIndex},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := sess.SelectAnswer(tc.questionIndex, tc.choiceIndex); !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}

	// Rejections never mutate.
	for i, a := range sess.Attempt().Answers {
		if a != model.UnansweredChoice {
			t.Errorf("answer %d = %d after rejected selections", i, a)
		}
	}
}

func TestNavigateClamps(t *testing.T) {
	sess := New(&memoryStore{}, &fakeClock{now: time.Now()})
	def := testDefinition(nil, mcQuestion(1, "a"), mcQuestion(1, "a"), mcQuestion(1, "a"))
	if err := sess.Start(context.Background(), def, 1); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if cursor, _ := sess.Navigate(-5); cursor != 0 {
		t.Errorf("cursor = %d, want clamp to 0", cursor)
	}
	if cursor, _ := sess.Navigate(2); cursor != 2 {
		t.Errorf("cursor = %d, want 2", cursor)
	}
	if cursor, _ := sess.Navigate(10); cursor != 2 {
		t.Errorf("cursor = %d, want clamp to 2", cursor)
	}
}

func TestSubmitScoresAndFinalizes(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	store := &memoryStore{}
	def := testDefinition(nil,
		mcQuestion(1, "a", "b"),
		mcQuestion(2, "a", "b"),
		model.Question{ID: uuid.New(), Kind: model.QuestionKindOpenEnded},
	)

	sess := New(store, clock)
	if err := sess.Start(context.Background(), def, 7); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := sess.SelectAnswer(0, 0); err != nil { // correct
		t.Fatalf("SelectAnswer: %v", err)
	}
	if err := sess.SelectAnswer(1, 0); err != nil { // wrong
		t.Fatalf("SelectAnswer: %v", err)
	}

	clock.Advance(10 * time.Minute)
	if err := sess.Submit(context.Background(), false); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if sess.State() != StateSubmitted {
		t.Fatalf("expected Submitted, got %s", sess.State())
	}

	final := store.last(t)
	if !final.Completed {
		t.Error("persisted attempt not marked completed")
	}
	if final.CompletedAt == nil || !final.CompletedAt.Equal(clock.now) {
		t.Errorf("CompletedAt = %v, want %s", final.CompletedAt, clock.now)
	}
	// 1 of 3 questions correct; the open-ended one counts in the denominator.
	if final.ScorePercent == nil || *final.ScorePercent != 33 {
		t.Errorf("ScorePercent = %v, want 33", final.ScorePercent)
	}
}

func TestSubmitTwiceReturnsAlreadyCompleted(t *testing.T) {
	store := &memoryStore{}
	sess := New(store, &fakeClock{now: time.Now()})
	if err := sess.Start(context.Background(), testDefinition(nil, mcQuestion(1, "a")), 1); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := sess.Submit(context.Background(), false); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	before := len(store.upserts)
	if err := sess.Submit(context.Background(), true); !errors.Is(err, ErrAlreadyCompleted) {
		t.Fatalf("expected ErrAlreadyCompleted, got %v", err)
	}
	if len(store.upserts) != before {
		t.Error("second submit persisted again")
	}
}

func TestSubmitPersistFailureIsRetryable(t *testing.T) {
	store := &failingStore{}
	sess := New(store, &fakeClock{now: time.Now()})
	if err := sess.Start(context.Background(), testDefinition(nil, mcQuestion(1, "a", "b")), 1); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := sess.SelectAnswer(0, 0); err != nil {
		t.Fatalf("SelectAnswer: %v", err)
	}

	store.fail = true
	if err := sess.Submit(context.Background(), false); !errors.Is(err, errStoreDown) {
		t.Fatalf("expected store error, got %v", err)
	}
	if sess.State() != StateInProgress {
		t.Fatalf("expected InProgress after failed persist, got %s", sess.State())
	}
	if sess.Attempt().Completed {
		t.Error("in-memory attempt marked completed despite failed persist")
	}

	store.fail = false
	if err := sess.Submit(context.Background(), false); err != nil {
		t.Fatalf("retry Submit: %v", err)
	}
	final := store.last(t)
	if final.ScorePercent == nil || *final.ScorePercent != 100 {
		t.Errorf("ScorePercent = %v, want 100", final.ScorePercent)
	}
}

func TestResumeCompletedAttemptKeepsScore(t *testing.T) {
	store := &memoryStore{}
	def := testDefinition(nil, mcQuestion(1, "a", "b"), mcQuestion(1, "a", "b"))

	completedAt := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	score := 50
	saved := &model.ExamAttempt{
		UserID:       3,
		ExamID:       def.Exam.ID,
		Answers:      []int{0, 1},
		Completed:    true,
		StartedAt:    completedAt.Add(-20 * time.Minute),
		CompletedAt:  &completedAt,
		ScorePercent: &score,
	}

	sess := New(store, &fakeClock{now: time.Now()})
	if err := sess.Resume(context.Background(), saved, def); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if sess.State() != StateSubmitted {
		t.Fatalf("expected Submitted, got %s", sess.State())
	}
	if len(store.upserts) != 0 {
		t.Error("resuming a completed attempt re-persisted it")
	}
	if got := sess.Attempt().ScorePercent; got == nil || *got != 50 {
		t.Errorf("ScorePercent = %v, want stored 50", got)
	}
}

func TestResumeExpiredAttemptForceSubmits(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	store := &memoryStore{}
	def := testDefinition(intPtr(30), mcQuestion(1, "a", "b"))

	saved := &model.ExamAttempt{
		UserID:    5,
		ExamID:    def.Exam.ID,
		Answers:   []int{0},
		StartedAt: clock.now.Add(-45 * time.Minute),
	}

	sess := New(store, clock)
	if err := sess.Resume(context.Background(), saved, def); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if sess.State() != StateSubmitted {
		t.Fatalf("expected forced submit on resume, got %s", sess.State())
	}
	final := store.last(t)
	if !final.Completed {
		t.Error("expired attempt not completed")
	}
	if final.ScorePercent == nil || *final.ScorePercent != 100 {
		t.Errorf("ScorePercent = %v, want 100", final.ScorePercent)
	}
}

func TestResumeRejectsAnswerCountMismatch(t *testing.T) {
	def := testDefinition(nil, mcQuestion(1, "a"), mcQuestion(1, "a"))
	saved := &model.ExamAttempt{
		UserID:    1,
		ExamID:    def.Exam.ID,
		Answers:   []int{0},
		StartedAt: time.Now(),
	}

	sess := New(&memoryStore{}, &fakeClock{now: time.Now()})
	if err := sess.Resume(context.Background(), saved, def); !errors.Is(err, ErrAnswerCount) {
		t.Fatalf("expected ErrAnswerCount, got %v", err)
	}
	if sess.State() != StateNotStarted {
		t.Errorf("state mutated to %s", sess.State())
	}
}

func TestRemaining(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	def := testDefinition(intPtr(30), mcQuestion(1, "a"))

	sess := New(&memoryStore{}, clock)
	if err := sess.Start(context.Background(), def, 1); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if remaining, limited := sess.Remaining(); !limited || remaining != 30*time.Minute {
		t.Errorf("remaining = %v limited=%v, want 30m true", remaining, limited)
	}
	clock.Advance(12 * time.Minute)
	if remaining, _ := sess.Remaining(); remaining != 18*time.Minute {
		t.Errorf("remaining = %v, want 18m", remaining)
	}
	clock.Advance(time.Hour)
	if remaining, _ := sess.Remaining(); remaining != 0 {
		t.Errorf("remaining = %v, want 0 after expiry", remaining)
	}
}

func TestRemainingWithoutLimit(t *testing.T) {
	sess := New(&memoryStore{}, &fakeClock{now: time.Now()})
	if err := sess.Start(context.Background(), testDefinition(nil, mcQuestion(1, "a")), 1); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, limited := sess.Remaining(); limited {
		t.Error("attempt without time limit reported as limited")
	}
}

func TestScore(t *testing.T) {
	open := model.Question{Kind: model.QuestionKindOpenEnded}
	ungradable := model.Question{Kind: model.QuestionKindMultipleChoice, Choices: []string{"a", "b"}}

	cases := []struct {
		name      string
		questions []model.Question
		answers   []int
		want      int
	}{
		{"no questions", nil, nil, 0},
		{"all correct", []model.Question{mcQuestion(1, "a", "b"), mcQuestion(2, "a", "b")}, []int{0, 1}, 100},
		{"all wrong", []model.Question{mcQuestion(1, "a", "b"), mcQuestion(2, "a", "b")}, []int{1, 0}, 0},
		{"unanswered never correct", []model.Question{mcQuestion(1, "a", "b")}, []int{model.UnansweredChoice}, 0},
		{"one of three rounds to 33", []model.Question{mcQuestion(1, "a"), mcQuestion(1, "a", "b"), mcQuestion(1, "a", "b")}, []int{0, 1, 1}, 33},
		{"two of three rounds to 67", []model.Question{mcQuestion(1, "a"), mcQuestion(1, "a"), mcQuestion(1, "a", "b")}, []int{0, 0, 1}, 67},
		{"open ended counts only in denominator", []model.Question{mcQuestion(1, "a"), open}, []int{0, model.UnansweredChoice}, 50},
		{"missing correct choice never scores", []model.Question{ungradable, mcQuestion(1, "a")}, []int{0, 0}, 50},
		{"short answer slice", []model.Question{mcQuestion(1, "a"), mcQuestion(1, "a")}, []int{0}, 50},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Score(tc.questions, tc.answers); got != tc.want {
				t.Fatalf("Score = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestManagerStartIsIdempotentPerKey(t *testing.T) {
	mgr := NewManager(&memoryStore{}, &fakeClock{now: time.Now()}, zerolog.Nop())
	def := testDefinition(nil, mcQuestion(1, "a", "b"))

	first, err := mgr.Start(context.Background(), def, 9)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := first.SelectAnswer(0, 1); err != nil {
		t.Fatalf("SelectAnswer: %v", err)
	}

	again, err := mgr.Start(context.Background(), def, 9)
	if err != nil {
		t.Fatalf("second Start: %v", err)
	}
	if again != first {
		t.Fatal("second Start created a new session instead of resuming")
	}
	if got := again.Attempt().Answers[0]; got != 1 {
		t.Errorf("answer = %d, progress lost across Start calls", got)
	}
}

func TestManagerFailedStartLeavesNoSession(t *testing.T) {
	store := &failingStore{fail: true}
	mgr := NewManager(store, &fakeClock{now: time.Now()}, zerolog.Nop())
	def := testDefinition(nil, mcQuestion(1, "a"))

	if _, err := mgr.Start(context.Background(), def, 2); !errors.Is(err, errStoreDown) {
		t.Fatalf("expected store error, got %v", err)
	}
	if mgr.Get(2, def.Exam.ID) != nil {
		t.Fatal("failed start left a registered session")
	}

	store.fail = false
	if _, err := mgr.Start(context.Background(), def, 2); err != nil {
		t.Fatalf("retry Start: %v", err)
	}
}

func TestManagerSessionsAreIsolatedPerKey(t *testing.T) {
	mgr := NewManager(&memoryStore{}, &fakeClock{now: time.Now()}, zerolog.Nop())
	def := testDefinition(nil, mcQuestion(1, "a", "b"))

	one, err := mgr.Start(context.Background(), def, 1)
	if err != nil {
		t.Fatalf("Start user 1: %v", err)
	}
	two, err := mgr.Start(context.Background(), def, 2)
	if err != nil {
		t.Fatalf("Start user 2: %v", err)
	}
	if one == two {
		t.Fatal("different users share a session")
	}

	if err := one.SelectAnswer(0, 1); err != nil {
		t.Fatalf("SelectAnswer: %v", err)
	}
	if got := two.Attempt().Answers[0]; got != model.UnansweredChoice {
		t.Errorf("user 2 answer = %d, leaked from user 1", got)
	}
}

// gatedStore signals when an upsert enters and holds it until the test
// releases it with an error (or nil to let it through).
type gatedStore struct {
	memoryStore
	entered chan struct{}
	release chan error
}

func (s *gatedStore) Upsert(ctx context.Context, attempt *model.ExamAttempt) error {
	s.entered <- struct{}{}
	if err := <-s.release; err != nil {
		return err
	}
	return s.memoryStore.Upsert(ctx, attempt)
}

func TestManagerGetHidesUnpersistedSession(t *testing.T) {
	store := &gatedStore{entered: make(chan struct{}), release: make(chan error)}
	mgr := NewManager(store, &fakeClock{now: time.Now()}, zerolog.Nop())
	def := testDefinition(nil, mcQuestion(1, "a", "b"))

	errCh := make(chan error, 1)
	go func() {
		_, err := mgr.Start(context.Background(), def, 6)
		errCh <- err
	}()

	// The start is now blocked inside its initial persist. A concurrent
	// lookup must not see the half-started session: its Attempt() is still
	// nil and callers dereference the attempt.
	<-store.entered
	if sess := mgr.Get(6, def.Exam.ID); sess != nil {
		t.Fatalf("Get returned a session mid-start (Attempt() = %v)", sess.Attempt())
	}

	store.release <- errStoreDown
	if err := <-errCh; !errors.Is(err, errStoreDown) {
		t.Fatalf("expected store error, got %v", err)
	}
	if mgr.Get(6, def.Exam.ID) != nil {
		t.Fatal("failed start left a registered session")
	}
}

func TestManagerConcurrentStartSharesOneSession(t *testing.T) {
	store := &gatedStore{entered: make(chan struct{}), release: make(chan error, 1)}
	mgr := NewManager(store, &fakeClock{now: time.Now()}, zerolog.Nop())
	def := testDefinition(nil, mcQuestion(1, "a", "b"))

	results := make(chan *Session, 2)
	go func() {
		sess, err := mgr.Start(context.Background(), def, 8)
		if err != nil {
			t.Errorf("first Start: %v", err)
		}
		results <- sess
	}()

	<-store.entered
	// Second starter arrives while the first persist is still in flight. It
	// must wait for the outcome rather than race a duplicate into the map.
	go func() {
		sess, err := mgr.Start(context.Background(), def, 8)
		if err != nil {
			t.Errorf("second Start: %v", err)
		}
		results <- sess
	}()

	store.release <- nil
	first, second := <-results, <-results
	if first == nil || first != second {
		t.Fatal("concurrent starts produced different sessions")
	}
	if first.State() != StateInProgress {
		t.Errorf("shared session state = %s, want InProgress", first.State())
	}
}

func TestManagerRemoveKeepsAttemptResumable(t *testing.T) {
	store := &memoryStore{}
	mgr := NewManager(store, &fakeClock{now: time.Now()}, zerolog.Nop())
	def := testDefinition(intPtr(30), mcQuestion(1, "a", "b"))

	sess, err := mgr.Start(context.Background(), def, 4)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	saved := sess.Attempt()
	mgr.Remove(4, def.Exam.ID)

	if mgr.Get(4, def.Exam.ID) != nil {
		t.Fatal("session still registered after Remove")
	}

	resumed, err := mgr.Resume(context.Background(), saved, def)
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if resumed.State() != StateInProgress {
		t.Errorf("resumed state = %s, want InProgress", resumed.State())
	}
}
