package service

import (
	"errors"
	"testing"

	"github.com/examhall/examhall-backend/internal/model"
	"github.com/google/uuid"
)

func TestBuildQuestion(t *testing.T) {
	two := 2
	four := 4
	zero := 0

	cases := []struct {
		name string
		req  model.AddQuestionRequest
		want error
	}{
		{
			name: "valid multiple choice",
			req:  model.AddQuestionRequest{Title: "q", Kind: "MULTIPLE_CHOICE", Choices: []string{"a", "b", "c"}, CorrectChoice: &two},
		},
		{
			name: "multiple choice without answer key is allowed",
			req:  model.AddQuestionRequest{Title: "q", Kind: "MULTIPLE_CHOICE", Choices: []string{"a", "b"}},
		},
		{
			name: "valid open ended",
			req:  model.AddQuestionRequest{Title: "q", Kind: "OPEN_ENDED"},
		},
		{
			name: "multiple choice needs two choices",
			req:  model.AddQuestionRequest{Title: "q", Kind: "MULTIPLE_CHOICE", Choices: []string{"a"}},
			want: ErrChoicesRequired,
		},
		{
			name: "correct choice past end",
			req:  model.AddQuestionRequest{Title: "q", Kind: "MULTIPLE_CHOICE", Choices: []string{"a", "b"}, CorrectChoice: &four},
			want: ErrCorrectChoiceRange,
		},
		{
			name: "correct choice is one based",
			req:  model.AddQuestionRequest{Title: "q", Kind: "MULTIPLE_CHOICE", Choices: []string{"a", "b"}, CorrectChoice: &zero},
			want: ErrCorrectChoiceRange,
		},
		{
			name: "open ended rejects choices",
			req:  model.AddQuestionRequest{Title: "q", Kind: "OPEN_ENDED", Choices: []string{"a"}},
			want: ErrChoicesNotAllowed,
		},
		{
			name: "open ended rejects answer key",
			req:  model.AddQuestionRequest{Title: "q", Kind: "OPEN_ENDED", CorrectChoice: &two},
			want: ErrChoicesNotAllowed,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q, err := buildQuestion(&tc.req)
			if !errors.Is(err, tc.want) {
				t.Fatalf("buildQuestion: %v, want %v", err, tc.want)
			}
			if tc.want != nil {
				return
			}
			if q.ID == uuid.Nil {
				t.Error("question not assigned an ID")
			}
			if q.Kind != model.QuestionKind(tc.req.Kind) {
				t.Errorf("kind = %s, want %s", q.Kind, tc.req.Kind)
			}
			// Order is never taken from the request; the repository assigns
			// it on insert.
			if q.OrderNum != 0 {
				t.Errorf("order = %d before insert, want 0", q.OrderNum)
			}
		})
	}
}
