package worker

import (
	"testing"

	"github.com/google/uuid"
)

func TestDecodeAnswerPayload(t *testing.T) {
	examID := uuid.New()

	t.Run("valid item", func(t *testing.T) {
		raw := `{"user_id":7,"exam_id":"` + examID.String() + `","answers":[0,-1,2],"current_question":1}`
		payload, gotExamID, err := decodeAnswerPayload(raw)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if payload.UserID != 7 || gotExamID != examID {
			t.Errorf("decoded (%d, %s), want (7, %s)", payload.UserID, gotExamID, examID)
		}
		if len(payload.Answers) != 3 || payload.CurrentQuestion != 1 {
			t.Errorf("answers %v cursor %d", payload.Answers, payload.CurrentQuestion)
		}
	})

	// Both failure shapes are permanent; the worker drops these instead of
	// requeueing, otherwise one bad item stalls the queue forever.
	t.Run("malformed json", func(t *testing.T) {
		if _, _, err := decodeAnswerPayload(`{"user_id":`); err == nil {
			t.Fatal("expected error for truncated json")
		}
	})

	t.Run("bad exam id", func(t *testing.T) {
		if _, _, err := decodeAnswerPayload(`{"user_id":7,"exam_id":"not-a-uuid","answers":[]}`); err == nil {
			t.Fatal("expected error for invalid exam id")
		}
	})
}
