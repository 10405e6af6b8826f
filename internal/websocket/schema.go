package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionSelectAnswer Action = "select_answer"
	ActionNavigate     Action = "navigate"
	ActionSubmit       Action = "submit"
	ActionState        Action = "state"
	ActionPing         Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// SelectAnswerRequest records one answer selection.
type SelectAnswerRequest struct {
	Action        Action `json:"action"`
	QuestionIndex int    `json:"question_index"`
	ChoiceIndex   int    `json:"choice_index"`
}

// NavigateRequest moves the current-question cursor by a signed delta.
type NavigateRequest struct {
	Action Action `json:"action"`
	Delta  int    `json:"delta"`
}

// SubmitRequest finishes and scores the attempt.
type SubmitRequest struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventState     Event = "state"
	EventSubmitted Event = "submitted"
	EventTick      Event = "tick"
	EventError     Event = "error"
	EventPong      Event = "pong"
)

// StateResponse carries the attempt state after any successful action.
type StateResponse struct {
	Event Event       `json:"event"`
	State interface{} `json:"state"`
}

// SubmittedResponse confirms finalization with the auto-computed score.
type SubmittedResponse struct {
	Event        Event `json:"event"`
	ScorePercent *int  `json:"score_percent,omitempty"`
	Forced       bool  `json:"forced"`
}

// TickResponse is the per-minute countdown push.
type TickResponse struct {
	Event            Event `json:"event"`
	RemainingSeconds int   `json:"remaining_seconds"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
