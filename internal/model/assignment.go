package model

import (
	"time"

	"github.com/google/uuid"
)

// ExamAssignment makes an exam visible and startable for one taker.
type ExamAssignment struct {
	ExamID     uuid.UUID `json:"exam_id"`
	UserID     int       `json:"user_id"`
	AssignedAt time.Time `json:"assigned_at"`
}

// AssignedUser is one taker in an exam's assignment list.
type AssignedUser struct {
	ID         int       `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	AssignedAt time.Time `json:"assigned_at"`
}

// AssignExamRequest is the payload for assigning an exam to takers.
type AssignExamRequest struct {
	UserIDs []int `json:"user_ids" binding:"required,min=1,dive,min=1"`
}
