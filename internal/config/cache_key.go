package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// TakerLoginKey returns the cache key for a taker's active login session.
func (r *CacheKeyStruct) TakerLoginKey(userID int) string {
	return fmt.Sprintf("login:%d", userID)
}

// ExamPayloadKey returns the cache key for a published exam's taker payload.
func (r *CacheKeyStruct) ExamPayloadKey(examID string) string {
	return fmt.Sprintf("exam:%s:payload", examID)
}

// ExamAnswerKeyKey returns the cache key for a published exam's answer key hash.
func (r *CacheKeyStruct) ExamAnswerKeyKey(examID string) string {
	return fmt.Sprintf("exam:%s:key", examID)
}

// AttemptAnswersKey returns the cache key for a taker's in-progress answers.
func (r *CacheKeyStruct) AttemptAnswersKey(examID string, userID int) string {
	return fmt.Sprintf("taker:%d:exam:%s:answers", userID, examID)
}

// AttemptStartKey returns the cache key for a taker's attempt start timestamp.
func (r *CacheKeyStruct) AttemptStartKey(examID string, userID int) string {
	return fmt.Sprintf("taker:%d:exam:%s:started_at", userID, examID)
}

var CacheKey = NewCacheKeyStruct()
