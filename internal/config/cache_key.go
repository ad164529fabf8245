package config

import "fmt"

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// CandidateLoginKey returns the cache key holding a candidate's active JTI.
func (r *CacheKeyStruct) CandidateLoginKey(userID int) string {
	return fmt.Sprintf("login:%d", userID)
}

// SessionStartKey returns the cache key for a session's start timestamp.
// Used to compute remaining time without touching PostgreSQL on hot paths.
func (r *CacheKeyStruct) SessionStartKey(sessionID string) string {
	return fmt.Sprintf("session:%s:started_at", sessionID)
}

// AssessmentMonitorChannel returns the Redis PubSub channel carrying live
// proctoring events for one assessment.
func (r *CacheKeyStruct) AssessmentMonitorChannel(assessmentID string) string {
	return fmt.Sprintf("assessment:%s:monitor", assessmentID)
}

var CacheKey = NewCacheKeyStruct()
