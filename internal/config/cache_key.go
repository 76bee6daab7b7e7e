package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// CandidateSessionKey returns the cache key for a candidate's login session.
func (r *CacheKeyStruct) CandidateSessionKey(candidateID string) string {
	return fmt.Sprintf("login:candidate:%s", candidateID)
}

// CandidateContestStartKey returns the cache key for a candidate's contest start time.
func (r *CacheKeyStruct) CandidateContestStartKey(candidateID, contestID string) string {
	return fmt.Sprintf("candidate:%s:contest:%s:started_at", candidateID, contestID)
}

var CacheKey = NewCacheKeyStruct()
