package model

import "time"

// Staff is an authoring/operator account.
type Staff struct {
	StaffID      string    `json:"staff_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Candidate is a test-taker account.
type Candidate struct {
	CandidateID  string    `json:"candidate_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// StaffLoginRequest is the staff login payload.
type StaffLoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// CandidateLoginRequest is the candidate login payload.
type CandidateLoginRequest struct {
	CandidateID string `json:"candidate_id" binding:"required"`
	Password    string `json:"password" binding:"required,min=6"`
}
