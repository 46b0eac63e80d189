package inbound

import "time"

type IssueRequest struct {
	Identifier string `json:"identifier" example:"user@example.com"`
	Channel    string `json:"channel" example:"email"`
}

type IssueResponse struct {
	Accepted  bool      `json:"accepted"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (IssueResponse) Message() string {
	return "A passcode has been sent."
}

type VerifyRequest struct {
	Identifier string `json:"identifier" example:"user@example.com"`
	Channel    string `json:"channel" example:"email"`
	Code       string `json:"code" example:"123456"`
}

type AccountResponse struct {
	ID         int64  `json:"id,string"`
	Identifier string `json:"identifier"`
	Channel    string `json:"channel"`
}

type VerifyResponse struct {
	Verified   bool            `json:"verified"`
	Account    AccountResponse `json:"account"`
	ProofToken string          `json:"proof_token,omitempty"`
}

func (VerifyResponse) Message() string {
	return "Passcode verified."
}

type HealthResponse struct {
	Status string `json:"status"`
	Store  string `json:"store"`
}

func (HealthResponse) Message() string {
	return "service is healthy"
}
