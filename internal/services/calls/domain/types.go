// Package domain holds DTOs for the funding calls http and service contracts
package domain

// Call is one funding call as served over the API
type Call struct {
	ID        string `json:"id"`
	Slug      string `json:"slug"`
	Title     string `json:"title"`
	Summary   string `json:"summary,omitempty"`
	Body      string `json:"body,omitempty"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// CallHit is a search match with its relevance score
type CallHit struct {
	Call  Call    `json:"call"`
	Score float64 `json:"score"`
}
