// Package domain holds DTOs for the startups http and service contracts
package domain

import "context"

// Startup is one portfolio startup as served over the API
type Startup struct {
	ID        string `json:"id"`
	Slug      string `json:"slug"`
	Name      string `json:"name"`
	Pitch     string `json:"pitch,omitempty"`
	Sector    string `json:"sector,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// StartupHit is a search match with its relevance score
type StartupHit struct {
	Startup Startup `json:"startup"`
	Score   float64 `json:"score"`
}

// CreateStartupInput is the payload for registering a startup
type CreateStartupInput struct {
	Name   string `json:"name" validate:"required,min=2,max=120" example:"Café & Co"`
	Pitch  string `json:"pitch,omitempty" validate:"omitempty,max=1000"`
	Sector string `json:"sector,omitempty" validate:"omitempty,max=80" example:"agrotech"`
}

// SearchStartupsInput is a ranked text query over startups
type SearchStartupsInput struct {
	Query  string `json:"query,omitempty" validate:"omitempty,max=200"`
	Sector string `json:"sector,omitempty" validate:"omitempty,max=80"`
	Limit  int    `json:"limit,omitempty" validate:"omitempty,min=1,max=200"`
}

// ServicePort defines the service contract for startups
type ServicePort interface {
	Create(ctx context.Context, in CreateStartupInput) (Startup, error)
	GetBySlug(ctx context.Context, slug string) (Startup, error)
	Search(ctx context.Context, in SearchStartupsInput) ([]StartupHit, error)
}
