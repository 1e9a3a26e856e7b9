package domain

// CreateCallInput is the payload for creating a funding call
type CreateCallInput struct {
	Title   string `json:"title" validate:"required,min=3,max=200" example:"Edital Agrotec 2026"`
	Summary string `json:"summary,omitempty" validate:"omitempty,max=500"`
	Body    string `json:"body,omitempty" validate:"omitempty,max=20000"`
	Status  string `json:"status,omitempty" validate:"omitempty,oneof=draft open closed" example:"open"`
}

// UpdateCallInput is the payload for updating a funding call by slug
type UpdateCallInput struct {
	Title   string `json:"title,omitempty" validate:"omitempty,min=3,max=200"`
	Summary string `json:"summary,omitempty" validate:"omitempty,max=500"`
	Body    string `json:"body,omitempty" validate:"omitempty,max=20000"`
	Status  string `json:"status,omitempty" validate:"omitempty,oneof=draft open closed"`
}

// ListCallsInput filters and pages the call listing
type ListCallsInput struct {
	Status   string `json:"status,omitempty" validate:"omitempty,oneof=draft open closed"`
	Page     int    `json:"page,omitempty" validate:"omitempty,min=1"`
	PageSize int    `json:"page_size,omitempty" validate:"omitempty,min=1,max=100"`
}

// SearchCallsInput is a ranked text query over calls
type SearchCallsInput struct {
	Query  string `json:"query,omitempty" validate:"omitempty,max=200" example:"agrotec"`
	Status string `json:"status,omitempty" validate:"omitempty,oneof=draft open closed"`
	Limit  int    `json:"limit,omitempty" validate:"omitempty,min=1,max=200"`
}

// CallList is a page of calls with the total row count
type CallList struct {
	Items []Call `json:"items"`
	Total int    `json:"total"`
}
