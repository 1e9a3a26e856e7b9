package domain

import "context"

// ServicePort defines the service contract for funding calls
type ServicePort interface {
	Create(ctx context.Context, in CreateCallInput) (Call, error)
	Update(ctx context.Context, slug string, in UpdateCallInput) (Call, error)
	GetBySlug(ctx context.Context, slug string) (Call, error)
	List(ctx context.Context, in ListCallsInput) (CallList, error)
	Search(ctx context.Context, in SearchCallsInput) ([]CallHit, error)
}
