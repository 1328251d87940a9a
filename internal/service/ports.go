package service

import (
	"context"

	"github.com/iliyamo/startup-ecosystem/internal/model"
	"github.com/iliyamo/startup-ecosystem/internal/queue"
)

// UserStore is the persistence the identity and request services need
// from the users table. repository.UserRepo implements it.
type UserStore interface {
	CreateWithProfile(ctx context.Context, u *model.User) error
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	FindByRoleAndName(ctx context.Context, role model.Role, name string) ([]model.User, error)
	ListByRole(ctx context.Context, role model.Role) ([]model.User, error)
	UpdateNameEmail(ctx context.Context, id uint64, name, email string) error
	Delete(ctx context.Context, id uint64) error
}

// RequestStore persists requests. Create and Decide must be atomic over
// the application and its specialized row. repository.RequestRepo
// implements it.
type RequestStore interface {
	Create(ctx context.Context, req *model.Request) error
	ListPending(ctx context.Context, supporterID uint64, kind model.Kind) ([]model.Request, error)
	ListByFounder(ctx context.Context, founderID uint64) ([]model.Request, error)
	Decide(ctx context.Context, id uint64, decide func(model.Request) (model.Status, error)) (model.Request, error)
	FundingTotals(ctx context.Context) ([]model.FundingTotal, error)
}

// EventPublisher delivers request lifecycle events. queue.Publisher
// implements it.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.RequestEvent) error
}
