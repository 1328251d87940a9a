package handler

import (
    "context"
    "time"

    "github.com/iliyamo/startup-ecosystem/internal/model"
)

// TokenStore persists hashed refresh tokens. repository.TokenRepo
// implements it.
type TokenStore interface {
    StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
    ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error)
    RevokeByHash(ctx context.Context, tokenHash string) error
    RevokeAllForUser(ctx context.Context, userID uint64) error
}

// ProfileStore reads and updates role profiles. repository.ProfileRepo
// implements it.
type ProfileStore interface {
    GetFounder(ctx context.Context, userID uint64) (model.FounderProfile, error)
    GetMentor(ctx context.Context, userID uint64) (model.MentorProfile, error)
    GetInvestor(ctx context.Context, userID uint64) (model.InvestorProfile, error)
    ListMentors(ctx context.Context) ([]model.MentorProfile, error)
    ListInvestors(ctx context.Context) ([]model.InvestorProfile, error)
    UpdateFounder(ctx context.Context, p model.FounderProfile) error
    UpdateMentor(ctx context.Context, p model.MentorProfile) error
    UpdateInvestor(ctx context.Context, p model.InvestorProfile) error
}

// EventStore is the events table. repository.EventRepo implements it.
type EventStore interface {
    List(ctx context.Context) ([]model.Event, error)
    GetByID(ctx context.Context, id uint64) (model.Event, error)
    Create(ctx context.Context, e *model.Event) error
    Update(ctx context.Context, e model.Event) error
    Delete(ctx context.Context, id uint64) error
}

// Invalidator drops cached browse responses after a write. A nil
// Invalidator is allowed.
type Invalidator func(ctx context.Context)

func (f Invalidator) run(ctx context.Context) {
    if f != nil {
        f(ctx)
    }
}
