package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/startup-ecosystem/internal/metrics"
	"github.com/iliyamo/startup-ecosystem/internal/model"
	"github.com/iliyamo/startup-ecosystem/internal/queue"
	"github.com/iliyamo/startup-ecosystem/internal/repository"
)

// publishTimeout bounds one best-effort event delivery.
const publishTimeout = 5 * time.Second

// RequestService is the matching and request engine: founders submit
// funding or mentorship requests, investors and mentors decide them.
type RequestService struct {
	Users    UserStore
	Requests RequestStore
	Events   EventPublisher // optional
	Log      *zap.Logger
	Now      func() time.Time
}

func NewRequestService(users UserStore, requests RequestStore, events EventPublisher, log *zap.Logger) *RequestService {
	if log == nil {
		log = zap.NewNop()
	}
	return &RequestService{Users: users, Requests: requests, Events: events, Log: log, Now: time.Now}
}

// SubmitInput names the supporter by id or, when SupporterID is zero, by
// exact name. AmountCents is only used for funding.
type SubmitInput struct {
	SupporterID   uint64
	SupporterName string
	IdeaDesc      string
	Stage         string
	AmountCents   uint64
}

// SubmitFunding asks an investor for AmountCents.
func (s *RequestService) SubmitFunding(ctx context.Context, founderID uint64, in SubmitInput) (model.Request, error) {
	if in.AmountCents == 0 {
		return model.Request{}, invalid("amount", "must be greater than zero")
	}
	return s.submit(ctx, model.KindFunding, founderID, in)
}

// SubmitMentorship asks a mentor for mentorship.
func (s *RequestService) SubmitMentorship(ctx context.Context, founderID uint64, in SubmitInput) (model.Request, error) {
	in.AmountCents = 0
	return s.submit(ctx, model.KindMentorship, founderID, in)
}

func (s *RequestService) submit(ctx context.Context, kind model.Kind, founderID uint64, in SubmitInput) (model.Request, error) {
	idea := strings.TrimSpace(in.IdeaDesc)
	if idea == "" {
		return model.Request{}, invalid("idea_desc", "is required")
	}
	stage, ok := model.ParseStage(in.Stage)
	if !ok {
		return model.Request{}, invalid("stage", "must be Ideation, MVP or Scaling")
	}
	if in.SupporterID == 0 && strings.TrimSpace(in.SupporterName) == "" {
		return model.Request{}, invalid("supporter", "id or name is required")
	}

	founder, err := s.Users.GetByID(ctx, founderID)
	if err != nil {
		return model.Request{}, err
	}
	if founder.Role != model.RoleFounder {
		return model.Request{}, repository.ErrForbidden
	}
	supporter, err := s.resolveSupporter(ctx, kind.SupporterRole(), in)
	if err != nil {
		return model.Request{}, err
	}

	req := model.Request{
		Kind:          kind,
		FounderID:     founder.ID,
		SupportID:     supporter.ID,
		SupportName:   founder.Name,
		SupporterName: supporter.Name,
		IdeaDesc:      idea,
		Stage:         stage,
		AmountCents:   in.AmountCents,
	}
	if err := s.Requests.Create(ctx, &req); err != nil {
		return model.Request{}, err
	}
	metrics.RequestsSubmitted.WithLabelValues(string(kind)).Inc()
	s.Log.Info("request submitted", zap.Uint64("application_id", req.ID), zap.String("kind", string(kind)),
		zap.Uint64("founder_id", req.FounderID), zap.Uint64("supporter_id", req.SupportID))
	s.publish(queue.EventSubmitted, req)
	return req, nil
}

// resolveSupporter finds the addressed investor or mentor. A name must
// identify exactly one user of the role.
func (s *RequestService) resolveSupporter(ctx context.Context, role model.Role, in SubmitInput) (model.User, error) {
	if in.SupporterID != 0 {
		u, err := s.Users.GetByID(ctx, in.SupporterID)
		if err != nil {
			return model.User{}, err
		}
		if u.Role != role {
			return model.User{}, fmt.Errorf("%w: user %d is not a %s", repository.ErrNotFound, u.ID, role)
		}
		return u, nil
	}
	matches, err := s.Users.FindByRoleAndName(ctx, role, in.SupporterName)
	if err != nil {
		return model.User{}, err
	}
	switch len(matches) {
	case 0:
		return model.User{}, fmt.Errorf("%w: no %s named %q", repository.ErrNotFound, role, in.SupporterName)
	case 1:
		return matches[0], nil
	}
	return model.User{}, fmt.Errorf("%w: %d users of role %s are named %q, use an id",
		repository.ErrConflict, len(matches), role, in.SupporterName)
}

// Pending lists the requests awaiting the supporter's decision. For every
// founder only the oldest pending request of the kind is shown; the next
// one surfaces once it is decided.
func (s *RequestService) Pending(ctx context.Context, supporterID uint64, role model.Role) ([]model.Request, error) {
	kind, ok := model.KindForRole(role)
	if !ok {
		return nil, repository.ErrForbidden
	}
	all, err := s.Requests.ListPending(ctx, supporterID, kind)
	if err != nil {
		return nil, err
	}
	return model.OldestPendingPerPair(all), nil
}

// Decide accepts or rejects a request addressed to the supporter. The
// application and its specialized row change together or not at all.
func (s *RequestService) Decide(ctx context.Context, supporterID uint64, role model.Role, applicationID uint64, d model.Decision) (model.Request, error) {
	kind, ok := model.KindForRole(role)
	if !ok {
		return model.Request{}, repository.ErrForbidden
	}
	req, err := s.Requests.Decide(ctx, applicationID, func(r model.Request) (model.Status, error) {
		if r.SupportID != supporterID || r.Kind != kind {
			return "", repository.ErrForbidden
		}
		next, err := model.Transition(r.Kind, r.Status, d)
		if errors.Is(err, model.ErrAlreadyDecided) {
			return "", fmt.Errorf("%w: %w", repository.ErrConflict, err)
		}
		return next, err
	})
	if err != nil {
		return model.Request{}, err
	}
	metrics.RequestsDecided.WithLabelValues(string(req.Kind), string(req.Status)).Inc()
	s.Log.Info("request decided", zap.Uint64("application_id", req.ID), zap.String("status", string(req.Status)),
		zap.Uint64("supporter_id", supporterID))
	s.publish(queue.EventDecided, req)
	return req, nil
}

// ForFounder lists the founder's own requests with their current status.
func (s *RequestService) ForFounder(ctx context.Context, founderID uint64) ([]model.Request, error) {
	return s.Requests.ListByFounder(ctx, founderID)
}

// FundingSummary totals funding amounts per status for the admin chart.
func (s *RequestService) FundingSummary(ctx context.Context) ([]model.FundingTotal, error) {
	return s.Requests.FundingTotals(ctx)
}

// publish delivers the event in the background; failures are logged only.
func (s *RequestService) publish(typ string, req model.Request) {
	if s.Events == nil {
		return
	}
	ev := queue.RequestEvent{
		Type:          typ,
		ApplicationID: req.ID,
		Kind:          string(req.Kind),
		FounderID:     req.FounderID,
		FounderName:   req.SupportName,
		SupporterID:   req.SupportID,
		Stage:         string(req.Stage),
		Status:        string(req.Status),
		AmountCents:   req.AmountCents,
		OccurredAt:    s.Now().UTC().Format(time.RFC3339),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := s.Events.Publish(ctx, ev); err != nil {
			s.Log.Warn("request event not published", zap.String("type", typ),
				zap.Uint64("application_id", ev.ApplicationID), zap.Error(err))
		}
	}()
}
