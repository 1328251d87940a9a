// Package servicetest provides an in-memory implementation of the stores
// used by services and handlers, with the same error semantics as the
// MySQL repositories.
package servicetest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/startup-ecosystem/internal/model"
	"github.com/iliyamo/startup-ecosystem/internal/queue"
	"github.com/iliyamo/startup-ecosystem/internal/repository"
	"github.com/iliyamo/startup-ecosystem/internal/utils"
)

type token struct {
	userID  uint64
	exp     time.Time
	revoked bool
}

// Store keeps every table in maps guarded by one mutex, so each method is
// atomic like a single database transaction.
type Store struct {
	mu sync.Mutex

	nextID    uint64
	users     map[uint64]model.User
	founders  map[uint64]model.FounderProfile
	mentors   map[uint64]model.MentorProfile
	investors map[uint64]model.InvestorProfile
	requests  map[uint64]model.Request
	// refStatus mirrors the specialized row's status per application id.
	refStatus map[uint64]model.Status
	events    map[uint64]model.Event
	tokens    map[string]token

	// FailNext, when set, is returned once by the next mutating call.
	FailNext error
}

func NewStore() *Store {
	return &Store{
		users:     map[uint64]model.User{},
		founders:  map[uint64]model.FounderProfile{},
		mentors:   map[uint64]model.MentorProfile{},
		investors: map[uint64]model.InvestorProfile{},
		requests:  map[uint64]model.Request{},
		refStatus: map[uint64]model.Status{},
		events:    map[uint64]model.Event{},
		tokens:    map[string]token{},
	}
}

func (s *Store) id() uint64 { s.nextID++; return s.nextID }

func (s *Store) fail() error {
	err := s.FailNext
	s.FailNext = nil
	return err
}

// SeedUser registers a user with a bcrypt hash of password (min cost) and
// its empty profile.
func (s *Store) SeedUser(role model.Role, name, email, password string) model.User {
	hash, err := utils.HashPassword(password, 4)
	if err != nil {
		panic(err)
	}
	u := model.User{Name: name, Email: email, PasswordHash: hash, Role: role}
	if err := s.CreateWithProfile(context.Background(), &u); err != nil {
		panic(err)
	}
	return u
}

// Counts returns the number of users and profile rows, for atomicity checks.
func (s *Store) Counts() (users, profiles int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users), len(s.founders) + len(s.mentors) + len(s.investors)
}

// DetailStatus reports the specialized row's status of an application.
func (s *Store) DetailStatus(applicationID uint64) model.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refStatus[applicationID]
}

// ---- users ----

func (s *Store) CreateWithProfile(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return err
	}
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	for _, o := range s.users {
		if o.Email == u.Email {
			return repository.ErrEmailExists
		}
	}
	u.ID = s.id()
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	s.users[u.ID] = *u
	switch u.Role {
	case model.RoleFounder:
		s.founders[u.ID] = model.FounderProfile{UserID: u.ID, Name: u.Name, Email: u.Email, TeamSize: 1}
	case model.RoleMentor:
		s.mentors[u.ID] = model.MentorProfile{UserID: u.ID, Name: u.Name, Email: u.Email}
	case model.RoleInvestor:
		s.investors[u.ID] = model.InvestorProfile{UserID: u.ID, Name: u.Name, Email: u.Email}
	}
	return nil
}

func (s *Store) GetByEmail(_ context.Context, email string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (s *Store) GetByID(_ context.Context, id uint64) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (s *Store) FindByRoleAndName(_ context.Context, role model.Role, name string) ([]model.User, error) {
	name = strings.TrimSpace(name)
	return s.filterUsers(func(u model.User) bool { return u.Role == role && u.Name == name }), nil
}

func (s *Store) ListByRole(_ context.Context, role model.Role) ([]model.User, error) {
	return s.filterUsers(func(u model.User) bool { return u.Role == role }), nil
}

func (s *Store) filterUsers(keep func(model.User) bool) []model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.User{}
	for _, u := range s.users {
		if keep(u) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) UpdateNameEmail(_ context.Context, id uint64, name, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return err
	}
	u, ok := s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	email = strings.ToLower(strings.TrimSpace(email))
	for _, o := range s.users {
		if o.ID != id && o.Email == email {
			return repository.ErrEmailExists
		}
	}
	u.Name, u.Email, u.UpdatedAt = name, email, time.Now().UTC()
	s.users[id] = u
	if p, ok := s.founders[id]; ok {
		p.Name, p.Email = name, email
		s.founders[id] = p
	}
	if p, ok := s.mentors[id]; ok {
		p.Name, p.Email = name, email
		s.mentors[id] = p
	}
	if p, ok := s.investors[id]; ok {
		p.Name, p.Email = name, email
		s.investors[id] = p
	}
	return nil
}

// Delete removes the user, its profile and, like the ON DELETE CASCADE
// foreign keys, every request it takes part in.
func (s *Store) Delete(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return err
	}
	if _, ok := s.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.users, id)
	delete(s.founders, id)
	delete(s.mentors, id)
	delete(s.investors, id)
	for rid, r := range s.requests {
		if r.FounderID == id || r.SupportID == id {
			delete(s.requests, rid)
			delete(s.refStatus, rid)
		}
	}
	return nil
}

// ---- requests ----

// Requests is the request table view of the store.
func (s *Store) Requests() *RequestTable { return &RequestTable{s: s} }

type RequestTable struct{ s *Store }

func (t *RequestTable) Create(_ context.Context, req *model.Request) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if err := t.s.fail(); err != nil {
		return err
	}
	now := time.Now().UTC()
	req.RefID = t.s.id()
	req.ID = t.s.id()
	req.Status = req.Kind.PendingStatus()
	req.CreatedAt, req.UpdatedAt = now, now
	t.s.requests[req.ID] = *req
	t.s.refStatus[req.ID] = req.Status
	return nil
}

func (t *RequestTable) ListPending(_ context.Context, supporterID uint64, kind model.Kind) ([]model.Request, error) {
	pending := kind.PendingStatus()
	return t.filterRequests(func(r model.Request) bool {
		return r.SupportID == supporterID && r.Kind == kind && r.Status == pending && t.s.refStatus[r.ID] == pending
	}, false), nil
}

func (t *RequestTable) ListByFounder(_ context.Context, founderID uint64) ([]model.Request, error) {
	return t.filterRequests(func(r model.Request) bool { return r.FounderID == founderID }, true), nil
}

func (t *RequestTable) filterRequests(keep func(model.Request) bool, newestFirst bool) []model.Request {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	out := []model.Request{}
	for _, r := range t.s.requests {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if newestFirst {
			return out[i].ID > out[j].ID
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (t *RequestTable) Decide(_ context.Context, id uint64, decide func(model.Request) (model.Status, error)) (model.Request, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	r, ok := t.s.requests[id]
	if !ok {
		return model.Request{}, repository.ErrNotFound
	}
	if st := t.s.refStatus[id]; st.Terminal() {
		r.Status = st
	}
	next, err := decide(r)
	if err != nil {
		return model.Request{}, err
	}
	if err := t.s.fail(); err != nil {
		return model.Request{}, err
	}
	if r.Status != r.Kind.PendingStatus() {
		return model.Request{}, repository.ErrConflict
	}
	r.Status = next
	r.UpdatedAt = time.Now().UTC()
	t.s.requests[id] = r
	t.s.refStatus[id] = next
	return r, nil
}

func (t *RequestTable) FundingTotals(_ context.Context) ([]model.FundingTotal, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	sums := map[model.Status]uint64{}
	for id, r := range t.s.requests {
		if r.Kind == model.KindFunding {
			sums[t.s.refStatus[id]] += r.AmountCents
		}
	}
	out := []model.FundingTotal{}
	for st, total := range sums {
		out = append(out, model.FundingTotal{Status: st, TotalCents: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Status < out[j].Status })
	return out, nil
}

// ---- refresh tokens ----

func (s *Store) StoreRefresh(_ context.Context, userID uint64, tokenHash string, exp time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[tokenHash] = token{userID: userID, exp: exp}
	return nil
}

func (s *Store) ValidateRefresh(_ context.Context, tokenHash string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[tokenHash]
	if !ok || t.revoked || time.Now().UTC().After(t.exp) {
		return 0, repository.ErrNotFound
	}
	return t.userID, nil
}

func (s *Store) RevokeByHash(_ context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[tokenHash]
	if !ok || t.revoked {
		return repository.ErrNotFound
	}
	t.revoked = true
	s.tokens[tokenHash] = t
	return nil
}

func (s *Store) RevokeAllForUser(_ context.Context, userID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for h, t := range s.tokens {
		if t.userID == userID {
			t.revoked = true
			s.tokens[h] = t
		}
	}
	return nil
}

// ---- profiles ----

func (s *Store) GetFounder(_ context.Context, userID uint64) (model.FounderProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.founders[userID]
	if !ok {
		return p, repository.ErrNotFound
	}
	return p, nil
}

func (s *Store) GetMentor(_ context.Context, userID uint64) (model.MentorProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.mentors[userID]
	if !ok {
		return p, repository.ErrNotFound
	}
	return p, nil
}

func (s *Store) GetInvestor(_ context.Context, userID uint64) (model.InvestorProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.investors[userID]
	if !ok {
		return p, repository.ErrNotFound
	}
	return p, nil
}

func (s *Store) ListMentors(_ context.Context) ([]model.MentorProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.MentorProfile{}
	for _, p := range s.mentors {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (s *Store) ListInvestors(_ context.Context) ([]model.InvestorProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.InvestorProfile{}
	for _, p := range s.investors {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (s *Store) UpdateFounder(_ context.Context, p model.FounderProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.founders[p.UserID]
	if !ok {
		return repository.ErrNotFound
	}
	p.Name, p.Email = cur.Name, cur.Email
	s.founders[p.UserID] = p
	return nil
}

func (s *Store) UpdateMentor(_ context.Context, p model.MentorProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.mentors[p.UserID]
	if !ok {
		return repository.ErrNotFound
	}
	p.Name, p.Email = cur.Name, cur.Email
	s.mentors[p.UserID] = p
	return nil
}

func (s *Store) UpdateInvestor(_ context.Context, p model.InvestorProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.investors[p.UserID]
	if !ok {
		return repository.ErrNotFound
	}
	p.Name, p.Email = cur.Name, cur.Email
	s.investors[p.UserID] = p
	return nil
}

// ---- events ----

// Events is the event table view of the store; its method set does not
// clash with the user and request methods.
func (s *Store) Events() *EventTable { return &EventTable{s: s} }

type EventTable struct{ s *Store }

func (t *EventTable) List(_ context.Context) ([]model.Event, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	out := []model.Event{}
	for _, e := range t.s.events {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (t *EventTable) GetByID(_ context.Context, id uint64) (model.Event, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	e, ok := t.s.events[id]
	if !ok {
		return e, repository.ErrNotFound
	}
	return e, nil
}

func (t *EventTable) Create(_ context.Context, e *model.Event) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	e.ID = t.s.id()
	t.s.events[e.ID] = *e
	return nil
}

func (t *EventTable) Update(_ context.Context, e model.Event) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if _, ok := t.s.events[e.ID]; !ok {
		return repository.ErrNotFound
	}
	t.s.events[e.ID] = e
	return nil
}

func (t *EventTable) Delete(_ context.Context, id uint64) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if _, ok := t.s.events[id]; !ok {
		return repository.ErrNotFound
	}
	delete(t.s.events, id)
	return nil
}

// ---- publisher ----

// Publisher records published events.
type Publisher struct {
	mu     sync.Mutex
	events []queue.RequestEvent
	Err    error
}

func (p *Publisher) Publish(_ context.Context, ev queue.RequestEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.Err
}

// Events returns a copy of what was published so far.
func (p *Publisher) Events() []queue.RequestEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]queue.RequestEvent(nil), p.events...)
}
