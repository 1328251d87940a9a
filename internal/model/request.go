package model

import (
	"errors"
	"sort"
	"strings"
	"time"
)

// Kind discriminates the two request variants.  It is stored in
// applications.kind.
type Kind string

const (
	KindFunding    Kind = "FUNDING"
	KindMentorship Kind = "MENTORSHIP"
)

// Status is shared by an application and its specialized row.
type Status string

const (
	StatusInvestmentPending Status = "Investment Pending"
	StatusMentorPending     Status = "Mentor Pending"
	StatusAccepted          Status = "Accepted"
	StatusRejected          Status = "Rejected"
)

// Terminal reports whether no further transition is allowed.
func (s Status) Terminal() bool { return s == StatusAccepted || s == StatusRejected }

// Stage is the maturity of the founder's idea.
type Stage string

const (
	StageIdeation Stage = "Ideation"
	StageMVP      Stage = "MVP"
	StageScaling  Stage = "Scaling"
)

// ParseStage accepts a stage name case-insensitively.
func ParseStage(s string) (Stage, bool) {
	for _, st := range []Stage{StageIdeation, StageMVP, StageScaling} {
		if strings.EqualFold(strings.TrimSpace(s), string(st)) {
			return st, true
		}
	}
	return "", false
}

// Decision is a supporter's verdict on a pending request.
type Decision string

const (
	DecisionAccept Decision = "accept"
	DecisionReject Decision = "reject"
)

var (
	// ErrAlreadyDecided is returned when a transition is attempted on a
	// request that has already been accepted or rejected.
	ErrAlreadyDecided = errors.New("request already decided")
	// ErrInvalidTransition covers unknown decisions and statuses that do
	// not belong to the request's kind.
	ErrInvalidTransition = errors.New("invalid transition")
)

// PendingStatus is the initial status of a request of this kind.
func (k Kind) PendingStatus() Status {
	if k == KindFunding {
		return StatusInvestmentPending
	}
	return StatusMentorPending
}

// SupporterRole is the role a request of this kind is addressed to.
func (k Kind) SupporterRole() Role {
	if k == KindFunding {
		return RoleInvestor
	}
	return RoleMentor
}

// KindForRole maps a supporter role to the kind of requests it decides.
func KindForRole(r Role) (Kind, bool) {
	switch r {
	case RoleInvestor:
		return KindFunding, true
	case RoleMentor:
		return KindMentorship, true
	}
	return "", false
}

// Transition returns the status a request of kind k moves to when
// decision d is applied in status from.  Only the kind's pending status
// may transition, and only to Accepted or Rejected.
func Transition(k Kind, from Status, d Decision) (Status, error) {
	if from.Terminal() {
		return "", ErrAlreadyDecided
	}
	if from != k.PendingStatus() {
		return "", ErrInvalidTransition
	}
	switch d {
	case DecisionAccept:
		return StatusAccepted, nil
	case DecisionReject:
		return StatusRejected, nil
	}
	return "", ErrInvalidTransition
}

// Request is the joined view of an application and its specialized row.
// ID is the application id; RefID is the funding or mentor_requests id.
// SupportName holds the founder's display name, as recorded at submission.
type Request struct {
	ID            uint64    `json:"id"`
	Kind          Kind      `json:"kind"`
	RefID         uint64    `json:"ref_id"`
	FounderID     uint64    `json:"founder_id"`
	SupportID     uint64    `json:"support_id"`
	SupportName   string    `json:"support_name"`
	SupporterName string    `json:"supporter_name,omitempty"`
	IdeaDesc      string    `json:"idea_desc"`
	Stage         Stage     `json:"stage"`
	Status        Status    `json:"status"`
	AmountCents   uint64    `json:"amount_cents,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// OldestPendingPerPair keeps, for every (founder, supporter, kind) triple,
// only the pending request with the lowest id.  Decided requests are
// dropped.  The result is ordered by id.
func OldestPendingPerPair(reqs []Request) []Request {
	type pair struct {
		founder, supporter uint64
		kind               Kind
	}
	oldest := make(map[pair]Request)
	for _, r := range reqs {
		if r.Status != r.Kind.PendingStatus() {
			continue
		}
		p := pair{r.FounderID, r.SupportID, r.Kind}
		if cur, ok := oldest[p]; !ok || r.ID < cur.ID {
			oldest[p] = r
		}
	}
	out := make([]Request, 0, len(oldest))
	for _, r := range oldest {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// FundingTotal is one bar of the admin funding chart.
type FundingTotal struct {
	Status     Status `json:"status"`
	TotalCents uint64 `json:"total_cents"`
}
