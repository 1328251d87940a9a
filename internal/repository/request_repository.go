package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/iliyamo/startup-ecosystem/internal/database"
	"github.com/iliyamo/startup-ecosystem/internal/model"
)

// RequestRepo stores funding and mentorship requests. Every request is
// an applications row plus exactly one specialized row (funding or
// mentor_requests) referenced by applications.kind and ref_id. The two
// rows are always written together inside one transaction.
type RequestRepo struct{ DB *sql.DB }

func NewRequestRepo(db *sql.DB) *RequestRepo { return &RequestRepo{DB: db} }

// requestSelect joins an application to its specialized row and to the
// supporter's user row. detail_status is the specialized row's status.
const requestSelect = `SELECT a.id, a.kind, a.ref_id, a.founder_id, a.support_id, a.support_name,
       COALESCE(u.name, ''), a.idea_desc, a.stage, a.status,
       COALESCE(f.status, m.status, ''), COALESCE(f.amount_cents, 0), a.created_at, a.updated_at
FROM applications a
LEFT JOIN funding f ON a.kind = 'FUNDING' AND f.id = a.ref_id
LEFT JOIN mentor_requests m ON a.kind = 'MENTORSHIP' AND m.id = a.ref_id
LEFT JOIN users u ON u.id = a.support_id`

func scanRequest(row interface{ Scan(...any) error }) (model.Request, string, error) {
	var (
		req                 model.Request
		kind, stage, status string
		detailStatus        string
	)
	err := row.Scan(&req.ID, &kind, &req.RefID, &req.FounderID, &req.SupportID, &req.SupportName,
		&req.SupporterName, &req.IdeaDesc, &stage, &status, &detailStatus, &req.AmountCents,
		&req.CreatedAt, &req.UpdatedAt)
	req.Kind = model.Kind(kind)
	req.Stage = model.Stage(stage)
	req.Status = model.Status(status)
	return req, detailStatus, err
}

func (r *RequestRepo) query(ctx context.Context, q string, args ...any) ([]model.Request, error) {
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()
	out := []model.Request{}
	for rows.Next() {
		req, _, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, classify(rows.Err())
}

// Create inserts the specialized row and the application in one
// transaction. req must carry Kind, FounderID, SupportID, SupportName,
// IdeaDesc, Stage and, for funding, AmountCents. On success ID, RefID,
// Status and the timestamps are filled in.
func (r *RequestRepo) Create(ctx context.Context, req *model.Request) error {
	status := req.Kind.PendingStatus()
	return database.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		var (
			res sql.Result
			err error
		)
		switch req.Kind {
		case model.KindFunding:
			res, err = tx.ExecContext(ctx,
				"INSERT INTO funding (investor_id, founder_id, amount_cents, status) VALUES (?,?,?,?)",
				req.SupportID, req.FounderID, req.AmountCents, string(status))
		case model.KindMentorship:
			res, err = tx.ExecContext(ctx,
				"INSERT INTO mentor_requests (mentor_id, founder_id, status) VALUES (?,?,?)",
				req.SupportID, req.FounderID, string(status))
		default:
			return fmt.Errorf("unknown request kind %q", req.Kind)
		}
		if err != nil {
			return classify(err)
		}
		refID, err := res.LastInsertId()
		if err != nil {
			return err
		}
		res, err = tx.ExecContext(ctx,
			`INSERT INTO applications (founder_id, kind, ref_id, idea_desc, stage, status, support_id, support_name)
			 VALUES (?,?,?,?,?,?,?,?)`,
			req.FounderID, string(req.Kind), refID, req.IdeaDesc, string(req.Stage), string(status),
			req.SupportID, req.SupportName)
		if err != nil {
			return classify(err)
		}
		appID, err := res.LastInsertId()
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		req.ID = uint64(appID)
		req.RefID = uint64(refID)
		req.Status = status
		req.CreatedAt, req.UpdatedAt = now, now
		return nil
	})
}

// ListPending returns every request of kind addressed to supporterID whose
// application and specialized row are both still pending, oldest first.
func (r *RequestRepo) ListPending(ctx context.Context, supporterID uint64, kind model.Kind) ([]model.Request, error) {
	pending := string(kind.PendingStatus())
	return r.query(ctx, requestSelect+`
WHERE a.support_id = ? AND a.kind = ? AND a.status = ? AND COALESCE(f.status, m.status) = ?
ORDER BY a.id ASC`, supporterID, string(kind), pending, pending)
}

// ListByFounder returns every request the founder submitted, newest first.
func (r *RequestRepo) ListByFounder(ctx context.Context, founderID uint64) ([]model.Request, error) {
	return r.query(ctx, requestSelect+" WHERE a.founder_id = ? ORDER BY a.id DESC", founderID)
}

// Decide applies a decision atomically. Inside one transaction it locks
// the application and its specialized row, asks decide for the next
// status (decide may veto with an error), then moves both rows from the
// pending status to the new one. If either conditional update matches
// no row the request was decided concurrently and ErrConflict is
// returned; nothing is written in that case.
func (r *RequestRepo) Decide(ctx context.Context, id uint64, decide func(model.Request) (model.Status, error)) (model.Request, error) {
	var out model.Request
	err := database.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		req, detailStatus, err := scanRequest(tx.QueryRowContext(ctx, requestSelect+" WHERE a.id = ? FOR UPDATE", id))
		if err != nil {
			return classify(err)
		}
		if model.Status(detailStatus).Terminal() {
			req.Status = model.Status(detailStatus)
		}
		next, err := decide(req)
		if err != nil {
			return err
		}
		pending := string(req.Kind.PendingStatus())
		table := "funding"
		if req.Kind == model.KindMentorship {
			table = "mentor_requests"
		}
		res, err := tx.ExecContext(ctx,
			"UPDATE "+table+" SET status = ? WHERE id = ? AND status = ?", string(next), req.RefID, pending)
		if err != nil {
			return classify(err)
		}
		if n, _ := res.RowsAffected(); n != 1 {
			return ErrConflict
		}
		res, err = tx.ExecContext(ctx,
			"UPDATE applications SET status = ? WHERE id = ? AND status = ?", string(next), req.ID, pending)
		if err != nil {
			return classify(err)
		}
		if n, _ := res.RowsAffected(); n != 1 {
			return ErrConflict
		}
		req.Status = next
		req.UpdatedAt = time.Now().UTC()
		out = req
		return nil
	})
	return out, err
}

// FundingTotals sums funding amounts grouped by status.
func (r *RequestRepo) FundingTotals(ctx context.Context) ([]model.FundingTotal, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT status, COALESCE(SUM(amount_cents), 0) FROM funding GROUP BY status ORDER BY status")
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()
	out := []model.FundingTotal{}
	for rows.Next() {
		var (
			t      model.FundingTotal
			status string
		)
		if err := rows.Scan(&status, &t.TotalCents); err != nil {
			return nil, err
		}
		t.Status = model.Status(status)
		out = append(out, t)
	}
	return out, classify(rows.Err())
}
