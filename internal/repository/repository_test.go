package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/startup-ecosystem/internal/model"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

func q(s string) string { return regexp.QuoteMeta(s) }

func TestClassify(t *testing.T) {
	assert.Nil(t, classify(nil))
	assert.Equal(t, ErrNotFound, classify(sql.ErrNoRows))
	assert.Equal(t, ErrNotFound, classify(fmt.Errorf("scan: %w", sql.ErrNoRows)))
	assert.Equal(t, ErrConflict, classify(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}))
	assert.Equal(t, ErrUnavailable, classify(driver.ErrBadConn))
	assert.Equal(t, ErrUnavailable, classify(mysql.ErrInvalidConn))
	assert.Equal(t, ErrUnavailable, classify(context.DeadlineExceeded))
	other := errors.New("boom")
	assert.Equal(t, other, classify(other))
	assert.Equal(t, ErrEmailExists, classifyEmail(&mysql.MySQLError{Number: 1062}))
}

func TestUserRepoCreateWithProfileFounder(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(q("INSERT INTO users (name, email, password_hash, role)")).
		WithArgs("Fay", "fay@gmail.com", "hash", "Founder").
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectExec(q("INSERT INTO founders (user_id, name, email, team_size, funding_needed_cents) VALUES (?,?,?,1,0)")).
		WithArgs(7, "Fay", "fay@gmail.com").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	u := model.User{Name: "Fay", Email: " Fay@Gmail.com ", PasswordHash: "hash", Role: model.RoleFounder}
	require.NoError(t, NewUserRepo(db).CreateWithProfile(context.Background(), &u))
	assert.Equal(t, uint64(7), u.ID)
	assert.Equal(t, "fay@gmail.com", u.Email)
}

func TestUserRepoCreateWithProfileDuplicateEmail(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(q("INSERT INTO users")).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	mock.ExpectRollback()

	u := model.User{Name: "Ivy", Email: "ivy@gmail.com", PasswordHash: "h", Role: model.RoleInvestor}
	err := NewUserRepo(db).CreateWithProfile(context.Background(), &u)
	require.ErrorIs(t, err, ErrEmailExists)
}

func TestUserRepoCreateWithProfileRollsBackOnProfileFailure(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(q("INSERT INTO users")).WillReturnResult(sqlmock.NewResult(3, 1))
	mock.ExpectExec(q("INSERT INTO mentors")).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	u := model.User{Name: "Max", Email: "max@gmail.com", PasswordHash: "h", Role: model.RoleMentor}
	err := NewUserRepo(db).CreateWithProfile(context.Background(), &u)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestUserRepoCreateAdminHasNoProfile(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(q("INSERT INTO users")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	u := model.User{Name: "Root", Email: "root@example.com", PasswordHash: "h", Role: model.RoleAdmin}
	require.NoError(t, NewUserRepo(db).CreateWithProfile(context.Background(), &u))
}

func TestUserRepoDeleteRemovesProfileAndUser(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(q("SELECT role FROM users WHERE id=? FOR UPDATE")).WithArgs(4).
		WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow("Mentor"))
	mock.ExpectExec(q("DELETE FROM mentors WHERE user_id=?")).WithArgs(4).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q("DELETE FROM users WHERE id=?")).WithArgs(4).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, NewUserRepo(db).Delete(context.Background(), 4))
}

func TestUserRepoDeleteFailureKeepsBoth(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(q("SELECT role FROM users")).WithArgs(4).
		WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow("Investor"))
	mock.ExpectExec(q("DELETE FROM investors")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q("DELETE FROM users")).WillReturnError(errors.New("lock wait timeout"))
	mock.ExpectRollback()

	require.Error(t, NewUserRepo(db).Delete(context.Background(), 4))
}

func TestUserRepoDeleteUnknown(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(q("SELECT role FROM users")).WithArgs(99).
		WillReturnRows(sqlmock.NewRows([]string{"role"}))
	mock.ExpectRollback()

	require.ErrorIs(t, NewUserRepo(db).Delete(context.Background(), 99), ErrNotFound)
}

func TestUserRepoUpdateNameEmailTouchesProfile(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(q("SELECT role FROM users WHERE id=? FOR UPDATE")).WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow("Founder"))
	mock.ExpectExec(q("UPDATE users SET name=?, email=? WHERE id=?")).
		WithArgs("New", "new@gmail.com", 2).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q("UPDATE founders SET name=?, email=? WHERE user_id=?")).
		WithArgs("New", "new@gmail.com", 2).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, NewUserRepo(db).UpdateNameEmail(context.Background(), 2, "New", "NEW@gmail.com"))
}

func TestUserRepoGetByEmailNotFound(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(q("FROM users WHERE email=?")).WithArgs("nobody@gmail.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "password_hash", "role", "created_at", "updated_at"}))

	_, err := NewUserRepo(db).GetByEmail(context.Background(), "Nobody@gmail.com")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUserRepoFindByRoleAndName(t *testing.T) {
	db, mock := newMock(t)
	now := time.Now()
	mock.ExpectQuery(q("FROM users WHERE role=? AND name=?")).WithArgs("Investor", "Ivy").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "password_hash", "role", "created_at", "updated_at"}).
			AddRow(5, "Ivy", "ivy@gmail.com", "h", "Investor", now, now).
			AddRow(8, "Ivy", "ivy2@gmail.com", "h", "Investor", now, now))

	us, err := NewUserRepo(db).FindByRoleAndName(context.Background(), model.RoleInvestor, " Ivy ")
	require.NoError(t, err)
	require.Len(t, us, 2)
	assert.Equal(t, model.RoleInvestor, us[0].Role)
	assert.Equal(t, uint64(8), us[1].ID)
}

var requestColumns = []string{
	"id", "kind", "ref_id", "founder_id", "support_id", "support_name", "supporter_name",
	"idea_desc", "stage", "status", "detail_status", "amount_cents", "created_at", "updated_at",
}

func TestRequestRepoCreateFunding(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(q("INSERT INTO funding (investor_id, founder_id, amount_cents, status)")).
		WithArgs(9, 1, 500000, "Investment Pending").
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectExec(q("INSERT INTO applications")).
		WithArgs(1, "FUNDING", 11, "AI tutor", "MVP", "Investment Pending", 9, "Fay").
		WillReturnResult(sqlmock.NewResult(21, 1))
	mock.ExpectCommit()

	req := model.Request{
		Kind: model.KindFunding, FounderID: 1, SupportID: 9, SupportName: "Fay",
		IdeaDesc: "AI tutor", Stage: model.StageMVP, AmountCents: 500000,
	}
	require.NoError(t, NewRequestRepo(db).Create(context.Background(), &req))
	assert.Equal(t, uint64(21), req.ID)
	assert.Equal(t, uint64(11), req.RefID)
	assert.Equal(t, model.StatusInvestmentPending, req.Status)
}

func TestRequestRepoCreateRollsBackWhenApplicationFails(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(q("INSERT INTO mentor_requests (mentor_id, founder_id, status)")).
		WithArgs(4, 1, "Mentor Pending").
		WillReturnResult(sqlmock.NewResult(3, 1))
	mock.ExpectExec(q("INSERT INTO applications")).WillReturnError(errors.New("bad stage"))
	mock.ExpectRollback()

	req := model.Request{Kind: model.KindMentorship, FounderID: 1, SupportID: 4, IdeaDesc: "x", Stage: "Later"}
	require.Error(t, NewRequestRepo(db).Create(context.Background(), &req))
	assert.Zero(t, req.ID)
}

func TestRequestRepoDecideAccept(t *testing.T) {
	db, mock := newMock(t)
	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery(q("WHERE a.id = ? FOR UPDATE")).WithArgs(21).
		WillReturnRows(sqlmock.NewRows(requestColumns).AddRow(
			21, "FUNDING", 11, 1, 9, "Fay", "Ivy", "AI tutor", "MVP",
			"Investment Pending", "Investment Pending", 500000, now, now))
	mock.ExpectExec(q("UPDATE funding SET status = ? WHERE id = ? AND status = ?")).
		WithArgs("Accepted", 11, "Investment Pending").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q("UPDATE applications SET status = ? WHERE id = ? AND status = ?")).
		WithArgs("Accepted", 21, "Investment Pending").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	got, err := NewRequestRepo(db).Decide(context.Background(), 21, func(r model.Request) (model.Status, error) {
		assert.Equal(t, uint64(9), r.SupportID)
		return model.Transition(r.Kind, r.Status, model.DecisionAccept)
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusAccepted, got.Status)
	assert.Equal(t, uint64(500000), got.AmountCents)
}

func TestRequestRepoDecideLosesRace(t *testing.T) {
	db, mock := newMock(t)
	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery(q("FOR UPDATE")).WithArgs(5).
		WillReturnRows(sqlmock.NewRows(requestColumns).AddRow(
			5, "MENTORSHIP", 2, 1, 4, "Fay", "Max", "idea", "Ideation",
			"Mentor Pending", "Mentor Pending", 0, now, now))
	mock.ExpectExec(q("UPDATE mentor_requests SET status = ?")).
		WithArgs("Rejected", 2, "Mentor Pending").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := NewRequestRepo(db).Decide(context.Background(), 5, func(r model.Request) (model.Status, error) {
		return model.Transition(r.Kind, r.Status, model.DecisionReject)
	})
	require.ErrorIs(t, err, ErrConflict)
}

func TestRequestRepoDecideVetoRollsBack(t *testing.T) {
	db, mock := newMock(t)
	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery(q("FOR UPDATE")).WithArgs(5).
		WillReturnRows(sqlmock.NewRows(requestColumns).AddRow(
			5, "MENTORSHIP", 2, 1, 4, "Fay", "Max", "idea", "Ideation",
			"Mentor Pending", "Accepted", 0, now, now))
	mock.ExpectRollback()

	_, err := NewRequestRepo(db).Decide(context.Background(), 5, func(r model.Request) (model.Status, error) {
		return model.Transition(r.Kind, r.Status, model.DecisionReject)
	})
	require.ErrorIs(t, err, model.ErrAlreadyDecided)
}

func TestRequestRepoDecideUnknown(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(q("FOR UPDATE")).WithArgs(77).WillReturnRows(sqlmock.NewRows(requestColumns))
	mock.ExpectRollback()

	_, err := NewRequestRepo(db).Decide(context.Background(), 77, func(model.Request) (model.Status, error) {
		t.Fatal("decide must not be called")
		return "", nil
	})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRequestRepoListPendingFiltersBothStatuses(t *testing.T) {
	db, mock := newMock(t)
	now := time.Now()
	mock.ExpectQuery(q("WHERE a.support_id = ? AND a.kind = ? AND a.status = ? AND COALESCE(f.status, m.status) = ?")).
		WithArgs(9, "FUNDING", "Investment Pending", "Investment Pending").
		WillReturnRows(sqlmock.NewRows(requestColumns).AddRow(
			21, "FUNDING", 11, 1, 9, "Fay", "Ivy", "AI tutor", "MVP",
			"Investment Pending", "Investment Pending", 500000, now, now))

	got, err := NewRequestRepo(db).ListPending(context.Background(), 9, model.KindFunding)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, model.StageMVP, got[0].Stage)
	assert.Equal(t, "Ivy", got[0].SupporterName)
}

func TestRequestRepoFundingTotals(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(q("SELECT status, COALESCE(SUM(amount_cents), 0) FROM funding GROUP BY status")).
		WillReturnRows(sqlmock.NewRows([]string{"status", "total"}).
			AddRow("Accepted", 700000).
			AddRow("Investment Pending", 500000))

	got, err := NewRequestRepo(db).FundingTotals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []model.FundingTotal{
		{Status: model.StatusAccepted, TotalCents: 700000},
		{Status: model.StatusInvestmentPending, TotalCents: 500000},
	}, got)
}

func TestEventRepoDeleteMissing(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(q("DELETE FROM events WHERE id=?")).WithArgs(3).WillReturnResult(sqlmock.NewResult(0, 0))
	require.ErrorIs(t, NewEventRepo(db).Delete(context.Background(), 3), ErrNotFound)
}

func TestEventRepoCreate(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(q("INSERT INTO events (title, description, event_date, location)")).
		WithArgs("Demo Day", "pitches", "2025-03-01", "Hall A").
		WillReturnResult(sqlmock.NewResult(12, 1))
	e := model.Event{Title: "Demo Day", Description: "pitches", Date: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), Location: "Hall A"}
	require.NoError(t, NewEventRepo(db).Create(context.Background(), &e))
	assert.Equal(t, uint64(12), e.ID)
}

func TestTokenRepoValidateRevoked(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(q("FROM refresh_tokens WHERE token_hash = ?")).WithArgs("h").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "expires_at", "revoked_at"}).
			AddRow(1, time.Now().Add(time.Hour), time.Now()))
	_, err := NewTokenRepo(db).ValidateRefresh(context.Background(), "h")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestTokenRepoRevokeIsSingleUse(t *testing.T) {
	db, mock := newMock(t)
	repo := NewTokenRepo(db)
	ctx := context.Background()

	mock.ExpectExec(q("UPDATE refresh_tokens SET revoked_at")).WithArgs("h").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.RevokeByHash(ctx, "h"))

	mock.ExpectExec(q("UPDATE refresh_tokens SET revoked_at")).WithArgs("h").
		WillReturnResult(sqlmock.NewResult(0, 0))
	require.ErrorIs(t, repo.RevokeByHash(ctx, "h"), ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenRepoPurgeExpired(t *testing.T) {
	db, mock := newMock(t)
	cutoff := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(q("DELETE FROM refresh_tokens WHERE expires_at < ?")).WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := NewTokenRepo(db).PurgeExpired(context.Background(), cutoff)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepoUpdateUnchangedRowSucceeds(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(q("UPDATE mentors SET expertise=?, availability=? WHERE user_id=?")).
		WithArgs("Go", "Fridays", uint64(4)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(q("SELECT 1 FROM mentors WHERE user_id=?")).WithArgs(uint64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	err := NewProfileRepo(db).UpdateMentor(context.Background(),
		model.MentorProfile{UserID: 4, Expertise: "Go", Availability: "Fridays"})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepoUpdateMissingProfileRow(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(q("UPDATE investors SET")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(q("SELECT 1 FROM investors WHERE user_id=?")).WithArgs(uint64(9)).
		WillReturnError(sql.ErrNoRows)

	err := NewProfileRepo(db).UpdateInvestor(context.Background(), model.InvestorProfile{UserID: 9})
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
