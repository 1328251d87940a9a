package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/iliyamo/startup-ecosystem/internal/database"
	"github.com/iliyamo/startup-ecosystem/internal/model"
)

// UserRepo owns the users table and keeps each user's satellite profile
// row in step with it.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userCols = "id,name,email,password_hash,role,created_at,updated_at"

func scanUser(row interface{ Scan(...any) error }) (model.User, error) {
	var u model.User
	var role string
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &role, &u.CreatedAt, &u.UpdatedAt)
	u.Role = model.Role(role)
	return u, err
}

// profileTable returns the satellite table of a role, or "" for admins.
func profileTable(r model.Role) string {
	switch r {
	case model.RoleFounder:
		return "founders"
	case model.RoleMentor:
		return "mentors"
	case model.RoleInvestor:
		return "investors"
	}
	return ""
}

// CreateWithProfile inserts the user and, for non-admin roles, an empty
// profile row in one transaction. u.ID is set on success. The email is
// normalised to lower case and PasswordHash must already be set.
func (r *UserRepo) CreateWithProfile(ctx context.Context, u *model.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	return database.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"INSERT INTO users (name, email, password_hash, role) VALUES (?,?,?,?)",
			u.Name, u.Email, u.PasswordHash, string(u.Role))
		if err != nil {
			return classifyEmail(err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		u.ID = uint64(id)
		switch u.Role {
		case model.RoleFounder:
			_, err = tx.ExecContext(ctx,
				"INSERT INTO founders (user_id, name, email, team_size, funding_needed_cents) VALUES (?,?,?,1,0)",
				u.ID, u.Name, u.Email)
		case model.RoleMentor:
			_, err = tx.ExecContext(ctx,
				"INSERT INTO mentors (user_id, name, email) VALUES (?,?,?)",
				u.ID, u.Name, u.Email)
		case model.RoleInvestor:
			_, err = tx.ExecContext(ctx,
				"INSERT INTO investors (user_id, name, email, available_budget_cents) VALUES (?,?,?,0)",
				u.ID, u.Name, u.Email)
		}
		if err != nil {
			return fmt.Errorf("insert %s profile: %w", u.Role, classify(err))
		}
		return nil
	})
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users WHERE email=? LIMIT 1", email))
	return u, classify(err)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users WHERE id=? LIMIT 1", id))
	return u, classify(err)
}

// FindByRoleAndName returns every user of the role whose name matches
// exactly. Callers decide what more than one match means.
func (r *UserRepo) FindByRoleAndName(ctx context.Context, role model.Role, name string) ([]model.User, error) {
	return r.list(ctx, "SELECT "+userCols+" FROM users WHERE role=? AND name=? ORDER BY id",
		string(role), strings.TrimSpace(name))
}

// ListByRole returns all users of a role ordered by id.
func (r *UserRepo) ListByRole(ctx context.Context, role model.Role) ([]model.User, error) {
	return r.list(ctx, "SELECT "+userCols+" FROM users WHERE role=? ORDER BY id", string(role))
}

func (r *UserRepo) list(ctx context.Context, q string, args ...any) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()
	out := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, classify(rows.Err())
}

// UpdateNameEmail changes the user's name and email and copies them into
// the satellite row, both in one transaction.
func (r *UserRepo) UpdateNameEmail(ctx context.Context, id uint64, name, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	return database.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		var role string
		if err := tx.QueryRowContext(ctx, "SELECT role FROM users WHERE id=? FOR UPDATE", id).Scan(&role); err != nil {
			return classify(err)
		}
		if _, err := tx.ExecContext(ctx, "UPDATE users SET name=?, email=? WHERE id=?", name, email, id); err != nil {
			return classifyEmail(err)
		}
		if table := profileTable(model.Role(role)); table != "" {
			if _, err := tx.ExecContext(ctx,
				"UPDATE "+table+" SET name=?, email=? WHERE user_id=?", name, email, id); err != nil {
				return classify(err)
			}
		}
		return nil
	})
}

// Delete removes the satellite row and then the user row in one
// transaction: both go or neither does.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	return database.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		var role string
		if err := tx.QueryRowContext(ctx, "SELECT role FROM users WHERE id=? FOR UPDATE", id).Scan(&role); err != nil {
			return classify(err)
		}
		if table := profileTable(model.Role(role)); table != "" {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE user_id=?", id); err != nil {
				return classify(err)
			}
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
		if err != nil {
			return classify(err)
		}
		if n, _ := res.RowsAffected(); n != 1 {
			return ErrNotFound
		}
		return nil
	})
}
