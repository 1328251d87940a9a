package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/startup-ecosystem/internal/model"
)

// ProfileRepo reads and updates the role satellite tables (founders,
// mentors, investors). Name and email are owned by UserRepo and are never
// written here.
type ProfileRepo struct{ DB *sql.DB }

func NewProfileRepo(db *sql.DB) *ProfileRepo { return &ProfileRepo{DB: db} }

func (r *ProfileRepo) GetFounder(ctx context.Context, userID uint64) (model.FounderProfile, error) {
	var p model.FounderProfile
	err := r.DB.QueryRowContext(ctx,
		`SELECT user_id, name, email, startup_name, industry, location, team_size, funding_needed_cents
		 FROM founders WHERE user_id=?`, userID).
		Scan(&p.UserID, &p.Name, &p.Email, &p.StartupName, &p.Industry, &p.Location, &p.TeamSize, &p.FundingNeededCents)
	return p, classify(err)
}

func (r *ProfileRepo) GetMentor(ctx context.Context, userID uint64) (model.MentorProfile, error) {
	var p model.MentorProfile
	err := r.DB.QueryRowContext(ctx,
		"SELECT user_id, name, email, expertise, availability FROM mentors WHERE user_id=?", userID).
		Scan(&p.UserID, &p.Name, &p.Email, &p.Expertise, &p.Availability)
	return p, classify(err)
}

func (r *ProfileRepo) GetInvestor(ctx context.Context, userID uint64) (model.InvestorProfile, error) {
	var p model.InvestorProfile
	err := r.DB.QueryRowContext(ctx,
		"SELECT user_id, name, email, expertise_area, available_budget_cents FROM investors WHERE user_id=?", userID).
		Scan(&p.UserID, &p.Name, &p.Email, &p.ExpertiseArea, &p.AvailableBudgetCents)
	return p, classify(err)
}

// ListMentors returns every mentor profile ordered by name, as founders
// browse them.
func (r *ProfileRepo) ListMentors(ctx context.Context) ([]model.MentorProfile, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT user_id, name, email, expertise, availability FROM mentors ORDER BY name, user_id")
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()
	out := []model.MentorProfile{}
	for rows.Next() {
		var p model.MentorProfile
		if err := rows.Scan(&p.UserID, &p.Name, &p.Email, &p.Expertise, &p.Availability); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, classify(rows.Err())
}

// ListInvestors returns every investor profile ordered by name.
func (r *ProfileRepo) ListInvestors(ctx context.Context) ([]model.InvestorProfile, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT user_id, name, email, expertise_area, available_budget_cents FROM investors ORDER BY name, user_id")
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()
	out := []model.InvestorProfile{}
	for rows.Next() {
		var p model.InvestorProfile
		if err := rows.Scan(&p.UserID, &p.Name, &p.Email, &p.ExpertiseArea, &p.AvailableBudgetCents); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, classify(rows.Err())
}

// UpdateFounder overwrites the founder's startup fields.
func (r *ProfileRepo) UpdateFounder(ctx context.Context, p model.FounderProfile) error {
	return r.exec(ctx, "founders",
		`UPDATE founders SET startup_name=?, industry=?, location=?, team_size=?, funding_needed_cents=?
		 WHERE user_id=?`,
		p.StartupName, p.Industry, p.Location, p.TeamSize, p.FundingNeededCents, p.UserID)
}

// UpdateMentor overwrites expertise and availability.
func (r *ProfileRepo) UpdateMentor(ctx context.Context, p model.MentorProfile) error {
	return r.exec(ctx, "mentors", "UPDATE mentors SET expertise=?, availability=? WHERE user_id=?",
		p.Expertise, p.Availability, p.UserID)
}

// UpdateInvestor overwrites expertise area and budget.
func (r *ProfileRepo) UpdateInvestor(ctx context.Context, p model.InvestorProfile) error {
	return r.exec(ctx, "investors", "UPDATE investors SET expertise_area=?, available_budget_cents=? WHERE user_id=?",
		p.ExpertiseArea, p.AvailableBudgetCents, p.UserID)
}

// exec runs an UPDATE keyed by user_id on one satellite table. MySQL
// reports zero affected rows when values are unchanged, so the profile row
// is looked up before declaring it missing.
func (r *ProfileRepo) exec(ctx context.Context, table, q string, args ...any) error {
	res, err := r.DB.ExecContext(ctx, q, args...)
	if err != nil {
		return classify(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return r.ensureProfile(ctx, table, args[len(args)-1])
	}
	return nil
}

// ensureProfile reports ErrNotFound when table has no row for userID.
// table is one of the fixed satellite names above.
func (r *ProfileRepo) ensureProfile(ctx context.Context, table string, userID any) error {
	var one int
	err := r.DB.QueryRowContext(ctx, "SELECT 1 FROM "+table+" WHERE user_id=?", userID).Scan(&one)
	return classify(err)
}
