package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/iliyamo/event-ops/internal/model"
)

// ProfileRepo reads and updates participants.
type ProfileRepo struct{ DB *sql.DB }

func NewProfileRepo(db *sql.DB) *ProfileRepo { return &ProfileRepo{DB: db} }

// Search returns one page of profiles matching s, ordered by name then id,
// plus the total number of matches.
func (r *ProfileRepo) Search(ctx context.Context, s model.ProfileSearch) (model.ProfilePage, error) {
	s.Normalize()
	var (
		where []string
		args  []any
	)
	if s.Name != "" {
		like := "%" + strings.ToLower(s.Name) + "%"
		where = append(where, "(LOWER(p.name) LIKE ? OR LOWER(COALESCE(p.instagram, '')) LIKE ?)")
		args = append(args, like, like)
	}
	if s.District != "" {
		where = append(where, "p.district = ?")
		args = append(args, s.District)
	}
	if s.LodgeID != nil {
		where = append(where, "p.lodge_id = ?")
		args = append(args, *s.LodgeID)
	}
	if s.RoleID != nil {
		where = append(where, "p.role_id = ?")
		args = append(args, *s.RoleID)
	}
	if ids := model.UniqueIDs(s.IDs); len(ids) > 0 {
		where = append(where, "p.id IN ("+placeholders(len(ids))+")")
		args = idArgs(ids, args...)
	}
	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}

	page := model.ProfilePage{Profiles: []model.Profile{}, Offset: s.Offset, Limit: s.Limit}
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM profiles p"+cond, args...).Scan(&page.Total); err != nil {
		return page, fmt.Errorf("count profiles: %w", err)
	}
	if page.Total == 0 || s.Offset >= page.Total {
		return page, nil
	}
	q := "SELECT " + profileCols + " FROM profiles p" + cond + " ORDER BY p.name, p.id LIMIT ? OFFSET ?"
	rows, err := r.DB.QueryContext(ctx, q, append(args, s.Limit, s.Offset)...)
	if err != nil {
		return page, fmt.Errorf("search profiles: %w", err)
	}
	page.Profiles, err = scanProfiles(rows)
	if err != nil {
		return page, fmt.Errorf("scan profiles: %w", err)
	}
	return page, nil
}

// GetByID returns one profile or a not_found error.
func (r *ProfileRepo) GetByID(ctx context.Context, id uint64) (model.Profile, error) {
	p, err := scanProfile(r.DB.QueryRowContext(ctx, "SELECT "+profileCols+" FROM profiles p WHERE p.id = ?", id))
	if isNoRows(err) {
		return model.Profile{}, notFound(model.EntityProfile, id)
	}
	if err != nil {
		return model.Profile{}, fmt.Errorf("get profile %d: %w", id, err)
	}
	return p, nil
}

// Create inserts a participant and returns the stored row.
func (r *ProfileRepo) Create(ctx context.Context, in model.NewProfile) (model.Profile, error) {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO profiles (name, age, district, instagram, role_id, team_color, team_hex) VALUES (?,?,?,?,?,?,?)`,
		strings.TrimSpace(in.Name), in.Age, strings.TrimSpace(in.District), in.Instagram, in.RoleID, in.TeamColor, in.TeamHex)
	if err != nil {
		return model.Profile{}, fmt.Errorf("insert profile: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Profile{}, err
	}
	return r.GetByID(ctx, uint64(id))
}

// CheckIn marks the participant as arrived.  Checking in twice is a no-op.
func (r *ProfileRepo) CheckIn(ctx context.Context, id uint64) (model.Profile, error) {
	if _, err := r.DB.ExecContext(ctx, "UPDATE profiles SET checked_in = 1 WHERE id = ?", id); err != nil {
		return model.Profile{}, fmt.Errorf("check in profile %d: %w", id, err)
	}
	return r.GetByID(ctx, id)
}

// TogglePayment flips is_paid and returns the updated profile.
func (r *ProfileRepo) TogglePayment(ctx context.Context, id uint64) (model.Profile, error) {
	if _, err := r.DB.ExecContext(ctx, "UPDATE profiles SET is_paid = NOT is_paid WHERE id = ?", id); err != nil {
		return model.Profile{}, fmt.Errorf("toggle payment of profile %d: %w", id, err)
	}
	return r.GetByID(ctx, id)
}
