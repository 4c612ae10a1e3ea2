package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/iliyamo/event-ops/internal/database"
	"github.com/iliyamo/event-ops/internal/model"
)

// SessionRepo manages lectures and workshops and their registrations.
type SessionRepo struct{ DB *sql.DB }

func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{DB: db} }

const sessionProjection = `
SELECT s.id, s.name, s.start_date, s.end_date, s.is_workshop, s.max_capacity, s.speaker_id,
       (SELECT COUNT(*) FROM lecture_registrations r WHERE r.lecture_id = s.id)
  FROM lectures s`

func scanSession(sc rowScanner) (model.SessionWithOccupancy, error) {
	var (
		s        model.SessionWithOccupancy
		capacity sql.NullInt64
		speaker  sql.Null[uint64]
	)
	if err := sc.Scan(&s.ID, &s.Name, &s.StartDate, &s.EndDate, &s.IsWorkshop, &capacity, &speaker, &s.Occupancy); err != nil {
		return s, err
	}
	if capacity.Valid {
		v := int(capacity.Int64)
		s.MaxCapacity = &v
	}
	if speaker.Valid {
		v := speaker.V
		s.SpeakerID = &v
	}
	return s, nil
}

// List returns the bare session rows ordered by start date.
func (r *SessionRepo) List(ctx context.Context) ([]model.Session, error) {
	all, err := r.ListWithOccupation(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.Session, len(all))
	for i := range all {
		out[i] = all[i].Session
	}
	return out, nil
}

// ListWithOccupation returns every session with its registration count.
func (r *SessionRepo) ListWithOccupation(ctx context.Context) ([]model.SessionWithOccupancy, error) {
	rows, err := r.DB.QueryContext(ctx, sessionProjection+" ORDER BY s.start_date, s.id")
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()
	out := []model.SessionWithOccupancy{}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetDetail returns a session with its registered participants.
func (r *SessionRepo) GetDetail(ctx context.Context, id uint64) (*model.SessionDetail, error) {
	var d model.SessionDetail
	err := inTx(ctx, r.DB, func(tx *sql.Tx) error {
		s, err := scanSession(tx.QueryRowContext(ctx, sessionProjection+" WHERE s.id = ?", id))
		if isNoRows(err) {
			return notFound(model.EntitySession, id)
		}
		if err != nil {
			return fmt.Errorf("get session %d: %w", id, err)
		}
		rows, err := tx.QueryContext(ctx, "SELECT "+profileCols+` FROM lecture_registrations r
			JOIN profiles p ON p.id = r.profile_id
			WHERE r.lecture_id = ? ORDER BY r.created_at, p.id`, id)
		if err != nil {
			return fmt.Errorf("list registrations of session %d: %w", id, err)
		}
		ps, err := scanProfiles(rows)
		if err != nil {
			return err
		}
		d = model.SessionDetail{SessionWithOccupancy: s, Participants: ps}
		d.Occupancy = len(ps)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Create inserts a session and returns its id.
func (r *SessionRepo) Create(ctx context.Context, in model.NewSession) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO lectures (name, start_date, end_date, is_workshop, max_capacity, speaker_id) VALUES (?,?,?,?,?,?)",
		strings.TrimSpace(in.Name), in.StartDate.UTC(), in.EndDate.UTC(), in.IsWorkshop, in.MaxCapacity, in.SpeakerID)
	if err != nil {
		return 0, fmt.Errorf("insert session: %w", err)
	}
	id, err := res.LastInsertId()
	return uint64(id), err
}

func lockSession(ctx context.Context, tx *sql.Tx, id uint64) (model.Session, error) {
	var (
		s        = model.Session{ID: id}
		capacity sql.NullInt64
		speaker  sql.Null[uint64]
	)
	err := tx.QueryRowContext(ctx,
		"SELECT name, start_date, end_date, is_workshop, max_capacity, speaker_id FROM lectures WHERE id = ? FOR UPDATE", id).
		Scan(&s.Name, &s.StartDate, &s.EndDate, &s.IsWorkshop, &capacity, &speaker)
	if isNoRows(err) {
		return s, notFound(model.EntitySession, id)
	}
	if err != nil {
		return s, fmt.Errorf("lock session %d: %w", id, err)
	}
	if capacity.Valid {
		v := int(capacity.Int64)
		s.MaxCapacity = &v
	}
	if speaker.Valid {
		v := speaker.V
		s.SpeakerID = &v
	}
	return s, nil
}

func occupancy(ctx context.Context, tx *sql.Tx, id uint64) (int, error) {
	var n int
	err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM lecture_registrations WHERE lecture_id = ?", id).Scan(&n)
	return n, err
}

// Register signs every participant in ids up for the session or none of
// them.  The capacity check is skipped for unbounded sessions.
func (r *SessionRepo) Register(ctx context.Context, sessionID uint64, ids []uint64) error {
	ids = model.UniqueIDs(ids)
	if len(ids) == 0 {
		return model.Invalid(model.EntitySession, sessionID, "no participants to register")
	}
	return inTx(ctx, r.DB, func(tx *sql.Tx) error {
		s, err := lockSession(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		known, err := existingIDs(ctx, tx, "SELECT id FROM profiles WHERE id IN ("+placeholders(len(ids))+")", idArgs(ids)...)
		if err != nil {
			return err
		}
		for _, id := range ids {
			if _, ok := known[id]; !ok {
				return notFound(model.EntityProfile, id)
			}
		}
		taken, err := existingIDs(ctx, tx,
			"SELECT profile_id FROM lecture_registrations WHERE lecture_id = ? AND profile_id IN ("+placeholders(len(ids))+")",
			idArgs(ids, sessionID)...)
		if err != nil {
			return err
		}
		for _, id := range ids {
			if _, ok := taken[id]; ok {
				return model.Errorf(model.CodeAlreadyRegistered, model.EntityProfile, id, "participant already registered for session %d", sessionID)
			}
		}
		if s.MaxCapacity != nil {
			occ, err := occupancy(ctx, tx, sessionID)
			if err != nil {
				return err
			}
			if occ+len(ids) > *s.MaxCapacity {
				return model.Errorf(model.CodeCapacityExceeded, model.EntitySession, sessionID,
					"%d of %d places taken, %d requested", occ, *s.MaxCapacity, len(ids))
			}
		}
		values := strings.TrimSuffix(strings.Repeat("(?, ?), ", len(ids)), ", ")
		args := make([]any, 0, 2*len(ids))
		for _, id := range ids {
			args = append(args, sessionID, id)
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO lecture_registrations (lecture_id, profile_id) VALUES "+values, args...); err != nil {
			if database.IsDuplicateKey(err) {
				return model.Errorf(model.CodeAlreadyRegistered, model.EntitySession, sessionID, "participant already registered")
			}
			return fmt.Errorf("register for session %d: %w", sessionID, err)
		}
		return nil
	})
}

func existingIDs(ctx context.Context, tx *sql.Tx, q string, args ...any) (map[uint64]struct{}, error) {
	rows, err := tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[uint64]struct{}{}
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = struct{}{}
	}
	return out, rows.Err()
}

// Unregister removes one registration.
func (r *SessionRepo) Unregister(ctx context.Context, sessionID, participantID uint64) error {
	return inTx(ctx, r.DB, func(tx *sql.Tx) error {
		if _, err := lockSession(ctx, tx, sessionID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM lecture_registrations WHERE lecture_id = ? AND profile_id = ?", sessionID, participantID)
		if err != nil {
			return fmt.Errorf("unregister from session %d: %w", sessionID, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return model.Errorf(model.CodeNotRegistered, model.EntityProfile, participantID, "participant is not registered for session %d", sessionID)
		}
		return nil
	})
}

// Update applies an edit to the session window, name or capacity.
func (r *SessionRepo) Update(ctx context.Context, sessionID uint64, upd model.SessionUpdate) error {
	return inTx(ctx, r.DB, func(tx *sql.Tx) error {
		cur, err := lockSession(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		if err := upd.Validate(cur); err != nil {
			return err
		}
		if upd.SetCapacity && upd.MaxCapacity != nil {
			occ, err := occupancy(ctx, tx, sessionID)
			if err != nil {
				return err
			}
			if *upd.MaxCapacity < occ {
				return model.Errorf(model.CodeCapacityBelowOccupation, model.EntitySession, sessionID,
					"capacity %d is below the %d current registrations", *upd.MaxCapacity, occ)
			}
		}
		next := upd.Apply(cur)
		_, err = tx.ExecContext(ctx, "UPDATE lectures SET name = ?, start_date = ?, end_date = ?, max_capacity = ? WHERE id = ?",
			next.Name, next.StartDate.UTC(), next.EndDate.UTC(), next.MaxCapacity, sessionID)
		if err != nil {
			return fmt.Errorf("update session %d: %w", sessionID, err)
		}
		return nil
	})
}
