package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/iliyamo/event-ops/internal/database"
	"github.com/iliyamo/event-ops/internal/model"
)

// LodgingRepo manages lodgings, their types and the occupants assigned
// through profiles.lodge_id.
type LodgingRepo struct{ DB *sql.DB }

func NewLodgingRepo(db *sql.DB) *LodgingRepo { return &LodgingRepo{DB: db} }

const lodgingProjection = `
SELECT l.id, l.name, l.max_capacity, l.lodge_type_id, l.key_owner,
       COALESCE(t.type, ''), k.name,
       (SELECT COUNT(*) FROM profiles o WHERE o.lodge_id = l.id)
  FROM lodges l
  LEFT JOIN lodge_types t ON t.id = l.lodge_type_id
  LEFT JOIN profiles k ON k.id = l.key_owner`

func scanLodging(s rowScanner) (model.LodgingWithOccupation, error) {
	var (
		l        model.LodgingWithOccupation
		name     sql.NullString
		keyOwner sql.Null[uint64]
		keyName  sql.NullString
	)
	if err := s.Scan(&l.ID, &name, &l.MaxCapacity, &l.LodgeTypeID, &keyOwner, &l.LodgeType, &keyName, &l.Occupation); err != nil {
		return l, err
	}
	if name.Valid {
		v := name.String
		l.Name = &v
	}
	if keyOwner.Valid {
		v := keyOwner.V
		l.KeyOwner = &v
	}
	if keyName.Valid {
		v := keyName.String
		l.KeyOwnerName = &v
	}
	l.Status = model.StatusFor(l.Occupation, l.MaxCapacity)
	return l, nil
}

// ListTypes returns every lodge type ordered by id.
func (r *LodgingRepo) ListTypes(ctx context.Context) ([]model.LodgeType, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT id, type FROM lodge_types ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list lodge types: %w", err)
	}
	defer rows.Close()
	out := []model.LodgeType{}
	for rows.Next() {
		var t model.LodgeType
		if err := rows.Scan(&t.ID, &t.Type); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// CreateType inserts a lodge type.  A duplicate name is reported as invalid.
func (r *LodgingRepo) CreateType(ctx context.Context, name string) (model.LodgeType, error) {
	name = strings.TrimSpace(name)
	res, err := r.DB.ExecContext(ctx, "INSERT INTO lodge_types (type) VALUES (?)", name)
	if err != nil {
		if database.IsDuplicateKey(err) {
			return model.LodgeType{}, model.Invalid(model.EntityLodgeType, 0, "lodge type %q already exists", name)
		}
		return model.LodgeType{}, fmt.Errorf("insert lodge type: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.LodgeType{}, err
	}
	return model.LodgeType{ID: uint64(id), Type: name}, nil
}

// List returns the bare lodging rows.
func (r *LodgingRepo) List(ctx context.Context) ([]model.Lodging, error) {
	all, err := r.ListWithOccupation(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.Lodging, len(all))
	for i := range all {
		out[i] = all[i].Lodging
	}
	return out, nil
}

// ListWithOccupation returns every lodging with its type, key holder and
// current occupation, ordered by id.
func (r *LodgingRepo) ListWithOccupation(ctx context.Context) ([]model.LodgingWithOccupation, error) {
	rows, err := r.DB.QueryContext(ctx, lodgingProjection+" ORDER BY l.id")
	if err != nil {
		return nil, fmt.Errorf("list lodgings: %w", err)
	}
	defer rows.Close()
	out := []model.LodgingWithOccupation{}
	for rows.Next() {
		l, err := scanLodging(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lodging: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// GetDetail returns a lodging with its occupants.  Both reads run in one
// transaction so the occupation always equals the participant count.
func (r *LodgingRepo) GetDetail(ctx context.Context, id uint64) (*model.LodgingDetail, error) {
	var d model.LodgingDetail
	err := inTx(ctx, r.DB, func(tx *sql.Tx) error {
		l, err := scanLodging(tx.QueryRowContext(ctx, lodgingProjection+" WHERE l.id = ?", id))
		if isNoRows(err) {
			return notFound(model.EntityLodging, id)
		}
		if err != nil {
			return fmt.Errorf("get lodging %d: %w", id, err)
		}
		rows, err := tx.QueryContext(ctx, "SELECT "+profileCols+" FROM profiles p WHERE p.lodge_id = ? ORDER BY p.name, p.id", id)
		if err != nil {
			return fmt.Errorf("list occupants of lodging %d: %w", id, err)
		}
		ps, err := scanProfiles(rows)
		if err != nil {
			return err
		}
		d = model.LodgingDetail{LodgingWithOccupation: l, Participants: ps}
		d.Occupation = len(ps)
		d.Status = model.StatusFor(d.Occupation, d.MaxCapacity)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Create inserts a lodging after checking its type exists.
func (r *LodgingRepo) Create(ctx context.Context, in model.NewLodging) (uint64, error) {
	var id uint64
	err := inTx(ctx, r.DB, func(tx *sql.Tx) error {
		if err := typeExists(ctx, tx, in.LodgeTypeID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, "INSERT INTO lodges (name, max_capacity, lodge_type_id) VALUES (?,?,?)",
			in.Name, in.MaxCapacity, in.LodgeTypeID)
		if err != nil {
			return fmt.Errorf("insert lodging: %w", err)
		}
		n, err := res.LastInsertId()
		id = uint64(n)
		return err
	})
	return id, err
}

func typeExists(ctx context.Context, tx *sql.Tx, typeID uint64) error {
	var one int
	err := tx.QueryRowContext(ctx, "SELECT 1 FROM lodge_types WHERE id = ?", typeID).Scan(&one)
	if isNoRows(err) {
		return notFound(model.EntityLodgeType, typeID)
	}
	return err
}

// lockLodging takes the row lock every capacity-affecting mutation starts
// with and returns the lodging's capacity and key holder.
func lockLodging(ctx context.Context, tx *sql.Tx, id uint64) (capacity int, keyOwner *uint64, err error) {
	var owner sql.Null[uint64]
	err = tx.QueryRowContext(ctx, "SELECT max_capacity, key_owner FROM lodges WHERE id = ? FOR UPDATE", id).Scan(&capacity, &owner)
	if isNoRows(err) {
		return 0, nil, notFound(model.EntityLodging, id)
	}
	if err != nil {
		return 0, nil, fmt.Errorf("lock lodging %d: %w", id, err)
	}
	if owner.Valid {
		v := owner.V
		keyOwner = &v
	}
	return capacity, keyOwner, nil
}

func occupation(ctx context.Context, tx *sql.Tx, id uint64) (int, error) {
	var n int
	err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM profiles WHERE lodge_id = ?", id).Scan(&n)
	return n, err
}

// Assign places every participant in ids into the lodging or none of them.
// A participant already holding any lodging, this one included, rejects
// the whole batch.
func (r *LodgingRepo) Assign(ctx context.Context, lodgingID uint64, ids []uint64) error {
	ids = model.UniqueIDs(ids)
	if len(ids) == 0 {
		return model.Invalid(model.EntityLodging, lodgingID, "no participants to assign")
	}
	return inTx(ctx, r.DB, func(tx *sql.Tx) error {
		capacity, _, err := lockLodging(ctx, tx, lodgingID)
		if err != nil {
			return err
		}
		rows, err := tx.QueryContext(ctx, "SELECT id, lodge_id FROM profiles WHERE id IN ("+placeholders(len(ids))+") FOR UPDATE", idArgs(ids)...)
		if err != nil {
			return fmt.Errorf("lock participants: %w", err)
		}
		current := make(map[uint64]sql.Null[uint64], len(ids))
		for rows.Next() {
			var (
				id    uint64
				lodge sql.Null[uint64]
			)
			if err := rows.Scan(&id, &lodge); err != nil {
				rows.Close()
				return err
			}
			current[id] = lodge
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}
		for _, id := range ids {
			lodge, ok := current[id]
			if !ok {
				return notFound(model.EntityProfile, id)
			}
			if lodge.Valid {
				return model.Errorf(model.CodeAlreadyAssigned, model.EntityProfile, id, "participant already holds lodging %d", lodge.V)
			}
		}
		occ, err := occupation(ctx, tx, lodgingID)
		if err != nil {
			return err
		}
		if occ+len(ids) > capacity {
			return model.Errorf(model.CodeCapacityExceeded, model.EntityLodging, lodgingID,
				"%d of %d places taken, %d requested", occ, capacity, len(ids))
		}
		_, err = tx.ExecContext(ctx, "UPDATE profiles SET lodge_id = ? WHERE id IN ("+placeholders(len(ids))+")", idArgs(ids, lodgingID)...)
		if err != nil {
			return fmt.Errorf("assign participants to lodging %d: %w", lodgingID, err)
		}
		return nil
	})
}

// Remove takes participantID out of the lodging.  When the participant held
// the key the lodging is left without a key holder; keyCleared reports it.
func (r *LodgingRepo) Remove(ctx context.Context, lodgingID, participantID uint64) (keyCleared bool, err error) {
	err = inTx(ctx, r.DB, func(tx *sql.Tx) error {
		_, keyOwner, err := lockLodging(ctx, tx, lodgingID)
		if err != nil {
			return err
		}
		if err := lockOccupant(ctx, tx, lodgingID, participantID, model.CodeNotAssigned); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "UPDATE profiles SET lodge_id = NULL WHERE id = ?", participantID); err != nil {
			return fmt.Errorf("remove participant %d: %w", participantID, err)
		}
		if keyOwner != nil && *keyOwner == participantID {
			if _, err := tx.ExecContext(ctx, "UPDATE lodges SET key_owner = NULL WHERE id = ?", lodgingID); err != nil {
				return fmt.Errorf("clear key owner of lodging %d: %w", lodgingID, err)
			}
			keyCleared = true
		}
		return nil
	})
	return keyCleared, err
}

// lockOccupant checks that participantID currently sits in lodgingID and
// locks its profile row; otherwise it fails with code.
func lockOccupant(ctx context.Context, tx *sql.Tx, lodgingID, participantID uint64, code model.Code) error {
	var lodge sql.Null[uint64]
	err := tx.QueryRowContext(ctx, "SELECT lodge_id FROM profiles WHERE id = ? FOR UPDATE", participantID).Scan(&lodge)
	if isNoRows(err) {
		return notFound(model.EntityProfile, participantID)
	}
	if err != nil {
		return fmt.Errorf("lock participant %d: %w", participantID, err)
	}
	if !lodge.Valid || lodge.V != lodgingID {
		return model.Errorf(code, model.EntityProfile, participantID, "participant is not in lodging %d", lodgingID)
	}
	return nil
}

// SetKeyOwner hands the key to participantID, who must be an occupant.
func (r *LodgingRepo) SetKeyOwner(ctx context.Context, lodgingID, participantID uint64) error {
	return inTx(ctx, r.DB, func(tx *sql.Tx) error {
		if _, _, err := lockLodging(ctx, tx, lodgingID); err != nil {
			return err
		}
		if err := lockOccupant(ctx, tx, lodgingID, participantID, model.CodeNotAnOccupant); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, "UPDATE lodges SET key_owner = ? WHERE id = ?", participantID, lodgingID)
		if err != nil {
			return fmt.Errorf("set key owner of lodging %d: %w", lodgingID, err)
		}
		return nil
	})
}

// Update applies an operator edit.  Capacity may not drop below the
// current occupation.
func (r *LodgingRepo) Update(ctx context.Context, lodgingID uint64, upd model.LodgingUpdate) error {
	if err := upd.Validate(lodgingID); err != nil {
		return err
	}
	return inTx(ctx, r.DB, func(tx *sql.Tx) error {
		if _, _, err := lockLodging(ctx, tx, lodgingID); err != nil {
			return err
		}
		var (
			sets []string
			args []any
		)
		if upd.LodgeTypeID != nil {
			if err := typeExists(ctx, tx, *upd.LodgeTypeID); err != nil {
				return err
			}
			sets = append(sets, "lodge_type_id = ?")
			args = append(args, *upd.LodgeTypeID)
		}
		if upd.MaxCapacity != nil {
			occ, err := occupation(ctx, tx, lodgingID)
			if err != nil {
				return err
			}
			if *upd.MaxCapacity < occ {
				return model.Errorf(model.CodeCapacityBelowOccupation, model.EntityLodging, lodgingID,
					"capacity %d is below the %d current occupants", *upd.MaxCapacity, occ)
			}
			sets = append(sets, "max_capacity = ?")
			args = append(args, *upd.MaxCapacity)
		}
		if upd.Name != nil {
			name := strings.TrimSpace(*upd.Name)
			if name == "" {
				sets = append(sets, "name = NULL")
			} else {
				sets = append(sets, "name = ?")
				args = append(args, name)
			}
		}
		args = append(args, lodgingID)
		if _, err := tx.ExecContext(ctx, "UPDATE lodges SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...); err != nil {
			return fmt.Errorf("update lodging %d: %w", lodgingID, err)
		}
		return nil
	})
}
