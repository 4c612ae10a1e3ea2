package repository

import (
	"database/sql"

	"github.com/iliyamo/event-ops/internal/model"
)

const profileCols = `p.id, p.name, p.age, p.district, p.instagram, p.role_id, p.lodge_id, p.is_paid, p.checked_in, p.team_color, p.team_hex`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(s rowScanner) (model.Profile, error) {
	var (
		p         model.Profile
		instagram sql.NullString
		lodgeID   sql.Null[uint64]
	)
	if err := s.Scan(&p.ID, &p.Name, &p.Age, &p.District, &instagram, &p.RoleID, &lodgeID, &p.IsPaid, &p.CheckedIn, &p.TeamColor, &p.TeamHex); err != nil {
		return model.Profile{}, err
	}
	if instagram.Valid {
		v := instagram.String
		p.Instagram = &v
	}
	if lodgeID.Valid {
		v := lodgeID.V
		p.LodgeID = &v
	}
	p.Slug = model.Slug(p.Name, p.ID)
	return p, nil
}

func scanProfiles(rows *sql.Rows) ([]model.Profile, error) {
	defer rows.Close()
	out := []model.Profile{}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
