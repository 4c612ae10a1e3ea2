package model

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Slug derives the public handle of a profile: the name folded to
// lowercase ASCII words joined by '-', then the id.  The id suffix keeps
// slugs unique without storing them.
func Slug(name string, id uint64) string {
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	plain, _, err := transform.String(fold, name)
	if err != nil {
		plain = name
	}
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(plain) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
			continue
		}
		dash = true
	}
	if b.Len() > 0 {
		b.WriteByte('-')
	}
	b.WriteString(strconv.FormatUint(id, 10))
	return b.String()
}

// SlugID returns the profile id a slug ends with.
func SlugID(slug string) (uint64, bool) {
	tail := slug[strings.LastIndexByte(slug, '-')+1:]
	id, err := strconv.ParseUint(tail, 10, 64)
	return id, err == nil && id > 0
}

// PublicProfile is what an unauthenticated visitor may see of a
// participant.
type PublicProfile struct {
	Slug      string  `json:"slug"`
	Name      string  `json:"name"`
	District  string  `json:"district"`
	Instagram *string `json:"instagram"`
	TeamColor string  `json:"team_color,omitempty"`
	TeamHex   string  `json:"team_hex,omitempty"`
}

func (p PublicProfile) Validate() error {
	if _, ok := SlugID(p.Slug); !ok {
		return Invalid(EntityProfile, 0, "invalid slug %q", p.Slug)
	}
	if strings.TrimSpace(p.Name) == "" {
		return Invalid(EntityProfile, 0, "name is required")
	}
	return nil
}

func (p Profile) Public() PublicProfile {
	return PublicProfile{
		Slug:      Slug(p.Name, p.ID),
		Name:      p.Name,
		District:  p.District,
		Instagram: p.Instagram,
		TeamColor: p.TeamColor,
		TeamHex:   p.TeamHex,
	}
}
