package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/iliyamo/event-ops/internal/model"
	"github.com/iliyamo/event-ops/internal/stats"
)

func searchQuery(q model.ProfileSearch) url.Values {
	v := url.Values{}
	if q.Name != "" {
		v.Set("name", q.Name)
	}
	if q.District != "" {
		v.Set("district", q.District)
	}
	if q.LodgeID != nil {
		v.Set("lodge_id", strconv.FormatUint(*q.LodgeID, 10))
	}
	if q.RoleID != nil {
		v.Set("role_id", strconv.FormatUint(*q.RoleID, 10))
	}
	if len(q.IDs) > 0 {
		parts := make([]string, len(q.IDs))
		for i, id := range q.IDs {
			parts[i] = strconv.FormatUint(id, 10)
		}
		v.Set("ids", strings.Join(parts, ","))
	}
	v.Set("offset", strconv.Itoa(q.Offset))
	v.Set("limit", strconv.Itoa(q.Limit))
	return v
}

// SearchProfiles returns one page of participants.
func (c *Client) SearchProfiles(ctx context.Context, cred Credential, q model.ProfileSearch) (model.ProfilePage, error) {
	q.Normalize()
	var page model.ProfilePage
	err := c.do(ctx, &cred, http.MethodGet, "/v1/profiles", searchQuery(q), nil, &page)
	return page, err
}

// AllProfiles pages through the whole participant list.
func (c *Client) AllProfiles(ctx context.Context, cred Credential) ([]model.Profile, error) {
	out := []model.Profile{}
	q := model.ProfileSearch{Limit: model.MaxProfileLimit}
	for {
		page, err := c.SearchProfiles(ctx, cred, q)
		if err != nil {
			return nil, err
		}
		out = append(out, page.Profiles...)
		if len(page.Profiles) == 0 || len(out) >= page.Total {
			return out, nil
		}
		q.Offset += len(page.Profiles)
	}
}

func (c *Client) Profile(ctx context.Context, cred Credential, id uint64) (model.Profile, error) {
	var p model.Profile
	err := c.do(ctx, &cred, http.MethodGet, idPath("/v1/profiles/%d", id), nil, nil, &p)
	return p, err
}

// PublicProfile looks a participant up by slug without a credential.
func (c *Client) PublicProfile(ctx context.Context, slug string) (model.PublicProfile, error) {
	var p model.PublicProfile
	err := c.do(ctx, nil, http.MethodGet, "/v1/p/"+url.PathEscape(slug), nil, nil, &p)
	return p, err
}

// CheckIn marks the participant as arrived.  Repeating it is harmless.
func (c *Client) CheckIn(ctx context.Context, cred Credential, id uint64) (model.Profile, error) {
	var p model.Profile
	err := c.do(ctx, &cred, http.MethodPost, idPath("/v1/profiles/%d/check-in", id), nil, nil, &p)
	return p, err
}

// TogglePayment flips the payment flag and returns the updated profile.
func (c *Client) TogglePayment(ctx context.Context, cred Credential, id uint64) (model.Profile, error) {
	var p model.Profile
	err := c.do(ctx, &cred, http.MethodPost, idPath("/v1/profiles/%d/payment", id), nil, nil, &p)
	return p, err
}

// Summary fetches the dashboard computed by the server.
func (c *Client) Summary(ctx context.Context, cred Credential) (stats.Summary, error) {
	var s stats.Summary
	err := c.do(ctx, &cred, http.MethodGet, "/v1/dashboard", nil, nil, &s)
	return s, err
}
