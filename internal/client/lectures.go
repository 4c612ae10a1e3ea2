package client

import (
	"context"
	"net/http"

	"github.com/iliyamo/event-ops/internal/model"
)

// ListSessions returns every lecture and workshop with its occupancy.
func (c *Client) ListSessions(ctx context.Context, cred Credential) ([]model.SessionWithOccupancy, error) {
	return list[model.SessionWithOccupancy](ctx, c, cred, "/v1/lectures/with-occupation")
}

func (c *Client) SessionDetail(ctx context.Context, cred Credential, id uint64) (*model.SessionDetail, error) {
	var d model.SessionDetail
	if err := c.do(ctx, &cred, http.MethodGet, idPath("/v1/lectures/%d", id), nil, nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *Client) RegisterParticipants(ctx context.Context, cred Credential, id uint64, participantIDs []uint64) error {
	body := map[string][]uint64{"participant_ids": participantIDs}
	return c.do(ctx, &cred, http.MethodPost, idPath("/v1/lectures/%d/registrations", id), nil, body, nil)
}

func (c *Client) UnregisterParticipant(ctx context.Context, cred Credential, id, participantID uint64) error {
	return c.do(ctx, &cred, http.MethodDelete, idPath("/v1/lectures/%d/registrations/%d", id, participantID), nil, nil, nil)
}

// UpdateSession sends upd as a PATCH.  A nil MaxCapacity with SetCapacity
// set goes out as an explicit null.
func (c *Client) UpdateSession(ctx context.Context, cred Credential, id uint64, upd model.SessionUpdate) error {
	return c.do(ctx, &cred, http.MethodPatch, idPath("/v1/lectures/%d", id), nil, upd, nil)
}
