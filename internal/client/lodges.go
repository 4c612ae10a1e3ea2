package client

import (
	"context"
	"net/http"

	"github.com/iliyamo/event-ops/internal/model"
)

func (c *Client) LodgeTypes(ctx context.Context, cred Credential) ([]model.LodgeType, error) {
	return list[model.LodgeType](ctx, c, cred, "/v1/lodge-types")
}

// ListLodgings returns every lodging with its derived occupation.
func (c *Client) ListLodgings(ctx context.Context, cred Credential) ([]model.LodgingWithOccupation, error) {
	return list[model.LodgingWithOccupation](ctx, c, cred, "/v1/lodges/with-occupation")
}

func (c *Client) LodgingDetail(ctx context.Context, cred Credential, id uint64) (*model.LodgingDetail, error) {
	var d model.LodgingDetail
	if err := c.do(ctx, &cred, http.MethodGet, idPath("/v1/lodges/%d", id), nil, nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// The mutations below discard the server's response body.  Callers re-read
// the lodging when they need the result.

func (c *Client) AssignParticipants(ctx context.Context, cred Credential, id uint64, participantIDs []uint64) error {
	body := map[string][]uint64{"participant_ids": participantIDs}
	return c.do(ctx, &cred, http.MethodPost, idPath("/v1/lodges/%d/participants", id), nil, body, nil)
}

func (c *Client) RemoveParticipant(ctx context.Context, cred Credential, id, participantID uint64) error {
	return c.do(ctx, &cred, http.MethodDelete, idPath("/v1/lodges/%d/participants/%d", id, participantID), nil, nil, nil)
}

func (c *Client) SetKeyOwner(ctx context.Context, cred Credential, id, participantID uint64) error {
	body := map[string]uint64{"participant_id": participantID}
	return c.do(ctx, &cred, http.MethodPut, idPath("/v1/lodges/%d/key-owner", id), nil, body, nil)
}

func (c *Client) UpdateLodging(ctx context.Context, cred Credential, id uint64, upd model.LodgingUpdate) error {
	return c.do(ctx, &cred, http.MethodPatch, idPath("/v1/lodges/%d", id), nil, upd, nil)
}
