package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-ops/internal/model"
)

func serve(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/", srv.Client())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestRequestHeaders(t *testing.T) {
	var seen http.Header
	c := serve(t, func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Clone()
		assert.Equal(t, "/v1/lodge-types", r.URL.Path)
		writeJSON(w, http.StatusOK, []model.LodgeType{{ID: 1, Type: "Quarto"}})
	})

	types, err := c.LodgeTypes(context.Background(), Bearer("abc"))
	require.NoError(t, err)
	assert.Equal(t, []model.LodgeType{{ID: 1, Type: "Quarto"}}, types)
	assert.Equal(t, "Bearer abc", seen.Get("Authorization"))
	_, err = uuid.Parse(seen.Get("X-Request-ID"))
	assert.NoError(t, err)
}

func TestMissingCredentialNeverCallsOut(t *testing.T) {
	var hits atomic.Int32
	c := serve(t, func(w http.ResponseWriter, r *http.Request) { hits.Add(1) })

	_, err := c.ListLodgings(context.Background(), Credential{})
	assert.ErrorIs(t, err, model.ErrUnauthorized)
	assert.Zero(t, hits.Load())
}

func TestErrorEnvelope(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   any
		want   error
		entity string
	}{
		{"capacity", http.StatusConflict, model.Error{Code: model.CodeCapacityExceeded, Entity: "lodging", ID: 3}, model.ErrCapacityExceeded, "lodging"},
		{"already assigned", http.StatusConflict, model.Error{Code: model.CodeAlreadyAssigned, Entity: "profile", ID: 9}, model.ErrAlreadyAssigned, "profile"},
		{"below occupation", http.StatusUnprocessableEntity, model.Error{Code: model.CodeCapacityBelowOccupation}, model.ErrCapacityBelowOccupation, ""},
		{"not found", http.StatusNotFound, model.Error{Code: model.CodeNotFound, Entity: "lodging"}, model.ErrNotFound, "lodging"},
		{"bare 404", http.StatusNotFound, map[string]string{"message": "Not Found"}, model.ErrNotFound, ""},
		{"forbidden", http.StatusForbidden, model.Error{Code: model.CodeForbidden}, model.ErrForbidden, ""},
		{"server error", http.StatusInternalServerError, map[string]string{"error": "internal"}, model.ErrUnavailable, ""},
		{"bad gateway", http.StatusBadGateway, "oops", model.ErrUnavailable, ""},
		{"rate limited", http.StatusTooManyRequests, model.Error{Code: model.CodeUnavailable}, model.ErrUnavailable, ""},
		{"teapot", http.StatusTeapot, "short and stout", model.ErrMalformedPayload, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := serve(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			})
			err := c.AssignParticipants(context.Background(), Bearer("x"), 3, []uint64{9})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			var me *model.Error
			require.True(t, errors.As(err, &me))
			assert.Equal(t, tt.entity, me.Entity)
		})
	}
}

func TestValidateOnIngest(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `<html>`},
		{"wrong shape", `{"id":"one"}`},
		{"missing id", `{"name":"x","max_capacity":2,"occupation":0,"participants":[]}`},
		{"occupation mismatch", `{"id":1,"max_capacity":2,"occupation":2,"participants":[]}`},
		{"key owner outside", `{"id":1,"max_capacity":2,"occupation":0,"key_owner":7,"participants":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := serve(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte(tt.body))
			})
			d, err := c.LodgingDetail(context.Background(), Bearer("x"), 1)
			assert.Nil(t, d)
			assert.ErrorIs(t, err, model.ErrMalformedPayload)
		})
	}
}

func TestListValidatesEveryElement(t *testing.T) {
	c := serve(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":1,"name":"ok","start_date":"2026-01-10T09:00:00Z","end_date":"2026-01-10T10:00:00Z","occupancy":0},
			{"id":2,"name":"backwards","start_date":"2026-01-10T10:00:00Z","end_date":"2026-01-10T09:00:00Z","occupancy":0}]`))
	})
	_, err := c.ListSessions(context.Background(), Bearer("x"))
	assert.ErrorIs(t, err, model.ErrMalformedPayload)

	c = serve(t, func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(`null`)) })
	ss, err := c.ListSessions(context.Background(), Bearer("x"))
	require.NoError(t, err)
	assert.NotNil(t, ss)
	assert.Empty(t, ss)
}

func TestTransportFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := New(url, nil)
	_, err := c.ListLodgings(context.Background(), Bearer("x"))
	assert.ErrorIs(t, err, model.ErrUnavailable)

	block := make(chan struct{})
	c = serve(t, func(w http.ResponseWriter, r *http.Request) { <-block })
	defer close(block)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.ListLodgings(ctx, Bearer("x"))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestUpdateSessionSendsExplicitNull(t *testing.T) {
	var got map[string]any
	c := serve(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	})
	require.NoError(t, c.UpdateSession(context.Background(), Bearer("x"), 4, model.SessionUpdate{SetCapacity: true}))
	v, ok := got["max_capacity"]
	assert.True(t, ok)
	assert.Nil(t, v)
}

func TestSearchQuery(t *testing.T) {
	lodge := uint64(3)
	role := uint64(2)
	q := model.ProfileSearch{Name: "ana", LodgeID: &lodge, RoleID: &role, IDs: []uint64{4, 5}, Limit: 20}
	v := searchQuery(q)
	assert.Equal(t, "2", v.Get("role_id"))
	assert.Equal(t, "ana", v.Get("name"))
	assert.Equal(t, "3", v.Get("lodge_id"))
	assert.Equal(t, "4,5", v.Get("ids"))
	assert.Equal(t, "20", v.Get("limit"))
	assert.Empty(t, v.Get("district"))
}

func TestCredentialExpired(t *testing.T) {
	now := time.Now()
	assert.False(t, Bearer("x").Expired(now))
	assert.False(t, Credential{Token: "x", ExpiresAt: now.Add(time.Minute)}.Expired(now))
	assert.True(t, Credential{Token: "x", ExpiresAt: now}.Expired(now))
}
