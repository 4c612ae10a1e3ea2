package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-ops/internal/model"
)

func TestStatusOf(t *testing.T) {
	tests := []struct {
		code model.Code
		want int
	}{
		{model.CodeNotFound, http.StatusNotFound},
		{model.CodeCapacityExceeded, http.StatusConflict},
		{model.CodeAlreadyAssigned, http.StatusConflict},
		{model.CodeAlreadyRegistered, http.StatusConflict},
		{model.CodeConflict, http.StatusConflict},
		{model.CodeCapacityBelowOccupation, http.StatusUnprocessableEntity},
		{model.CodeNotAssigned, http.StatusUnprocessableEntity},
		{model.CodeNotRegistered, http.StatusUnprocessableEntity},
		{model.CodeNotAnOccupant, http.StatusUnprocessableEntity},
		{model.CodeInvalid, http.StatusBadRequest},
		{model.CodeUnauthorized, http.StatusUnauthorized},
		{model.CodeForbidden, http.StatusForbidden},
		{model.CodeUnavailable, http.StatusServiceUnavailable},
		{"something_else", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, StatusOf(tt.code))
		})
	}
}

func newContext(target string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	rec := httptest.NewRecorder()
	return e.NewContext(httptest.NewRequest(http.MethodGet, target, nil), rec), rec
}

func TestFail(t *testing.T) {
	c, rec := newContext("/")
	err := model.Errorf(model.CodeCapacityExceeded, model.EntityLodging, 4, "full")
	require.NoError(t, fail(c, err))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"error":"capacity_exceeded","entity":"lodging","id":4,"message":"full"}`, rec.Body.String())

	c, rec = newContext("/")
	require.NoError(t, fail(c, errors.New("dial tcp: refused")))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "refused")
}

func TestParseSearch(t *testing.T) {
	c, _ := newContext("/v1/profiles?name=%20ana%20&ids=3,1&ids=2&lodge_id=7&role_id=4&limit=5000")
	q, err := parseSearch(c)
	require.NoError(t, err)
	assert.Equal(t, "ana", q.Name)
	assert.Equal(t, []uint64{3, 1, 2}, q.IDs)
	require.NotNil(t, q.LodgeID)
	assert.Equal(t, uint64(7), *q.LodgeID)
	assert.Equal(t, model.MaxProfileLimit, q.Limit)
	require.NotNil(t, q.RoleID)
	assert.Equal(t, uint64(4), *q.RoleID)

	c, _ = newContext("/v1/profiles?role_id=-1")
	_, err = parseSearch(c)
	assert.ErrorIs(t, err, model.ErrInvalid)

	c, _ = newContext("/v1/profiles?ids=1,x")
	_, err = parseSearch(c)
	assert.ErrorIs(t, err, model.ErrInvalid)
}

func TestParseID(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("0")
	_, err := parseID(c, "id", model.EntityLodging)
	assert.ErrorIs(t, err, model.ErrInvalid)

	c.SetParamValues("42")
	id, err := parseID(c, "id", model.EntityLodging)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), id)
}
