package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ops/internal/model"
	"github.com/iliyamo/event-ops/internal/queue"
)

// LodgingHandler serves lodgings, lodge types and occupant changes.
// Every mutation answers with the lodging detail read after the commit.
type LodgingHandler struct {
	Lodgings LodgingStore
	Events   ActivityPublisher
}

func NewLodgingHandler(l LodgingStore, ev ActivityPublisher) *LodgingHandler {
	if l == nil {
		panic("nil lodging store passed to NewLodgingHandler")
	}
	return &LodgingHandler{Lodgings: l, Events: ev}
}

func (h *LodgingHandler) detail(c echo.Context, id uint64, status int) error {
	d, err := h.Lodgings.GetDetail(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(status, d)
}

// ListTypes handles GET /v1/lodge-types.
func (h *LodgingHandler) ListTypes(c echo.Context) error {
	ts, err := h.Lodgings.ListTypes(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, ts)
}

// CreateType handles POST /v1/lodge-types.
func (h *LodgingHandler) CreateType(c echo.Context) error {
	var body struct {
		Type string `json:"type"`
	}
	if err := c.Bind(&body); err != nil {
		return invalid(c, model.EntityLodgeType, 0, "invalid request body")
	}
	if strings.TrimSpace(body.Type) == "" {
		return invalid(c, model.EntityLodgeType, 0, "type is required")
	}
	t, err := h.Lodgings.CreateType(c.Request().Context(), body.Type)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, t)
}

// List handles GET /v1/lodges.
func (h *LodgingHandler) List(c echo.Context) error {
	ls, err := h.Lodgings.List(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, ls)
}

// ListWithOccupation handles GET /v1/lodges/with-occupation.
func (h *LodgingHandler) ListWithOccupation(c echo.Context) error {
	ls, err := h.Lodgings.ListWithOccupation(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, ls)
}

// Get handles GET /v1/lodges/:id.
func (h *LodgingHandler) Get(c echo.Context) error {
	id, err := parseID(c, "id", model.EntityLodging)
	if err != nil {
		return fail(c, err)
	}
	return h.detail(c, id, http.StatusOK)
}

// Create handles POST /v1/lodges.
func (h *LodgingHandler) Create(c echo.Context) error {
	var in model.NewLodging
	if err := c.Bind(&in); err != nil {
		return invalid(c, model.EntityLodging, 0, "invalid request body")
	}
	if err := in.Validate(); err != nil {
		return fail(c, err)
	}
	id, err := h.Lodgings.Create(c.Request().Context(), in)
	if err != nil {
		return fail(c, err)
	}
	return h.detail(c, id, http.StatusCreated)
}

// Update handles PATCH /v1/lodges/:id.
func (h *LodgingHandler) Update(c echo.Context) error {
	id, err := parseID(c, "id", model.EntityLodging)
	if err != nil {
		return fail(c, err)
	}
	var upd model.LodgingUpdate
	if err := c.Bind(&upd); err != nil {
		return invalid(c, model.EntityLodging, id, "invalid request body")
	}
	if err := upd.Validate(id); err != nil {
		return fail(c, err)
	}
	if err := h.Lodgings.Update(c.Request().Context(), id, upd); err != nil {
		return fail(c, err)
	}
	publish(c, h.Events, queue.NewActivityEvent(queue.KindLodgingUpdated, 0, model.EntityLodging, id))
	return h.detail(c, id, http.StatusOK)
}

// AssignParticipants handles POST /v1/lodges/:id/participants.
func (h *LodgingHandler) AssignParticipants(c echo.Context) error {
	id, err := parseID(c, "id", model.EntityLodging)
	if err != nil {
		return fail(c, err)
	}
	var req participantsReq
	if err := c.Bind(&req); err != nil {
		return invalid(c, model.EntityLodging, id, "invalid request body")
	}
	ids := model.UniqueIDs(req.ParticipantIDs)
	if len(ids) == 0 {
		return invalid(c, model.EntityLodging, id, "participant_ids must not be empty")
	}
	if err := h.Lodgings.Assign(c.Request().Context(), id, ids); err != nil {
		return fail(c, err)
	}
	publish(c, h.Events, queue.NewActivityEvent(queue.KindLodgingAssigned, 0, model.EntityLodging, id, ids...))
	return h.detail(c, id, http.StatusOK)
}

// RemoveParticipant handles DELETE /v1/lodges/:id/participants/:pid.
func (h *LodgingHandler) RemoveParticipant(c echo.Context) error {
	id, err := parseID(c, "id", model.EntityLodging)
	if err != nil {
		return fail(c, err)
	}
	pid, err := parseID(c, "pid", model.EntityProfile)
	if err != nil {
		return fail(c, err)
	}
	cleared, err := h.Lodgings.Remove(c.Request().Context(), id, pid)
	if err != nil {
		return fail(c, err)
	}
	ev := queue.NewActivityEvent(queue.KindLodgingRemoved, 0, model.EntityLodging, id, pid)
	if cleared {
		ev.Note = "key owner cleared"
	}
	publish(c, h.Events, ev)
	return h.detail(c, id, http.StatusOK)
}

// SetKeyOwner handles PUT /v1/lodges/:id/key-owner.
func (h *LodgingHandler) SetKeyOwner(c echo.Context) error {
	id, err := parseID(c, "id", model.EntityLodging)
	if err != nil {
		return fail(c, err)
	}
	var req participantReq
	if err := c.Bind(&req); err != nil || req.ParticipantID == 0 {
		return invalid(c, model.EntityLodging, id, "participant_id is required")
	}
	if err := h.Lodgings.SetKeyOwner(c.Request().Context(), id, req.ParticipantID); err != nil {
		return fail(c, err)
	}
	publish(c, h.Events, queue.NewActivityEvent(queue.KindKeyOwnerSet, 0, model.EntityLodging, id, req.ParticipantID))
	return h.detail(c, id, http.StatusOK)
}
