package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ops/internal/model"
	"github.com/iliyamo/event-ops/internal/queue"
)

// SessionHandler serves lectures and workshops and their registrations.
type SessionHandler struct {
	Sessions SessionStore
	Events   ActivityPublisher
}

func NewSessionHandler(s SessionStore, ev ActivityPublisher) *SessionHandler {
	if s == nil {
		panic("nil session store passed to NewSessionHandler")
	}
	return &SessionHandler{Sessions: s, Events: ev}
}

func (h *SessionHandler) detail(c echo.Context, id uint64, status int) error {
	d, err := h.Sessions.GetDetail(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(status, d)
}

// List handles GET /v1/lectures.
func (h *SessionHandler) List(c echo.Context) error {
	ss, err := h.Sessions.List(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, ss)
}

// ListWithOccupation handles GET /v1/lectures/with-occupation.
func (h *SessionHandler) ListWithOccupation(c echo.Context) error {
	ss, err := h.Sessions.ListWithOccupation(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, ss)
}

// Get handles GET /v1/lectures/:id.
func (h *SessionHandler) Get(c echo.Context) error {
	id, err := parseID(c, "id", model.EntitySession)
	if err != nil {
		return fail(c, err)
	}
	return h.detail(c, id, http.StatusOK)
}

// Create handles POST /v1/lectures.
func (h *SessionHandler) Create(c echo.Context) error {
	var in model.NewSession
	if err := c.Bind(&in); err != nil {
		return invalid(c, model.EntitySession, 0, "invalid request body")
	}
	if err := in.Validate(); err != nil {
		return fail(c, err)
	}
	id, err := h.Sessions.Create(c.Request().Context(), in)
	if err != nil {
		return fail(c, err)
	}
	return h.detail(c, id, http.StatusCreated)
}

// Update handles PATCH /v1/lectures/:id.  A max_capacity key set to null
// makes the session unbounded; an absent key leaves the capacity alone.
func (h *SessionHandler) Update(c echo.Context) error {
	id, err := parseID(c, "id", model.EntitySession)
	if err != nil {
		return fail(c, err)
	}
	var upd model.SessionUpdate
	if err := c.Bind(&upd); err != nil {
		return invalid(c, model.EntitySession, id, "invalid request body")
	}
	if err := h.Sessions.Update(c.Request().Context(), id, upd); err != nil {
		return fail(c, err)
	}
	publish(c, h.Events, queue.NewActivityEvent(queue.KindLectureUpdated, 0, model.EntitySession, id))
	return h.detail(c, id, http.StatusOK)
}

// Register handles POST /v1/lectures/:id/registrations.  The batch is
// committed whole or not at all.
func (h *SessionHandler) Register(c echo.Context) error {
	id, err := parseID(c, "id", model.EntitySession)
	if err != nil {
		return fail(c, err)
	}
	var req participantsReq
	if err := c.Bind(&req); err != nil {
		return invalid(c, model.EntitySession, id, "invalid request body")
	}
	ids := model.UniqueIDs(req.ParticipantIDs)
	if len(ids) == 0 {
		return invalid(c, model.EntitySession, id, "participant_ids must not be empty")
	}
	if err := h.Sessions.Register(c.Request().Context(), id, ids); err != nil {
		return fail(c, err)
	}
	publish(c, h.Events, queue.NewActivityEvent(queue.KindLectureRegistered, 0, model.EntitySession, id, ids...))
	return h.detail(c, id, http.StatusOK)
}

// Unregister handles DELETE /v1/lectures/:id/registrations/:pid.
func (h *SessionHandler) Unregister(c echo.Context) error {
	id, err := parseID(c, "id", model.EntitySession)
	if err != nil {
		return fail(c, err)
	}
	pid, err := parseID(c, "pid", model.EntityProfile)
	if err != nil {
		return fail(c, err)
	}
	if err := h.Sessions.Unregister(c.Request().Context(), id, pid); err != nil {
		return fail(c, err)
	}
	publish(c, h.Events, queue.NewActivityEvent(queue.KindLectureUnregistered, 0, model.EntitySession, id, pid))
	return h.detail(c, id, http.StatusOK)
}
