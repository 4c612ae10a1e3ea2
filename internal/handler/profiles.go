package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ops/internal/model"
	"github.com/iliyamo/event-ops/internal/queue"
)

// ProfileHandler serves the participant endpoints.
type ProfileHandler struct {
	Profiles ProfileStore
	Events   ActivityPublisher
}

func NewProfileHandler(p ProfileStore, ev ActivityPublisher) *ProfileHandler {
	if p == nil {
		panic("nil profile store passed to NewProfileHandler")
	}
	return &ProfileHandler{Profiles: p, Events: ev}
}

// parseSearch reads the listing filters.  ids may repeat or be comma
// separated.
func parseSearch(c echo.Context) (model.ProfileSearch, error) {
	q := model.ProfileSearch{
		Name:     c.QueryParam("name"),
		District: c.QueryParam("district"),
	}
	var err error
	if v := c.QueryParam("offset"); v != "" {
		if q.Offset, err = strconv.Atoi(v); err != nil {
			return q, model.Invalid(model.EntityProfile, 0, "invalid offset")
		}
	}
	if v := c.QueryParam("limit"); v != "" {
		if q.Limit, err = strconv.Atoi(v); err != nil {
			return q, model.Invalid(model.EntityProfile, 0, "invalid limit")
		}
	}
	if v := c.QueryParam("lodge_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return q, model.Invalid(model.EntityProfile, 0, "invalid lodge_id")
		}
		q.LodgeID = &id
	}
	if v := c.QueryParam("role_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return q, model.Invalid(model.EntityProfile, 0, "invalid role_id")
		}
		q.RoleID = &id
	}
	for _, raw := range c.QueryParams()["ids"] {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseUint(part, 10, 64)
			if err != nil {
				return q, model.Invalid(model.EntityProfile, 0, "invalid id %q", part)
			}
			q.IDs = append(q.IDs, id)
		}
	}
	q.Normalize()
	return q, nil
}

// List handles GET /v1/profiles.
func (h *ProfileHandler) List(c echo.Context) error {
	q, err := parseSearch(c)
	if err != nil {
		return fail(c, err)
	}
	page, err := h.Profiles.Search(c.Request().Context(), q)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

// Get handles GET /v1/profiles/:id.
func (h *ProfileHandler) Get(c echo.Context) error {
	id, err := parseID(c, "id", model.EntityProfile)
	if err != nil {
		return fail(c, err)
	}
	p, err := h.Profiles.GetByID(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

// Public handles GET /v1/p/:slug.  It needs no token and answers only the
// public fields; a slug whose name part does not match is not found.
func (h *ProfileHandler) Public(c echo.Context) error {
	slug := strings.ToLower(strings.TrimSpace(c.Param("slug")))
	id, ok := model.SlugID(slug)
	if !ok {
		return fail(c, model.Errorf(model.CodeNotFound, model.EntityProfile, 0, "no profile %q", slug))
	}
	p, err := h.Profiles.GetByID(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	pub := p.Public()
	if pub.Slug != slug {
		return fail(c, model.Errorf(model.CodeNotFound, model.EntityProfile, 0, "no profile %q", slug))
	}
	return c.JSON(http.StatusOK, pub)
}

// Create handles POST /v1/profiles.
func (h *ProfileHandler) Create(c echo.Context) error {
	var in model.NewProfile
	if err := c.Bind(&in); err != nil {
		return invalid(c, model.EntityProfile, 0, "invalid request body")
	}
	if err := in.Validate(); err != nil {
		return fail(c, err)
	}
	p, err := h.Profiles.Create(c.Request().Context(), in)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

// CheckIn handles POST /v1/profiles/:id/check-in.
func (h *ProfileHandler) CheckIn(c echo.Context) error {
	id, err := parseID(c, "id", model.EntityProfile)
	if err != nil {
		return fail(c, err)
	}
	p, err := h.Profiles.CheckIn(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	publish(c, h.Events, queue.NewActivityEvent(queue.KindProfileCheckedIn, 0, model.EntityProfile, id))
	return c.JSON(http.StatusOK, p)
}

// TogglePayment handles POST /v1/profiles/:id/payment.
func (h *ProfileHandler) TogglePayment(c echo.Context) error {
	id, err := parseID(c, "id", model.EntityProfile)
	if err != nil {
		return fail(c, err)
	}
	p, err := h.Profiles.TogglePayment(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	ev := queue.NewActivityEvent(queue.KindPaymentToggled, 0, model.EntityProfile, id)
	ev.Note = "paid=" + strconv.FormatBool(p.IsPaid)
	publish(c, h.Events, ev)
	return c.JSON(http.StatusOK, p)
}
