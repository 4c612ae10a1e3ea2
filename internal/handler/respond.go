package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ops/internal/model"
	"github.com/iliyamo/event-ops/internal/queue"
)

// StatusOf maps an error code to its HTTP status.
func StatusOf(code model.Code) int {
	switch code {
	case model.CodeNotFound:
		return http.StatusNotFound
	case model.CodeCapacityExceeded, model.CodeAlreadyAssigned, model.CodeAlreadyRegistered, model.CodeConflict:
		return http.StatusConflict
	case model.CodeCapacityBelowOccupation, model.CodeNotAssigned, model.CodeNotRegistered, model.CodeNotAnOccupant:
		return http.StatusUnprocessableEntity
	case model.CodeInvalid, model.CodeMalformedPayload:
		return http.StatusBadRequest
	case model.CodeUnauthorized:
		return http.StatusUnauthorized
	case model.CodeForbidden:
		return http.StatusForbidden
	case model.CodeUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// fail writes err as the JSON error envelope.  Anything that is not a
// *model.Error is logged and hidden behind a generic 500.
func fail(c echo.Context, err error) error {
	var me *model.Error
	if errors.As(err, &me) {
		return c.JSON(StatusOf(me.Code), me)
	}
	c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "message": "internal server error"})
}

func invalid(c echo.Context, entity string, id uint64, msg string) error {
	return fail(c, model.Invalid(entity, id, "%s", msg))
}

// parseID reads a positive numeric path parameter.
func parseID(c echo.Context, name, entity string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, model.Invalid(entity, 0, "invalid %s", name)
	}
	return id, nil
}

// getUserID extracts the user_id set by the JWT middleware.
func getUserID(c echo.Context) (uint64, error) {
	switch t := c.Get("user_id").(type) {
	case uint64:
		return t, nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// publish hands ev to pub in the background.  The request context is not
// used because the event must outlive the response.
func publish(c echo.Context, pub ActivityPublisher, ev queue.ActivityEvent) {
	if pub == nil {
		return
	}
	if ev.ActorID == 0 {
		ev.ActorID, _ = getUserID(c)
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := pub.PublishActivity(ctx, ev); err != nil {
			log.Printf("activity: publish %s failed: %v", ev.Kind, err)
		}
	}()
}

type participantsReq struct {
	ParticipantIDs []uint64 `json:"participant_ids"`
}

type participantReq struct {
	ParticipantID uint64 `json:"participant_id"`
}
