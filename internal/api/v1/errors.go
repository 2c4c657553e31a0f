package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/auditor/internal/domain"
	"github.com/gosuda/auditor/internal/server/middleware"
)

// actorFromContext returns the authenticated user or a 401.
func actorFromContext(ctx context.Context) (uuid.UUID, error) {
	id, ok := middleware.UserIDFromContext(ctx)
	if !ok || id == uuid.Nil {
		return uuid.Nil, huma.Error401Unauthorized("missing user context")
	}
	return id, nil
}

// toHTTPError maps service errors onto huma status errors.
func toHTTPError(msg string, err error) error {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		details := make([]error, 0, len(verr.Fields))
		for _, f := range verr.Fields {
			details = append(details, &huma.ErrorDetail{
				Location: "body." + f.Field,
				Message:  f.Reason,
			})
		}
		return huma.Error422UnprocessableEntity("validation failed", details...)
	}

	var nf *domain.NotFoundError
	if errors.As(err, &nf) {
		return huma.Error404NotFound(nf.Error())
	}
	if errors.Is(err, domain.ErrNotFound) {
		return huma.Error404NotFound("not found")
	}

	var rerr *domain.RemoteError
	if errors.As(err, &rerr) {
		status := rerr.Status
		if status < http.StatusBadRequest {
			status = http.StatusBadGateway
		}
		if status >= http.StatusInternalServerError {
			log.Error().Err(err).Int("status", status).Msg(msg)
		}
		if rerr.Message != "" {
			msg += ": " + rerr.Message
		}
		return huma.NewError(status, msg)
	}

	log.Error().Err(err).Msg(msg)
	return huma.Error500InternalServerError(msg)
}
