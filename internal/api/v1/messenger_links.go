package v1

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gosuda/auditor/internal/domain"
)

type ListMessengerLinksOutput struct {
	Body []*domain.MessengerLink
}

type LinkMessengerInput struct {
	Body domain.LinkMessengerRequest
}

type LinkMessengerOutput struct {
	Body *domain.MessengerLink
}

type UnlinkMessengerInput struct {
	Platform string `path:"platform" doc:"Messenger platform, e.g. slack"`
}

// RegisterMessengerLinkRoutes exposes the caller's own notification targets.
func RegisterMessengerLinkRoutes(api huma.API, links LinkStore) {
	huma.Register(api, huma.Operation{
		OperationID: "list-messenger-links",
		Method:      http.MethodGet,
		Path:        "/me/messenger-links",
		Summary:     "List the caller's messenger links",
		Tags:        []string{"Notifications"},
	}, func(ctx context.Context, _ *struct{}) (*ListMessengerLinksOutput, error) {
		actor, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		list, err := links.ListByUser(ctx, actor)
		if err != nil {
			return nil, toHTTPError("failed to list messenger links", err)
		}
		return &ListMessengerLinksOutput{Body: list}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "link-messenger",
		Method:      http.MethodPut,
		Path:        "/me/messenger-links",
		Summary:     "Link or relink a messenger account",
		Tags:        []string{"Notifications"},
	}, func(ctx context.Context, input *LinkMessengerInput) (*LinkMessengerOutput, error) {
		actor, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		link, err := domain.NewMessengerLink(actor, input.Body, time.Now())
		if err != nil {
			return nil, toHTTPError("invalid messenger link", err)
		}
		if err := links.Upsert(ctx, link); err != nil {
			return nil, toHTTPError("failed to link messenger", err)
		}
		return &LinkMessengerOutput{Body: link}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "unlink-messenger",
		Method:        http.MethodDelete,
		Path:          "/me/messenger-links/{platform}",
		Summary:       "Remove a messenger link",
		Tags:          []string{"Notifications"},
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, input *UnlinkMessengerInput) (*struct{}, error) {
		actor, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		if err := links.Delete(ctx, actor, strings.ToLower(input.Platform)); err != nil {
			return nil, toHTTPError("failed to unlink messenger", err)
		}
		return nil, nil
	})
}
