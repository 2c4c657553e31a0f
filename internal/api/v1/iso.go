package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gosuda/auditor/internal/compliance"
)

type SearchISOControlsInput struct {
	Query string `query:"q" maxLength:"200" doc:"Matches control code, title or category; empty lists all"`
}

type SearchISOControlsOutput struct {
	Body *compliance.ISOSearchResult
}

func RegisterISORoutes(api huma.API, svc ComplianceService) {
	huma.Register(api, huma.Operation{
		OperationID: "search-iso-controls",
		Method:      http.MethodGet,
		Path:        "/iso-controls",
		Summary:     "Search framework controls",
		Tags:        []string{"ISO Controls"},
	}, func(ctx context.Context, input *SearchISOControlsInput) (*SearchISOControlsOutput, error) {
		res, err := svc.SearchISOControls(ctx, input.Query)
		if err != nil {
			return nil, toHTTPError("failed to search controls", err)
		}
		return &SearchISOControlsOutput{Body: res}, nil
	})
}
