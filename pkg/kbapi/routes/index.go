package routes

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

type RootOutput struct {
	ContentType string `header:"Content-Type"`
	Body        []byte
}

func RegisterIndex(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "get-root",
		Method:      http.MethodGet,
		Path:        "/",
		Summary:     "Root endpoint",
		Description: "Returns a plain-text greeting",
		Tags:        []string{TagGeneral.String()},
	}, func(ctx context.Context, input *struct{}) (*RootOutput, error) {
		return &RootOutput{
			ContentType: "text/plain; charset=utf-8",
			Body:        []byte("Hello, World!"),
		}, nil
	})
}
