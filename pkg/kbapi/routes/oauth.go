package routes

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"net/http"

	"github.com/coolshop/kbbridge/pkg/kbapi/services/installations"
	"github.com/coolshop/kbbridge/pkg/kberr"
	"github.com/danielgtaylor/huma/v2"
)

//go:embed views/*.html
var views embed.FS

var authorizeTemplate = template.Must(template.ParseFS(views, "views/authorize.html"))

type AuthorizeInput struct {
	Code    string `query:"code" doc:"Authorization code issued by Ada"`
	Referer string `header:"Referer" doc:"Ada page that started the install"`
}

// PageOutput is either an HTML page (200) or a redirect (302).
type PageOutput struct {
	Status      int
	Location    string `header:"Location"`
	ContentType string `header:"Content-Type"`
	Body        []byte
}

type CompleteInput struct {
	InstallationID string `query:"installation-id" doc:"Installation to finish setting up"`
}

type RedirectOutput struct {
	Status   int
	Location string `header:"Location"`
}

func redirect(location string) *PageOutput {
	return &PageOutput{Status: http.StatusFound, Location: location}
}

// RegisterOAuth registers the browser-facing install flow.
func RegisterOAuth(api huma.API, svc *installations.Service) {
	huma.Register(api, huma.Operation{
		OperationID:   "oauth-authorize",
		Method:        http.MethodGet,
		Path:          "/oauth/authorize",
		Summary:       "Finish the OAuth handshake",
		Description:   "Exchanges the authorization code, records the installation and shows the connection confirmation page. Failures redirect back to Ada's connection error page.",
		Tags:          []string{TagOAuth.String()},
		DefaultStatus: http.StatusOK,
		Responses: map[string]*huma.Response{
			"200": {Description: "Confirmation page", Content: map[string]*huma.MediaType{"text/html": {}}},
			"302": {Description: "Redirect to Ada's connection error page"},
		},
	}, func(ctx context.Context, input *AuthorizeInput) (*PageOutput, error) {
		res, _ := svc.Authorize(ctx, input.Code, input.Referer)
		if res.View == nil {
			return redirect(res.RedirectURL), nil
		}

		var buf bytes.Buffer
		if err := authorizeTemplate.Execute(&buf, res.View); err != nil {
			return nil, huma.Error500InternalServerError("failed to render confirmation page")
		}
		return &PageOutput{
			Status:      http.StatusOK,
			ContentType: "text/html; charset=utf-8",
			Body:        buf.Bytes(),
		}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "oauth-complete",
		Method:        http.MethodGet,
		Path:          "/oauth/complete",
		Summary:       "Connect the Knowledge Hub",
		Description:   "Marks the installation complete on Ada, creates the knowledge source and imports the articles, then redirects to Ada's success or error page.",
		Tags:          []string{TagOAuth.String()},
		DefaultStatus: http.StatusFound,
		Responses: map[string]*huma.Response{
			"302": {Description: "Redirect to Ada's connection success or error page"},
		},
	}, func(ctx context.Context, input *CompleteInput) (*RedirectOutput, error) {
		location, err := svc.Complete(ctx, input.InstallationID)
		if kberr.IsCode(err, kberr.CodeNotFound) {
			return nil, huma.Error404NotFound("installation not found")
		}
		if location == "" {
			return nil, huma.Error500InternalServerError("failed to complete installation")
		}
		return &RedirectOutput{Status: http.StatusFound, Location: location}, nil
	})
}
