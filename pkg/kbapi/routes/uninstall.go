package routes

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/coolshop/kbbridge/pkg/kbapi/services/installations"
	"github.com/coolshop/kbbridge/pkg/kberr"
	"github.com/danielgtaylor/huma/v2"
)

const maxUninstallBody = 1 << 20

type UninstallInput struct {
	InstallationID string `query:"installation_id" doc:"Installation being removed"`
	Signature      string `header:"x-ada-signature-V2" doc:"Base64 HMAC-SHA256 of the request"`
	Timestamp      string `header:"x-ada-timestamp-V2" doc:"Timestamp included in the signature"`

	method   string
	body     string
	tooLarge bool
	origin   string
	path     string
}

// Resolve captures the request line and body, which are part of what Ada
// signs. Ada signs the lower-case method.
func (i *UninstallInput) Resolve(ctx huma.Context) []error {
	i.method = strings.ToLower(ctx.Method())

	scheme := "http"
	if ctx.TLS() != nil {
		scheme = "https"
	}
	if proto := ctx.Header("X-Forwarded-Proto"); proto != "" {
		scheme = strings.TrimSpace(strings.Split(proto, ",")[0])
	}
	i.origin = scheme + "://" + ctx.Host()

	u := ctx.URL()
	i.path = u.Path

	if r := ctx.BodyReader(); r != nil {
		raw, err := io.ReadAll(io.LimitReader(r, maxUninstallBody+1))
		if err != nil {
			return []error{&huma.ErrorDetail{Location: "body", Message: "unreadable request body"}}
		}
		if len(raw) > maxUninstallBody {
			i.tooLarge = true
			return nil
		}
		i.body = string(raw)
	}
	return nil
}

// signedURL is the URL without its query. A configured public origin wins
// over the one the request arrived on, since a proxy may rewrite it.
func (i *UninstallInput) signedURL(baseURL string) string {
	if baseURL != "" {
		return strings.TrimRight(baseURL, "/") + i.path
	}
	return i.origin + i.path
}

// RegisterUninstall registers the signed webhook Ada calls when the
// integration is removed from a bot.
func RegisterUninstall(api huma.API, svc *installations.Service, baseURL string) {
	huma.Register(api, huma.Operation{
		OperationID:   "uninstall",
		Method:        http.MethodDelete,
		Path:          "/uninstall",
		Summary:       "Remove an installation",
		Description:   "Verifies Ada's request signature and deletes the stored installation.",
		Tags:          []string{TagWebhooks.String()},
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, input *UninstallInput) (*struct{}, error) {
		// A truncated body could never match the signature.
		if input.tooLarge {
			return nil, huma.Error413RequestEntityTooLarge("request body too large")
		}
		err := svc.Uninstall(ctx, installations.UninstallRequest{
			InstallationID: input.InstallationID,
			Method:         input.method,
			URL:            input.signedURL(baseURL),
			Body:           input.body,
			Timestamp:      input.Timestamp,
			Signature:      input.Signature,
		})
		switch kberr.CodeOf(err) {
		case kberr.CodeUnknown:
			if err != nil {
				return nil, huma.Error500InternalServerError("failed to remove installation")
			}
			return &struct{}{}, nil
		case kberr.CodeNotFound:
			return nil, huma.Error404NotFound("installation not found")
		case kberr.CodeSignatureMismatch, kberr.CodeStaleTimestamp, kberr.CodeReplayed:
			return nil, huma.Error401Unauthorized("Unauthorized")
		default:
			return nil, huma.Error500InternalServerError("failed to remove installation")
		}
	})
}
