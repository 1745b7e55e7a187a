package routes

import (
	"github.com/coolshop/kbbridge/pkg/kbapi/services"
	"github.com/danielgtaylor/huma/v2"
)

// RegisterAPI mounts every operation. svcs may be nil when only the OpenAPI
// document is wanted.
func RegisterAPI(api huma.API, svcs *services.Services) {
	if svcs == nil {
		svcs = &services.Services{}
	}
	RegisterIndex(api)
	RegisterHealth(api)
	RegisterOAuth(api, svcs.Installations)
	RegisterUninstall(api, svcs.Installations, svcs.BaseURL)
}
