// Package adatest runs an in-process stand-in for the Ada endpoints the
// bridge calls. One server plays both creator and installer bot.
package adatest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

const (
	TokenPath    = "/api/platform_integrations/oauth/token"
	SelfPath     = "/api/platform_integrations/oauth/self"
	SourcesPath  = "/api/v2/knowledge/sources"
	ArticlesPath = "/api/v2/knowledge/bulk/articles"
)

// InstallationPath is the PATCH target for an installation's status.
func InstallationPath(integrationID, installationID string) string {
	return "/api/v2/platform-integrations/" + integrationID + "/installations/" + installationID
}

// Call is one recorded request.
type Call struct {
	Method string
	Path   string
	Auth   string
	Form   map[string]string
	Body   string
}

// Server answers with the fields below. Defaults match a fresh install of
// "inst-1" on bot "shop1".
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	calls    []Call
	failures map[string]int

	AccessToken        string
	RefreshToken       string
	ExpiresIn          int
	InstallationSecret string
	InstallationID     string
	InstallerBotHandle string

	RefreshedAccessToken  string
	RefreshedRefreshToken string
	RefreshedExpiresIn    int
}

func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		failures:              map[string]int{},
		AccessToken:           "t1",
		RefreshToken:          "r1",
		ExpiresIn:             3600,
		InstallationSecret:    "s1",
		InstallationID:        "inst-1",
		InstallerBotHandle:    "shop1",
		RefreshedAccessToken:  "t2",
		RefreshedRefreshToken: "r2",
		RefreshedExpiresIn:    7200,
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

// Fail makes every request to path answer with status.
func (s *Server) Fail(path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[path] = status
}

// Calls returns the requests seen so far.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// CallsTo returns the requests seen for path.
func (s *Server) CallsTo(path string) []Call {
	var out []Call
	for _, c := range s.Calls() {
		if c.Path == path {
			out = append(out, c)
		}
	}
	return out
}

// Reset forgets recorded calls.
func (s *Server) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	call := Call{Method: r.Method, Path: r.URL.Path, Auth: r.Header.Get("Authorization")}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		_ = r.ParseForm()
		call.Form = map[string]string{}
		for k := range r.PostForm {
			call.Form[k] = r.PostForm.Get(k)
		}
	} else if r.Body != nil {
		raw, _ := io.ReadAll(r.Body)
		call.Body = string(raw)
	}

	s.mu.Lock()
	s.calls = append(s.calls, call)
	status, failing := s.failures[r.URL.Path]
	s.mu.Unlock()

	if failing {
		http.Error(w, http.StatusText(status), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case TokenPath:
		if call.Form["grant_type"] == "refresh_token" {
			writeJSON(w, map[string]any{
				"access_token":  s.RefreshedAccessToken,
				"refresh_token": s.RefreshedRefreshToken,
				"token_type":    "Bearer",
				"expires_in":    s.RefreshedExpiresIn,
			})
			return
		}
		writeJSON(w, map[string]any{
			"access_token":  s.AccessToken,
			"refresh_token": s.RefreshToken,
			"token_type":    "Bearer",
			"expires_in":    s.ExpiresIn,
			"client_secret": s.InstallationSecret,
		})
	case SelfPath:
		writeJSON(w, map[string]any{
			"platform_integration_installation_id": s.InstallationID,
			"client_handle":                        s.InstallerBotHandle,
		})
	default:
		writeJSON(w, map[string]any{})
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	_ = json.NewEncoder(w).Encode(v)
}
