package ada

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/coolshop/kbbridge/pkg/ada/adatest"
	"github.com/coolshop/kbbridge/pkg/kberr"
)

func newTestClient(t *testing.T, f *adatest.Server) *Client {
	t.Helper()
	c, err := NewClient(Config{
		IntegrationID:     "integ-1",
		IntegrationSecret: "integ-secret",
		CreatorBotHandle:  "creator",
		BaseURLTemplate:   f.URL,
		Timeout:           2 * time.Second,
		HTTPClient:        f.Client(),
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestBaseURL(t *testing.T) {
	tests := []struct {
		template, handle, want string
	}{
		{"", "shop1", "https://shop1.ada.support"},
		{DefaultBaseURLTemplate, "creator", "https://creator.ada.support"},
		{"http://localhost:9999/", "ignored", "http://localhost:9999"},
		{"http://{handle}.ada.test", "shop2", "http://shop2.ada.test"},
	}
	for _, tt := range tests {
		if got := BaseURL(tt.template, tt.handle); got != tt.want {
			t.Errorf("BaseURL(%q, %q) = %q, want %q", tt.template, tt.handle, got, tt.want)
		}
	}
}

func TestNewClientRequiresCredentials(t *testing.T) {
	cases := []Config{
		{IntegrationSecret: "s", CreatorBotHandle: "h"},
		{IntegrationID: "i", CreatorBotHandle: "h"},
		{IntegrationID: "i", IntegrationSecret: "s"},
	}
	for i, cfg := range cases {
		if _, err := NewClient(cfg); err == nil {
			t.Errorf("case %d: expected error", i)
		}
	}
}

func TestExchangeCode(t *testing.T) {
	f := adatest.NewServer(t)
	c := newTestClient(t, f)

	grant, err := c.ExchangeCode(context.Background(), "abc")
	if err != nil {
		t.Fatalf("ExchangeCode: %v", err)
	}
	if grant.AccessToken != "t1" || grant.RefreshToken != "r1" {
		t.Errorf("tokens = %q/%q, want t1/r1", grant.AccessToken, grant.RefreshToken)
	}
	if grant.ExpiresIn != 3600 {
		t.Errorf("ExpiresIn = %d, want 3600", grant.ExpiresIn)
	}
	if grant.InstallationSecret != "s1" {
		t.Errorf("InstallationSecret = %q, want s1", grant.InstallationSecret)
	}

	calls := f.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(calls))
	}
	form := calls[0].Form
	want := map[string]string{
		"client_id":     "integ-1",
		"client_secret": "integ-secret",
		"code":          "abc",
		"grant_type":    "authorization_code",
	}
	for k, v := range want {
		if form[k] != v {
			t.Errorf("form[%s] = %q, want %q", k, form[k], v)
		}
	}
	if calls[0].Method != http.MethodPost || calls[0].Path != adatest.TokenPath {
		t.Errorf("call = %s %s", calls[0].Method, calls[0].Path)
	}
}

func TestExchangeCodeFailureCarriesStatus(t *testing.T) {
	f := adatest.NewServer(t)
	f.Fail(adatest.TokenPath, http.StatusInternalServerError)
	c := newTestClient(t, f)

	_, err := c.ExchangeCode(context.Background(), "abc")
	if err == nil {
		t.Fatal("expected error")
	}
	if !kberr.IsCode(err, kberr.CodeExchangeFailed) {
		t.Errorf("code = %s, want exchange_failed", kberr.CodeOf(err))
	}
	if got := kberr.StatusOf(err); got != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", got)
	}
}

func TestExchangeCodeMissingCode(t *testing.T) {
	f := adatest.NewServer(t)
	c := newTestClient(t, f)

	if _, err := c.ExchangeCode(context.Background(), ""); !kberr.IsCode(err, kberr.CodeExchangeFailed) {
		t.Fatalf("expected exchange_failed, got %v", err)
	}
	if n := len(f.Calls()); n != 0 {
		t.Errorf("expected no calls, got %d", n)
	}
}

func TestRefresh(t *testing.T) {
	f := adatest.NewServer(t)
	c := newTestClient(t, f)

	grant, err := c.Refresh(context.Background(), "r1")
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if grant.AccessToken != "t2" || grant.RefreshToken != "r2" || grant.ExpiresIn != 7200 {
		t.Errorf("grant = %+v", grant)
	}
	if grant.InstallationSecret != "" {
		t.Errorf("refresh should not carry a secret, got %q", grant.InstallationSecret)
	}

	calls := f.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(calls))
	}
	if calls[0].Form["grant_type"] != "refresh_token" || calls[0].Form["refresh_token"] != "r1" {
		t.Errorf("form = %v", calls[0].Form)
	}
	if calls[0].Form["client_id"] != "integ-1" {
		t.Errorf("client_id = %q", calls[0].Form["client_id"])
	}
}

func TestRefreshFailure(t *testing.T) {
	f := adatest.NewServer(t)
	f.Fail(adatest.TokenPath, http.StatusUnauthorized)
	c := newTestClient(t, f)

	_, err := c.Refresh(context.Background(), "r1")
	if kberr.StatusOf(err) != http.StatusUnauthorized {
		t.Fatalf("expected 401 exchange failure, got %v", err)
	}
}

func TestFetchIdentity(t *testing.T) {
	f := adatest.NewServer(t)
	c := newTestClient(t, f)

	id, err := c.FetchIdentity(context.Background(), "t1")
	if err != nil {
		t.Fatalf("FetchIdentity: %v", err)
	}
	if id.InstallationID != "inst-1" || id.InstallerBotHandle != "shop1" {
		t.Errorf("identity = %+v", id)
	}

	calls := f.Calls()
	if calls[0].Auth != "Bearer t1" {
		t.Errorf("Authorization = %q, want Bearer t1", calls[0].Auth)
	}
	if calls[0].Method != http.MethodGet || calls[0].Path != adatest.SelfPath {
		t.Errorf("call = %s %s", calls[0].Method, calls[0].Path)
	}
}

func TestFetchIdentityFailure(t *testing.T) {
	f := adatest.NewServer(t)
	f.Fail(adatest.SelfPath, http.StatusForbidden)
	c := newTestClient(t, f)

	_, err := c.FetchIdentity(context.Background(), "t1")
	if kberr.StatusOf(err) != http.StatusForbidden {
		t.Fatalf("expected 403 exchange failure, got %v", err)
	}
}

func TestTransportFailureHasZeroStatus(t *testing.T) {
	f := adatest.NewServer(t)
	c := newTestClient(t, f)
	f.Close()

	_, err := c.FetchIdentity(context.Background(), "t1")
	if !kberr.IsCode(err, kberr.CodeExchangeFailed) {
		t.Fatalf("expected exchange_failed, got %v", err)
	}
	if kberr.StatusOf(err) != 0 {
		t.Errorf("status = %d, want 0", kberr.StatusOf(err))
	}
}
