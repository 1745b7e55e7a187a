// Package ada talks to the Ada platform: the OAuth token endpoint on the
// creator bot, and the installer bot's REST API once an installation holds
// an access token.
package ada

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/coolshop/kbbridge/pkg/kberr"
	"golang.org/x/oauth2"
)

const (
	// DefaultBaseURLTemplate is where every Ada bot lives.
	DefaultBaseURLTemplate = "https://{handle}.ada.support"

	DefaultTimeout = 10 * time.Second

	tokenPath = "/api/platform_integrations/oauth/token"
	selfPath  = "/api/platform_integrations/oauth/self"
)

// BaseURL substitutes a bot handle into template. A template without the
// placeholder is treated as a fixed base, which is what tests and local
// stand-ins use.
func BaseURL(template, handle string) string {
	if template == "" {
		template = DefaultBaseURLTemplate
	}
	return strings.TrimRight(strings.ReplaceAll(template, "{handle}", handle), "/")
}

// Config holds what the bridge needs to act as an Ada platform integration.
type Config struct {
	IntegrationID     string
	IntegrationSecret string
	CreatorBotHandle  string
	BaseURLTemplate   string
	Timeout           time.Duration

	// HTTPClient overrides the transport; nil uses a fresh client.
	HTTPClient *http.Client
}

// Client performs single-attempt calls against Ada. Every failure, transport
// or non-2xx, comes back as a kberr ExchangeFailed error.
type Client struct {
	integrationID string
	template      string
	creatorBase   string
	timeout       time.Duration
	httpClient    *http.Client
	oauth         *oauth2.Config
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.IntegrationID == "" {
		return nil, errors.New("ada: integration id is required")
	}
	if cfg.IntegrationSecret == "" {
		return nil, errors.New("ada: integration secret is required")
	}
	if cfg.CreatorBotHandle == "" {
		return nil, errors.New("ada: creator bot handle is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	creatorBase := BaseURL(cfg.BaseURLTemplate, cfg.CreatorBotHandle)

	return &Client{
		integrationID: cfg.IntegrationID,
		template:      cfg.BaseURLTemplate,
		creatorBase:   creatorBase,
		timeout:       timeout,
		httpClient:    httpClient,
		oauth: &oauth2.Config{
			ClientID:     cfg.IntegrationID,
			ClientSecret: cfg.IntegrationSecret,
			Endpoint: oauth2.Endpoint{
				TokenURL:  creatorBase + tokenPath,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
	}, nil
}

// IntegrationID is the id of this integration on Ada.
func (c *Client) IntegrationID() string {
	return c.integrationID
}

// CreatorBaseURL is the base URL of the bot the integration was created
// under. Token exchange and identity lookups go there.
func (c *Client) CreatorBaseURL() string {
	return c.creatorBase
}

// InstallerBaseURL is the base URL of the bot that installed the
// integration.
func (c *Client) InstallerBaseURL(handle string) string {
	return BaseURL(c.template, handle)
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient), cancel
}

// TokenGrant is the token endpoint's answer, for either grant type.
type TokenGrant struct {
	AccessToken  string
	RefreshToken string
	// ExpiresIn is the lifetime in seconds as reported by Ada.
	ExpiresIn int64
	// InstallationSecret is the per-installation webhook signing key. It is
	// only present on the authorization_code grant.
	InstallationSecret string
}

// ExchangeCode trades an authorization code for tokens.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*TokenGrant, error) {
	if code == "" {
		return nil, kberr.ExchangeFailed("token exchange", 0, errors.New("missing authorization code"))
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	tok, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, tokenError("token exchange", err)
	}
	return grantFromToken(tok), nil
}

// Refresh trades a refresh token for a new token pair.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenGrant, error) {
	if refreshToken == "" {
		return nil, kberr.ExchangeFailed("token refresh", 0, errors.New("missing refresh token"))
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	// An empty access token is never valid, so the source goes straight to
	// the refresh grant.
	tok, err := c.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return nil, tokenError("token refresh", err)
	}
	return grantFromToken(tok), nil
}

func tokenError(op string, err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.Response != nil {
		return kberr.ExchangeFailed(op, re.Response.StatusCode, err)
	}
	return kberr.ExchangeFailed(op, 0, err)
}

func grantFromToken(tok *oauth2.Token) *TokenGrant {
	g := &TokenGrant{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresIn:    extraInt(tok.Extra("expires_in")),
	}
	if g.ExpiresIn == 0 && !tok.Expiry.IsZero() {
		g.ExpiresIn = int64(time.Until(tok.Expiry).Round(time.Second) / time.Second)
	}
	if s, ok := tok.Extra("client_secret").(string); ok {
		g.InstallationSecret = s
	}
	return g
}

func extraInt(v any) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	case json.Number:
		i, _ := n.Int64()
		return i
	case string:
		i, _ := strconv.ParseInt(n, 10, 64)
		return i
	}
	return 0
}

// Identity is what Ada reports about the installation behind a token.
type Identity struct {
	InstallationID     string `json:"platform_integration_installation_id"`
	InstallerBotHandle string `json:"client_handle"`
}

// FetchIdentity asks the creator bot which installation an access token
// belongs to.
func (c *Client) FetchIdentity(ctx context.Context, accessToken string) (*Identity, error) {
	var id Identity
	if err := c.do(ctx, "fetch identity", accessToken, http.MethodGet, c.creatorBase+selfPath, nil, &id); err != nil {
		return nil, err
	}
	if id.InstallationID == "" || id.InstallerBotHandle == "" {
		return nil, kberr.ExchangeFailed("fetch identity", http.StatusOK, errors.New("response is missing installation id or client handle"))
	}
	return &id, nil
}

// do sends one bearer-authenticated JSON request. in and out may be nil.
func (c *Client) do(ctx context.Context, op, accessToken, method, url string, in, out any) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encoding request: %w", op, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return kberr.ExchangeFailed(op, 0, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}))
	resp, err := client.Do(req)
	if err != nil {
		return kberr.ExchangeFailed(op, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return kberr.ExchangeFailed(op, resp.StatusCode, nil)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return kberr.ExchangeFailed(op, resp.StatusCode, fmt.Errorf("decoding response: %w", err))
	}
	return nil
}
