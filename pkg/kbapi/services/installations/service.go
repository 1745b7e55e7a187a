// Package installations drives an Ada installation through its lifecycle:
// authorize (code exchange), complete (knowledge import), uninstall.
package installations

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/coolshop/kbbridge/pkg/ada"
	"github.com/coolshop/kbbridge/pkg/db/models"
	"github.com/coolshop/kbbridge/pkg/kberr"
	"github.com/coolshop/kbbridge/pkg/kbhub"
	"github.com/coolshop/kbbridge/pkg/kblog"
	"github.com/coolshop/kbbridge/pkg/store"
	"github.com/coolshop/kbbridge/pkg/webhook"
)

// Platform is the slice of the Ada client the lifecycle needs.
type Platform interface {
	IntegrationID() string
	CreatorBaseURL() string
	InstallerBaseURL(handle string) string
	ExchangeCode(ctx context.Context, code string) (*ada.TokenGrant, error)
	Refresh(ctx context.Context, refreshToken string) (*ada.TokenGrant, error)
	FetchIdentity(ctx context.Context, accessToken string) (*ada.Identity, error)
	Installer(handle, accessToken string) *ada.Installer
}

var _ Platform = (*ada.Client)(nil)

type Options struct {
	// Verifier adds freshness and replay checks to uninstall. Nil checks
	// the signature only.
	Verifier *webhook.Verifier
	Logger   *kblog.Logger
	Now      func() time.Time
}

type Service struct {
	store    store.Store
	platform Platform
	catalog  kbhub.Catalog
	verifier *webhook.Verifier
	logger   *kblog.Logger
	now      func() time.Time
}

func NewService(st store.Store, platform Platform, catalog kbhub.Catalog, opts Options) *Service {
	if catalog == nil {
		catalog = kbhub.DemoCatalog()
	}
	logger := opts.Logger
	if logger == nil {
		logger = kblog.NewDefault()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		store:    st,
		platform: platform,
		catalog:  catalog,
		verifier: opts.Verifier,
		logger:   logger,
		now:      now,
	}
}

// ConfirmationView is what the installer sees after authorizing, before
// agreeing to connect the Knowledge Hub.
type ConfirmationView struct {
	InstallationID   string
	IntegrationID    string
	InstallerBaseURL string
}

// CompletePath is the bridge-relative link that finishes the install.
func (v ConfirmationView) CompletePath() string {
	return "/oauth/complete?installation-id=" + url.QueryEscape(v.InstallationID)
}

// CancelURL sends the installer back to Ada's connection error page.
func (v ConfirmationView) CancelURL() string {
	return ConnectionURL(v.InstallerBaseURL, v.IntegrationID, false)
}

// AuthorizeResult holds exactly one of View or RedirectURL.
type AuthorizeResult struct {
	View        *ConfirmationView
	RedirectURL string
}

// ConnectionURL is Ada's landing page for a finished connection attempt.
func ConnectionURL(baseURL, integrationID string, success bool) string {
	outcome := "error"
	if success {
		outcome = "success"
	}
	return fmt.Sprintf("%s/platform/integrations/%s/connections/%s", baseURL, integrationID, outcome)
}

// Authorize exchanges code for tokens, looks up which installation they
// belong to and records it. On failure the result still carries a redirect
// back to the referring Ada page and the error is returned alongside it.
func (s *Service) Authorize(ctx context.Context, code, referer string) (*AuthorizeResult, error) {
	integrationID := s.platform.IntegrationID()

	fail := func(err error) (*AuthorizeResult, error) {
		base := referer
		if base == "" {
			base = s.platform.CreatorBaseURL()
		}
		return &AuthorizeResult{RedirectURL: ConnectionURL(base, integrationID, false)}, err
	}

	grant, err := s.platform.ExchangeCode(ctx, code)
	if err != nil {
		s.logger.Warn("failed to exchange code for tokens", "status_code", kberr.StatusOf(err))
		return fail(err)
	}

	identity, err := s.platform.FetchIdentity(ctx, grant.AccessToken)
	if err != nil {
		s.logger.Warn("failed to get installation details", "status_code", kberr.StatusOf(err))
		return fail(err)
	}

	inst := &models.Installation{
		InstallationID:     identity.InstallationID,
		AccessToken:        grant.AccessToken,
		RefreshToken:       grant.RefreshToken,
		ExpiryTS:           s.expiry(grant),
		InstallationSecret: grant.InstallationSecret,
		InstallerBotHandle: identity.InstallerBotHandle,
	}
	if err := s.store.Insert(ctx, inst); err != nil {
		if errors.Is(err, store.ErrConflict) {
			err = kberr.New(kberr.CodeConflict, err)
		}
		s.logger.Warn("failed to store installation", "installation_id", inst.InstallationID, "error", err)
		return fail(err)
	}

	s.logger.Info("installation authorized", "installation", inst)

	return &AuthorizeResult{View: &ConfirmationView{
		InstallationID:   inst.InstallationID,
		IntegrationID:    integrationID,
		InstallerBaseURL: s.platform.InstallerBaseURL(inst.InstallerBotHandle),
	}}, nil
}

// Complete marks the installation complete on Ada and imports the Knowledge
// Hub into a fresh knowledge source. It returns the Ada page to redirect to.
// An unknown id yields a NotFound error and no URL; any other failure yields
// the error page URL together with the error.
func (s *Service) Complete(ctx context.Context, installationID string) (string, error) {
	inst, err := s.get(ctx, installationID)
	if err != nil {
		return "", err
	}

	integrationID := s.platform.IntegrationID()
	installerBase := s.platform.InstallerBaseURL(inst.InstallerBotHandle)
	errorURL := ConnectionURL(installerBase, integrationID, false)

	inst, err = s.Refresh(ctx, inst)
	if err != nil {
		s.logger.Warn("failed to refresh access token", "installation_id", installationID, "status_code", kberr.StatusOf(err))
		return errorURL, err
	}

	installer := s.platform.Installer(inst.InstallerBotHandle, inst.AccessToken)

	if err := installer.UpdateInstallationStatus(ctx, installationID, ada.InstallationStatusComplete); err != nil {
		s.logger.Warn("failed to update installation status", "installation_id", installationID, "status_code", kberr.StatusOf(err))
		return errorURL, err
	}

	sourceID := kbhub.SourceID(installationID)
	if err := installer.CreateKnowledgeSource(ctx, ada.KnowledgeSource{ID: sourceID, Name: kbhub.SourceName}); err != nil {
		s.logger.Warn("failed to create knowledge source", "installation_id", installationID, "status_code", kberr.StatusOf(err))
		return errorURL, err
	}

	articles, err := s.catalog.Articles(ctx)
	if err != nil {
		s.logger.Warn("failed to read knowledge hub articles", "installation_id", installationID, "error", err)
		return errorURL, err
	}

	payload := make([]ada.Article, 0, len(articles))
	for _, a := range articles {
		payload = append(payload, ada.Article{
			ID:                kbhub.ArticleID(sourceID, a.Slug),
			KnowledgeSourceID: sourceID,
			Name:              a.Name,
			Content:           a.Content,
			URL:               a.URL,
		})
	}
	if err := installer.BulkImportArticles(ctx, payload); err != nil {
		s.logger.Warn("failed to bulk import knowledge articles", "installation_id", installationID, "status_code", kberr.StatusOf(err))
		return errorURL, err
	}

	s.logger.Info("installation complete", "installation_id", installationID, "articles", len(payload))
	return ConnectionURL(installerBase, integrationID, true), nil
}

// UninstallRequest is the signed DELETE as it reached the bridge.
type UninstallRequest struct {
	InstallationID string
	Method         string
	URL            string
	Body           string
	Timestamp      string
	Signature      string
}

// Uninstall deletes the installation once the request is proven to come
// from Ada. An unverified request leaves the row in place.
func (s *Service) Uninstall(ctx context.Context, req UninstallRequest) error {
	inst, err := s.get(ctx, req.InstallationID)
	if err != nil {
		return err
	}

	signed := webhook.Request{
		Secret:    inst.InstallationSecret,
		Method:    req.Method,
		URL:       req.URL,
		Body:      req.Body,
		Timestamp: req.Timestamp,
		Signature: req.Signature,
	}
	if err := s.verifier.Check(ctx, signed); err != nil {
		s.logger.Warn("rejected uninstall", "installation_id", req.InstallationID, "reason", kberr.CodeOf(err))
		return err
	}

	if err := s.store.Delete(ctx, req.InstallationID); err != nil {
		// Ada retries with the same signature; it must not read as a replay.
		if rerr := s.verifier.Release(ctx, signed); rerr != nil {
			s.logger.Warn("failed to release replay claim", "installation_id", req.InstallationID, "error", rerr)
		}
		if errors.Is(err, store.ErrNotFound) {
			return kberr.New(kberr.CodeNotFound, err)
		}
		return err
	}

	s.logger.Info("installation removed", "installation_id", req.InstallationID)
	return nil
}

// Refresh returns inst untouched while its access token is still valid.
// Otherwise it redeems the refresh token and persists the new pair.
func (s *Service) Refresh(ctx context.Context, inst *models.Installation) (*models.Installation, error) {
	if !inst.Expired(s.now()) {
		return inst, nil
	}

	grant, err := s.platform.Refresh(ctx, inst.RefreshToken)
	if err != nil {
		return nil, err
	}

	refreshToken := grant.RefreshToken
	if refreshToken == "" {
		refreshToken = inst.RefreshToken
	}

	updated, err := s.store.UpdateTokens(ctx, inst.InstallationID, store.TokenUpdate{
		AccessToken:  grant.AccessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    s.expiry(grant),
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, kberr.New(kberr.CodeNotFound, err)
		}
		return nil, err
	}

	s.logger.Debug("access token refreshed", "installation", updated)
	return updated, nil
}

func (s *Service) get(ctx context.Context, installationID string) (*models.Installation, error) {
	if installationID == "" {
		return nil, kberr.New(kberr.CodeNotFound, errors.New("installation id is required"))
	}
	inst, err := s.store.Get(ctx, installationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, kberr.New(kberr.CodeNotFound, err)
		}
		return nil, err
	}
	return inst, nil
}

func (s *Service) expiry(grant *ada.TokenGrant) time.Time {
	return s.now().UTC().Add(time.Duration(grant.ExpiresIn) * time.Second)
}
