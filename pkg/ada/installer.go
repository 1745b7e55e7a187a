package ada

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// InstallationStatusComplete marks an installation as fully set up.
const InstallationStatusComplete = "complete"

// KnowledgeSource is a container for articles in an Ada knowledge base.
type KnowledgeSource struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Article is the shape Ada's bulk import endpoint accepts.
type Article struct {
	ID                string `json:"id"`
	KnowledgeSourceID string `json:"knowledge_source_id"`
	Name              string `json:"name"`
	Content           string `json:"content"`
	URL               string `json:"url,omitempty"`
}

// Installer scopes calls to the bot that installed the integration.
type Installer struct {
	client      *Client
	baseURL     string
	accessToken string
}

// Installer returns a handle for calls against the installer bot using the
// installation's access token.
func (c *Client) Installer(handle, accessToken string) *Installer {
	return &Installer{
		client:      c,
		baseURL:     c.InstallerBaseURL(handle),
		accessToken: accessToken,
	}
}

// UpdateInstallationStatus reports the installation's setup state.
func (i *Installer) UpdateInstallationStatus(ctx context.Context, installationID, status string) error {
	u := fmt.Sprintf("%s/api/v2/platform-integrations/%s/installations/%s",
		i.baseURL, url.PathEscape(i.client.integrationID), url.PathEscape(installationID))
	return i.client.do(ctx, "update installation status", i.accessToken, http.MethodPatch, u,
		map[string]string{"status": status}, nil)
}

// CreateKnowledgeSource registers a knowledge source on the installer bot.
func (i *Installer) CreateKnowledgeSource(ctx context.Context, src KnowledgeSource) error {
	return i.client.do(ctx, "create knowledge source", i.accessToken, http.MethodPost,
		i.baseURL+"/api/v2/knowledge/sources", src, nil)
}

// BulkImportArticles upserts articles into their knowledge sources.
func (i *Installer) BulkImportArticles(ctx context.Context, articles []Article) error {
	if articles == nil {
		articles = []Article{}
	}
	return i.client.do(ctx, "bulk import articles", i.accessToken, http.MethodPost,
		i.baseURL+"/api/v2/knowledge/bulk/articles", articles, nil)
}
