// Package kbhub is the Cool Shop Knowledge Hub side of the bridge: the set of
// articles that get copied into an installer's Ada knowledge base.
package kbhub

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// SourceName is the display name of the knowledge source created in Ada.
const SourceName = "Cool Shop Knowledge Hub"

// ErrEmptyCatalog is returned when a catalog yields no articles.
var ErrEmptyCatalog = errors.New("kbhub: catalog has no articles")

// Article is one Knowledge Hub entry.
type Article struct {
	Slug    string `json:"slug" mapstructure:"slug"`
	Name    string `json:"name" mapstructure:"name"`
	Content string `json:"content" mapstructure:"content"`
	URL     string `json:"url,omitempty" mapstructure:"url"`
}

// Catalog lists the articles to import.
type Catalog interface {
	Articles(ctx context.Context) ([]Article, error)
}

// articleNamespace scopes the deterministic article ids.
var articleNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://coolshop.example/knowledge-hub"))

// SourceID is the id of the knowledge source created for an installation.
// Articles reference the same value as their knowledge_source_id.
func SourceID(installationID string) string {
	return "cool-shop-knowledge-hub-" + installationID
}

// ArticleID derives a stable id so a re-import overwrites instead of
// duplicating.
func ArticleID(sourceID, slug string) string {
	return uuid.NewSHA1(articleNamespace, []byte(sourceID+"/"+slug)).String()
}

func validate(articles []Article) ([]Article, error) {
	if len(articles) == 0 {
		return nil, ErrEmptyCatalog
	}
	seen := make(map[string]struct{}, len(articles))
	out := make([]Article, 0, len(articles))
	for i, a := range articles {
		a.Slug = strings.TrimSpace(a.Slug)
		a.Name = strings.TrimSpace(a.Name)
		if a.Slug == "" {
			return nil, fmt.Errorf("kbhub: article %d has no slug", i)
		}
		if a.Name == "" {
			return nil, fmt.Errorf("kbhub: article %q has no name", a.Slug)
		}
		if _, dup := seen[a.Slug]; dup {
			return nil, fmt.Errorf("kbhub: duplicate article slug %q", a.Slug)
		}
		seen[a.Slug] = struct{}{}
		out = append(out, a)
	}
	return out, nil
}
