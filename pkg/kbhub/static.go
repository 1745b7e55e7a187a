package kbhub

import "context"

// StaticCatalog serves a fixed article list.
type StaticCatalog struct {
	articles []Article
}

// DemoCatalog is the single demo article imported when nothing else is
// configured.
func DemoCatalog() *StaticCatalog {
	return NewStaticCatalog([]Article{
		{Slug: "article", Name: "Article Title", Content: "Article Content"},
	})
}

func NewStaticCatalog(articles []Article) *StaticCatalog {
	return &StaticCatalog{articles: append([]Article(nil), articles...)}
}

func (c *StaticCatalog) Articles(_ context.Context) ([]Article, error) {
	return validate(append([]Article(nil), c.articles...))
}

var _ Catalog = (*StaticCatalog)(nil)
