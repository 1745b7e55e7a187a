package kbhub

import (
	"context"
	"fmt"

	"github.com/spf13/viper"
)

// FileCatalog reads articles from a YAML, JSON or TOML file of the form
//
//	articles:
//	  - slug: returns
//	    name: Returns policy
//	    content: ...
//
// The file is read on every call so edits show up without a restart.
type FileCatalog struct {
	path string
}

func NewFileCatalog(path string) *FileCatalog {
	return &FileCatalog{path: path}
}

func (c *FileCatalog) Articles(_ context.Context) ([]Article, error) {
	v := viper.New()
	v.SetConfigFile(c.path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("kbhub: reading catalog %s: %w", c.path, err)
	}

	var articles []Article
	if err := v.UnmarshalKey("articles", &articles); err != nil {
		return nil, fmt.Errorf("kbhub: decoding catalog %s: %w", c.path, err)
	}
	return validate(articles)
}

var _ Catalog = (*FileCatalog)(nil)
