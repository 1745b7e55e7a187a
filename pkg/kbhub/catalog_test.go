package kbhub

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestSourceID(t *testing.T) {
	if got := SourceID("inst-1"); got != "cool-shop-knowledge-hub-inst-1" {
		t.Errorf("SourceID = %q", got)
	}
}

func TestArticleIDIsStable(t *testing.T) {
	a := ArticleID(SourceID("inst-1"), "returns")
	b := ArticleID(SourceID("inst-1"), "returns")
	if a != b {
		t.Fatalf("ids differ: %s vs %s", a, b)
	}
	if c := ArticleID(SourceID("inst-2"), "returns"); c == a {
		t.Errorf("different installations share article id %s", a)
	}
	if d := ArticleID(SourceID("inst-1"), "shipping"); d == a {
		t.Errorf("different slugs share article id %s", a)
	}
}

func TestDemoCatalog(t *testing.T) {
	articles, err := DemoCatalog().Articles(context.Background())
	if err != nil {
		t.Fatalf("Articles: %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("expected 1 article, got %d", len(articles))
	}
	if articles[0].Name != "Article Title" || articles[0].Content != "Article Content" {
		t.Errorf("article = %+v", articles[0])
	}
}

func TestStaticCatalogValidation(t *testing.T) {
	tests := []struct {
		name     string
		articles []Article
	}{
		{"empty", nil},
		{"missing slug", []Article{{Name: "n"}}},
		{"missing name", []Article{{Slug: "s"}}},
		{"duplicate slug", []Article{{Slug: "s", Name: "a"}, {Slug: "s", Name: "b"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewStaticCatalog(tt.articles).Articles(context.Background()); err == nil {
				t.Error("expected error")
			}
		})
	}

	_, err := NewStaticCatalog(nil).Articles(context.Background())
	if !errors.Is(err, ErrEmptyCatalog) {
		t.Errorf("expected ErrEmptyCatalog, got %v", err)
	}
}

func TestFileCatalogYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "articles.yaml")
	content := `articles:
  - slug: returns
    name: Returns policy
    content: Items can be returned within 30 days.
    url: https://coolshop.example/kb/returns
  - slug: shipping
    name: Shipping
    content: We ship worldwide.
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	articles, err := NewFileCatalog(path).Articles(context.Background())
	if err != nil {
		t.Fatalf("Articles: %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(articles))
	}
	if articles[0].Slug != "returns" || articles[0].URL != "https://coolshop.example/kb/returns" {
		t.Errorf("first article = %+v", articles[0])
	}
	if articles[1].Name != "Shipping" {
		t.Errorf("second article = %+v", articles[1])
	}
}

func TestFileCatalogJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "articles.json")
	content := `{"articles":[{"slug":"faq","name":"FAQ","content":"Ask us."}]}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	articles, err := NewFileCatalog(path).Articles(context.Background())
	if err != nil {
		t.Fatalf("Articles: %v", err)
	}
	if len(articles) != 1 || articles[0].Slug != "faq" {
		t.Errorf("articles = %+v", articles)
	}
}

func TestFileCatalogMissingFile(t *testing.T) {
	_, err := NewFileCatalog(filepath.Join(t.TempDir(), "nope.yaml")).Articles(context.Background())
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestS3Catalog(t *testing.T) {
	endpoint := os.Getenv("KBHUB_TEST_S3_ENDPOINT")
	if endpoint == "" {
		t.Skip("KBHUB_TEST_S3_ENDPOINT not set")
	}

	c, err := NewS3Catalog(S3Config{
		Endpoint:  endpoint,
		AccessKey: os.Getenv("KBHUB_TEST_S3_ACCESS_KEY"),
		SecretKey: os.Getenv("KBHUB_TEST_S3_SECRET_KEY"),
		Bucket:    os.Getenv("KBHUB_TEST_S3_BUCKET"),
		Key:       os.Getenv("KBHUB_TEST_S3_KEY"),
	})
	if err != nil {
		t.Fatalf("NewS3Catalog: %v", err)
	}
	if _, err := c.Articles(context.Background()); err != nil {
		t.Fatalf("Articles: %v", err)
	}
}
