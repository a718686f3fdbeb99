package export

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"

	"gorm.io/datatypes"

	"codecanvas_backend/internal/model"
)

func samplePortfolio() (*model.Portfolio, *model.User) {
	portfolio := &model.Portfolio{
		Title:    "My Work",
		Slug:     "my-work",
		Template: model.TemplateDeveloper,
		Content: datatypes.JSONMap{
			"About":    "I build backends.",
			"Projects": "A list of projects.",
		},
	}
	owner := &model.User{
		Username:  "jdoe",
		FirstName: "Jane",
		LastName:  "Doe",
		Headline:  "Backend Engineer",
	}
	return portfolio, owner
}

func TestRenderHTML(t *testing.T) {
	portfolio, owner := samplePortfolio()

	page, err := RenderHTML(portfolio, owner)
	if err != nil {
		t.Fatalf("RenderHTML() error = %v", err)
	}

	html := string(page)
	for _, want := range []string{"My Work", "Jane Doe", "Backend Engineer", "I build backends."} {
		if !strings.Contains(html, want) {
			t.Fatalf("rendered page missing %q", want)
		}
	}
}

func TestBuildZipContainsPageAndData(t *testing.T) {
	portfolio, owner := samplePortfolio()

	blob, err := BuildZip(portfolio, owner)
	if err != nil {
		t.Fatalf("BuildZip() error = %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(blob), int64(len(blob)))
	if err != nil {
		t.Fatalf("could not open zip: %v", err)
	}

	names := make(map[string]bool)
	for _, f := range zr.File {
		names[f.Name] = true
	}
	if !names["index.html"] || !names["portfolio.json"] {
		t.Fatalf("zip missing expected entries, got %v", names)
	}
}
