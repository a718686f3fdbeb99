package export

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"

	"codecanvas_backend/internal/model"
)

var pageTemplate = template.Must(template.New("portfolio").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Portfolio.Title}} — {{.Owner.GetFullName}}</title>
<style>
body { font-family: -apple-system, sans-serif; max-width: 860px; margin: 0 auto; padding: 2rem; color: #1a1a1a; }
header h1 { margin-bottom: 0.25rem; }
.headline { color: #555; }
section { margin-top: 2rem; }
.section-title { border-bottom: 1px solid #e2e2e2; padding-bottom: 0.5rem; }
</style>
</head>
<body>
<header>
<h1>{{.Portfolio.Title}}</h1>
<p class="headline">{{.Owner.Headline}}</p>
{{if .Owner.Bio}}<p>{{.Owner.Bio}}</p>{{end}}
</header>
{{range $name, $section := .Portfolio.Content}}
<section>
<h2 class="section-title">{{$name}}</h2>
<div>{{$section}}</div>
</section>
{{end}}
<footer><p>{{.Owner.GetFullName}} · built with CodeCanvas</p></footer>
</body>
</html>
`))

type renderData struct {
	Portfolio *model.Portfolio
	Owner     *model.User
}

// RenderHTML produces a standalone HTML page for a portfolio.
func RenderHTML(portfolio *model.Portfolio, owner *model.User) ([]byte, error) {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, renderData{Portfolio: portfolio, Owner: owner}); err != nil {
		return nil, fmt.Errorf("could not render portfolio page: %w", err)
	}
	return buf.Bytes(), nil
}

// BuildZip bundles the rendered page plus the raw portfolio data.
func BuildZip(portfolio *model.Portfolio, owner *model.User) ([]byte, error) {
	page, err := RenderHTML(portfolio, owner)
	if err != nil {
		return nil, err
	}

	raw, err := json.MarshalIndent(portfolio, "", "  ")
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	files := []struct {
		name string
		body []byte
	}{
		{name: "index.html", body: page},
		{name: "portfolio.json", body: raw},
	}
	for _, f := range files {
		w, err := zw.Create(f.name)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(f.body); err != nil {
			return nil, err
		}
	}

	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
