package fieldbind_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/nikitaxru/fieldbind"
)

// TemplateSuite — сьют фасада Template: вид по расширению, поля и рендер
type TemplateSuite struct {
	suite.Suite
}

// Runner
func TestTemplateSuite(t *testing.T) {
	suite.Run(t, new(TemplateSuite))
}

// TestKindOf — вид шаблона определяется расширением
func (s *TemplateSuite) TestKindOf() {
	cases := map[string]fieldbind.Kind{
		"a.hbs":        fieldbind.KindHandlebars,
		"a.HTML":       fieldbind.KindHandlebars,
		"a.mustache":   fieldbind.KindHandlebars,
		"a.tmpl":       fieldbind.KindGoTemplate,
		"dir/a.gotmpl": fieldbind.KindGoTemplate,
		"a.xlsx":       fieldbind.KindWorkbook,
	}
	for path, want := range cases {
		got, err := fieldbind.KindOf(path)
		s.Require().NoError(err, path)
		s.Assert().Equal(want, got, path)
	}
	_, err := fieldbind.KindOf("a.docx")
	s.Assert().Error(err)
}

// TestLoadTemplateFromFile — поля шаблона из файла
func (s *TemplateSuite) TestLoadTemplateFromFile() {
	path := filepath.Join(s.T().TempDir(), "invoice.hbs")
	s.Require().NoError(os.WriteFile(path, []byte(`{{client.name}} {{#each items}}{{sku}}{{/each}}`), 0o644))

	tmpl, err := fieldbind.LoadTemplate(path)
	s.Require().NoError(err)
	s.Assert().Equal(fieldbind.KindHandlebars, tmpl.Kind)
	s.Assert().NotNil(tmpl.Program())

	fields, err := tmpl.Fields()
	s.Require().NoError(err)
	s.Assert().Equal([]string{"client.name", "items", "items.sku"}, fields)
}

// TestRenderHandlebars — собранные данные подставляются в Handlebars
func (s *TemplateSuite) TestRenderHandlebars() {
	tmpl, err := fieldbind.ParseTemplate(fieldbind.KindHandlebars, "invoice.hbs",
		`Hello {{client.name}}! {{#each items}}[{{sku}}]{{/each}}`)
	s.Require().NoError(err)
	fields, err := tmpl.Fields()
	s.Require().NoError(err)

	rows := []fieldbind.Assignment{
		{Path: fieldbind.SplitPath("client.name"), Value: "Acme"},
		{Path: fieldbind.SplitPath("items.0.sku"), Value: "X1"},
		{Path: fieldbind.SplitPath("items.1.sku"), Value: "Y2"},
	}
	var buf bytes.Buffer
	s.Require().NoError(tmpl.Render(&buf, fieldbind.Assemble(rows, fields)))
	s.Assert().Equal("Hello Acme! [X1][Y2]", buf.String())
}

// TestRenderHandlebarsHelpers — хелперы словаря доступны при рендере
func (s *TemplateSuite) TestRenderHandlebarsHelpers() {
	tmpl, err := fieldbind.ParseTemplate(fieldbind.KindHandlebars, "h.hbs",
		`{{#if (eq status "ok")}}yes{{else}}no{{/if}} {{uppercase name}}`)
	s.Require().NoError(err)

	var buf bytes.Buffer
	s.Require().NoError(tmpl.Render(&buf, map[string]any{"status": "ok", "name": "ann"}))
	s.Assert().Equal("yes ANN", buf.String())
}

// TestRenderGoTemplate — рендер text/template по собранному дереву
func (s *TemplateSuite) TestRenderGoTemplate() {
	tmpl, err := fieldbind.ParseTemplate(fieldbind.KindGoTemplate, "list.tmpl",
		`{{.client.name}}: {{range .items}}{{.sku}};{{end}}{{if .vip}} VIP{{end}}`)
	s.Require().NoError(err)
	fields, err := tmpl.Fields()
	s.Require().NoError(err)
	s.Assert().Equal([]string{"client.name", "items", "items.sku", "vip"}, fields)

	rows := []fieldbind.Assignment{
		{Path: fieldbind.SplitPath("client.name"), Value: "Acme"},
		{Path: fieldbind.SplitPath("items.0.sku"), Value: "X1"},
		{Path: fieldbind.SplitPath("items.1.sku"), Value: "Y2"},
		{Path: fieldbind.SplitPath("vip"), Value: "FALSE"},
	}
	var buf bytes.Buffer
	s.Require().NoError(tmpl.Render(&buf, fieldbind.Assemble(rows, fields)))
	s.Assert().Equal("Acme: X1;Y2;", buf.String())
}

// TestWorkbookNeedsFile — книгу нельзя разобрать из строки
func (s *TemplateSuite) TestWorkbookNeedsFile() {
	_, err := fieldbind.ParseTemplate(fieldbind.KindWorkbook, "book.xlsx", "")
	s.Assert().Error(err)
}

// TestParseErrorNamesTemplate — ошибка разбора содержит имя шаблона
func (s *TemplateSuite) TestParseErrorNamesTemplate() {
	_, err := fieldbind.ParseTemplate(fieldbind.KindGoTemplate, "broken.tmpl", `{{if .A}}`)
	s.Require().Error(err)
	s.Assert().True(strings.Contains(err.Error(), "broken.tmpl"))
}
