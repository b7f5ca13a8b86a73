package fieldbind_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nikitaxru/fieldbind"
)

func TestGoTemplateFields(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{
			name: "range qualifies fields",
			src:  `{{range .Items}}{{.Price}}{{.}}{{end}}`,
			want: []string{"Items", "Items.Price"},
		},
		{
			name: "range declarations",
			src:  `{{range $i, $e := .Items}}{{$e.Name}} {{$i}}{{end}}`,
			want: []string{"Items", "Items.Name"},
		},
		{
			name: "with and root variable",
			src:  `{{with .Client}}{{.Name}} {{$.Title}}{{end}}`,
			want: []string{"Client", "Client.Name", "Title"},
		},
		{
			name: "functions are never data",
			src:  `{{if gt .Qty 0}}{{printf "%.2f" .Total}}{{else}}{{.Empty}}{{end}}`,
			want: []string{"Empty", "Qty", "Total"},
		},
		{
			name: "pipeline",
			src:  `{{.Name | printf "%s" | len}}`,
			want: []string{"Name"},
		},
		{
			name: "builtin arguments",
			src:  `{{len .Items}} {{index .Matrix 0 1}}`,
			want: []string{"Items", "Matrix"},
		},
		{
			name: "field named like a function",
			src:  `{{.len}} {{len .index}}`,
			want: []string{"index", "len"},
		},
		{
			name: "local variable",
			src:  `{{$x := .A}}{{$x.B}}`,
			want: []string{"A"},
		},
		{
			name: "method arguments",
			src:  `{{.Format .Amount}}`,
			want: []string{"Amount", "Format"},
		},
		{
			name: "template call inlines definition",
			src:  `{{define "row"}}{{.SKU}}{{end}}{{range .Lines}}{{template "row" .}}{{end}}{{template "row" .Header}}`,
			want: []string{"Header", "Header.SKU", "Lines", "Lines.SKU"},
		},
		{
			name: "recursive template",
			src:  `{{define "tree"}}{{.Name}}{{template "tree" .Child}}{{end}}{{template "tree" .Root}}`,
			want: []string{"Root", "Root.Child", "Root.Name"},
		},
		{
			name: "else of range uses outer scope",
			src:  `{{range .Items}}{{.A}}{{else}}{{.None}}{{end}}`,
			want: []string{"Items", "Items.A", "None"},
		},
	}
	d := fieldbind.DefaultDialect(fieldbind.KindGoTemplate)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog, err := fieldbind.ParseGoTemplate("t", tt.src)
			require.NoError(t, err)
			got, err := fieldbind.ExtractFields(prog, d)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestGoTemplateParseError(t *testing.T) {
	_, err := fieldbind.ParseGoTemplate("t", `{{range .Items}}`)
	require.Error(t, err)
}
