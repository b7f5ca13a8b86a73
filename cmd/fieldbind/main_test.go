package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFixtures(t *testing.T) (tmpl, data string) {
	t.Helper()
	dir := t.TempDir()
	tmpl = filepath.Join(dir, "order.hbs")
	data = filepath.Join(dir, "order.csv")
	require.NoError(t, os.WriteFile(tmpl, []byte(`{{client.name}}{{#each items}}{{sku}}{{/each}}`), 0o644))
	require.NoError(t, os.WriteFile(data, []byte("key,value\nclient.name,Acme\nitems.0.sku,X1\nitems.1.sku,Y2\n"), 0o644))
	return tmpl, data
}

func TestFieldsCommand(t *testing.T) {
	tmpl, _ := writeFixtures(t)
	out, err := run(t, "", "fields", tmpl)
	require.NoError(t, err)
	assert.Equal(t, "client.name\nitems\nitems.sku\n", out)
}

func TestBlankCommand(t *testing.T) {
	tmpl, _ := writeFixtures(t)
	out, err := run(t, "", "blank", tmpl)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "key,value,comment\n"))
	assert.Contains(t, out, "items.sku,,Field: items.sku\n")
}

func TestAssembleCommand(t *testing.T) {
	tmpl, data := writeFixtures(t)
	out, err := run(t, "", "assemble", tmpl, data)
	require.NoError(t, err)

	var tree map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &tree))
	assert.Equal(t, map[string]any{
		"client": map[string]any{"name": "Acme"},
		"items": []any{
			map[string]any{"sku": "X1"},
			map[string]any{"sku": "Y2"},
		},
	}, tree)
}

func TestFlattenCommandFromStdin(t *testing.T) {
	out, err := run(t, `{"b": [1, "x"], "a": {"c": true}}`, "flatten", "-")
	require.NoError(t, err)
	assert.Equal(t, "key,value\na.c,true\nb.0,1\nb.1,x\n", out)
}

func TestRenderRequiresOutput(t *testing.T) {
	tmpl, data := writeFixtures(t)
	_, err := run(t, "", "render", tmpl, data)
	assert.ErrorContains(t, err, "output")
}

func TestRenderCommand(t *testing.T) {
	tmpl, data := writeFixtures(t)
	dest := filepath.Join(t.TempDir(), "order.txt")
	_, err := run(t, "", "render", tmpl, data, "-o", dest)
	require.NoError(t, err)
	b, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "AcmeX1Y2", string(b))
}

func TestBadConfig(t *testing.T) {
	tmpl, _ := writeFixtures(t)
	_, err := run(t, "", "--config", filepath.Join(t.TempDir(), "missing.yaml"), "fields", tmpl)
	assert.Error(t, err)
}
