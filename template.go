package fieldbind

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"

	"github.com/aymerick/raymond"
)

// Template хранит разобранный шаблон одного из трёх видов.
// Разбор выполняется один раз; Fields и Render можно вызывать многократно.
type Template struct {
	Name    string
	Kind    Kind
	Dialect Dialect

	src  string
	prog *Program
}

// KindOf определяет вид шаблона по расширению файла.
func KindOf(path string) (Kind, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".hbs", ".handlebars", ".mustache", ".html", ".htm":
		return KindHandlebars, nil
	case ".tmpl", ".gotmpl", ".tpl":
		return KindGoTemplate, nil
	case ".xlsx":
		return KindWorkbook, nil
	}
	return "", fmt.Errorf("%s: неизвестный вид шаблона", path)
}

// LoadTemplate читает и разбирает шаблон; вид берётся из расширения.
func LoadTemplate(path string) (*Template, error) {
	kind, err := KindOf(path)
	if err != nil {
		return nil, err
	}
	if kind == KindWorkbook {
		prog, err := ParseWorkbook(path)
		if err != nil {
			return nil, err
		}
		return &Template{Name: path, Kind: kind, Dialect: DefaultDialect(kind), prog: prog}, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseTemplate(kind, path, string(b))
}

// ParseTemplate разбирает текстовый шаблон. Книги читаются только из файла (LoadTemplate).
func ParseTemplate(kind Kind, name, src string) (*Template, error) {
	var (
		prog *Program
		err  error
	)
	switch kind {
	case KindHandlebars:
		prog, err = ParseHandlebars(src)
	case KindGoTemplate:
		prog, err = ParseGoTemplate(name, src)
	case KindWorkbook:
		return nil, fmt.Errorf("%s: шаблон-книгу нужно загружать из файла", name)
	default:
		return nil, fmt.Errorf("%s: неизвестный вид шаблона %q", name, kind)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return &Template{Name: name, Kind: kind, Dialect: DefaultDialect(kind), src: src, prog: prog}, nil
}

// Program возвращает нейтральное дерево шаблона.
func (t *Template) Program() *Program { return t.prog }

// Fields возвращает пути данных, которые читает шаблон, по словарю t.Dialect.
func (t *Template) Fields() ([]string, error) {
	return ExtractFields(t.prog, t.Dialect)
}

// Render подставляет данные в текстовый шаблон.
func (t *Template) Render(w io.Writer, data any) error {
	switch t.Kind {
	case KindHandlebars:
		tpl, err := raymond.Parse(t.src)
		if err != nil {
			return fmt.Errorf("%s: %w", t.Name, err)
		}
		tpl.RegisterHelpers(hbsHelpers())
		out, err := tpl.Exec(data)
		if err != nil {
			return fmt.Errorf("%s: %w", t.Name, err)
		}
		_, err = io.WriteString(w, out)
		return err
	case KindGoTemplate:
		tpl, err := template.New(filepath.Base(t.Name)).Funcs(goHelpers()).Option("missingkey=zero").Parse(t.src)
		if err != nil {
			return fmt.Errorf("%s: %w", t.Name, err)
		}
		return tpl.Execute(w, data)
	}
	return fmt.Errorf("%s: %w", t.Name, ErrRenderUnsupported)
}

// -----------------------------
// Хелперы рендера
// -----------------------------

func hbsHelpers() map[string]interface{} {
	return map[string]interface{}{
		"eq":  func(a, b interface{}) bool { return toString(a) == toString(b) },
		"ne":  func(a, b interface{}) bool { return toString(a) != toString(b) },
		"neq": func(a, b interface{}) bool { return toString(a) != toString(b) },
		"lt":  func(a, b interface{}) bool { return toFloat(a) < toFloat(b) },
		"gt":  func(a, b interface{}) bool { return toFloat(a) > toFloat(b) },
		"lte": func(a, b interface{}) bool { return toFloat(a) <= toFloat(b) },
		"gte": func(a, b interface{}) bool { return toFloat(a) >= toFloat(b) },
		"and": func(a, b interface{}) bool { return truthy(a) && truthy(b) },
		"or":  func(a, b interface{}) bool { return truthy(a) || truthy(b) },
		"not": func(a interface{}) bool { return !truthy(a) },

		"uppercase":      func(v interface{}) string { return strings.ToUpper(toString(v)) },
		"lowercase":      func(v interface{}) string { return strings.ToLower(toString(v)) },
		"json":           func(v interface{}) raymond.SafeString { return raymond.SafeString(toJSON(v)) },
		"default":        func(v, def interface{}) interface{} { return defaultValue(v, def) },
		"formatNumber":   func(v interface{}) string { return formatNumber(v, 2) },
		"formatPercent":  func(v interface{}) string { return formatNumber(toFloat(v)*100, 1) + "%" },
		"formatCurrency": func(v interface{}) string { return formatNumber(v, 2) },
		"formatDate":     func(v interface{}) string { return toString(v) },
	}
}

func goHelpers() template.FuncMap {
	return template.FuncMap{
		"uppercase": func(v interface{}) string { return strings.ToUpper(toString(v)) },
		"lowercase": func(v interface{}) string { return strings.ToLower(toString(v)) },
		"json":      toJSON,
		"default":   func(def, v interface{}) interface{} { return defaultValue(v, def) },
	}
}

func toString(v interface{}) string {
	switch vv := v.(type) {
	case nil:
		return ""
	case string:
		return vv
	case float64:
		if vv == float64(int64(vv)) {
			return fmt.Sprintf("%d", int64(vv))
		}
		return fmt.Sprintf("%v", vv)
	case bool:
		if vv {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprintf("%v", vv)
	}
}

func toFloat(v interface{}) float64 {
	switch vv := v.(type) {
	case float64:
		return vv
	case int:
		return float64(vv)
	case string:
		f, _ := strconv.ParseFloat(strings.TrimSpace(vv), 64)
		return f
	default:
		return 0
	}
}

func truthy(v interface{}) bool {
	switch vv := v.(type) {
	case nil:
		return false
	case bool:
		return vv
	case string:
		return vv != ""
	case float64:
		return vv != 0
	case []interface{}:
		return len(vv) > 0
	case map[string]interface{}:
		return len(vv) > 0
	default:
		return true
	}
}

func defaultValue(v, def interface{}) interface{} {
	if truthy(v) {
		return v
	}
	return def
}

func formatNumber(v interface{}, prec int) string {
	return strconv.FormatFloat(toFloat(v), 'f', prec, 64)
}

func toJSON(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
