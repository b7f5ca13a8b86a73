package fieldbind

import (
	"strconv"
	"strings"
)

// Path хранит точечный путь: сегменты-имена и сегменты-индексы.
// Вид сегмента определяется только тем, является ли он неотрицательным целым.
// После SplitPath путь не изменяется.
type Path []string

// SplitPath разбивает "items.2.name" на [items 2 name]. Пустая строка даёт пустой путь.
func SplitPath(s string) Path {
	if s == "" {
		return nil
	}
	return Path(strings.Split(s, "."))
}

func (p Path) String() string { return strings.Join(p, ".") }

// JoinPath склеивает префикс области и дочерний путь.
func JoinPath(prefix, child string) string {
	switch {
	case prefix == "":
		return child
	case child == "":
		return prefix
	}
	return prefix + "." + child
}

// IsIndex сообщает, является ли сегмент индексом массива.
func IsIndex(seg string) bool {
	_, ok := Index(seg)
	return ok
}

// Index разбирает сегмент как индекс. Знаки, пробелы, ведущие нули и переполнение
// индексом не считаются: "01" остаётся именем, иначе два ключа делили бы одну ячейку.
func Index(seg string) (int, bool) {
	if seg == "" || (len(seg) > 1 && seg[0] == '0') {
		return 0, false
	}
	for i := 0; i < len(seg); i++ {
		if seg[i] < '0' || seg[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(seg)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Lookup спускается по дереву значений по сегментам пути.
// Имя на массиве относится к каждому элементу (items.price внутри each items):
// путь разыменовывается, если остаток разрешается во всех элементах,
// результатом тогда будет срез значений по элементам.
func Lookup(tree any, path string) (any, bool) {
	return lookup(tree, SplitPath(path))
}

func lookup(cur any, segs Path) (any, bool) {
	for i, seg := range segs {
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[seg]
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			if idx, ok := Index(seg); ok {
				if idx >= len(node) {
					return nil, false
				}
				cur = node[idx]
				continue
			}
			out := make([]any, 0, len(node))
			for _, el := range node {
				v, ok := lookup(el, segs[i:])
				if !ok {
					return nil, false
				}
				out = append(out, v)
			}
			return out, true
		default:
			return nil, false
		}
	}
	return cur, true
}

func splitFirst(s, sep string) (string, string) {
	if s == "" {
		return "", ""
	}
	if idx := strings.Index(s, sep); idx >= 0 {
		return s[:idx], s[idx+len(sep):]
	}
	return s, ""
}
