package fieldbind

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// fenceRx: первый блок ```lang\n ... ``` в тексте.
var fenceRx = regexp.MustCompile("(?s)```[a-zA-Z]*\\n(.*?)```")

// sanitizeJSONBlock достаёт содержимое первого блока в тройных кавычках.
// Без блока или при незакрытом блоке текст возвращается как есть.
func sanitizeJSONBlock(s string) string {
	if !strings.Contains(s, "```") {
		return s
	}
	m := fenceRx.FindStringSubmatch(s)
	if len(m) >= 2 {
		return strings.TrimSpace(m[1])
	}
	return s
}

// DecodeJSON читает дерево данных из JSON (в том числе в блоке ```json).
// Числа остаются float64, как и после сборки.
func DecodeJSON(r io.Reader) (any, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var v any
	if err := json.Unmarshal([]byte(sanitizeJSONBlock(string(b))), &v); err != nil {
		return nil, fmt.Errorf("разбор JSON: %w", err)
	}
	return v, nil
}

// Flatten раскладывает дерево обратно в строки key/value, обратно к сборке.
// Ключи объектов идут по алфавиту, элементы массивов по порядку.
// Пустые объекты и массивы строк не дают.
func Flatten(tree any) []Assignment {
	var out []Assignment
	flattenInto(&out, nil, tree)
	return out
}

func flattenInto(out *[]Assignment, prefix Path, v any) {
	switch vv := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(vv))
		for k := range vv {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			flattenInto(out, append(prefix[:len(prefix):len(prefix)], k), vv[k])
		}
	case []any:
		for i, it := range vv {
			flattenInto(out, append(prefix[:len(prefix):len(prefix)], strconv.Itoa(i)), it)
		}
	default:
		if len(prefix) == 0 {
			return
		}
		*out = append(*out, Assignment{Path: prefix, Value: toString(vv)})
	}
}

// WriteRows пишет присваивания как CSV с заголовком key,value.
func WriteRows(w io.Writer, rows []Assignment) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"key", "value"}); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write([]string{r.Path.String(), r.Value}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
