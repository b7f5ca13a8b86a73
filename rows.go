package fieldbind

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// DefaultMaxIndex ограничивает индекс массива в ключе, чтобы опечатка
// вроде items.99999999 не раздувала дерево.
const DefaultMaxIndex = 10000

type RowOptions struct {
	MaxIndex int
}

// ReadRows читает CSV с заголовком key,value[,comment...].
func ReadRows(r io.Reader) ([]Assignment, error) {
	return readCSV("<reader>", r, RowOptions{})
}

// ReadRowsFile выбирает формат по расширению: .xlsx читается как книга, иначе как CSV.
func ReadRowsFile(path string, opts RowOptions) ([]Assignment, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return readWorkbook(path, "", opts)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readCSV(path, f, opts)
}

// ReadWorkbookRows читает таблицу key/value с листа книги; при пустом sheet берётся первый лист.
func ReadWorkbookRows(path, sheet string) ([]Assignment, error) {
	return readWorkbook(path, sheet, RowOptions{})
}

func readCSV(source string, r io.Reader, opts RowOptions) ([]Assignment, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	content = bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))
	cr := csv.NewReader(bytes.NewReader(content))
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	table, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%s: чтение CSV: %w", source, err)
	}
	return rowsFromTable(source, table, opts)
}

func readWorkbook(path, sheet string, opts RowOptions) ([]Assignment, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, &StructureError{Source: path, Reason: "в книге нет листов"}
		}
		sheet = sheets[0]
	}
	table, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%s: лист %s: %w", path, sheet, err)
	}
	return rowsFromTable(path+"#"+sheet, table, opts)
}

// rowsFromTable проверяет заголовок и превращает строки в присваивания.
// Структурные ошибки обнаруживаются здесь, до сборки.
func rowsFromTable(source string, table [][]string, opts RowOptions) ([]Assignment, error) {
	maxIndex := opts.MaxIndex
	if maxIndex <= 0 {
		maxIndex = DefaultMaxIndex
	}
	if len(table) == 0 {
		return nil, &StructureError{Source: source, Reason: "пустая таблица"}
	}
	keyCol, valCol := -1, -1
	for i, h := range table[0] {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "key":
			if keyCol < 0 {
				keyCol = i
			}
		case "value":
			if valCol < 0 {
				valCol = i
			}
		}
	}
	if keyCol < 0 || valCol < 0 {
		return nil, &StructureError{Source: source, Row: 1, Reason: "в заголовке нужны колонки key и value"}
	}
	if len(table) == 1 {
		return nil, &StructureError{Source: source, Reason: "в таблице нет строк данных"}
	}
	out := make([]Assignment, 0, len(table)-1)
	for i, row := range table[1:] {
		rowNum := i + 2
		key := strings.TrimSpace(cell(row, keyCol))
		if key == "" {
			continue
		}
		path := SplitPath(key)
		for _, seg := range path {
			if seg == "" {
				return nil, &StructureError{Source: source, Row: rowNum, Reason: fmt.Sprintf("пустой сегмент в ключе %q", key)}
			}
			if idx, ok := Index(seg); ok && idx > maxIndex {
				return nil, &StructureError{Source: source, Row: rowNum, Reason: fmt.Sprintf("индекс %d в ключе %q больше %d", idx, key, maxIndex)}
			}
		}
		out = append(out, Assignment{Path: path, Value: cell(row, valCol)})
	}
	return out, nil
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
