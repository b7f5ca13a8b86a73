package fieldbind

import (
	"encoding/csv"
	"io"

	"github.com/xuri/excelize/v2"
)

var blankHeader = []string{"key", "value", "comment"}

// WriteBlankTable пишет CSV для заполнения: по строке на каждое поле, value пустое.
func WriteBlankTable(w io.Writer, fields []string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(blankHeader); err != nil {
		return err
	}
	for _, f := range fields {
		if err := cw.Write([]string{f, "", "Field: " + f}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteBlankWorkbook пишет то же в виде книги Excel с одним листом.
func WriteBlankWorkbook(path string, fields []string) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	rows := make([][]string, 0, len(fields)+1)
	rows = append(rows, blankHeader)
	for _, fld := range fields {
		rows = append(rows, []string{fld, "", "Field: " + fld})
	}
	for i, r := range rows {
		addr, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, addr, &r); err != nil {
			return err
		}
	}
	// ширина под ключи и комментарии
	if err := f.SetColWidth(sheet, "A", "A", 32); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "C", "C", 40); err != nil {
		return err
	}
	return f.SaveAs(path)
}
