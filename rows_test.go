package fieldbind_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/xuri/excelize/v2"

	"github.com/nikitaxru/fieldbind"
)

// RowsSuite — чтение таблиц key/value из CSV и книг Excel
type RowsSuite struct {
	suite.Suite
}

// Runner
func TestRowsSuite(t *testing.T) {
	suite.Run(t, new(RowsSuite))
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}

func keys(rows []fieldbind.Assignment) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Path.String())
	}
	return out
}

func (s *RowsSuite) structureError(err error) *fieldbind.StructureError {
	var se *fieldbind.StructureError
	s.Require().True(errors.As(err, &se), "want StructureError, got %v", err)
	return se
}

// TestCSV — заголовок без учёта регистра, лишние колонки, BOM, кавычки
func (s *RowsSuite) TestCSV() {
	src := "\xef\xbb\xbfComment, KEY ,Value\n" +
		"client,client.name,Acme\n" +
		",items.0.sku,\"X1, boxed\"\n" +
		",note,\" spaced \"\n" +
		",,ignored\n" +
		",  total  ,\"multi\nline\"\n"
	rows, err := fieldbind.ReadRows(strings.NewReader(src))
	s.Require().NoError(err)
	s.Assert().Equal([]string{"client.name", "items.0.sku", "note", "total"}, keys(rows))
	s.Assert().Equal("Acme", rows[0].Value)
	s.Assert().Equal("X1, boxed", rows[1].Value)
	s.Assert().Equal(" spaced ", rows[2].Value)
	s.Assert().Equal("multi\nline", rows[3].Value)
}

// TestRaggedRows — отсутствующая ячейка value читается как ""
func (s *RowsSuite) TestRaggedRows() {
	rows, err := fieldbind.ReadRows(strings.NewReader("key,value,comment\na\nb,2,extra,more\n"))
	s.Require().NoError(err)
	s.Require().Len(rows, 2)
	s.Assert().Equal("", rows[0].Value)
	s.Assert().Equal("2", rows[1].Value)
}

// TestStructureErrors — нарушения контракта таблицы
func (s *RowsSuite) TestStructureErrors() {
	cases := []struct {
		name string
		src  string
		row  int
	}{
		{"empty", "", 0},
		{"missing value column", "key,comment\na,b\n", 1},
		{"missing key column", "name,value\na,b\n", 1},
		{"header only", "key,value\n", 0},
		{"empty segment", "key,value\na,1\na..b,2\n", 3},
		{"trailing dot", "key,value\na.,1\n", 2},
		{"index too large", "key,value\nitems.10001,x\n", 2},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			_, err := fieldbind.ReadRows(strings.NewReader(tc.src))
			se := s.structureError(err)
			s.Assert().Equal(tc.row, se.Row)
			s.Assert().Equal("<reader>", se.Source)
		})
	}
}

// TestMaxIndexOption — предел индекса настраивается
func (s *RowsSuite) TestMaxIndexOption() {
	path := filepath.Join(s.T().TempDir(), "data.csv")
	s.Require().NoError(writeFile(path, "key,value\nitems.5,x\n"))

	_, err := fieldbind.ReadRowsFile(path, fieldbind.RowOptions{MaxIndex: 3})
	se := s.structureError(err)
	s.Assert().Equal(path, se.Source)
	s.Assert().Contains(se.Error(), "строка 2")

	rows, err := fieldbind.ReadRowsFile(path, fieldbind.RowOptions{})
	s.Require().NoError(err)
	s.Assert().Equal([]string{"items.5"}, keys(rows))
}

// TestLeadingZeroKeys — сегмент с ведущим нулём это имя, предел индекса к нему не относится
func (s *RowsSuite) TestLeadingZeroKeys() {
	path := filepath.Join(s.T().TempDir(), "data.csv")
	s.Require().NoError(writeFile(path, "key,value\nitems.1,b\nitems.0100,a\n"))

	rows, err := fieldbind.ReadRowsFile(path, fieldbind.RowOptions{MaxIndex: 3})
	s.Require().NoError(err)
	s.Assert().Equal([]string{"items.1", "items.0100"}, keys(rows))
}

// TestWorkbook — та же таблица на листе книги
func (s *RowsSuite) TestWorkbook() {
	path := filepath.Join(s.T().TempDir(), "data.xlsx")
	f := excelize.NewFile()
	_ = f.SetSheetRow("Sheet1", "A1", &[]string{"key", "value", "comment"})
	_ = f.SetSheetRow("Sheet1", "A2", &[]string{"client.name", "Acme", "Field: client.name"})
	_ = f.SetSheetRow("Sheet1", "A3", &[]string{"items.1.sku", "X2"})
	_, err := f.NewSheet("Other")
	s.Require().NoError(err)
	_ = f.SetSheetRow("Other", "A1", &[]string{"value", "key"})
	_ = f.SetSheetRow("Other", "A2", &[]string{"42", "total"})
	s.Require().NoError(f.SaveAs(path))

	rows, err := fieldbind.ReadRowsFile(path, fieldbind.RowOptions{})
	s.Require().NoError(err)
	s.Assert().Equal([]string{"client.name", "items.1.sku"}, keys(rows))

	rows, err = fieldbind.ReadWorkbookRows(path, "Other")
	s.Require().NoError(err)
	s.Require().Len(rows, 1)
	s.Assert().Equal("total", rows[0].Path.String())
	s.Assert().Equal("42", rows[0].Value)

	_, err = fieldbind.ReadWorkbookRows(path, "Missing")
	s.Assert().Error(err)
}

// TestEmptyWorkbookSheet — пустой лист нарушает контракт
func (s *RowsSuite) TestEmptyWorkbookSheet() {
	path := filepath.Join(s.T().TempDir(), "empty.xlsx")
	f := excelize.NewFile()
	s.Require().NoError(f.SaveAs(path))

	_, err := fieldbind.ReadWorkbookRows(path, "")
	se := s.structureError(err)
	s.Assert().Equal(path+"#Sheet1", se.Source)
}
