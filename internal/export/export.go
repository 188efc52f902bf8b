// Package export сериализует табличные отчеты в CSV, XLSX и PDF.
// Данные строк готовит вызывающий код, пакет отвечает только за формат файла.
package export

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/bagdasarian/time-tracker/internal/domain"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
)

func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case FormatCSV, FormatXLSX, FormatPDF:
		return f, nil
	}
	return "", domain.NewInvalidInputError("unsupported export format %q", s)
}

func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	}
	return "application/octet-stream"
}

// Table - плоский отчет: заголовки и строки одинаковой длины
type Table struct {
	Title string
	// Subtitle выводится под заголовком в PDF, например период отчета
	Subtitle string
	Headers  []string
	Rows     [][]string
}

func (t Table) validate() error {
	if len(t.Headers) == 0 {
		return domain.NewInvalidInputError("table has no columns")
	}
	for i, row := range t.Rows {
		if len(row) != len(t.Headers) {
			return domain.NewInvalidInputError("row %d has %d cells, want %d", i, len(row), len(t.Headers))
		}
	}
	return nil
}

// Render сериализует таблицу в заданный формат
func Render(table Table, format Format) ([]byte, error) {
	if err := table.validate(); err != nil {
		return nil, err
	}

	switch format {
	case FormatCSV:
		return renderCSV(table)
	case FormatXLSX:
		return renderXLSX(table)
	case FormatPDF:
		return renderPDF(table)
	}
	return nil, domain.NewInvalidInputError("unsupported export format %q", format)
}

var whitespace = regexp.MustCompile(`\s+`)

// Filename строит имя файла из заголовка: "Time Tracking Report" -> "time_tracking_report.pdf"
func Filename(title string, format Format) string {
	name := whitespace.ReplaceAllString(strings.ToLower(strings.TrimSpace(title)), "_")
	if name == "" {
		name = "report"
	}
	return fmt.Sprintf("%s.%s", name, format)
}
