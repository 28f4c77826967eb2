package spreadsheet

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
	"github.com/yash-jain-1224/crm-dashboard/internal/domain/crm"
)

var (
	ErrUnreadable = errors.New("unreadable workbook")
	ErrNoHeader   = errors.New("workbook has no header row")
)

type Reader struct{}

func NewReader() *Reader {
	return &Reader{}
}

func (r *Reader) Read(src io.Reader) (crm.Sheet, error) {
	return Read(src)
}

// Read parses the first worksheet of a workbook. Headers are trimmed and
// lowercased; rows with no non-blank cell are skipped.
func Read(src io.Reader) (crm.Sheet, error) {
	f, err := excelize.OpenReader(src)
	if err != nil {
		return crm.Sheet{}, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return crm.Sheet{}, fmt.Errorf("%w: no worksheets", ErrUnreadable)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return crm.Sheet{}, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	headerIndex := -1
	for i, row := range rows {
		if !blank(row) {
			headerIndex = i
			break
		}
	}
	if headerIndex < 0 {
		return crm.Sheet{}, ErrNoHeader
	}

	headers := make([]string, len(rows[headerIndex]))
	for i, cell := range rows[headerIndex] {
		headers[i] = strings.ToLower(strings.TrimSpace(cell))
	}

	sheet := crm.Sheet{Name: sheets[0], Headers: compact(headers)}
	for i := headerIndex + 1; i < len(rows); i++ {
		if blank(rows[i]) {
			continue
		}

		cells := make(map[string]string, len(headers))
		for col, header := range headers {
			if header == "" {
				continue
			}
			if col < len(rows[i]) {
				cells[header] = rows[i][col]
			} else {
				cells[header] = ""
			}
		}
		sheet.Rows = append(sheet.Rows, crm.Row{Number: i + 1, Cells: cells})
	}

	return sheet, nil
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func compact(headers []string) []string {
	out := make([]string, 0, len(headers))
	for _, header := range headers {
		if header != "" {
			out = append(out, header)
		}
	}
	return out
}
