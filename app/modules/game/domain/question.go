package gamedomain

import (
	"errors"
	"fmt"
	"strings"
)

// Question is a multiple-choice question from the bank.
type Question struct {
	ID           int64
	Category     string
	Prompt       string
	Options      [OptionCount]string
	CorrectIndex int
	Active       bool
}

// ImportColumns is the expected spreadsheet header.
var ImportColumns = []string{"category", "question", "a", "b", "c", "d", "correct"}

var ErrInvalidRow = errors.New("invalid question row")

// ParseQuestionRow converts a spreadsheet row into a question. The correct
// column holds a letter A-D.
func ParseQuestionRow(row []string) (Question, error) {
	if len(row) < len(ImportColumns) {
		return Question{}, fmt.Errorf("%w: expected %d columns, got %d", ErrInvalidRow, len(ImportColumns), len(row))
	}
	cells := make([]string, len(ImportColumns))
	for i := range cells {
		cells[i] = strings.TrimSpace(row[i])
	}

	q := Question{
		Category: strings.ToLower(cells[0]),
		Prompt:   cells[1],
		Active:   true,
	}
	if q.Category == "" || q.Prompt == "" {
		return Question{}, fmt.Errorf("%w: category and question are required", ErrInvalidRow)
	}
	for i := 0; i < OptionCount; i++ {
		if cells[2+i] == "" {
			return Question{}, fmt.Errorf("%w: option %c is empty", ErrInvalidRow, 'A'+i)
		}
		q.Options[i] = cells[2+i]
	}

	letter := strings.ToUpper(cells[6])
	if len(letter) != 1 || letter[0] < 'A' || letter[0] > 'D' {
		return Question{}, fmt.Errorf("%w: correct must be A-D, got %q", ErrInvalidRow, cells[6])
	}
	q.CorrectIndex = int(letter[0] - 'A')
	return q, nil
}

// IsHeaderRow reports whether row is the import header.
func IsHeaderRow(row []string) bool {
	return len(row) > 1 &&
		strings.EqualFold(strings.TrimSpace(row[0]), ImportColumns[0]) &&
		strings.EqualFold(strings.TrimSpace(row[1]), ImportColumns[1])
}

var ErrInvalidSpreadsheet = errors.New("invalid spreadsheet")
