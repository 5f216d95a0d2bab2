package gameservice

import (
	"context"
	"fmt"
	"io"
	"strings"

	gamedomain "github.com/Black-And-White-Club/dingleup/app/modules/game/domain"
	gamedb "github.com/Black-And-White-Club/dingleup/app/modules/game/infrastructure/repositories"
	"github.com/Black-And-White-Club/dingleup/internal/observability/attr"
	"github.com/Black-And-White-Club/dingleup/internal/results"
	"github.com/uptrace/bun"
	"github.com/xuri/excelize/v2"
)

// ImportQuestions reads the first sheet of an XLSX workbook and adds every
// valid row to the question bank. Invalid rows are reported and skipped.
func (s *GameService) ImportQuestions(ctx context.Context, r io.Reader) (*ImportReport, error) {
	return unwrap(withTelemetry(s, ctx, "ImportQuestions", "", func(ctx context.Context) (results.OperationResult[*ImportReport, error], error) {
		questions, report, err := readQuestions(r)
		if err != nil {
			return results.FailureResult[*ImportReport, error](err), nil
		}

		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[*ImportReport, error], error) {
			n, err := s.repo.InsertQuestions(ctx, db, questions)
			if err != nil {
				return results.OperationResult[*ImportReport, error]{}, err
			}
			report.Imported = n

			s.logger.InfoContext(ctx, "Questions imported",
				attr.ExtractCorrelationID(ctx),
				attr.Int("imported", n),
				attr.Int("skipped", len(report.Skipped)),
			)
			return results.SuccessResult[*ImportReport, error](report), nil
		})
	}))
}

func readQuestions(r io.Reader) ([]gamedb.Question, *ImportReport, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", gamedomain.ErrInvalidSpreadsheet, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("%w: workbook has no sheets", gamedomain.ErrInvalidSpreadsheet)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", gamedomain.ErrInvalidSpreadsheet, err)
	}

	report := &ImportReport{}
	var questions []gamedb.Question
	for i, row := range rows {
		if i == 0 && gamedomain.IsHeaderRow(row) {
			continue
		}
		if blank(row) {
			continue
		}
		q, err := gamedomain.ParseQuestionRow(row)
		if err != nil {
			report.Skipped = append(report.Skipped, RowError{Row: i + 1, Reason: err.Error()})
			continue
		}
		questions = append(questions, gamedb.Question{
			Category:     q.Category,
			Prompt:       q.Prompt,
			OptionA:      q.Options[0],
			OptionB:      q.Options[1],
			OptionC:      q.Options[2],
			OptionD:      q.Options[3],
			CorrectIndex: q.CorrectIndex,
			Active:       q.Active,
		})
	}
	return questions, report, nil
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
