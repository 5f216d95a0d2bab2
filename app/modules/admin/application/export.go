package adminservice

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
)

const (
	summarySheet = "Summary"
	dailySheet   = "Daily"
)

// BuildWorkbook writes the report as an XLSX file with a summary sheet and a
// daily sheet.
func BuildWorkbook(report *Report) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}

	rows := [][]any{
		{"Metric", "Value"},
		{"From", report.Range.From.Format(time.RFC3339)},
		{"To", report.Range.To.Format(time.RFC3339)},
		{"Registered users", report.RegisteredUsers},
		{"New users", report.NewUsers},
		{"Games played", report.GamesPlayed},
		{"Games won", report.GamesWon},
		{"Win rate", report.WinRate},
		{"Coins earned", report.CoinsEarned},
		{"Coins spent", report.CoinsSpent},
		{"Boosters activated", report.BoostersActivated},
	}
	if err := writeRows(f, summarySheet, rows); err != nil {
		return nil, err
	}

	if _, err := f.NewSheet(dailySheet); err != nil {
		return nil, err
	}
	daily := [][]any{{"Day", "Played", "Won"}}
	for _, d := range report.Daily {
		daily = append(daily, []any{d.Day.Format(time.DateOnly), d.Played, d.Won})
	}
	if err := writeRows(f, dailySheet, daily); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
