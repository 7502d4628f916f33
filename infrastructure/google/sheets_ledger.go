package google

import (
	"context"
	"fmt"

	"bettersaved/application/ports"

	"google.golang.org/api/sheets/v4"
)

// CreateLedger creates the spreadsheet, writes a bold frozen header row and moves it under the parent
func (w *Workspace) CreateLedger(ctx context.Context, spec ports.LedgerSpec) (*ports.Ledger, error) {
	var created *sheets.Spreadsheet
	err := w.guard.Do(ctx, "sheets.create", func(ctx context.Context) error {
		var err error
		created, err = w.sheets.Spreadsheets.Create(&sheets.Spreadsheet{
			Properties: &sheets.SpreadsheetProperties{Title: spec.Title},
			Sheets: []*sheets.Sheet{
				{Properties: &sheets.SheetProperties{Title: spec.SheetName}},
			},
		}).Fields("spreadsheetId", "spreadsheetUrl", "sheets.properties.sheetId").Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create spreadsheet %q: %w", spec.Title, err)
	}

	id := created.SpreadsheetId
	var sheetID int64
	if len(created.Sheets) > 0 && created.Sheets[0].Properties != nil {
		sheetID = created.Sheets[0].Properties.SheetId
	}

	if err := w.writeHeader(ctx, id, sheetID, spec); err != nil {
		return nil, err
	}
	if spec.ParentID != "" {
		if err := w.moveInto(ctx, id, spec.ParentID); err != nil {
			return nil, fmt.Errorf("failed to move spreadsheet %s: %w", id, err)
		}
	}

	return &ports.Ledger{ID: id, URL: spreadsheetURL(id, created.SpreadsheetUrl)}, nil
}

func (w *Workspace) writeHeader(ctx context.Context, spreadsheetID string, sheetID int64, spec ports.LedgerSpec) error {
	header := make([]interface{}, len(spec.Header))
	for i, h := range spec.Header {
		header[i] = h
	}
	headerRange := fmt.Sprintf("%s!A1:%s1", spec.SheetName, columnName(len(header)))

	err := w.guard.Do(ctx, "sheets.write_header", func(ctx context.Context) error {
		_, err := w.sheets.Spreadsheets.Values.Update(spreadsheetID, headerRange, &sheets.ValueRange{
			Values: [][]interface{}{header},
		}).ValueInputOption("RAW").Context(ctx).Do()
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to write ledger header: %w", err)
	}

	err = w.guard.Do(ctx, "sheets.format_header", func(ctx context.Context) error {
		_, err := w.sheets.Spreadsheets.BatchUpdate(spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
			Requests: []*sheets.Request{
				{
					UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
						Properties: &sheets.SheetProperties{
							SheetId:        sheetID,
							GridProperties: &sheets.GridProperties{FrozenRowCount: 1},
						},
						Fields: "gridProperties.frozenRowCount",
					},
				},
				{
					RepeatCell: &sheets.RepeatCellRequest{
						Range: &sheets.GridRange{SheetId: sheetID, StartRowIndex: 0, EndRowIndex: 1},
						Cell: &sheets.CellData{
							UserEnteredFormat: &sheets.CellFormat{
								TextFormat:      &sheets.TextFormat{Bold: true},
								BackgroundColor: &sheets.Color{Red: 0.9, Green: 0.9, Blue: 0.9},
							},
						},
						Fields: "userEnteredFormat",
					},
				},
			},
		}).Context(ctx).Do()
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to format ledger header: %w", err)
	}
	return nil
}

// AppendRow appends one row as raw values and returns the updated range
func (w *Workspace) AppendRow(ctx context.Context, ledgerID, sheetName string, values []interface{}) (string, error) {
	appendRange := fmt.Sprintf("%s!A:%s", sheetName, columnName(len(values)))

	var resp *sheets.AppendValuesResponse
	err := w.guard.Do(ctx, "sheets.append", func(ctx context.Context) error {
		var err error
		resp, err = w.sheets.Spreadsheets.Values.Append(ledgerID, appendRange, &sheets.ValueRange{
			Values: [][]interface{}{values},
		}).ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to append row to %s: %w", ledgerID, err)
	}
	if resp.Updates == nil {
		return "", nil
	}
	return resp.Updates.UpdatedRange, nil
}

// columnName converts a 1-based column count to its A1 letter, e.g. 6 -> F, 28 -> AB
func columnName(n int) string {
	if n < 1 {
		n = 1
	}
	name := ""
	for n > 0 {
		n--
		name = string(rune('A'+n%26)) + name
		n /= 26
	}
	return name
}
