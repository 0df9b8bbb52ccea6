package sink

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"
)

// SheetHeader is the header row matching the appended columns
var SheetHeader = []string{"記録日時", "児童名", "学年", "単語", "単語リスト", "読めたか", "読み時間（秒）", "読み間違い", "備考", "フォント"}

var tokyo = loadTokyo()

func loadTokyo() *time.Location {
	loc, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		return time.FixedZone("JST", 9*60*60)
	}
	return loc
}

// Sheets appends one row per record to a Google spreadsheet
type Sheets struct {
	values    *sheets.SpreadsheetsValuesService
	sheetID   string
	sheetName string
}

// NewSheets builds the Sheets API client from opts, which must carry
// credentials (option.WithHTTPClient with an authorised client).
func NewSheets(ctx context.Context, sheetID, sheetName string, opts ...option.ClientOption) (*Sheets, error) {
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets client: %w", err)
	}
	return &Sheets{values: svc.Spreadsheets.Values, sheetID: sheetID, sheetName: sheetName}, nil
}

func (s *Sheets) Name() string { return "sheets" }

// Send appends the record as a row of columns A:J
func (s *Sheets) Send(ctx context.Context, ev RecordEvent) error {
	rng := &sheets.ValueRange{Values: [][]interface{}{toCells(sheetRow(ev))}}
	_, err := s.values.Append(s.sheetID, s.sheetName+"!A:J", rng).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("sheets append: %w", err)
	}
	return nil
}

// EnsureHeader writes the header row into A1:J1
func (s *Sheets) EnsureHeader(ctx context.Context) error {
	rng := &sheets.ValueRange{Values: [][]interface{}{toCells(SheetHeader)}}
	_, err := s.values.Update(s.sheetID, s.sheetName+"!A1:J1", rng).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("sheets header: %w", err)
	}
	return nil
}

func toCells(row []string) []interface{} {
	cells := make([]interface{}, len(row))
	for i, v := range row {
		cells[i] = v
	}
	return cells
}

func sheetRow(ev RecordEvent) []string {
	outcome := "×"
	if ev.CouldRead {
		outcome = "○"
	}
	seconds := ""
	if ev.ReadingTimeSeconds != nil {
		seconds = strconv.FormatFloat(*ev.ReadingTimeSeconds, 'f', -1, 64)
	}
	return []string{
		ev.CreatedAt.In(tokyo).Format("2006/1/2 15:04:05"),
		ev.ChildName,
		ev.ChildGrade,
		ev.WordText,
		ev.WordListName,
		outcome,
		seconds,
		ev.MisreadAs,
		ev.Notes,
		ev.FontName,
	}
}
