package ledger

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

var updatedRowRe = regexp.MustCompile(`![A-Z]+(\d+)(?::[A-Z]+\d+)?$`)

// GoogleSheet appends to and patches one worksheet of a spreadsheet.
type GoogleSheet struct {
	values        *sheets.SpreadsheetsValuesService
	spreadsheetID string
	worksheet     string
}

// NewGoogleSheet builds the Sheets client. Production passes
// option.WithCredentialsFile; tests point it at an httptest server.
func NewGoogleSheet(ctx context.Context, spreadsheetID, worksheet string, opts ...option.ClientOption) (*GoogleSheet, error) {
	opts = append([]option.ClientOption{option.WithScopes(sheets.SpreadsheetsScope)}, opts...)
	srv, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &GoogleSheet{values: srv.Spreadsheets.Values, spreadsheetID: spreadsheetID, worksheet: worksheet}, nil
}

// AppendRow returns the index of the appended row, which is the row count
// after the append. Falls back to counting column A when the response has
// no parsable range.
func (g *GoogleSheet) AppendRow(ctx context.Context, values []string) (int, error) {
	resp, err := g.values.Append(g.spreadsheetID, g.worksheet+"!A1", &sheets.ValueRange{
		Values: [][]interface{}{toCells(values)},
	}).ValueInputOption("USER_ENTERED").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("sheets append: %w", err)
	}
	if resp.Updates != nil {
		if m := updatedRowRe.FindStringSubmatch(resp.Updates.UpdatedRange); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				return n, nil
			}
		}
	}

	all, err := g.values.Get(g.spreadsheetID, g.worksheet+"!A:A").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("sheets count rows: %w", err)
	}
	return len(all.Values), nil
}

func (g *GoogleSheet) UpdateCell(ctx context.Context, row, col int, value string) error {
	rng := fmt.Sprintf("%s!%s%d", g.worksheet, columnLetter(col), row)
	_, err := g.values.Update(g.spreadsheetID, rng, &sheets.ValueRange{
		Values: [][]interface{}{{value}},
	}).ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("sheets update %s: %w", rng, err)
	}
	return nil
}

func (g *GoogleSheet) ReadRow(ctx context.Context, row int) ([]string, error) {
	rng := fmt.Sprintf("%s!A%d:%s%d", g.worksheet, row, columnLetter(ColumnCount), row)
	resp, err := g.values.Get(g.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("sheets get %s: %w", rng, err)
	}
	if len(resp.Values) == 0 {
		return nil, nil
	}
	out := make([]string, len(resp.Values[0]))
	for i, v := range resp.Values[0] {
		out[i] = fmt.Sprint(v)
	}
	return out, nil
}

func toCells(values []string) []interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}

// columnLetter converts a 1-based column index to A1 notation.
func columnLetter(col int) string {
	var s []byte
	for col > 0 {
		col--
		s = append([]byte{byte('A' + col%26)}, s...)
		col /= 26
	}
	return string(s)
}
