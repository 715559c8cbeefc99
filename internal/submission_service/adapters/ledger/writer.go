package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/deliveryproof/golang_services/internal/submission_service/domain"
)

// Fixed column layout, 1-based.
const (
	ColumnCount          = 10
	ColumnReminderAction = 9
	ColumnReason         = 10

	timestampLayout = "2006-01-02 15:04:05"
)

// Header is the expected first row of the worksheet.
var Header = []string{
	"Timestamp", "Date", "FirstName", "LastName", "Phone",
	"CarPlate", "Destination", "VideoLink", "ReminderAction", "Reason",
}

// Sheet is a row-oriented table addressed by 1-based indexes.
type Sheet interface {
	// AppendRow adds a row at the end and returns the row count after the append.
	AppendRow(ctx context.Context, values []string) (int, error)
	UpdateCell(ctx context.Context, row, col int, value string) error
	ReadRow(ctx context.Context, row int) ([]string, error)
}

// Writer maps domain rows onto the fixed layout.
type Writer struct {
	sheet  Sheet
	loc    *time.Location
	logger *slog.Logger
}

func NewWriter(sheet Sheet, loc *time.Location, logger *slog.Logger) *Writer {
	if loc == nil {
		loc = time.UTC
	}
	return &Writer{sheet: sheet, loc: loc, logger: logger.With("component", "ledger_writer")}
}

// AppendVideoRow returns the 1-based index of the new row.
func (w *Writer) AppendVideoRow(ctx context.Context, r domain.LedgerVideoRow) (int, error) {
	row := []string{
		r.Timestamp.In(w.loc).Format(timestampLayout),
		r.Date,
		r.Contact.FirstName,
		r.Contact.LastName,
		r.Contact.Phone,
		r.Contact.CarPlate,
		r.Destination,
		r.VideoLink,
		"",
		"",
	}
	return w.append(ctx, row)
}

// AppendReminderEvent writes a reminder answer as its own row, independent
// of any video row.
func (w *Writer) AppendReminderEvent(ctx context.Context, r domain.LedgerReminderRow) (int, error) {
	row := []string{
		r.Timestamp.In(w.loc).Format(timestampLayout),
		r.Date,
		r.Contact.FirstName,
		r.Contact.LastName,
		r.Contact.Phone,
		r.Contact.CarPlate,
		"",
		"",
		string(r.Action),
		r.Reason,
	}
	return w.append(ctx, row)
}

func (w *Writer) PatchReminderAction(ctx context.Context, row int, action domain.ReminderAction) error {
	return w.patch(ctx, row, ColumnReminderAction, string(action))
}

func (w *Writer) PatchReason(ctx context.Context, row int, reason string) error {
	return w.patch(ctx, row, ColumnReason, reason)
}

// ReadRow returns the row padded to ColumnCount cells.
func (w *Writer) ReadRow(ctx context.Context, row int) ([]string, error) {
	if row < 1 {
		return nil, fmt.Errorf("%w: row %d out of range", domain.ErrValidation, row)
	}
	cells, err := w.sheet.ReadRow(ctx, row)
	if err != nil {
		return nil, fmt.Errorf("%w: read row %d: %v", domain.ErrLedgerWrite, row, err)
	}
	for len(cells) < ColumnCount {
		cells = append(cells, "")
	}
	return cells, nil
}

func (w *Writer) append(ctx context.Context, row []string) (int, error) {
	n, err := w.sheet.AppendRow(ctx, row)
	if err != nil {
		return 0, fmt.Errorf("%w: append: %v", domain.ErrLedgerWrite, err)
	}
	w.logger.DebugContext(ctx, "Ledger row appended", "row", n)
	return n, nil
}

// patch never creates rows: it only touches an existing one.
func (w *Writer) patch(ctx context.Context, row, col int, value string) error {
	if row < 1 {
		return fmt.Errorf("%w: row %d out of range", domain.ErrValidation, row)
	}
	if err := w.sheet.UpdateCell(ctx, row, col, value); err != nil {
		return fmt.Errorf("%w: update row %d col %d: %v", domain.ErrLedgerWrite, row, col, err)
	}
	w.logger.DebugContext(ctx, "Ledger cell patched", "row", row, "col", col)
	return nil
}
