package domain

import "time"

// ReminderAction is written into the ledger's action column.
type ReminderAction string

const (
	ActionSent    ReminderAction = "SENT"
	ActionNotSent ReminderAction = "NOT_SENT"
)

// LedgerVideoRow is the data of one appended video row.
type LedgerVideoRow struct {
	Timestamp   time.Time
	Date        string
	Contact     ContactSnapshot
	Destination string
	VideoLink   string
}

// LedgerReminderRow is a standalone reminder-event row.
type LedgerReminderRow struct {
	Timestamp time.Time
	Date      string
	Contact   ContactSnapshot
	Action    ReminderAction
	Reason    string
}
