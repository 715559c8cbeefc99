package domain

import "time"

// DialogState is the position of a user inside the bot conversation.
type DialogState string

const (
	DialogIdle             DialogState = "IDLE"
	DialogAwaitFirstName   DialogState = "AWAIT_FIRST_NAME"
	DialogAwaitLastName    DialogState = "AWAIT_LAST_NAME"
	DialogAwaitPhone       DialogState = "AWAIT_PHONE"
	DialogAwaitPlate       DialogState = "AWAIT_PLATE"
	DialogAwaitDestination DialogState = "AWAIT_DESTINATION"
	DialogAwaitVideo       DialogState = "AWAIT_VIDEO"
	DialogAwaitReason      DialogState = "AWAIT_REASON"
)

// SessionData is scratch data collected across dialog steps.
type SessionData struct {
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Destination string `json:"destination,omitempty"`
}

// Session is the persisted dialog position of one user. A missing row
// means DialogIdle.
type Session struct {
	UserID    int64       `json:"user_id"`
	State     DialogState `json:"state"`
	Data      SessionData `json:"data"`
	UpdatedAt time.Time   `json:"updated_at"`
}
