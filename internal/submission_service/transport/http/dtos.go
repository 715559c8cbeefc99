package http

import (
	"time"

	"github.com/deliveryproof/golang_services/internal/submission_service/domain"
)

type reportQuery struct {
	Date string `validate:"omitempty,datetime=2006-01-02"`
}

type outboxQuery struct {
	Limit int `validate:"gte=1,lte=500"`
}

type RosterEntryDTO struct {
	UserID     int64   `json:"user_id"`
	FirstName  string  `json:"first_name"`
	LastName   string  `json:"last_name"`
	VideoCount int     `json:"video_count"`
	Status     string  `json:"status"`
	Reason     *string `json:"reason,omitempty"`
}

type RosterResponseDTO struct {
	Date  string           `json:"date"`
	Users []RosterEntryDTO `json:"users"`
}

type SenderDTO struct {
	UserID     int64  `json:"user_id"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	VideoCount int    `json:"video_count"`
}

type SendersResponseDTO struct {
	Date         string      `json:"date"`
	Senders      []SenderDTO `json:"senders"`
	TotalVideos  int         `json:"total_videos"`
	TotalSenders int         `json:"total_senders"`
}

type OutboxEntryDTO struct {
	ID           string     `json:"id"`
	UserID       int64      `json:"user_id"`
	Date         string     `json:"date"`
	Destination  string     `json:"destination"`
	Attempts     int        `json:"attempts"`
	LastError    *string    `json:"last_error,omitempty"`
	ClaimedUntil *time.Time `json:"claimed_until,omitempty"`
	SubmittedAt  time.Time  `json:"submitted_at"`
	CreatedAt    time.Time  `json:"created_at"`
}

type VideoDTO struct {
	ID          int64     `json:"id"`
	Destination string    `json:"destination"`
	MediaRef    string    `json:"media_ref"`
	LedgerRow   *int      `json:"ledger_row,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
}

type VideosResponseDTO struct {
	UserID int64      `json:"user_id"`
	Date   string     `json:"date"`
	Videos []VideoDTO `json:"videos"`
}

func toRosterDTO(date string, rows []domain.RosterEntry) RosterResponseDTO {
	out := RosterResponseDTO{Date: date, Users: make([]RosterEntryDTO, 0, len(rows))}
	for _, r := range rows {
		out.Users = append(out.Users, RosterEntryDTO{
			UserID:     r.UserID,
			FirstName:  r.FirstName,
			LastName:   r.LastName,
			VideoCount: r.VideoCount,
			Status:     string(r.Status),
			Reason:     r.Reason,
		})
	}
	return out
}

func toSendersDTO(s domain.SendersSummary) SendersResponseDTO {
	out := SendersResponseDTO{
		Date:         s.Date,
		Senders:      make([]SenderDTO, 0, len(s.Senders)),
		TotalVideos:  s.TotalVideos,
		TotalSenders: s.TotalSenders,
	}
	for _, r := range s.Senders {
		out.Senders = append(out.Senders, SenderDTO{UserID: r.UserID, FirstName: r.FirstName, LastName: r.LastName, VideoCount: r.VideoCount})
	}
	return out
}

func toOutboxDTOs(entries []*domain.OutboxEntry) []OutboxEntryDTO {
	out := make([]OutboxEntryDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, OutboxEntryDTO{
			ID:           e.ID.String(),
			UserID:       e.UserID,
			Date:         e.Date,
			Destination:  e.Destination,
			Attempts:     e.Attempts,
			LastError:    e.LastError,
			ClaimedUntil: e.ClaimedUntil,
			SubmittedAt:  e.SubmittedAt,
			CreatedAt:    e.CreatedAt,
		})
	}
	return out
}

func toVideosDTO(userID int64, date string, videos []*domain.VideoRecord) VideosResponseDTO {
	out := VideosResponseDTO{UserID: userID, Date: date, Videos: make([]VideoDTO, 0, len(videos))}
	for _, v := range videos {
		out.Videos = append(out.Videos, VideoDTO{
			ID:          v.ID,
			Destination: v.Destination,
			MediaRef:    v.MediaRef,
			LedgerRow:   v.LedgerRow,
			SubmittedAt: v.SubmittedAt,
		})
	}
	return out
}
