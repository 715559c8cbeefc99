package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/deliveryproof/golang_services/internal/submission_service/app"
	"github.com/deliveryproof/golang_services/internal/submission_service/domain"
)

// deleteUser handles "/delete <telegram id>" from any dialog state.
func (h *Handler) deleteUser(ctx context.Context, adminID int64, args string) {
	if !h.isAdmin(adminID) {
		h.send(ctx, adminID, textNotAdmin, nil)
		return
	}
	h.clearSession(ctx, adminID)

	fields := strings.Fields(args)
	if len(fields) == 0 {
		h.send(ctx, adminID, textDeleteUsage, nil)
		return
	}
	target, err := app.ParseUserID(fields[0])
	if err != nil {
		h.send(ctx, adminID, textDeleteBadID, nil)
		return
	}

	if err := h.users.DeleteUser(ctx, target); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			h.send(ctx, adminID, fmt.Sprintf(textDeleteUnknown, target), nil)
			return
		}
		h.logger.ErrorContext(ctx, "Admin delete failed", "error", err, "target_id", target)
		h.send(ctx, adminID, textSomethingWentWrong, nil)
		return
	}
	h.logger.InfoContext(ctx, "User deleted via bot command", "admin_id", adminID, "target_id", target)
	h.send(ctx, adminID, fmt.Sprintf(textDeleteDone, target), nil)
}
