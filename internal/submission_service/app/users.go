package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/deliveryproof/golang_services/internal/submission_service/domain"
)

var digitsOnly = regexp.MustCompile(`^\d+$`)

// UserService handles registration and admin removal of drivers.
type UserService struct {
	users    domain.UserRepository
	notifier Notifier
	validate *validator.Validate
	logger   *slog.Logger
}

func NewUserService(users domain.UserRepository, notifier Notifier, logger *slog.Logger) *UserService {
	return &UserService{
		users:    users,
		notifier: notifier,
		validate: validator.New(),
		logger:   logger.With("component", "user_service"),
	}
}

// NormalizePlate upper-cases a plate and drops inner spaces.
func NormalizePlate(raw string) string {
	return strings.ToUpper(strings.Join(strings.Fields(raw), ""))
}

// Register validates and upserts the profile.
func (s *UserService) Register(ctx context.Context, u *domain.User) error {
	u.FirstName = strings.TrimSpace(u.FirstName)
	u.LastName = strings.TrimSpace(u.LastName)
	u.Phone = strings.TrimSpace(u.Phone)
	u.CarPlate = NormalizePlate(u.CarPlate)
	if err := s.validate.StructCtx(ctx, u); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if err := s.users.Upsert(ctx, u); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "User registered", "user_id", u.ID)
	return nil
}

// Require returns the user or ErrUnknownUser.
func (s *UserService) Require(ctx context.Context, id int64) (*domain.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnknownUser
		}
		return nil, err
	}
	return u, nil
}

// ParseUserID accepts only a plain decimal telegram id.
func ParseUserID(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if !digitsOnly.MatchString(raw) {
		return 0, fmt.Errorf("%w: user id must contain digits only", domain.ErrValidation)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: user id out of range", domain.ErrValidation)
	}
	return id, nil
}

// DeleteUser removes a driver and tells them about it. The notification
// is best-effort.
func (s *UserService) DeleteUser(ctx context.Context, id int64) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "User deleted by admin", "user_id", id)
	if s.notifier != nil {
		bestEffort(ctx, s.logger, "notify.user_deleted", func() error {
			return s.notifier.SendText(ctx, id, "Your registration was removed by an administrator. Send /start to register again.")
		}, "user_id", id)
	}
	return nil
}
