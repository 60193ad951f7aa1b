package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hms-backend/models"

	"gorm.io/gorm"
)

// CheckoutSessionService is the gorm-backed SessionStore. Status flips use
// the same CAS-in-WHERE pattern as the room state machine, so a cancel
// callback racing a success callback resolves to exactly one winner.
type CheckoutSessionService struct {
	DB *gorm.DB
}

func NewCheckoutSessionService(db *gorm.DB) *CheckoutSessionService {
	return &CheckoutSessionService{DB: db}
}

func (s *CheckoutSessionService) Create(ctx context.Context, session *models.CheckoutSession) error {
	if err := s.DB.WithContext(ctx).Create(session).Error; err != nil {
		return fmt.Errorf("failed to create checkout session: %w", err)
	}
	return nil
}

func (s *CheckoutSessionService) GetByRef(ctx context.Context, ref string) (*models.CheckoutSession, error) {
	var session models.CheckoutSession
	if err := s.DB.WithContext(ctx).Where("session_ref = ?", ref).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("db error loading checkout session: %w", err)
	}
	return &session, nil
}

func (s *CheckoutSessionService) MarkCompleted(ctx context.Context, ref string, reservationID uint) error {
	res := s.DB.WithContext(ctx).Model(&models.CheckoutSession{}).
		Where("session_ref = ? AND status = ?", ref, models.SessionStatusPending).
		Updates(map[string]interface{}{
			"status":         models.SessionStatusCompleted,
			"reservation_id": reservationID,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to complete checkout session: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (s *CheckoutSessionService) Close(ctx context.Context, ref string, status string) error {
	res := s.DB.WithContext(ctx).Model(&models.CheckoutSession{}).
		Where("session_ref = ? AND status = ?", ref, models.SessionStatusPending).
		Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("failed to close checkout session: %w", res.Error)
	}
	return nil
}

func (s *CheckoutSessionService) ExpirePending(ctx context.Context, now time.Time) ([]models.CheckoutSession, error) {
	var stale []models.CheckoutSession
	err := s.DB.WithContext(ctx).
		Where("status = ? AND expires_at IS NOT NULL AND expires_at <= ?", models.SessionStatusPending, now).
		Find(&stale).Error
	if err != nil {
		return nil, fmt.Errorf("db error listing expired sessions: %w", err)
	}

	expired := make([]models.CheckoutSession, 0, len(stale))
	for _, session := range stale {
		// CAS per session: a success callback landing mid-sweep wins the race
		// and the session is skipped here.
		res := s.DB.WithContext(ctx).Model(&models.CheckoutSession{}).
			Where("id = ? AND status = ?", session.ID, models.SessionStatusPending).
			Update("status", models.SessionStatusExpired)
		if res.Error != nil {
			return expired, fmt.Errorf("failed to expire session %s: %w", session.SessionRef, res.Error)
		}
		if res.RowsAffected == 1 {
			session.Status = models.SessionStatusExpired
			expired = append(expired, session)
		}
	}
	return expired, nil
}
