package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hms-backend/metrics"
	"hms-backend/models"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// InventoryService owns the room state machine. State changes are single
// compare-and-swap UPDATEs (state preconditions in the WHERE clause), so they
// are serializable across web workers without explicit row locks, and no lock
// ever spans the payment call.
type InventoryService struct {
	DB    *gorm.DB
	Cache *RoomCache // optional; nil disables caching
}

func NewInventoryService(db *gorm.DB, cache *RoomCache) *InventoryService {
	return &InventoryService{DB: db, Cache: cache}
}

func (s *InventoryService) GetByNumber(ctx context.Context, number uint) (*models.Room, error) {
	var room models.Room
	if err := s.DB.WithContext(ctx).Where("number = ?", number).First(&room).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("db error loading room %d: %w", number, err)
	}
	return &room, nil
}

// TryReserve moves an available room into being_reserved. The state check and
// the write are one UPDATE, so of N concurrent callers exactly one sees
// RowsAffected == 1.
func (s *InventoryService) TryReserve(ctx context.Context, number uint) error {
	now := time.Now().UTC()
	res := s.DB.WithContext(ctx).Model(&models.Room{}).
		Where("number = ? AND state = ?", number, models.RoomStateAvailable).
		Updates(map[string]interface{}{
			"state":       models.RoomStateBeingReserved,
			"reserved_at": now,
		})
	if res.Error != nil {
		return fmt.Errorf("db error reserving room %d: %w", number, res.Error)
	}
	if res.RowsAffected == 0 {
		// Lost the race, or the room is occupied/maintenance/missing.
		if _, err := s.GetByNumber(ctx, number); err != nil {
			return err
		}
		return ErrRoomUnavailable
	}
	s.Cache.Invalidate(ctx)
	return nil
}

// Confirm moves being_reserved -> occupied. Finding the room in any other
// state means the transition ordering was violated somewhere; that is fatal
// and gets logged for manual reconciliation.
func (s *InventoryService) Confirm(ctx context.Context, number uint) error {
	res := s.DB.WithContext(ctx).Model(&models.Room{}).
		Where("number = ? AND state = ?", number, models.RoomStateBeingReserved).
		Updates(map[string]interface{}{
			"state":       models.RoomStateOccupied,
			"reserved_at": nil,
		})
	if res.Error != nil {
		return fmt.Errorf("db error confirming room %d: %w", number, res.Error)
	}
	if res.RowsAffected == 0 {
		log.WithField("room_number", number).Error("Confirm called on room not in being_reserved")
		return ErrInconsistentState
	}
	s.Cache.Invalidate(ctx)
	return nil
}

// Release moves being_reserved -> available. A no-op when the room is in any
// other state: cancellation can race with success, so recovery is idempotent.
func (s *InventoryService) Release(ctx context.Context, number uint) error {
	res := s.DB.WithContext(ctx).Model(&models.Room{}).
		Where("number = ? AND state = ?", number, models.RoomStateBeingReserved).
		Updates(map[string]interface{}{
			"state":       models.RoomStateAvailable,
			"reserved_at": nil,
		})
	if res.Error != nil {
		return fmt.Errorf("db error releasing room %d: %w", number, res.Error)
	}
	if res.RowsAffected == 0 {
		log.WithField("room_number", number).Warn("Release skipped: room not in being_reserved")
		return nil
	}
	s.Cache.Invalidate(ctx)
	return nil
}

// FinalizeOccupied writes the paid reservation and flips the room to occupied
// in a single transaction. A CAS miss on the room means the being_reserved
// invariant was broken; nothing is committed and the caller must treat the
// attempt as needing manual reconciliation.
func (s *InventoryService) FinalizeOccupied(ctx context.Context, res *models.Reservation) error {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(res).Error; err != nil {
			return fmt.Errorf("failed to create reservation: %w", err)
		}

		upd := tx.Model(&models.Room{}).
			Where("number = ? AND state = ?", res.RoomNumber, models.RoomStateBeingReserved).
			Updates(map[string]interface{}{
				"state":       models.RoomStateOccupied,
				"reserved_at": nil,
			})
		if upd.Error != nil {
			return fmt.Errorf("failed to update room %d state: %w", res.RoomNumber, upd.Error)
		}
		if upd.RowsAffected == 0 {
			return ErrInconsistentState
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.Cache.Invalidate(ctx)
	return nil
}

// ReleaseExpired is the reconciliation sweep over room state: any room stuck
// in being_reserved longer than window goes back to available. Idempotent
// under repeated runs.
func (s *InventoryService) ReleaseExpired(ctx context.Context, window time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-window)
	res := s.DB.WithContext(ctx).Model(&models.Room{}).
		Where("state = ? AND reserved_at IS NOT NULL AND reserved_at < ?", models.RoomStateBeingReserved, cutoff).
		Updates(map[string]interface{}{
			"state":       models.RoomStateAvailable,
			"reserved_at": nil,
		})
	if res.Error != nil {
		return 0, fmt.Errorf("db error sweeping stale reservations: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		metrics.RoomsReleasedBySweep.Add(float64(res.RowsAffected))
		s.Cache.Invalidate(ctx)
	}
	return res.RowsAffected, nil
}

// SetMaintenance toggles a room between available and maintenance. Rooms in
// reservation-owned states (being_reserved, occupied) cannot be toggled.
func (s *InventoryService) SetMaintenance(ctx context.Context, number uint, maintenance bool) error {
	from, to := models.RoomStateAvailable, models.RoomStateMaintenance
	if !maintenance {
		from, to = models.RoomStateMaintenance, models.RoomStateAvailable
	}
	res := s.DB.WithContext(ctx).Model(&models.Room{}).
		Where("number = ? AND state = ?", number, from).
		Update("state", to)
	if res.Error != nil {
		return fmt.Errorf("db error updating room %d state: %w", number, res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := s.GetByNumber(ctx, number); err != nil {
			return err
		}
		return ErrRoomUnavailable
	}
	s.Cache.Invalidate(ctx)
	return nil
}
