package services

import (
	"context"
	"errors"
	"fmt"

	"hms-backend/models"

	"gorm.io/gorm"
)

// RoomService handles room inventory management (CRUD). Reservation-related
// state changes never go through here; see InventoryService.
type RoomService struct {
	DB    *gorm.DB
	Cache *RoomCache
}

func NewRoomService(db *gorm.DB, cache *RoomCache) *RoomService {
	return &RoomService{DB: db, Cache: cache}
}

func (s *RoomService) Create(ctx context.Context, room *models.Room) error {
	if room.Number < 1000 {
		return fmt.Errorf("validation: room number must have at least 4 digits")
	}
	if room.Capacity < 1 || room.Capacity > 5 {
		return fmt.Errorf("validation: capacity must be between 1 and 5")
	}
	if room.PriceCents < 10 {
		return fmt.Errorf("validation: room price must be at least 10 cents")
	}
	if room.State == "" {
		room.State = models.RoomStateAvailable
	}
	if room.State != models.RoomStateAvailable && room.State != models.RoomStateMaintenance {
		return fmt.Errorf("validation: new rooms may only be available or maintenance")
	}

	var floor models.Floor
	if err := s.DB.WithContext(ctx).Where("number = ?", room.FloorNumber).First(&floor).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("validation: floor %d not found", room.FloorNumber)
		}
		return fmt.Errorf("db error checking floor: %w", err)
	}

	if err := s.DB.WithContext(ctx).Create(room).Error; err != nil {
		return fmt.Errorf("failed to create room: %w", err)
	}
	s.Cache.Invalidate(ctx)
	return nil
}

func (s *RoomService) GetAll(ctx context.Context) ([]models.Room, error) {
	var rooms []models.Room
	if err := s.DB.WithContext(ctx).Preload("Floor").Order("number").Find(&rooms).Error; err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	return rooms, nil
}

type AvailableRoomsFilter struct {
	Capacity      int
	PriceMinCents int64
	PriceMaxCents int64
}

// GetAvailable lists bookable rooms, cheapest first. The unfiltered listing
// is served from the cache when possible.
func (s *RoomService) GetAvailable(ctx context.Context, filter AvailableRoomsFilter) ([]models.Room, error) {
	unfiltered := filter == AvailableRoomsFilter{}
	if unfiltered {
		if rooms, ok := s.Cache.Get(ctx); ok {
			return rooms, nil
		}
	}

	q := s.DB.WithContext(ctx).Where("state = ?", models.RoomStateAvailable)
	if filter.Capacity > 0 {
		q = q.Where("capacity >= ?", filter.Capacity)
	}
	if filter.PriceMinCents > 0 {
		q = q.Where("room_price >= ?", filter.PriceMinCents)
	}
	if filter.PriceMaxCents > 0 {
		q = q.Where("room_price <= ?", filter.PriceMaxCents)
	}

	var rooms []models.Room
	if err := q.Order("room_price").Find(&rooms).Error; err != nil {
		return nil, fmt.Errorf("failed to list available rooms: %w", err)
	}
	if unfiltered {
		s.Cache.Set(ctx, rooms)
	}
	return rooms, nil
}

func (s *RoomService) Update(ctx context.Context, number uint, updates map[string]interface{}) (*models.Room, error) {
	var room models.Room
	if err := s.DB.WithContext(ctx).Where("number = ?", number).First(&room).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("db error loading room %d: %w", number, err)
	}

	// State is engine-owned; strip it from free-form updates.
	delete(updates, "state")
	delete(updates, "reserved_at")

	if err := s.DB.WithContext(ctx).Model(&room).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update room %d: %w", number, err)
	}
	s.Cache.Invalidate(ctx)
	return &room, nil
}

func (s *RoomService) Delete(ctx context.Context, number uint) error {
	var room models.Room
	if err := s.DB.WithContext(ctx).Where("number = ?", number).First(&room).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRoomNotFound
		}
		return fmt.Errorf("db error loading room %d: %w", number, err)
	}
	if room.State == models.RoomStateBeingReserved || room.State == models.RoomStateOccupied {
		return ErrRoomUnavailable
	}
	if err := s.DB.WithContext(ctx).Delete(&room).Error; err != nil {
		return fmt.Errorf("failed to delete room %d: %w", number, err)
	}
	s.Cache.Invalidate(ctx)
	return nil
}
