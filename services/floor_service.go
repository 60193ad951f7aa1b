package services

import (
	"context"
	"errors"
	"fmt"

	"hms-backend/models"

	"gorm.io/gorm"
)

type FloorService struct {
	DB *gorm.DB
}

func NewFloorService(db *gorm.DB) *FloorService {
	return &FloorService{DB: db}
}

func (s *FloorService) Create(ctx context.Context, floor *models.Floor) error {
	if floor.Name == "" {
		return fmt.Errorf("validation: floor name is required")
	}
	if err := s.DB.WithContext(ctx).Create(floor).Error; err != nil {
		return fmt.Errorf("failed to create floor: %w", err)
	}
	return nil
}

func (s *FloorService) GetAll(ctx context.Context) ([]models.Floor, error) {
	var floors []models.Floor
	if err := s.DB.WithContext(ctx).Order("number").Find(&floors).Error; err != nil {
		return nil, fmt.Errorf("failed to list floors: %w", err)
	}
	return floors, nil
}

func (s *FloorService) Update(ctx context.Context, number uint, name string) (*models.Floor, error) {
	var floor models.Floor
	if err := s.DB.WithContext(ctx).Where("number = ?", number).First(&floor).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("floor %d not found", number)
		}
		return nil, fmt.Errorf("db error loading floor %d: %w", number, err)
	}
	if err := s.DB.WithContext(ctx).Model(&floor).Update("name", name).Error; err != nil {
		return nil, fmt.Errorf("failed to update floor %d: %w", number, err)
	}
	return &floor, nil
}

// Delete removes a floor; refused while any room still references it.
func (s *FloorService) Delete(ctx context.Context, number uint) error {
	var roomCount int64
	if err := s.DB.WithContext(ctx).Model(&models.Room{}).Where("floor_number = ?", number).Count(&roomCount).Error; err != nil {
		return fmt.Errorf("db error counting rooms on floor %d: %w", number, err)
	}
	if roomCount > 0 {
		return fmt.Errorf("floor %d still has %d rooms", number, roomCount)
	}
	res := s.DB.WithContext(ctx).Where("number = ?", number).Delete(&models.Floor{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete floor %d: %w", number, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("floor %d not found", number)
	}
	return nil
}
