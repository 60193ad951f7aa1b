package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"hms-backend/models"

	"gorm.io/gorm"
)

type ClientService struct {
	DB *gorm.DB
}

func NewClientService(db *gorm.DB) *ClientService {
	return &ClientService{DB: db}
}

func (s *ClientService) Create(ctx context.Context, client *models.Client) error {
	client.Name = strings.TrimSpace(client.Name)
	if client.Name == "" {
		return fmt.Errorf("validation: client name is required")
	}
	// New clients always start unapproved, whatever the payload says.
	client.ApprovedBy = nil
	if err := s.DB.WithContext(ctx).Create(client).Error; err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	return nil
}

func (s *ClientService) GetByID(ctx context.Context, id uint) (*models.Client, error) {
	var client models.Client
	if err := s.DB.WithContext(ctx).First(&client, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("db error loading client %d: %w", id, err)
	}
	return &client, nil
}

// GetAll lists clients, optionally only those pending approval.
func (s *ClientService) GetAll(ctx context.Context, pendingOnly bool) ([]models.Client, error) {
	q := s.DB.WithContext(ctx).Order("created_at DESC")
	if pendingOnly {
		q = q.Where("approved_by IS NULL")
	}
	var clients []models.Client
	if err := q.Find(&clients).Error; err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	return clients, nil
}

func (s *ClientService) Delete(ctx context.Context, id uint) error {
	res := s.DB.WithContext(ctx).Delete(&models.Client{}, id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete client %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrClientNotFound
	}
	return nil
}
