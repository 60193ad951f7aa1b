package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hms-backend/models"

	"gorm.io/gorm"
)

// ApprovalService answers reservation capability checks from the clients and
// role tables. It implements ApprovalChecker for the workflow engine; the
// engine itself never touches the role model.
type ApprovalService struct {
	DB *gorm.DB
}

func NewApprovalService(db *gorm.DB) *ApprovalService {
	return &ApprovalService{DB: db}
}

func (s *ApprovalService) CanReserve(ctx context.Context, clientID uint, roomNumber uint) error {
	var client models.Client
	if err := s.DB.WithContext(ctx).First(&client, clientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrClientNotFound
		}
		return fmt.Errorf("db error loading client %d: %w", clientID, err)
	}
	if !client.Approved() {
		return ErrNotApproved
	}
	return nil
}

// Approve marks a client as approved by the given staff user.
func (s *ApprovalService) Approve(ctx context.Context, clientID uint, approverID uint) (*models.Client, error) {
	var client models.Client
	if err := s.DB.WithContext(ctx).First(&client, clientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("db error loading client %d: %w", clientID, err)
	}
	if client.Approved() {
		return &client, nil
	}
	if err := s.DB.WithContext(ctx).Model(&client).Updates(map[string]interface{}{
		"approved_by": approverID,
		"updated_at":  time.Now().UTC(),
	}).Error; err != nil {
		return nil, fmt.Errorf("failed to approve client %d: %w", clientID, err)
	}
	client.ApprovedBy = &approverID
	return &client, nil
}

// HasPermission checks whether a staff user carries the given permission
// through any of its roles.
func (s *ApprovalService) HasPermission(ctx context.Context, userID uint, permission string) (bool, error) {
	var count int64
	err := s.DB.WithContext(ctx).
		Table("role_permissions").
		Joins("JOIN role_members ON role_members.role_id = role_permissions.role_id").
		Where("role_members.user_id = ? AND role_permissions.permission = ?", userID, permission).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("db error checking permission: %w", err)
	}
	return count > 0, nil
}
