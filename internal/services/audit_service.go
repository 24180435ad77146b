package services

import (
	"context"

	"github.com/sjperalta/expenseflow-api/internal/models"
	"gorm.io/gorm"
)

// AuditService writes and reads the append-only audit trail. It talks to the
// database directly; audit rows are never updated or deleted.
type AuditService struct {
	db *gorm.DB
}

func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{db: db}
}

// AuditFilter narrows audit log listings
type AuditFilter struct {
	Action string
	Entity string
	UserID uint
}

// Log records an audit entry
func (s *AuditService) Log(ctx context.Context, userID uint, action, entity string, entityID uint, details, ip, userAgent string) error {
	entry := &models.AuditLog{
		UserID:    userID,
		Action:    action,
		Entity:    entity,
		EntityID:  entityID,
		Details:   details,
		IPAddress: ip,
		UserAgent: userAgent,
	}
	return s.db.WithContext(ctx).Create(entry).Error
}

// List retrieves audit logs newest first, optionally filtered
func (s *AuditService) List(ctx context.Context, filter AuditFilter, limit, offset int) ([]models.AuditLog, int64, error) {
	var logs []models.AuditLog
	var total int64

	db := s.db.WithContext(ctx).Model(&models.AuditLog{})
	if filter.Action != "" {
		db = db.Where("action = ?", filter.Action)
	}
	if filter.Entity != "" {
		db = db.Where("entity = ?", filter.Entity)
	}
	if filter.UserID != 0 {
		db = db.Where("user_id = ?", filter.UserID)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Preload("User").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&logs).Error
	return logs, total, err
}
