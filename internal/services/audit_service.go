package services

import (
	"encoding/json"

	"gorm.io/gorm"

	"github.com/webtrainer-in/ExpenseTracker/internal/logger"
	"github.com/webtrainer-in/ExpenseTracker/internal/models"
)

// Audit actions recorded by the handlers.
const (
	AuditReserveDeposit = "RESERVE_DEPOSIT"
	AuditWalletDeposit  = "WALLET_DEPOSIT"
	AuditWalletWithdraw = "WALLET_WITHDRAW"
	AuditCategoryCreate = "CATEGORY_CREATE"
	AuditCategoryUpdate = "CATEGORY_UPDATE"
	AuditCategoryDelete = "CATEGORY_DELETE"
	AuditRoleChange     = "ROLE_CHANGE"
)

// auditService handles audit log recording.
type auditService struct {
	db *gorm.DB
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(db *gorm.DB) AuditServicer {
	return &auditService{db: db}
}

// Log records an audit event. Failures are logged and never returned.
func (s *auditService) Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]any) {
	var changesJSON string
	if changes != nil {
		data, err := json.Marshal(changes)
		if err != nil {
			logger.Get().Errorw("failed to marshal audit log changes", "error", err, "action", action)
			changesJSON = "{}"
		} else {
			changesJSON = string(data)
		}
	}

	entry := &models.AuditLog{
		UserID:       userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IPAddress:    ipAddress,
		Changes:      changesJSON,
	}

	if err := s.db.Create(entry).Error; err != nil {
		logger.Get().Errorw("failed to create audit log entry",
			"error", err,
			"user_id", userID,
			"action", action,
			"resource_type", resourceType,
			"resource_id", resourceID,
		)
	}
}
