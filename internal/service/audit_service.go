package service

import (
	"context"

	"croco_webapp/internal/domain"
	"croco_webapp/internal/logger"
	"croco_webapp/internal/repository"
)

// AuditService handles audit logging
type AuditService struct {
	repo repository.AuditStore
}

// NewAuditService creates a new audit service. A nil repo disables auditing.
func NewAuditService(repo repository.AuditStore) *AuditService {
	return &AuditService{repo: repo}
}

// Log creates a new audit log entry
func (s *AuditService) Log(ctx context.Context, userID int64, action, category string, details map[string]interface{}) {
	s.LogWithRequest(ctx, userID, action, category, "", "", details)
}

// LogWithRequest creates an audit log with request info (IP, User-Agent)
func (s *AuditService) LogWithRequest(ctx context.Context, userID int64, action, category, ip, userAgent string, details map[string]interface{}) {
	if s == nil || s.repo == nil {
		return
	}

	log := &domain.AuditLog{
		UserID:    userID,
		Action:    action,
		Category:  category,
		Details:   details,
		IP:        ip,
		UserAgent: userAgent,
	}

	if err := s.repo.CreateAuditLog(ctx, log); err != nil {
		logger.Error("failed to create audit log", "error", err, "action", action, "user_id", userID)
	}
}

// LogHatching logs an incubation start or stop
func (s *AuditService) LogHatching(ctx context.Context, userID int64, action string, eggID int64) {
	s.Log(ctx, userID, action, domain.AuditCategoryHatching, map[string]interface{}{"egg_id": eggID})
}

// Recent returns the user's latest audit entries
func (s *AuditService) Recent(ctx context.Context, userID int64, limit int) ([]*domain.AuditLog, error) {
	return s.repo.ListAuditLogs(ctx, userID, limit)
}
