package services

import (
	"context"

	"nutriscan/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultHistoryLimit = 20

// AuditService persists one AnalysisLog row per analysis. A nil service or
// nil DB turns every call into a no-op.
type AuditService struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewAuditService(db *gorm.DB, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{db: db, logger: logger}
}

func (a *AuditService) Enabled() bool {
	return a != nil && a.db != nil
}

// Record never fails the caller; write errors are logged.
func (a *AuditService) Record(ctx context.Context, entry *models.AnalysisLog) {
	if !a.Enabled() || entry == nil {
		return
	}
	// The analysis deadline may already be spent; the audit row should still land.
	ctx = context.WithoutCancel(ctx)
	if err := a.db.WithContext(ctx).Create(entry).Error; err != nil {
		a.logger.Warn("audit write failed", zap.String("request_id", entry.RequestID), zap.Error(err))
	}
}

// History returns the most recent analyses for a user, newest first.
func (a *AuditService) History(ctx context.Context, userID string, limit int) ([]models.AnalysisLog, error) {
	if !a.Enabled() {
		return []models.AnalysisLog{}, nil
	}
	if limit <= 0 || limit > 100 {
		limit = defaultHistoryLimit
	}
	var logs []models.AnalysisLog
	err := a.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}
