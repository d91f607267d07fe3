package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/launchdeck/launchdeck/backend/internal/models"
	"github.com/launchdeck/launchdeck/backend/pkg/logger"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

var globalDB *gorm.DB

func InitSystemLogger(db *gorm.DB) {
	globalDB = db
}

// AuditEntry is one row written by WriteAudit.
type AuditEntry struct {
	Level     string
	Module    string
	Action    string
	Message   string
	UserID    *string
	ProjectID *string
	IP        string
	UserAgent string
	Extra     interface{}
}

func LogInfo(module, action, message string, userID *string, ip, userAgent string, extra interface{}) {
	WriteAudit(AuditEntry{Level: "info", Module: module, Action: action, Message: message, UserID: userID, IP: ip, UserAgent: userAgent, Extra: extra})
}

func LogWarning(module, action, message string, userID *string, ip, userAgent string, extra interface{}) {
	WriteAudit(AuditEntry{Level: "warning", Module: module, Action: action, Message: message, UserID: userID, IP: ip, UserAgent: userAgent, Extra: extra})
}

func LogError(module, action, message string, userID *string, ip, userAgent string, extra interface{}) {
	WriteAudit(AuditEntry{Level: "error", Module: module, Action: action, Message: message, UserID: userID, IP: ip, UserAgent: userAgent, Extra: extra})
}

// WriteAudit stores an entry. Failures are logged and never surface to callers.
func WriteAudit(entry AuditEntry) {
	if globalDB == nil {
		return
	}
	if entry.Level == "" {
		entry.Level = "info"
	}

	var extraStr string
	if entry.Extra != nil {
		if b, err := json.Marshal(entry.Extra); err == nil {
			extraStr = string(b)
		}
	}

	row := &models.SystemLog{
		Level:     entry.Level,
		Module:    entry.Module,
		Action:    entry.Action,
		Message:   entry.Message,
		UserID:    entry.UserID,
		ProjectID: entry.ProjectID,
		IP:        entry.IP,
		UserAgent: entry.UserAgent,
		Extra:     extraStr,
		CreatedAt: time.Now(),
	}
	if err := globalDB.Create(row).Error; err != nil {
		logger.Warnf("[SystemLog] failed to write %s/%s: %v", entry.Module, entry.Action, err)
	}
}

type SystemLogService struct {
	db *gorm.DB
}

func NewSystemLogService(db *gorm.DB) *SystemLogService {
	return &SystemLogService{db: db}
}

type SystemLogListRequest struct {
	Page      int    `form:"page" binding:"omitempty,min=1"`
	PageSize  int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Level     string `form:"level"`
	Module    string `form:"module"`
	Action    string `form:"action"`
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
	Search    string `form:"search"`
}

type SystemLogListResponse struct {
	Total    int64              `json:"total"`
	Page     int                `json:"page"`
	PageSize int                `json:"page_size"`
	Items    []models.SystemLog `json:"items"`
}

// ListForProject returns the audit trail of one project. Admin role required.
func (s *SystemLogService) ListForProject(ctx context.Context, session *Session, projectID string, req *SystemLogListRequest) (*SystemLogListResponse, error) {
	if err := NewPermissionService(s.db).Require(ctx, session, projectID, models.RoleAdmin); err != nil {
		return nil, err
	}
	return s.list(s.db.WithContext(ctx).Model(&models.SystemLog{}).Where("project_id = ?", projectID), req)
}

func (s *SystemLogService) list(query *gorm.DB, req *SystemLogListRequest) (*SystemLogListResponse, error) {
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 20
	}

	if req.Level != "" {
		query = query.Where("level = ?", req.Level)
	}
	if req.Module != "" {
		query = query.Where("module = ?", req.Module)
	}
	if req.Action != "" {
		query = query.Where("action LIKE ?", "%"+req.Action+"%")
	}
	if req.StartDate != "" {
		query = query.Where("created_at >= ?", req.StartDate)
	}
	if req.EndDate != "" {
		query = query.Where("created_at <= ?", req.EndDate+" 23:59:59")
	}
	if req.Search != "" {
		query = query.Where("message LIKE ?", "%"+req.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var logs []models.SystemLog
	offset := (req.Page - 1) * req.PageSize
	if err := query.Offset(offset).Limit(req.PageSize).Order("created_at DESC").Find(&logs).Error; err != nil {
		return nil, err
	}

	return &SystemLogListResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    logs,
	}, nil
}

// CleanupOldLogs deletes logs older than retentionDays and returns the count.
func (s *SystemLogService) CleanupOldLogs(retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, nil
	}

	cutoffTime := time.Now().AddDate(0, 0, -retentionDays)
	result := s.db.Where("created_at < ?", cutoffTime).Delete(&models.SystemLog{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// CleanupRefreshTokens removes tokens that expired or were revoked before now.
func (s *SystemLogService) CleanupRefreshTokens(now time.Time) (int64, error) {
	result := s.db.Where("expires_at < ? OR revoked_at < ?", now, now.Add(-24*time.Hour)).
		Delete(&models.RefreshToken{})
	return result.RowsAffected, result.Error
}

// StartRetentionScheduler runs cleanup once, then daily at 03:00.
func StartRetentionScheduler(db *gorm.DB, retentionDays int) *cron.Cron {
	service := NewSystemLogService(db)
	job := func() { runCleanup(service, retentionDays) }

	c := cron.New()
	if _, err := c.AddFunc("0 3 * * *", job); err != nil {
		logger.Errorf("[SystemLog] failed to schedule cleanup: %v", err)
		return nil
	}
	go job()
	c.Start()
	return c
}

func runCleanup(service *SystemLogService, retentionDays int) {
	if retentionDays <= 0 {
		logger.Infof("[SystemLog] log cleanup disabled (retention_days <= 0)")
	} else if deleted, err := service.CleanupOldLogs(retentionDays); err != nil {
		logger.Errorf("[SystemLog] failed to cleanup old logs: %v", err)
	} else if deleted > 0 {
		logger.Infof("[SystemLog] cleaned up %d logs older than %d days", deleted, retentionDays)
	}

	if deleted, err := service.CleanupRefreshTokens(time.Now()); err != nil {
		logger.Errorf("[SystemLog] failed to cleanup refresh tokens: %v", err)
	} else if deleted > 0 {
		logger.Infof("[SystemLog] removed %d stale refresh tokens", deleted)
	}
}
