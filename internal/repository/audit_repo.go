package repository

import (
	"time"

	"gorm.io/gorm"
)

// Audit actions
const (
	AuditActionInsert = "Insert"
	AuditActionUpdate = "Update"
)

// AuditEntry is one append-only record of a content save
type AuditEntry struct {
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Action      string    `gorm:"column:action;type:varchar(20);index" json:"action"`
	ContentType string    `gorm:"column:content_type;type:varchar(50);index" json:"contenttype"`
	ContentID   int64     `gorm:"column:content_id;index" json:"contentid"`
	NewSnapshot string    `gorm:"column:new_snapshot;type:text" json:"new_snapshot"`
	OldSnapshot *string   `gorm:"column:old_snapshot;type:text" json:"old_snapshot,omitempty"`
	Comment     string    `gorm:"column:comment;type:varchar(255)" json:"comment"`
	UserID      string    `gorm:"column:user_id;index" json:"user_id"`
	RequestID   string    `gorm:"column:request_id;type:varchar(36)" json:"request_id"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (AuditEntry) TableName() string { return "content_audit_logs" }

// AuditRepository 감사 로그 저장소 인터페이스
type AuditRepository interface {
	Record(entry *AuditEntry) error
	ListByContent(contentType string, contentID int64, limit int) ([]AuditEntry, error)
}

type auditRepository struct {
	db *gorm.DB
}

// NewAuditRepository 생성자
func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

// Record appends one audit entry. The write is synchronous: a failed
// audit write fails the save it belongs to.
func (r *auditRepository) Record(entry *AuditEntry) error {
	return r.db.Create(entry).Error
}

// ListByContent returns the most recent audit entries for one record
func (r *auditRepository) ListByContent(contentType string, contentID int64, limit int) ([]AuditEntry, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}
	var entries []AuditEntry
	err := r.db.
		Where("content_type = ? AND content_id = ?", contentType, contentID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
