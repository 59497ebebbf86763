package repository

import (
	"github.com/quillcms/quill-backend/internal/domain"
	"gorm.io/gorm"
)

// AutoMigrate creates or updates the content and audit tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Content{},
		&AuditEntry{},
	)
}
