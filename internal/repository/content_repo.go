package repository

import (
	"github.com/quillcms/quill-backend/internal/domain"
	"gorm.io/gorm"
)

// ContentRepository 콘텐츠 저장소 인터페이스
type ContentRepository interface {
	// 조회
	FindByID(contentType string, id int64) (*domain.Content, error)
	List(contentType string, page, limit int) ([]*domain.Content, int64, error)
	FilterExisting(contentType string, ids []int64) ([]int64, error)

	// 작성/수정
	NewContent(contentType, initialStatus string) *domain.Content
	Save(content *domain.Content) error
}

// contentRepository GORM 구현체
type contentRepository struct {
	db *gorm.DB
}

// NewContentRepository 생성자
func NewContentRepository(db *gorm.DB) ContentRepository {
	return &contentRepository{db: db}
}

// FindByID loads a single record of the given content type
func (r *contentRepository) FindByID(contentType string, id int64) (*domain.Content, error) {
	var content domain.Content
	err := r.db.
		Where("content_type = ?", contentType).
		Where("id = ?", id).
		First(&content).Error
	if err != nil {
		return nil, err
	}
	return &content, nil
}

// List returns paginated records of one content type, newest first
func (r *contentRepository) List(contentType string, page, limit int) ([]*domain.Content, int64, error) {
	var contents []*domain.Content
	var total int64

	query := r.db.Model(&domain.Content{}).Where("content_type = ?", contentType)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := query.
		Order("date_changed DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&contents).Error
	if err != nil {
		return nil, 0, err
	}

	return contents, total, nil
}

// FilterExisting returns the subset of ids that resolve to persisted
// records of the given content type, preserving submission order
func (r *contentRepository) FilterExisting(contentType string, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return []int64{}, nil
	}

	var found []int64
	err := r.db.Model(&domain.Content{}).
		Where("content_type = ?", contentType).
		Where("id IN ?", ids).
		Pluck("id", &found).Error
	if err != nil {
		return nil, err
	}

	existing := make(map[int64]bool, len(found))
	for _, id := range found {
		existing[id] = true
	}

	resolved := make([]int64, 0, len(found))
	for _, id := range ids {
		if existing[id] {
			resolved = append(resolved, id)
		}
	}
	return resolved, nil
}

// NewContent returns a blank, unpersisted record with the content
// type's initial status. The id stays 0 until the first Save.
func (r *contentRepository) NewContent(contentType, initialStatus string) *domain.Content {
	if !domain.ValidStatus(initialStatus) {
		initialStatus = domain.StatusDraft
	}
	return &domain.Content{
		ContentType: contentType,
		Status:      initialStatus,
		Fields:      domain.FieldValues{},
		Relations:   map[string][]int64{},
		Taxonomy:    map[string][]string{},
	}
}

// Save persists the record, inserting when it has no id yet
func (r *contentRepository) Save(content *domain.Content) error {
	if content.ID == 0 {
		return r.db.Create(content).Error
	}

	return r.db.Model(&domain.Content{}).
		Where("id = ?", content.ID).
		Where("content_type = ?", content.ContentType).
		Select("status", "owner_id", "title", "fields", "relations", "taxonomy", "date_changed").
		Updates(content).Error
}
