package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/quillcms/quill-backend/internal/common"
	"github.com/quillcms/quill-backend/internal/domain"
	"github.com/quillcms/quill-backend/internal/hook"
	"github.com/quillcms/quill-backend/internal/repository"
	"github.com/quillcms/quill-backend/pkg/flash"
	"github.com/quillcms/quill-backend/pkg/i18n"
	"github.com/quillcms/quill-backend/pkg/logger"
	"github.com/quillcms/quill-backend/pkg/urlgen"
	"gorm.io/gorm"
)

// Return modes select the response shape after a successful save
const (
	ReturnModeNew        = "new"
	ReturnModeSaveAndNew = "saveandnew"
	ReturnModeAjax       = "ajax"
	ReturnModeTest       = "test"
)

// asyncMode reports whether the mode answers with a JSON document
// instead of an interactive redirect
func asyncMode(mode string) bool {
	return mode == ReturnModeAjax || mode == ReturnModeTest
}

// SaveRequest carries one content save submission
type SaveRequest struct {
	ContentType  *domain.ContentType
	ID           int64 // 0 for a new record
	Form         url.Values
	ReturnMode   string
	EditReferrer string
}

// SaveResult is either a redirect target or a JSON snapshot payload
type SaveResult struct {
	Content     *domain.Content
	Created     bool
	RedirectURL string
	Payload     map[string]interface{}
	Warnings    []string
}

// ContentService business logic for content records
type ContentService interface {
	SaveContent(req *SaveRequest, user domain.User) (*SaveResult, error)
	GetContent(contentType string, id int64) (*domain.Content, error)
	ListContent(contentType string, page, limit int) ([]*domain.Content, *common.Meta, error)
	ListAudit(contentType string, id int64, limit int) ([]repository.AuditEntry, error)
}

type contentService struct {
	repo   repository.ContentRepository
	audit  repository.AuditRepository
	perms  PermissionChecker
	flash  flash.Queue
	urls   *urlgen.Generator
	hooks  *hook.Manager
	locale i18n.Locale
}

// NewContentService creates a new ContentService with explicit
// dependencies; there is no ambient service lookup
func NewContentService(
	repo repository.ContentRepository,
	audit repository.AuditRepository,
	perms PermissionChecker,
	flashQueue flash.Queue,
	urls *urlgen.Generator,
	hooks *hook.Manager,
	locale i18n.Locale,
) ContentService {
	return &contentService{
		repo:   repo,
		audit:  audit,
		perms:  perms,
		flash:  flashQueue,
		urls:   urls,
		hooks:  hooks,
		locale: locale,
	}
}

// SaveContent persists one submitted content record and selects the
// response by return mode
func (s *contentService) SaveContent(req *SaveRequest, user domain.User) (*SaveResult, error) {
	ct := req.ContentType

	// 1. Resolve the record and retain the pre-save state
	var record *domain.Content
	var oldSnapshot domain.FieldValues
	priorStatus := domain.StatusDraft

	if req.ID > 0 {
		existing, err := s.repo.FindByID(ct.Slug, req.ID)
		if err != nil {
			return nil, loadError(err)
		}
		record = existing
		oldSnapshot = existing.Snapshot()
		priorStatus = existing.Status
	} else {
		record = s.repo.NewContent(ct.Slug, ct.DefaultStatus)
	}

	// 2. Anti-spoofing: a persisted record must match the form's id
	if record.ID != 0 && !formIDMatches(req.Form, record.ID) {
		if asyncMode(req.ReturnMode) {
			return nil, common.ErrSecurityViolation
		}
		s.flash.Error(user.ID, "The submitted form does not match the record you are editing.")
		return &SaveResult{RedirectURL: s.urls.Generate("dashboard", nil)}, nil
	}

	comment := req.Form.Get("editcomment")

	// 3. Apply posted values
	if err := ApplyFormValues(record, ct, req.Form, user, s.repo, s.perms); err != nil {
		return nil, err
	}

	// 4. Status-transition guard: disallowed transitions are clamped
	// back to the prior status, not rejected
	if record.Status != priorStatus && !s.perms.CanTransitionStatus(priorStatus, record.Status, ct.Slug, record.ID, user) {
		logger.GetLogger().Warn().
			Str("contenttype", ct.Slug).
			Int64("id", record.ID).
			Str("user_id", user.ID).
			Str("from", priorStatus).
			Str("to", record.Status).
			Msg("status transition denied, keeping prior status")
		record.Status = priorStatus
	}

	// 5. Persist, with before-save filters and warning-returning
	// after-save actions around it
	if s.hooks != nil {
		record.Fields = s.hooks.ApplyBeforeSave(ct.Slug, record.Fields)
	}
	created := oldSnapshot == nil
	if err := s.repo.Save(record); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrPersistence, err)
	}
	var warnings []string
	if s.hooks != nil {
		warnings = s.hooks.RunAfterSave(ct.Slug, record, created)
	}

	// 6. Audit entry with full before/after snapshots
	if err := s.recordAudit(ct, record, oldSnapshot, comment, user); err != nil {
		return nil, err
	}

	// 7. Success notification
	if created {
		s.flash.Success(user.ID, fmt.Sprintf("The new %s has been saved.", ct.SingularName))
	} else {
		s.flash.Success(user.ID, fmt.Sprintf("The %s has been updated.", ct.SingularName))
	}

	// 8. Response selection
	result := &SaveResult{Content: record, Created: created, Warnings: warnings}
	switch req.ReturnMode {
	case ReturnModeNew:
		result.RedirectURL = s.urls.GenerateWithAnchor("content.edit", urlgen.Params{
			"contenttype": ct.Slug,
			"id":          fmt.Sprintf("%d", record.ID),
		}, req.ReturnMode)
	case ReturnModeSaveAndNew:
		result.RedirectURL = s.urls.Generate("content.new", urlgen.Params{"contenttype": ct.Slug})
	case ReturnModeAjax:
		result.Payload = s.jsonSnapshot(ct, record)
		// the JSON response closes the interaction, so queued flashes
		// must not replay on the next page view
		s.flash.ClearPending(user.ID)
	case ReturnModeTest:
		result.Payload = s.jsonSnapshot(ct, record)
	default:
		if req.EditReferrer != "" {
			result.RedirectURL = req.EditReferrer
		} else {
			result.RedirectURL = s.urls.Generate("content.overview", urlgen.Params{"contenttype": ct.Slug})
		}
	}

	return result, nil
}

// GetContent retrieves a single record
func (s *contentService) GetContent(contentType string, id int64) (*domain.Content, error) {
	content, err := s.repo.FindByID(contentType, id)
	if err != nil {
		return nil, loadError(err)
	}
	return content, nil
}

// loadError keeps a missing row and an infrastructure failure as
// distinct error kinds
func loadError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return common.ErrContentNotFound
	}
	return fmt.Errorf("%w: %v", common.ErrPersistence, err)
}

// ListContent retrieves paginated records of one content type
func (s *contentService) ListContent(contentType string, page, limit int) ([]*domain.Content, *common.Meta, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	contents, total, err := s.repo.List(contentType, page, limit)
	if err != nil {
		return nil, nil, err
	}

	meta := &common.Meta{
		ContentType: contentType,
		Page:        page,
		Limit:       limit,
		Total:       total,
	}
	return contents, meta, nil
}

// ListAudit returns recent audit entries for one record
func (s *contentService) ListAudit(contentType string, id int64, limit int) ([]repository.AuditEntry, error) {
	return s.audit.ListByContent(contentType, id, limit)
}

// recordAudit appends the Insert/Update entry for a completed save
func (s *contentService) recordAudit(ct *domain.ContentType, record *domain.Content, oldSnapshot domain.FieldValues, comment string, user domain.User) error {
	action := repository.AuditActionUpdate
	if oldSnapshot == nil {
		action = repository.AuditActionInsert
	}

	newJSON, err := json.Marshal(record.Snapshot())
	if err != nil {
		return fmt.Errorf("marshal audit snapshot: %w", err)
	}

	entry := &repository.AuditEntry{
		Action:      action,
		ContentType: ct.Slug,
		ContentID:   record.ID,
		NewSnapshot: string(newJSON),
		Comment:     comment,
		UserID:      user.ID,
		RequestID:   uuid.New().String(),
	}
	if oldSnapshot != nil {
		oldJSON, err := json.Marshal(oldSnapshot)
		if err != nil {
			return fmt.Errorf("marshal audit snapshot: %w", err)
		}
		old := string(oldJSON)
		entry.OldSnapshot = &old
	}

	return s.audit.Record(entry)
}

// jsonSnapshot builds the ajax/test response document: the record's
// full field mapping with the changed date in the standard timestamp
// format and float fields re-rendered per the active locale
func (s *contentService) jsonSnapshot(ct *domain.ContentType, record *domain.Content) map[string]interface{} {
	payload := map[string]interface{}(record.Snapshot())
	payload["datechanged"] = record.DateChanged.Format("2006-01-02 15:04:05")
	payload["datecreated"] = record.DateCreated.Format("2006-01-02 15:04:05")

	if i18n.DecimalComma(s.locale) {
		for name, def := range ct.Fields {
			if def.Kind() != domain.KindFloat {
				continue
			}
			if v, ok := payload[name]; ok {
				payload[name] = renderCommaDecimal(v)
			}
		}
	}

	return payload
}

// formIDMatches reports whether the form's optional "id" value refers
// to the given record. An absent id passes; an unparsable one counts
// as a mismatch, not as absent.
func formIDMatches(form url.Values, id int64) bool {
	raw := form.Get("id")
	if raw == "" {
		return true
	}
	parsed, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return false
	}
	return parsed == id
}
