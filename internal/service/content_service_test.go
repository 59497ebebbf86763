package service

import (
	"encoding/json"
	"errors"
	"net/url"
	"testing"

	"github.com/quillcms/quill-backend/internal/common"
	"github.com/quillcms/quill-backend/internal/domain"
	"github.com/quillcms/quill-backend/internal/hook"
	"github.com/quillcms/quill-backend/internal/repository"
	"github.com/quillcms/quill-backend/pkg/flash"
	"github.com/quillcms/quill-backend/pkg/i18n"
	"github.com/quillcms/quill-backend/pkg/urlgen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

// --- Mock ContentRepository ---

type mockContentRepo struct {
	mock.Mock
}

func (m *mockContentRepo) FindByID(contentType string, id int64) (*domain.Content, error) {
	args := m.Called(contentType, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Content), args.Error(1)
}

func (m *mockContentRepo) List(contentType string, page, limit int) ([]*domain.Content, int64, error) {
	args := m.Called(contentType, page, limit)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*domain.Content), args.Get(1).(int64), args.Error(2)
}

func (m *mockContentRepo) FilterExisting(contentType string, ids []int64) ([]int64, error) {
	args := m.Called(contentType, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *mockContentRepo) NewContent(contentType, initialStatus string) *domain.Content {
	args := m.Called(contentType, initialStatus)
	return args.Get(0).(*domain.Content)
}

func (m *mockContentRepo) Save(content *domain.Content) error {
	return m.Called(content).Error(0)
}

// --- Mock AuditRepository ---

type mockAuditRepo struct {
	mock.Mock
}

func (m *mockAuditRepo) Record(entry *repository.AuditEntry) error {
	return m.Called(entry).Error(0)
}

func (m *mockAuditRepo) ListByContent(contentType string, contentID int64, limit int) ([]repository.AuditEntry, error) {
	args := m.Called(contentType, contentID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.AuditEntry), args.Error(1)
}

// --- Fixtures ---

func testEntriesType() *domain.ContentType {
	ct := &domain.ContentType{
		Name:         "Entries",
		SingularName: "entry",
		Fields: map[string]*domain.FieldDef{
			"title":    {Type: "text"},
			"body":     {Type: "html"},
			"price":    {Type: "float"},
			"featured": {Type: "checkbox"},
			"chapters": {Type: "multiselect", Values: []string{"intro", "main"}},
			"tags":     {Type: "taxonomy"},
			"related":  {Type: "relation", Target: "pages"},
		},
	}
	ct.Normalize("entries")
	return ct
}

func blankEntry() *domain.Content {
	return &domain.Content{
		ContentType: "entries",
		Status:      domain.StatusDraft,
		Fields:      domain.FieldValues{},
		Relations:   map[string][]int64{},
		Taxonomy:    map[string][]string{},
	}
}

func newTestService(repo *mockContentRepo, audit *mockAuditRepo, hooks *hook.Manager, locale i18n.Locale) (ContentService, flash.Queue, *domain.ContentType) {
	ct := testEntriesType()
	types := domain.NewContentTypes(map[string]*domain.ContentType{"entries": ct})
	queue := flash.NewMemoryQueue()
	svc := NewContentService(repo, audit, NewLevelPermissionChecker(types), queue, urlgen.New(""), hooks, locale)
	return svc, queue, ct
}

var editor = domain.User{ID: "editor1", Name: "Editor", Level: 4}

// --- Tests ---

func TestSaveContent_CreateInsertsAudit(t *testing.T) {
	repo := new(mockContentRepo)
	audit := new(mockAuditRepo)
	svc, queue, ct := newTestService(repo, audit, nil, i18n.LocaleEn)

	repo.On("NewContent", "entries", "draft").Return(blankEntry())
	repo.On("Save", mock.AnythingOfType("*domain.Content")).Run(func(args mock.Arguments) {
		args.Get(0).(*domain.Content).ID = 7
	}).Return(nil)

	var recorded *repository.AuditEntry
	audit.On("Record", mock.AnythingOfType("*repository.AuditEntry")).Run(func(args mock.Arguments) {
		recorded = args.Get(0).(*repository.AuditEntry)
	}).Return(nil)

	form := url.Values{
		"title":       {"First entry"},
		"status":      {"published"},
		"editcomment": {"initial import"},
	}
	result, err := svc.SaveContent(&SaveRequest{ContentType: ct, Form: form}, editor)

	assert.NoError(t, err)
	assert.True(t, result.Created)
	assert.Equal(t, int64(7), result.Content.ID)
	assert.Equal(t, "published", result.Content.Status)
	assert.Equal(t, "editor1", result.Content.OwnerID)
	assert.Equal(t, "/admin/content/entries", result.RedirectURL)

	assert.Equal(t, repository.AuditActionInsert, recorded.Action)
	assert.Equal(t, int64(7), recorded.ContentID)
	assert.Equal(t, "initial import", recorded.Comment)
	assert.Nil(t, recorded.OldSnapshot)
	assert.NotEmpty(t, recorded.RequestID)

	messages := queue.Pending("editor1")
	assert.Len(t, messages, 1)
	assert.Equal(t, flash.LevelSuccess, messages[0].Level)
	assert.Equal(t, "The new entry has been saved.", messages[0].Text)

	repo.AssertExpectations(t)
	audit.AssertExpectations(t)
}

func TestSaveContent_UpdateKeepsOldSnapshot(t *testing.T) {
	repo := new(mockContentRepo)
	audit := new(mockAuditRepo)
	svc, queue, ct := newTestService(repo, audit, nil, i18n.LocaleEn)

	existing := blankEntry()
	existing.ID = 12
	existing.OwnerID = "editor1"
	existing.Title = "Old title"
	existing.Fields["title"] = "Old title"
	before := existing.Snapshot()

	repo.On("FindByID", "entries", int64(12)).Return(existing, nil)
	repo.On("Save", mock.AnythingOfType("*domain.Content")).Return(nil)

	var recorded *repository.AuditEntry
	audit.On("Record", mock.AnythingOfType("*repository.AuditEntry")).Run(func(args mock.Arguments) {
		recorded = args.Get(0).(*repository.AuditEntry)
	}).Return(nil)

	form := url.Values{"title": {"New title"}, "id": {"12"}}
	result, err := svc.SaveContent(&SaveRequest{ContentType: ct, ID: 12, Form: form}, editor)

	assert.NoError(t, err)
	assert.False(t, result.Created)
	assert.Equal(t, "New title", result.Content.Title)

	assert.Equal(t, repository.AuditActionUpdate, recorded.Action)
	assert.NotNil(t, recorded.OldSnapshot)

	var old map[string]interface{}
	assert.NoError(t, json.Unmarshal([]byte(*recorded.OldSnapshot), &old))
	assert.Equal(t, "Old title", old["title"])
	assert.Equal(t, before["title"], old["title"])

	var updated map[string]interface{}
	assert.NoError(t, json.Unmarshal([]byte(recorded.NewSnapshot), &updated))
	assert.Equal(t, "New title", updated["title"])

	messages := queue.Pending("editor1")
	assert.Len(t, messages, 1)
	assert.Equal(t, "The entry has been updated.", messages[0].Text)
}

func TestSaveContent_SpoofedIDAsyncRejects(t *testing.T) {
	repo := new(mockContentRepo)
	audit := new(mockAuditRepo)
	svc, _, ct := newTestService(repo, audit, nil, i18n.LocaleEn)

	existing := blankEntry()
	existing.ID = 5
	repo.On("FindByID", "entries", int64(5)).Return(existing, nil)

	form := url.Values{"id": {"9"}, "title": {"spoof"}}
	result, err := svc.SaveContent(&SaveRequest{ContentType: ct, ID: 5, Form: form, ReturnMode: ReturnModeAjax}, editor)

	assert.Nil(t, result)
	assert.ErrorIs(t, err, common.ErrSecurityViolation)
	repo.AssertNotCalled(t, "Save", mock.Anything)
	audit.AssertNotCalled(t, "Record", mock.Anything)
}

func TestSaveContent_SpoofedIDInteractiveRedirects(t *testing.T) {
	repo := new(mockContentRepo)
	audit := new(mockAuditRepo)
	svc, queue, ct := newTestService(repo, audit, nil, i18n.LocaleEn)

	existing := blankEntry()
	existing.ID = 5
	repo.On("FindByID", "entries", int64(5)).Return(existing, nil)

	form := url.Values{"id": {"9"}, "title": {"spoof"}}
	result, err := svc.SaveContent(&SaveRequest{ContentType: ct, ID: 5, Form: form}, editor)

	assert.NoError(t, err)
	assert.Equal(t, "/admin", result.RedirectURL)
	repo.AssertNotCalled(t, "Save", mock.Anything)

	messages := queue.Pending("editor1")
	assert.Len(t, messages, 1)
	assert.Equal(t, flash.LevelError, messages[0].Level)
}

func TestSaveContent_StatusClampedWithoutPublishLevel(t *testing.T) {
	repo := new(mockContentRepo)
	audit := new(mockAuditRepo)
	svc, _, ct := newTestService(repo, audit, nil, i18n.LocaleEn)

	contributor := domain.User{ID: "user2", Name: "Contributor", Level: 1}

	existing := blankEntry()
	existing.ID = 3
	existing.OwnerID = "user2"
	repo.On("FindByID", "entries", int64(3)).Return(existing, nil)
	repo.On("Save", mock.AnythingOfType("*domain.Content")).Return(nil)
	audit.On("Record", mock.Anything).Return(nil)

	form := url.Values{"id": {"3"}, "status": {"published"}, "title": {"try publish"}}
	result, err := svc.SaveContent(&SaveRequest{ContentType: ct, ID: 3, Form: form}, contributor)

	// the save still succeeds, only the transition is rolled back
	assert.NoError(t, err)
	assert.Equal(t, domain.StatusDraft, result.Content.Status)
}

func TestSaveContent_ReturnModeNewAnchors(t *testing.T) {
	repo := new(mockContentRepo)
	audit := new(mockAuditRepo)
	svc, _, ct := newTestService(repo, audit, nil, i18n.LocaleEn)

	repo.On("NewContent", "entries", "draft").Return(blankEntry())
	repo.On("Save", mock.AnythingOfType("*domain.Content")).Run(func(args mock.Arguments) {
		args.Get(0).(*domain.Content).ID = 21
	}).Return(nil)
	audit.On("Record", mock.Anything).Return(nil)

	form := url.Values{"title": {"x"}}
	result, err := svc.SaveContent(&SaveRequest{ContentType: ct, Form: form, ReturnMode: ReturnModeNew}, editor)

	assert.NoError(t, err)
	assert.Equal(t, "/admin/content/entries/edit/21#new", result.RedirectURL)
}

func TestSaveContent_SaveAndNewRedirectsToBlankForm(t *testing.T) {
	repo := new(mockContentRepo)
	audit := new(mockAuditRepo)
	svc, _, ct := newTestService(repo, audit, nil, i18n.LocaleEn)

	existing := blankEntry()
	existing.ID = 4
	repo.On("FindByID", "entries", int64(4)).Return(existing, nil)
	repo.On("Save", mock.Anything).Return(nil)
	audit.On("Record", mock.Anything).Return(nil)

	form := url.Values{"id": {"4"}, "title": {"x"}}
	result, err := svc.SaveContent(&SaveRequest{ContentType: ct, ID: 4, Form: form, ReturnMode: ReturnModeSaveAndNew}, editor)

	assert.NoError(t, err)
	assert.Equal(t, "/admin/content/entries/new", result.RedirectURL)
}

func TestSaveContent_AjaxReturnsSnapshotAndClearsFlashes(t *testing.T) {
	repo := new(mockContentRepo)
	audit := new(mockAuditRepo)
	svc, queue, ct := newTestService(repo, audit, nil, i18n.LocaleEn)

	repo.On("NewContent", "entries", "draft").Return(blankEntry())
	repo.On("Save", mock.AnythingOfType("*domain.Content")).Run(func(args mock.Arguments) {
		args.Get(0).(*domain.Content).ID = 8
	}).Return(nil)
	audit.On("Record", mock.Anything).Return(nil)

	form := url.Values{"title": {"Ajax entry"}}
	result, err := svc.SaveContent(&SaveRequest{ContentType: ct, Form: form, ReturnMode: ReturnModeAjax}, editor)

	assert.NoError(t, err)
	assert.Empty(t, result.RedirectURL)
	assert.Equal(t, int64(8), result.Payload["id"])
	assert.Equal(t, "Ajax entry", result.Payload["title"])
	assert.Contains(t, result.Payload, "datechanged")

	// the JSON answer already closed the interaction
	assert.Empty(t, queue.Pending("editor1"))
}

func TestSaveContent_TestModeKeepsFlashes(t *testing.T) {
	repo := new(mockContentRepo)
	audit := new(mockAuditRepo)
	svc, queue, ct := newTestService(repo, audit, nil, i18n.LocaleEn)

	repo.On("NewContent", "entries", "draft").Return(blankEntry())
	repo.On("Save", mock.Anything).Return(nil)
	audit.On("Record", mock.Anything).Return(nil)

	form := url.Values{"title": {"x"}}
	result, err := svc.SaveContent(&SaveRequest{ContentType: ct, Form: form, ReturnMode: ReturnModeTest}, editor)

	assert.NoError(t, err)
	assert.NotNil(t, result.Payload)
	assert.Len(t, queue.Pending("editor1"), 1)
}

func TestSaveContent_DefaultModeUsesReferrer(t *testing.T) {
	repo := new(mockContentRepo)
	audit := new(mockAuditRepo)
	svc, _, ct := newTestService(repo, audit, nil, i18n.LocaleEn)

	repo.On("NewContent", "entries", "draft").Return(blankEntry())
	repo.On("Save", mock.Anything).Return(nil)
	audit.On("Record", mock.Anything).Return(nil)

	form := url.Values{"title": {"x"}}
	result, err := svc.SaveContent(&SaveRequest{
		ContentType:  ct,
		Form:         form,
		EditReferrer: "/admin/content/entries?page=3",
	}, editor)

	assert.NoError(t, err)
	assert.Equal(t, "/admin/content/entries?page=3", result.RedirectURL)
}

func TestSaveContent_CommaDecimalRoundTrip(t *testing.T) {
	repo := new(mockContentRepo)
	audit := new(mockAuditRepo)
	svc, _, ct := newTestService(repo, audit, nil, i18n.LocaleDe)

	repo.On("NewContent", "entries", "draft").Return(blankEntry())
	repo.On("Save", mock.AnythingOfType("*domain.Content")).Run(func(args mock.Arguments) {
		args.Get(0).(*domain.Content).ID = 2
	}).Return(nil)
	audit.On("Record", mock.Anything).Return(nil)

	form := url.Values{"title": {"Preis"}, "price": {"12,50"}}
	result, err := svc.SaveContent(&SaveRequest{ContentType: ct, Form: form, ReturnMode: ReturnModeTest}, editor)

	assert.NoError(t, err)
	// stored canonical, rendered localized
	assert.Equal(t, "12.50", result.Content.Fields["price"])
	assert.Equal(t, "12,50", result.Payload["price"])
}

func TestSaveContent_NotFound(t *testing.T) {
	repo := new(mockContentRepo)
	audit := new(mockAuditRepo)
	svc, _, ct := newTestService(repo, audit, nil, i18n.LocaleEn)

	repo.On("FindByID", "entries", int64(99)).Return(nil, gorm.ErrRecordNotFound)

	_, err := svc.SaveContent(&SaveRequest{ContentType: ct, ID: 99, Form: url.Values{}}, editor)
	assert.ErrorIs(t, err, common.ErrContentNotFound)
}

func TestSaveContent_LoadFailureIsNotA404(t *testing.T) {
	repo := new(mockContentRepo)
	audit := new(mockAuditRepo)
	svc, _, ct := newTestService(repo, audit, nil, i18n.LocaleEn)

	repo.On("FindByID", "entries", int64(99)).Return(nil, errors.New("dial tcp: connection refused"))

	_, err := svc.SaveContent(&SaveRequest{ContentType: ct, ID: 99, Form: url.Values{}}, editor)
	assert.ErrorIs(t, err, common.ErrPersistence)
	assert.NotErrorIs(t, err, common.ErrContentNotFound)
}

func TestSaveContent_UnparsableFormIDRejected(t *testing.T) {
	repo := new(mockContentRepo)
	audit := new(mockAuditRepo)
	svc, _, ct := newTestService(repo, audit, nil, i18n.LocaleEn)

	existing := blankEntry()
	existing.ID = 5
	repo.On("FindByID", "entries", int64(5)).Return(existing, nil)

	// a malformed id is a mismatch, not an absent one
	form := url.Values{"id": {"abc"}, "title": {"spoof"}}
	_, err := svc.SaveContent(&SaveRequest{ContentType: ct, ID: 5, Form: form, ReturnMode: ReturnModeAjax}, editor)

	assert.ErrorIs(t, err, common.ErrSecurityViolation)
	repo.AssertNotCalled(t, "Save", mock.Anything)
}

func TestSaveContent_PersistenceErrorWrapped(t *testing.T) {
	repo := new(mockContentRepo)
	audit := new(mockAuditRepo)
	svc, _, ct := newTestService(repo, audit, nil, i18n.LocaleEn)

	repo.On("NewContent", "entries", "draft").Return(blankEntry())
	repo.On("Save", mock.Anything).Return(errors.New("disk full"))

	_, err := svc.SaveContent(&SaveRequest{ContentType: ct, Form: url.Values{"title": {"x"}}}, editor)
	assert.ErrorIs(t, err, common.ErrPersistence)
	audit.AssertNotCalled(t, "Record", mock.Anything)
}

func TestSaveContent_HooksFilterAndWarn(t *testing.T) {
	repo := new(mockContentRepo)
	audit := new(mockAuditRepo)

	hooks := hook.NewManager()
	hooks.RegisterFilter("force-teaser", func(contentType string, fields domain.FieldValues) domain.FieldValues {
		fields["body"] = "filtered"
		return fields
	}, 10)
	hooks.RegisterAction("link-check", func(contentType string, content *domain.Content, created bool) []string {
		return []string{"body contains no links"}
	}, 10)

	svc, _, ct := newTestService(repo, audit, hooks, i18n.LocaleEn)

	repo.On("NewContent", "entries", "draft").Return(blankEntry())
	repo.On("Save", mock.Anything).Return(nil)
	audit.On("Record", mock.Anything).Return(nil)

	form := url.Values{"title": {"x"}, "body": {"original"}}
	result, err := svc.SaveContent(&SaveRequest{ContentType: ct, Form: form}, editor)

	assert.NoError(t, err)
	assert.Equal(t, "filtered", result.Content.Fields["body"])
	assert.Equal(t, []string{"body contains no links"}, result.Warnings)
}

func TestSaveContent_RelationIDsResolved(t *testing.T) {
	repo := new(mockContentRepo)
	audit := new(mockAuditRepo)
	svc, _, ct := newTestService(repo, audit, nil, i18n.LocaleEn)

	repo.On("NewContent", "entries", "draft").Return(blankEntry())
	repo.On("FilterExisting", "pages", []int64{3, 99, 4}).Return([]int64{3, 4}, nil)
	repo.On("Save", mock.Anything).Return(nil)
	audit.On("Record", mock.Anything).Return(nil)

	form := url.Values{"title": {"x"}, "related": {"3", "99", "4"}}
	result, err := svc.SaveContent(&SaveRequest{ContentType: ct, Form: form}, editor)

	assert.NoError(t, err)
	assert.Equal(t, []int64{3, 4}, result.Content.Relations["pages"])
}

func TestGetContent_NotFound(t *testing.T) {
	repo := new(mockContentRepo)
	audit := new(mockAuditRepo)
	svc, _, _ := newTestService(repo, audit, nil, i18n.LocaleEn)

	repo.On("FindByID", "entries", int64(1)).Return(nil, gorm.ErrRecordNotFound)

	_, err := svc.GetContent("entries", 1)
	assert.ErrorIs(t, err, common.ErrContentNotFound)
}

func TestGetContent_LoadFailureIsPersistence(t *testing.T) {
	repo := new(mockContentRepo)
	audit := new(mockAuditRepo)
	svc, _, _ := newTestService(repo, audit, nil, i18n.LocaleEn)

	repo.On("FindByID", "entries", int64(1)).Return(nil, errors.New("dial tcp: connection refused"))

	_, err := svc.GetContent("entries", 1)
	assert.ErrorIs(t, err, common.ErrPersistence)
	assert.NotErrorIs(t, err, common.ErrContentNotFound)
}

func TestListContent_PaginationDefaults(t *testing.T) {
	repo := new(mockContentRepo)
	audit := new(mockAuditRepo)
	svc, _, _ := newTestService(repo, audit, nil, i18n.LocaleEn)

	repo.On("List", "entries", 1, 20).Return([]*domain.Content{}, int64(0), nil)

	// page < 1 → 1, limit > 100 → 20
	_, meta, err := svc.ListContent("entries", -1, 500)
	assert.NoError(t, err)
	assert.Equal(t, 1, meta.Page)
	assert.Equal(t, 20, meta.Limit)
	repo.AssertExpectations(t)
}
