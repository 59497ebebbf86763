package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/quillcms/quill-backend/internal/common"
	"github.com/quillcms/quill-backend/internal/domain"
	"github.com/quillcms/quill-backend/internal/middleware"
	"github.com/quillcms/quill-backend/internal/service"
	"github.com/quillcms/quill-backend/pkg/ginutil"
)

type ContentHandler struct {
	service service.ContentService
	types   *domain.ContentTypes
}

func NewContentHandler(svc service.ContentService, types *domain.ContentTypes) *ContentHandler {
	return &ContentHandler{service: svc, types: types}
}

// SaveContent - 콘텐츠 저장 (POST /api/v1/content/:contenttype/:id/save)
// The :id segment is either "new" or a numeric record id.
func (h *ContentHandler) SaveContent(c *gin.Context) {
	ct, ok := h.resolveType(c)
	if !ok {
		return
	}

	var id int64
	if raw := c.Param("id"); raw != "new" {
		parsed, err := ginutil.ParamInt64(c, "id")
		if err != nil || parsed < 1 {
			common.ErrorResponse(c, http.StatusBadRequest, "Invalid content id", err)
			return
		}
		id = parsed
	}

	if err := c.Request.ParseForm(); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid form body", err)
		return
	}
	form := c.Request.PostForm

	req := &service.SaveRequest{
		ContentType:  ct,
		ID:           id,
		Form:         form,
		ReturnMode:   form.Get("returnto"),
		EditReferrer: form.Get("editreferrer"),
	}

	result, err := h.service.SaveContent(req, middleware.CurrentUser(c))
	if err != nil {
		h.saveError(c, err)
		return
	}

	action := "update"
	if result.Created {
		action = "insert"
	}
	middleware.CountContentSave(ct.Slug, action)

	if result.Payload != nil {
		if len(result.Warnings) > 0 {
			result.Payload["warnings"] = result.Warnings
		}
		common.SuccessResponse(c, result.Payload, &common.Meta{ContentType: ct.Slug})
		return
	}

	c.Redirect(http.StatusFound, result.RedirectURL)
}

// GetContent - 단일 콘텐츠 조회 (GET /api/v1/content/:contenttype/:id)
func (h *ContentHandler) GetContent(c *gin.Context) {
	ct, ok := h.resolveType(c)
	if !ok {
		return
	}

	id, err := ginutil.ParamInt64(c, "id")
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid content id", err)
		return
	}

	content, err := h.service.GetContent(ct.Slug, id)
	if err != nil {
		if errors.Is(err, common.ErrContentNotFound) {
			common.ErrorResponse(c, http.StatusNotFound, "Content not found", err)
			return
		}
		common.ErrorResponse(c, http.StatusInternalServerError, "Failed to fetch content", err)
		return
	}

	common.SuccessResponse(c, content, &common.Meta{ContentType: ct.Slug})
}

// ListContent - 콘텐츠 목록 조회 (GET /api/v1/content/:contenttype)
func (h *ContentHandler) ListContent(c *gin.Context) {
	ct, ok := h.resolveType(c)
	if !ok {
		return
	}

	page := ginutil.QueryInt(c, "page", 1)
	limit := ginutil.QueryInt(c, "limit", 20)

	contents, meta, err := h.service.ListContent(ct.Slug, page, limit)
	if err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, "Failed to fetch contents", err)
		return
	}

	common.SuccessResponse(c, contents, meta)
}

// ListAudit - 콘텐츠 변경 이력 조회 (GET /api/v1/content/:contenttype/:id/audit)
func (h *ContentHandler) ListAudit(c *gin.Context) {
	ct, ok := h.resolveType(c)
	if !ok {
		return
	}

	id, err := ginutil.ParamInt64(c, "id")
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid content id", err)
		return
	}

	limit := ginutil.QueryInt(c, "limit", 20)

	entries, err := h.service.ListAudit(ct.Slug, id, limit)
	if err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, "Failed to fetch audit log", err)
		return
	}

	common.SuccessResponse(c, entries, &common.Meta{ContentType: ct.Slug})
}

// ListContentTypes - 등록된 콘텐츠 타입 목록 (GET /api/v1/contenttypes)
func (h *ContentHandler) ListContentTypes(c *gin.Context) {
	common.SuccessResponse(c, h.types.Slugs(), nil)
}

func (h *ContentHandler) resolveType(c *gin.Context) (*domain.ContentType, bool) {
	slug := c.Param("contenttype")
	ct, found := h.types.Get(slug)
	if !found {
		common.ErrorResponse(c, http.StatusNotFound, "Unknown content type", common.ErrContentTypeUnknown)
		return nil, false
	}
	return ct, true
}

func (h *ContentHandler) saveError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrSecurityViolation):
		common.ErrorResponse(c, http.StatusConflict, "Form does not match the requested record", err)
	case errors.Is(err, common.ErrAccessControl):
		common.ErrorResponse(c, http.StatusForbidden, "Not allowed to change ownership", err)
	case errors.Is(err, common.ErrContentNotFound):
		common.ErrorResponse(c, http.StatusNotFound, "Content not found", err)
	case errors.Is(err, common.ErrInvalidInput):
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid field value", err)
	case errors.Is(err, common.ErrPersistence):
		common.ErrorResponse(c, http.StatusInternalServerError, "Failed to persist content", err)
	default:
		common.ErrorResponse(c, http.StatusInternalServerError, "Failed to save content", err)
	}
}
