package service

import (
	"strings"

	"github.com/quillcms/quill-backend/internal/domain"
)

// CapChangeOwnership capability suffix for handing a record to another
// owner, scoped as "contenttype:<slug>:change-ownership[:<id>]"
const CapChangeOwnership = "change-ownership"

// PermissionChecker answers whether a status transition or a scoped
// capability is allowed for a user
type PermissionChecker interface {
	CanTransitionStatus(oldStatus, newStatus, contentType string, id int64, user domain.User) bool
	IsAllowed(capability string, user domain.User) bool
}

// LevelPermissionChecker checks permissions against the level
// thresholds configured on each content type descriptor
type LevelPermissionChecker struct {
	types *domain.ContentTypes
}

// NewLevelPermissionChecker creates a new permission checker
func NewLevelPermissionChecker(types *domain.ContentTypes) *LevelPermissionChecker {
	return &LevelPermissionChecker{types: types}
}

// CanTransitionStatus reports whether the user may move a record from
// oldStatus to newStatus. Transitions touching the publicly visible
// statuses (published, timed) require the content type's publish
// level; everything between draft and held is free.
func (c *LevelPermissionChecker) CanTransitionStatus(oldStatus, newStatus, contentType string, id int64, user domain.User) bool {
	if oldStatus == newStatus {
		return true
	}
	if user.IsAdmin() {
		return true
	}

	ct, ok := c.types.Get(contentType)
	if !ok {
		return false
	}

	if visibleStatus(oldStatus) || visibleStatus(newStatus) {
		return user.Level >= ct.PublishLevel
	}
	return true
}

// IsAllowed evaluates a scoped capability key. Unknown keys deny.
func (c *LevelPermissionChecker) IsAllowed(capability string, user domain.User) bool {
	if user.IsAdmin() {
		return true
	}

	parts := strings.Split(capability, ":")
	if len(parts) < 3 || parts[0] != "contenttype" {
		return false
	}

	ct, ok := c.types.Get(parts[1])
	if !ok {
		return false
	}

	switch parts[2] {
	case CapChangeOwnership:
		return user.Level >= ct.ChangeOwnershipLevel
	case "publish":
		return user.Level >= ct.PublishLevel
	default:
		return false
	}
}

// visibleStatus reports whether the status exposes the record to the
// public site, now or scheduled
func visibleStatus(status string) bool {
	return status == domain.StatusPublished || status == domain.StatusTimed
}
