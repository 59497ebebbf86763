package domain

import (
	"time"
)

// Content statuses
const (
	StatusDraft     = "draft"
	StatusHeld      = "held"
	StatusTimed     = "timed"
	StatusPublished = "published"
)

// ValidStatus reports whether s is one of the known content statuses
func ValidStatus(s string) bool {
	switch s {
	case StatusDraft, StatusHeld, StatusTimed, StatusPublished:
		return true
	}
	return false
}

// FieldValues field name → value mapping for a content record
type FieldValues map[string]interface{}

// Content represents a single content record
type Content struct {
	ID          int64               `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	ContentType string              `gorm:"column:content_type;type:varchar(50);index" json:"contenttype"`
	Status      string              `gorm:"column:status;type:varchar(20);default:'draft'" json:"status"`
	OwnerID     string              `gorm:"column:owner_id;type:varchar(50);index" json:"ownerid"`
	Title       string              `gorm:"column:title;type:varchar(255)" json:"title"`
	Fields      FieldValues         `gorm:"column:fields;serializer:json" json:"fields"`
	Relations   map[string][]int64  `gorm:"column:relations;serializer:json" json:"relations"`
	Taxonomy    map[string][]string `gorm:"column:taxonomy;serializer:json" json:"taxonomy"`
	DateCreated time.Time           `gorm:"column:date_created;autoCreateTime" json:"datecreated"`
	DateChanged time.Time           `gorm:"column:date_changed;autoUpdateTime" json:"datechanged"`
}

func (Content) TableName() string { return "contents" }

// Snapshot returns a flat copy of the record suitable for audit logging.
// The copy is detached: mutating the record afterwards does not change it.
func (c *Content) Snapshot() FieldValues {
	snap := FieldValues{
		"id":          c.ID,
		"contenttype": c.ContentType,
		"status":      c.Status,
		"ownerid":     c.OwnerID,
		"title":       c.Title,
	}
	for k, v := range c.Fields {
		snap[k] = v
	}
	if len(c.Relations) > 0 {
		rels := make(map[string][]int64, len(c.Relations))
		for k, ids := range c.Relations {
			rels[k] = append([]int64(nil), ids...)
		}
		snap["relation"] = rels
	}
	if len(c.Taxonomy) > 0 {
		tax := make(map[string][]string, len(c.Taxonomy))
		for k, vals := range c.Taxonomy {
			tax[k] = append([]string(nil), vals...)
		}
		snap["taxonomy"] = tax
	}
	return snap
}

// SetField stores a single field value, mirroring title into the
// dedicated column so listings don't need to unpack the JSON blob
func (c *Content) SetField(name string, value interface{}) {
	if c.Fields == nil {
		c.Fields = FieldValues{}
	}
	c.Fields[name] = value
	if name == "title" {
		if s, ok := value.(string); ok {
			c.Title = s
		}
	}
}
