package service

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/quillcms/quill-backend/internal/common"
	"github.com/quillcms/quill-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// transportKeys travel with the form but are not content fields.
// They are stripped after sanitation.
var transportKeys = map[string]bool{
	"contenttype":  true,
	"editcomment":  true,
	"id":           true,
	"returnto":     true,
	"editreferrer": true,
}

// RelationResolver resolves submitted relation ids against the target
// content type's store, dropping ids that do not exist
type RelationResolver interface {
	FilterExisting(contentType string, ids []int64) ([]int64, error)
}

// SanitizeFormValues normalizes raw posted values per HTML form
// semantics against the content type's field schema:
//   - float fields accept comma or dot decimal separators, stored with dot
//   - absent checkbox fields become 0 (unchecked boxes never POST)
//   - absent multiselect fields become an empty set
//   - empty strings become explicit nil values
//   - transport-only keys are stripped
func SanitizeFormValues(ct *domain.ContentType, form url.Values) (domain.FieldValues, error) {
	values := domain.FieldValues{}

	// Schema fields first, so checkbox/multiselect defaults apply even
	// when the key is missing from the POST body
	for name, def := range ct.Fields {
		raw, present := form[name]

		switch def.Kind() {
		case domain.KindCheckbox:
			if !present {
				values[name] = 0
			} else {
				values[name] = checkboxValue(raw[0])
			}
		case domain.KindMultiSelect:
			if !present {
				values[name] = []string{}
			} else {
				values[name] = append([]string(nil), raw...)
			}
		case domain.KindTaxonomy, domain.KindRelation:
			// only applied when actually submitted, so a partial form
			// does not wipe existing relations
			if present {
				values[name] = append([]string(nil), raw...)
			}
		case domain.KindFloat:
			if !present {
				continue
			}
			normalized, err := normalizeDecimal(raw[0])
			if err != nil {
				return nil, fmt.Errorf("%w: field %q: %v", common.ErrInvalidInput, name, err)
			}
			values[name] = normalized
		default:
			if !present {
				continue
			}
			if raw[0] == "" {
				values[name] = nil
			} else {
				values[name] = raw[0]
			}
		}
	}

	// Unknown keys still become plain field values
	for name, raw := range form {
		if transportKeys[name] || name == "status" || name == "ownerid" {
			continue
		}
		if _, seen := values[name]; seen {
			continue
		}
		if ct.Field(name) != nil {
			continue
		}
		if len(raw) == 0 || raw[0] == "" {
			values[name] = nil
		} else {
			values[name] = raw[0]
		}
	}

	return values, nil
}

// ApplyFormValues mutates the record in place from sanitized form
// values, enforcing ownership rules and the status fallback
func ApplyFormValues(record *domain.Content, ct *domain.ContentType, form url.Values, user domain.User, resolver RelationResolver, perms PermissionChecker) error {
	values, err := SanitizeFormValues(ct, form)
	if err != nil {
		return err
	}

	// Ownership: new records belong to the current user; explicit
	// owner changes on existing records need the scoped capability
	if record.ID == 0 {
		record.OwnerID = user.ID
	} else if owner := form.Get("ownerid"); owner != "" && owner != record.OwnerID {
		capability := fmt.Sprintf("contenttype:%s:%s:%d", ct.Slug, CapChangeOwnership, record.ID)
		if !perms.IsAllowed(capability, user) {
			return common.ErrAccessControl
		}
		record.OwnerID = owner
	}

	// Status fallback: anything outside the known set keeps the
	// record's current status, or draft when it never had one
	if submitted := form.Get("status"); domain.ValidStatus(submitted) {
		record.Status = submitted
	} else if !domain.ValidStatus(record.Status) {
		record.Status = domain.StatusDraft
	}

	// Dispatch by the schema-resolved classification
	for name, value := range values {
		def := ct.Field(name)
		if def == nil {
			record.SetField(name, value)
			continue
		}

		switch def.Kind() {
		case domain.KindRelation:
			ids := parseIDList(value)
			resolved, err := resolver.FilterExisting(def.Target, ids)
			if err != nil {
				return err
			}
			if record.Relations == nil {
				record.Relations = map[string][]int64{}
			}
			record.Relations[def.Target] = resolved
		case domain.KindTaxonomy:
			if record.Taxonomy == nil {
				record.Taxonomy = map[string][]string{}
			}
			record.Taxonomy[name] = value.([]string)
		default:
			record.SetField(name, value)
		}
	}

	return nil
}

// normalizeDecimal accepts "12,50" and "12.50" and returns the
// dot-separated canonical form
func normalizeDecimal(s string) (string, error) {
	normalized := strings.Replace(strings.TrimSpace(s), ",", ".", 1)
	if _, err := decimal.NewFromString(normalized); err != nil {
		return "", err
	}
	return normalized, nil
}

// renderCommaDecimal is the inverse of normalizeDecimal for locales
// whose decimal convention uses a comma
func renderCommaDecimal(v interface{}) interface{} {
	s, ok := v.(string)
	if !ok {
		return v
	}
	return strings.Replace(s, ".", ",", 1)
}

// checkboxValue maps posted checkbox values onto 1/0
func checkboxValue(raw string) int {
	switch strings.ToLower(raw) {
	case "", "0", "false", "off":
		return 0
	default:
		return 1
	}
}

// parseIDList converts sanitized relation values into int64 ids,
// ignoring entries that are not numeric
func parseIDList(value interface{}) []int64 {
	raw, ok := value.([]string)
	if !ok {
		return nil
	}
	ids := make([]int64, 0, len(raw))
	for _, item := range raw {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		id, err := strconv.ParseInt(item, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
