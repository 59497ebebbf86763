package domain

import "strings"

// FieldKind is the classification of a content type field, resolved
// once from the schema at load time rather than inferred per value
type FieldKind int

const (
	KindValue FieldKind = iota
	KindFloat
	KindCheckbox
	KindMultiSelect
	KindTaxonomy
	KindRelation
)

// FieldDef describes one field of a content type
type FieldDef struct {
	Type    string   `yaml:"type"`
	Target  string   `yaml:"target,omitempty"`  // relation fields: the referenced content type
	Values  []string `yaml:"values,omitempty"`  // multiselect options
	Default string   `yaml:"default,omitempty"` // default value for plain fields

	kind FieldKind
}

// Kind returns the resolved classification of the field
func (d *FieldDef) Kind() FieldKind { return d.kind }

// ContentType is the static descriptor of one content type. It is
// loaded from configuration and never mutated by the save path.
type ContentType struct {
	Slug                 string               `yaml:"-"`
	Name                 string               `yaml:"name"`
	SingularName         string               `yaml:"singular_name"`
	DefaultStatus        string               `yaml:"default_status"`
	PublishLevel         int                  `yaml:"publish_level"`
	ChangeOwnershipLevel int                  `yaml:"change_ownership_level"`
	Fields               map[string]*FieldDef `yaml:"fields"`
}

// Normalize fills in derived data after unmarshalling: the slug, the
// per-field classification and sane defaults for missing settings
func (ct *ContentType) Normalize(slug string) {
	ct.Slug = slug
	if ct.SingularName == "" {
		ct.SingularName = strings.TrimSuffix(ct.Name, "s")
	}
	if !ValidStatus(ct.DefaultStatus) {
		ct.DefaultStatus = StatusDraft
	}
	if ct.PublishLevel == 0 {
		ct.PublishLevel = 4
	}
	if ct.ChangeOwnershipLevel == 0 {
		ct.ChangeOwnershipLevel = 8
	}
	for _, def := range ct.Fields {
		switch def.Type {
		case "float":
			def.kind = KindFloat
		case "checkbox":
			def.kind = KindCheckbox
		case "multiselect":
			def.kind = KindMultiSelect
		case "taxonomy":
			def.kind = KindTaxonomy
		case "relation":
			def.kind = KindRelation
		default:
			def.kind = KindValue
		}
	}
}

// Field returns the definition for a field name, nil when the content
// type does not define it
func (ct *ContentType) Field(name string) *FieldDef {
	return ct.Fields[name]
}

// ContentTypes is the registry of all configured content types
type ContentTypes struct {
	types map[string]*ContentType
}

// NewContentTypes builds a registry from normalized descriptors
func NewContentTypes(types map[string]*ContentType) *ContentTypes {
	return &ContentTypes{types: types}
}

// Get looks up a content type by slug
func (r *ContentTypes) Get(slug string) (*ContentType, bool) {
	ct, ok := r.types[slug]
	return ct, ok
}

// Slugs returns all registered content type slugs
func (r *ContentTypes) Slugs() []string {
	slugs := make([]string, 0, len(r.types))
	for slug := range r.types {
		slugs = append(slugs, slug)
	}
	return slugs
}
