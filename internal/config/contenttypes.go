package config

import (
	"fmt"
	"os"

	"github.com/quillcms/quill-backend/internal/domain"
	"gopkg.in/yaml.v3"
)

type contentTypesFile struct {
	ContentTypes map[string]*domain.ContentType `yaml:"contenttypes"`
}

// LoadContentTypes reads the content type descriptors from a YAML file
// and returns a normalized registry
func LoadContentTypes(path string) (*domain.ContentTypes, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read content types %s: %w", path, err)
	}
	return ParseContentTypes(data)
}

// ParseContentTypes parses content type descriptors from raw YAML
func ParseContentTypes(data []byte) (*domain.ContentTypes, error) {
	var file contentTypesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse content types: %w", err)
	}
	if len(file.ContentTypes) == 0 {
		return nil, fmt.Errorf("no content types defined")
	}
	for slug, ct := range file.ContentTypes {
		ct.Normalize(slug)
	}
	return domain.NewContentTypes(file.ContentTypes), nil
}
