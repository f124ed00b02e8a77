// Package entity is the generic CRUD machinery behind the console's
// management screens. One handler implementation serves every entity
// type; each feature plugin supplies only a Schema describing its fields,
// its upstream path, and its list shape. Requests are validated and
// sanitized here, then proxied to the upstream backend.
package entity

import (
	"fmt"
	"strings"

	"github.com/keyxmakerx/steward/internal/apperror"
	"github.com/keyxmakerx/steward/internal/sanitize"
)

// Field describes one writable attribute of an entity.
type Field struct {
	// Name is the JSON key of the attribute.
	Name string

	// Required fields must be present and non-empty on create.
	Required bool

	// MaxLen bounds string values. Zero means unbounded.
	MaxLen int
}

// Schema describes one entity type managed through the console.
type Schema struct {
	// Name is the plural route segment, e.g. "users" -> /api/users.
	Name string

	// Singular names one record in messages, e.g. "user".
	Singular string

	// BasePath is the upstream collection path, e.g. "/api/users".
	BasePath string

	// Paginated selects the list shape: a {list,total,page,pageSize}
	// page, or a plain array (the menu tree).
	Paginated bool

	// Fields are the writable attributes. Keys not listed here are
	// rejected so the console never proxies attributes it doesn't know.
	Fields []Field
}

// field looks up a schema field by name.
func (s Schema) field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// ValidateWrite checks a decoded create/update body against the schema
// and sanitizes its string values in place. requireAll is true for
// creates; updates may send a subset of fields.
func (s Schema) ValidateWrite(body map[string]any, requireAll bool) error {
	if len(body) == 0 {
		return apperror.NewValidation(fmt.Sprintf("%s data is required", s.Singular))
	}

	for key, value := range body {
		f, known := s.field(key)
		if !known {
			return apperror.NewValidation(fmt.Sprintf("unknown %s field %q", s.Singular, key))
		}
		if str, ok := value.(string); ok {
			if f.MaxLen > 0 && len(str) > f.MaxLen {
				return apperror.NewValidation(fmt.Sprintf("%s must be at most %d characters", f.Name, f.MaxLen))
			}
		}
	}

	if requireAll {
		for _, f := range s.Fields {
			if !f.Required {
				continue
			}
			value, present := body[f.Name]
			if !present {
				return apperror.NewValidation(fmt.Sprintf("%s is required", f.Name))
			}
			if str, ok := value.(string); ok && strings.TrimSpace(str) == "" {
				return apperror.NewValidation(fmt.Sprintf("%s is required", f.Name))
			}
		}
	}

	sanitize.Fields(body)
	return nil
}
