package domain

import (
	"regexp"
	"sort"
	"strings"
	"time"
)

// Project is a tenant's editable brand site record, keyed by ProjectID.
// Content items keep the order in which keys were first written.
type Project struct {
	ProjectID string        `json:"projectId"`
	Name      string        `json:"name"`
	Settings  string        `json:"settings,omitempty"`
	Content   []ContentItem `json:"content,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// ContentItem is one named field of site content.
type ContentItem struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Metadata carries the project fields that live next to content in the
// editable form state. Nil fields are left untouched on update.
type Metadata struct {
	Name     *string
	Settings *string
}

// Empty reports whether the update would change nothing.
func (m Metadata) Empty() bool {
	return m.Name == nil && m.Settings == nil
}

// Reserved form keys. They never reach the content table and never affect
// the public fingerprint.
const (
	KeyName      = "name"
	KeySettings  = "settings"
	KeyProjectID = "projectId"

	// InternalPrefix marks form fields private to the editor.
	InternalPrefix = "_"
)

// ReservedKeys enumerates the metadata keys of the form state.
var ReservedKeys = map[string]struct{}{
	KeyName:      {},
	KeySettings:  {},
	KeyProjectID: {},
}

// IsReserved reports whether key is one of the metadata keys.
func IsReserved(key string) bool {
	_, ok := ReservedKeys[key]
	return ok
}

// IsInternal reports whether key is an editor-private field.
func IsInternal(key string) bool {
	return strings.HasPrefix(key, InternalPrefix)
}

var projectIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidProjectID reports whether id is a URL-safe project identifier.
func ValidProjectID(id string) bool {
	return projectIDPattern.MatchString(id)
}

// Form is the editable form state submitted by a client: content fields and
// metadata fields flattened into one string mapping.
type Form map[string]string

// Split separates the form into content items and metadata. Items are
// returned sorted by key so repeated saves write in a stable order.
// projectId is ignored; the target project comes from the route. Internal
// fields are transient editor state and are dropped.
func (f Form) Split() ([]ContentItem, Metadata, error) {
	var meta Metadata
	keys := make([]string, 0, len(f))
	for k := range f {
		if strings.TrimSpace(k) == "" {
			return nil, Metadata{}, ErrValidation
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	items := make([]ContentItem, 0, len(keys))
	for _, k := range keys {
		v := f[k]
		switch k {
		case KeyName:
			meta.Name = &v
		case KeySettings:
			meta.Settings = &v
		case KeyProjectID:
		default:
			if IsInternal(k) {
				continue
			}
			items = append(items, ContentItem{Key: k, Value: v})
		}
	}
	return items, meta, nil
}

// ValidateItems rejects items with an empty or whitespace-only key and
// duplicate keys within one batch.
func ValidateItems(items []ContentItem) error {
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		if strings.TrimSpace(it.Key) == "" {
			return ErrValidation
		}
		if _, dup := seen[it.Key]; dup {
			return ErrDuplicateKey
		}
		seen[it.Key] = struct{}{}
	}
	return nil
}
