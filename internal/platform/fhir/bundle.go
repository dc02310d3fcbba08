package fhir

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Bundle represents a FHIR searchset Bundle. Entry resources are kept raw and
// decoded by the caller into the expected resource type.
type Bundle struct {
	ResourceType string        `json:"resourceType"`
	ID           string        `json:"id,omitempty"`
	Type         string        `json:"type"`
	Total        *int          `json:"total,omitempty"`
	Link         []BundleLink  `json:"link,omitempty"`
	Entry        []BundleEntry `json:"entry,omitempty"`
}

type BundleLink struct {
	Relation string `json:"relation"`
	URL      string `json:"url"`
}

type BundleEntry struct {
	FullURL  string          `json:"fullUrl,omitempty"`
	Resource json.RawMessage `json:"resource,omitempty"`
}

// DecodeEntries unmarshals every entry resource of b into a T. Entries whose
// resourceType differs from resourceType (for example _include results or
// OperationOutcome warnings) are skipped.
func DecodeEntries[T any](b *Bundle, resourceType string) ([]T, error) {
	out := make([]T, 0, len(b.Entry))
	for i, e := range b.Entry {
		if len(e.Resource) == 0 {
			continue
		}
		var head Resource
		if err := json.Unmarshal(e.Resource, &head); err != nil {
			return nil, fmt.Errorf("decode bundle entry %d: %w", i, err)
		}
		if head.ResourceType != resourceType {
			continue
		}
		var v T
		if err := json.Unmarshal(e.Resource, &v); err != nil {
			return nil, fmt.Errorf("decode %s entry %d: %w", resourceType, i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// TotalOr returns the bundle total, or fallback when the server omitted it.
func (b *Bundle) TotalOr(fallback int) int {
	if b.Total == nil {
		return fallback
	}
	return *b.Total
}

// ParseReference splits "Type/id" into its parts. Absolute URLs and version
// suffixes ("Patient/1/_history/2") are reduced to the type and id.
func ParseReference(ref string) (resourceType, id string, ok bool) {
	if i := strings.Index(ref, "/_history/"); i >= 0 {
		ref = ref[:i]
	}
	parts := strings.Split(strings.TrimRight(ref, "/"), "/")
	if len(parts) < 2 {
		return "", "", false
	}
	resourceType, id = parts[len(parts)-2], parts[len(parts)-1]
	if resourceType == "" || id == "" {
		return "", "", false
	}
	return resourceType, id, true
}
