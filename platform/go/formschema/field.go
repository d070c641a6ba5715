// Package formschema models the ordered, owner-defined list of inputs a public
// lead form presents, and interprets lead submissions against it.
package formschema

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FieldType enumerates the supported input kinds.
type FieldType string

const (
	TypeText     FieldType = "text"
	TypeEmail    FieldType = "email"
	TypePhone    FieldType = "phone"
	TypeDate     FieldType = "date"
	TypeSelect   FieldType = "select"
	TypeTextarea FieldType = "textarea"
)

// FieldTypes lists every valid FieldType in display order.
var FieldTypes = []FieldType{TypeText, TypeEmail, TypePhone, TypeDate, TypeTextarea, TypeSelect}

// Valid reports whether t is a member of the enum.
func (t FieldType) Valid() bool {
	for _, known := range FieldTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ParseFieldType validates and converts raw input.
func ParseFieldType(s string) (FieldType, error) {
	t := FieldType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidType, s)
	}
	return t, nil
}

// InputType maps the field type to the HTML input type a renderer emits.
// textarea and select are returned as-is; renderers use dedicated elements for them.
func (t FieldType) InputType() string {
	if t == TypePhone {
		return "tel"
	}
	return string(t)
}

var (
	ErrBlankLabel     = errors.New("field label is required")
	ErrInvalidType    = errors.New("invalid field type")
	ErrProtectedField = errors.New("field is protected")
	ErrLockedType     = errors.New("field type is locked")
	ErrFieldNotFound  = errors.New("form field not found")
)

// Field is one entry of a profile's form schema.
type Field struct {
	ID         uuid.UUID
	ProfileID  uuid.UUID
	Label      string
	Key        string
	Type       FieldType
	Required   bool
	Options    []string
	OrderIndex int
	CreatedAt  time.Time
}

func (f Field) ItemID() uuid.UUID { return f.ID }
func (f Field) SortIndex() int    { return f.OrderIndex }

func (f Field) WithSortIndex(index int) Field {
	f.OrderIndex = index
	return f
}

// Protected reports whether the field can never be deleted.
func (f Field) Protected() bool {
	return IsProtectedKey(f.Key)
}

var protectedKeys = map[string]struct{}{
	"email":        {},
	"phone":        {},
	"whatsapp":     {},
	"request_type": {},
}

// lockedTypes pins the type of protected keys whose downstream handling depends on it.
var lockedTypes = map[string]FieldType{
	"email": TypeEmail,
	"phone": TypePhone,
}

// IsProtectedKey reports whether key belongs to the protected set.
func IsProtectedKey(key string) bool {
	_, ok := protectedKeys[key]
	return ok
}

// LockedType returns the type a key is pinned to, if any.
func LockedType(key string) (FieldType, bool) {
	t, ok := lockedTypes[key]
	return t, ok
}

var nonAlnumRun = regexp.MustCompile(`[^a-z0-9]+`)

// SlugifyKey derives a machine key from a label: lowercase, runs of anything
// other than [a-z0-9] collapse to a single "_", and edge underscores are trimmed.
// The result is stable under repeated application.
func SlugifyKey(label string) string {
	key := strings.ToLower(strings.TrimSpace(label))
	key = nonAlnumRun.ReplaceAllString(key, "_")
	return strings.Trim(key, "_")
}

// UniqueKey slugifies label and appends _2, _3, ... until the key is not in used.
func UniqueKey(label string, used map[string]struct{}) string {
	base := SlugifyKey(label)
	if base == "" {
		base = "field"
	}

	key := base
	for n := 2; ; n++ {
		if _, taken := used[key]; !taken {
			return key
		}
		key = fmt.Sprintf("%s_%d", base, n)
	}
}

// ParseOptions splits a comma separated list, trimming blanks.
func ParseOptions(csv string) []string {
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// normalizeOptions trims and drops blank options; options only survive on select fields.
func normalizeOptions(t FieldType, options []string) []string {
	if t != TypeSelect {
		return []string{}
	}
	out := make([]string, 0, len(options))
	for _, o := range options {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
