package formschema

import (
	"net/url"
	"sort"
	"strings"
)

// SlugParam is the hidden form key carrying the profile slug. It is never stored.
const SlugParam = "profile_slug"

// FormData is a submitted lead payload keyed by field key.
type FormData map[string]string

// Get returns the trimmed value for key.
func (d FormData) Get(key string) string {
	return strings.TrimSpace(d[key])
}

// Collect copies every submitted key except the slug into a FormData. Repeated
// keys keep their first value.
func Collect(values url.Values) FormData {
	data := make(FormData, len(values))
	for key, vals := range values {
		if key == SlugParam || key == "" {
			continue
		}
		if len(vals) == 0 {
			data[key] = ""
			continue
		}
		data[key] = vals[0]
	}
	return data
}

// LabelledValue pairs a submitted value with the label it is displayed under.
type LabelledValue struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Value string `json:"value"`
}

// Labelled orders the payload by the schema and labels each entry. Keys the
// schema does not know come last, sorted, labelled with the raw key.
func (d FormData) Labelled(descriptors []Descriptor) []LabelledValue {
	out := make([]LabelledValue, 0, len(d))
	seen := make(map[string]struct{}, len(descriptors))
	for _, desc := range descriptors {
		seen[desc.Key] = struct{}{}
		if v, ok := d[desc.Key]; ok {
			out = append(out, LabelledValue{Key: desc.Key, Label: desc.Label, Value: v})
		}
	}

	extra := make([]string, 0)
	for key := range d {
		if _, ok := seen[key]; !ok {
			extra = append(extra, key)
		}
	}
	sort.Strings(extra)
	for _, key := range extra {
		out = append(out, LabelledValue{Key: key, Label: key, Value: d[key]})
	}
	return out
}
