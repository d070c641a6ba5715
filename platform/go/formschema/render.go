package formschema

import "sort"

// Descriptor is the renderer-facing view of a field.
type Descriptor struct {
	Key       string    `json:"key"`
	Label     string    `json:"label"`
	Type      FieldType `json:"type"`
	InputType string    `json:"inputType"`
	Required  bool      `json:"required"`
	Options   []string  `json:"options"`
	Protected bool      `json:"protected"`
}

// Render builds descriptors in ascending order-index order. An empty field
// list yields the fallback schema.
func Render(fields []Field) []Descriptor {
	if len(fields) == 0 {
		return FallbackDescriptors()
	}

	sorted := make([]Field, len(fields))
	copy(sorted, fields)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].OrderIndex < sorted[j].OrderIndex })

	out := make([]Descriptor, 0, len(sorted))
	for _, f := range sorted {
		options := f.Options
		if options == nil {
			options = []string{}
		}
		out = append(out, Descriptor{
			Key:       f.Key,
			Label:     f.Label,
			Type:      f.Type,
			InputType: f.Type.InputType(),
			Required:  f.Required,
			Options:   options,
			Protected: f.Protected(),
		})
	}
	return out
}

// Labels maps each descriptor key to its label.
func Labels(descriptors []Descriptor) map[string]string {
	out := make(map[string]string, len(descriptors))
	for _, d := range descriptors {
		out[d.Key] = d.Label
	}
	return out
}

// Keys returns descriptor keys in display order.
func Keys(descriptors []Descriptor) []string {
	out := make([]string, 0, len(descriptors))
	for _, d := range descriptors {
		out = append(out, d.Key)
	}
	return out
}
