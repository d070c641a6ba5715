package formschema

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// SubmissionError lists the per-field problems of a rejected submission.
type SubmissionError struct {
	Fields map[string]string
}

func (e *SubmissionError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "invalid submission: " + strings.Join(parts, "; ")
}

func (e *SubmissionError) add(key, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, exists := e.Fields[key]; !exists {
		e.Fields[key] = msg
	}
}

// Validator checks submissions against a JSON Schema derived from the rendered
// form. Compiled schemas are cached by content fingerprint.
type Validator struct {
	mu    sync.RWMutex
	cache map[string]*jsonschema.Schema
}

// NewValidator returns a validator with an empty schema cache.
func NewValidator() *Validator {
	return &Validator{cache: make(map[string]*jsonschema.Schema)}
}

// Document builds the JSON Schema for a form. Unknown keys are allowed and kept
// as submitted. Formats and select options are annotations only: a lead is
// stored even when a browser sends a local date or an option that was removed.
func Document(descriptors []Descriptor) map[string]any {
	props := make(map[string]any, len(descriptors))
	required := make([]string, 0)
	for _, d := range descriptors {
		prop := map[string]any{"type": "string", "title": d.Label}
		switch d.Type {
		case TypeEmail:
			prop["format"] = "email"
		case TypeDate:
			prop["format"] = "date"
		case TypeSelect:
			if len(d.Options) > 0 {
				prop["examples"] = d.Options
			}
		}
		if d.Required {
			prop["minLength"] = 1
			required = append(required, d.Key)
		}
		props[d.Key] = prop
	}

	return map[string]any{
		"$schema":              "https://json-schema.org/draft/2020-12/schema",
		"type":                 "object",
		"properties":           props,
		"required":             required,
		"additionalProperties": map[string]any{"type": "string"},
	}
}

// Validate reports missing required values first, then type violations on the
// non-blank values. It returns a *SubmissionError for bad
// input and a plain error when the schema itself cannot be compiled.
func (v *Validator) Validate(descriptors []Descriptor, data FormData) error {
	verr := &SubmissionError{}
	present := make(map[string]any, len(data))
	for key, value := range data {
		if strings.TrimSpace(value) != "" {
			present[key] = strings.TrimSpace(value)
		}
	}
	for _, d := range descriptors {
		if _, ok := present[d.Key]; d.Required && !ok {
			verr.add(d.Key, "is required")
		}
	}
	if len(verr.Fields) > 0 {
		return verr
	}

	compiled, err := v.getOrCompile(descriptors)
	if err != nil {
		return err
	}

	if err := compiled.Validate(present); err != nil {
		var ve *jsonschema.ValidationError
		if !errors.As(err, &ve) {
			return fmt.Errorf("validate submission: %w", err)
		}
		collectLeaves(ve, verr)
		if len(verr.Fields) == 0 {
			verr.add("form", ve.Message)
		}
		return verr
	}
	return nil
}

func collectLeaves(ve *jsonschema.ValidationError, out *SubmissionError) {
	if len(ve.Causes) == 0 {
		key := strings.TrimPrefix(ve.InstanceLocation, "/")
		if key == "" {
			key = "form"
		}
		out.add(key, ve.Message)
		return
	}
	for _, cause := range ve.Causes {
		collectLeaves(cause, out)
	}
}

func (v *Validator) getOrCompile(descriptors []Descriptor) (*jsonschema.Schema, error) {
	raw, err := json.Marshal(Document(descriptors))
	if err != nil {
		return nil, fmt.Errorf("encode form schema: %w", err)
	}
	key := cacheKey(raw)

	v.mu.RLock()
	compiled, ok := v.cache[key]
	v.mu.RUnlock()
	if ok {
		return compiled, nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if compiled, ok = v.cache[key]; ok {
		return compiled, nil
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(key, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("register form schema %s: %w", key, err)
	}
	compiled, err = compiler.Compile(key)
	if err != nil {
		return nil, fmt.Errorf("compile form schema %s: %w", key, err)
	}

	v.cache[key] = compiled
	return compiled, nil
}

func cacheKey(raw []byte) string {
	sum := sha256.Sum256(raw)
	return "memory://forms/" + hex.EncodeToString(sum[:]) + ".json"
}
