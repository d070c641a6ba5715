// Package contracts embeds the HTTP API contract served and enforced by apps/api.
package contracts

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
)

// Name identifies the booking contract in docs routes.
const Name = "booking"

//go:embed booking.yaml
var bookingYAML []byte

// Load parses and validates the embedded booking contract.
func Load() (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(bookingYAML)
	if err != nil {
		return nil, fmt.Errorf("load booking contract: %w", err)
	}
	if err := doc.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("validate booking contract: %w", err)
	}
	return doc, nil
}

// JSON renders the contract for the docs endpoint.
func JSON(doc *openapi3.T) ([]byte, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode booking contract: %w", err)
	}
	return data, nil
}
