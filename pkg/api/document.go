package api

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed openapi.yaml
var document []byte

var (
	loadOnce  sync.Once
	loadedDoc *openapi3.T
	loadErr   error
)

// Document returns the raw OpenAPI document
func Document() []byte {
	return document
}

// Load parses and validates the embedded OpenAPI document
func Load() (*openapi3.T, error) {
	loadOnce.Do(func() {
		loader := openapi3.NewLoader()
		doc, err := loader.LoadFromData(document)
		if err != nil {
			loadErr = fmt.Errorf("failed to load openapi document: %w", err)
			return
		}
		if err := doc.Validate(context.Background()); err != nil {
			loadErr = fmt.Errorf("invalid openapi document: %w", err)
			return
		}
		loadedDoc = doc
	})
	return loadedDoc, loadErr
}

// ValidateBody checks a JSON request body against a named component schema
func ValidateBody(schemaName string, body []byte) error {
	doc, err := Load()
	if err != nil {
		return err
	}

	ref, ok := doc.Components.Schemas[schemaName]
	if !ok || ref.Value == nil {
		return fmt.Errorf("unknown schema %q", schemaName)
	}

	var value any
	if err := json.Unmarshal(body, &value); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	if err := ref.Value.VisitJSON(value, openapi3.MultiErrors()); err != nil {
		return fmt.Errorf("request does not match %s: %w", schemaName, err)
	}
	return nil
}
