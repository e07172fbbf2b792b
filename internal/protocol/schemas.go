package protocol

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.schema.json
var schemaFS embed.FS

const schemaBase = "https://tileworld.ai/schemas/"

// Schema names, keyed by message type.
var schemaByType = map[string]string{
	TypeHello:   "hello.schema.json",
	TypeView:    "view.schema.json",
	TypeWelcome: "welcome.schema.json",
	TypeChunks:  "chunks.schema.json",
	TypeError:   "error.schema.json",
}

var (
	schemasOnce sync.Once
	schemas     map[string]*jsonschema.Schema
	schemasErr  error
)

func compileSchemas() (map[string]*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	for _, name := range schemaByType {
		raw, err := schemaFS.ReadFile("schemas/" + name)
		if err != nil {
			return nil, err
		}
		if err := c.AddResource(schemaBase+name, bytes.NewReader(raw)); err != nil {
			return nil, fmt.Errorf("schema %s: %w", name, err)
		}
	}
	out := make(map[string]*jsonschema.Schema, len(schemaByType))
	for typ, name := range schemaByType {
		s, err := c.Compile(schemaBase + name)
		if err != nil {
			return nil, fmt.Errorf("compile %s: %w", name, err)
		}
		out[typ] = s
	}
	return out, nil
}

// Schema returns the compiled schema for a message type.
func Schema(typ string) (*jsonschema.Schema, error) {
	schemasOnce.Do(func() { schemas, schemasErr = compileSchemas() })
	if schemasErr != nil {
		return nil, schemasErr
	}
	s, ok := schemas[typ]
	if !ok {
		return nil, fmt.Errorf("no schema for message type %q", typ)
	}
	return s, nil
}

// Validate checks raw against the schema of its declared type and returns the
// routing header.
func Validate(raw []byte) (BaseMessage, error) {
	base, err := DecodeBase(raw)
	if err != nil {
		return base, err
	}
	s, err := Schema(base.Type)
	if err != nil {
		return base, err
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return base, err
	}
	if err := s.Validate(v); err != nil {
		return base, err
	}
	return base, nil
}
