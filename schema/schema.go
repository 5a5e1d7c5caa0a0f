// Package schema publishes the JSON Schema of the capability document and
// validates documents against it.
package schema

import (
	"bytes"
	"encoding/json"
	"reflect"
	"sync"

	"cep-go/errcode"
	"cep-go/types"

	"github.com/invopop/jsonschema"
	validator "github.com/santhosh-tekuri/jsonschema/v5"
)

// ID is the schema's $id.
const ID = "https://jumpnet.dev/schemas/cep/document.json"

// variant pairs a discriminator with the Go type encoded under it.
type variant struct {
	kind  types.Kind
	model any
}

var variants = []variant{
	{types.KindCompute, types.Compute{}},
	{types.KindI2C, types.I2C{}},
	{types.KindSensor, types.Peripheral{}},
	{types.KindDisplay, types.Peripheral{}},
	{types.KindADC, types.Peripheral{}},
	{types.KindADC, types.Analog{}},
	{types.KindGPIO, types.GPIO{}},
	{types.KindNeopixel, types.Neopixel{}},
	{types.KindStorage, types.Storage{}},
	{types.KindNetwork, types.Network{}},
}

func reflector() *jsonschema.Reflector {
	return &jsonschema.Reflector{
		ExpandedStruct: true,
		DoNotReference: true,
		Mapper:         mapper,
	}
}

func mapper(t reflect.Type) *jsonschema.Schema {
	switch t {
	case reflect.TypeOf(types.Addr(0)):
		return &jsonschema.Schema{Type: "string", Pattern: "^0x[0-9a-f]{2}$"}
	case reflect.TypeOf(types.Capabilities(nil)):
		return &jsonschema.Schema{Type: "array", Items: &jsonschema.Schema{OneOf: capabilitySchemas()}}
	}
	return nil
}

// capabilitySchemas returns one schema per known variant plus a catch-all
// for types this build does not know, which consumers must tolerate.
func capabilitySchemas() []*jsonschema.Schema {
	r := &jsonschema.Reflector{ExpandedStruct: true, DoNotReference: true, Mapper: func(t reflect.Type) *jsonschema.Schema {
		if t == reflect.TypeOf(types.Addr(0)) {
			return mapper(t)
		}
		return nil
	}}
	known := make([]any, 0, len(variants))
	seen := map[types.Kind]bool{}
	out := make([]*jsonschema.Schema, 0, len(variants)+1)
	for _, v := range variants {
		s := r.Reflect(v.model)
		s.Version = ""
		s.ID = ""
		s.Properties.Set("type", &jsonschema.Schema{Const: string(v.kind)})
		s.Required = append([]string{"type"}, s.Required...)
		out = append(out, s)
		if !seen[v.kind] {
			seen[v.kind] = true
			known = append(known, string(v.kind))
		}
	}
	props := jsonschema.NewProperties()
	props.Set("type", &jsonschema.Schema{Type: "string", Not: &jsonschema.Schema{Enum: known}})
	out = append(out, &jsonschema.Schema{Type: "object", Required: []string{"type"}, Properties: props})
	return out
}

// Generate returns the document schema.
func Generate() *jsonschema.Schema {
	s := reflector().Reflect(&types.Document{})
	s.ID = jsonschema.ID(ID)
	s.Title = "capability document"
	return s
}

// JSON returns the indented document schema.
func JSON() ([]byte, error) {
	return json.MarshalIndent(Generate(), "", "  ")
}

var (
	once     sync.Once
	compiled *validator.Schema
	cerr     error
)

func compile() (*validator.Schema, error) {
	once.Do(func() {
		b, err := JSON()
		if err != nil {
			cerr = err
			return
		}
		c := validator.NewCompiler()
		if err := c.AddResource(ID, bytes.NewReader(b)); err != nil {
			cerr = err
			return
		}
		compiled, cerr = c.Compile(ID)
	})
	return compiled, cerr
}

// Validate checks an encoded document against the schema.
func Validate(doc []byte) error {
	sch, err := compile()
	if err != nil {
		return errcode.New(errcode.Error, "schema", "compile", err)
	}
	var v any
	dec := json.NewDecoder(bytes.NewReader(doc))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return errcode.New(errcode.InvalidParams, "schema", "decode", err)
	}
	if err := sch.Validate(v); err != nil {
		return errcode.New(errcode.InvalidParams, "schema", "validate", err)
	}
	return nil
}

// ValidateDocument encodes doc and validates it.
func ValidateDocument(doc types.Document) error {
	b, err := types.Encode(doc)
	if err != nil {
		return errcode.New(errcode.InvalidParams, "schema", "encode", err)
	}
	return Validate(b)
}
