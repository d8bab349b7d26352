// Package extract recovers structured records from free-form LLM output.
//
// Models asked for JSON routinely wrap it in prose, markdown fences, or
// emit almost-JSON with trailing commas and smart quotes. Extract runs a
// fixed three-stage pipeline (direct parse, balanced-substring scan,
// lenient repair) and validates the parsed object against a declared
// schema. It is pure and deterministic: the same input always produces
// the same result, and a failure is always an explicit invalid result,
// never a partial one.
package extract

import (
	"encoding/json"
	"math"
	"strings"
)

// FieldType enumerates the value types a schema field can declare.
type FieldType int

const (
	TypeString FieldType = iota
	TypeBool
	TypeNumber
	TypeInteger
	TypeStringList
	TypeObjectList
)

func (t FieldType) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeBool:
		return "bool"
	case TypeNumber:
		return "number"
	case TypeInteger:
		return "integer"
	case TypeStringList:
		return "string list"
	case TypeObjectList:
		return "object list"
	default:
		return "unknown"
	}
}

// Field declares one expected field of the target record.
type Field struct {
	Name     string
	Type     FieldType
	Required bool
}

// Schema describes the record a model was instructed to emit.
type Schema struct {
	// Name labels the schema in diagnostics.
	Name   string
	Fields []Field
}

// Diagnostic reasons for invalid results.
const (
	// ReasonUnparsable means no stage could produce a JSON object.
	ReasonUnparsable = "unparsable_output"
	// ReasonSchemaMismatch means the object parsed but a required field
	// was missing or mistyped.
	ReasonSchemaMismatch = "schema_mismatch"
)

// Result is the outcome of an extraction. When Valid is false, Reason and
// Detail carry the diagnostic and Fields is nil. A result is either fully
// valid or explicitly invalid.
type Result struct {
	Fields map[string]any
	Valid  bool
	Reason string
	Detail string
}

// String returns the named string field. Callers only use accessors after
// checking Valid, so a missing optional field returns the zero value.
func (r Result) String(name string) string {
	s, _ := r.Fields[name].(string)
	return s
}

// Bool returns the named bool field.
func (r Result) Bool(name string) bool {
	b, _ := r.Fields[name].(bool)
	return b
}

// Number returns the named numeric field.
func (r Result) Number(name string) float64 {
	f, _ := r.Fields[name].(float64)
	return f
}

// StringList returns the named string-list field.
func (r Result) StringList(name string) []string {
	l, _ := r.Fields[name].([]string)
	return l
}

// ObjectList returns the named object-list field.
func (r Result) ObjectList(name string) []map[string]any {
	l, _ := r.Fields[name].([]map[string]any)
	return l
}

// Extract recovers a record matching schema from raw model output.
func Extract(raw string, schema Schema) Result {
	obj, ok := parse(raw)
	if !ok {
		return Result{Valid: false, Reason: ReasonUnparsable,
			Detail: "no JSON object found in model output"}
	}
	return validate(obj, schema)
}

// parse runs the three parsing stages and returns the first object any
// stage yields.
func parse(raw string) (map[string]any, bool) {
	// Stage 1: the whole reply is the object.
	if obj, ok := tryUnmarshal(strings.TrimSpace(raw)); ok {
		return obj, true
	}

	// Stage 2: strip fences, then take the first balanced {...} substring.
	stripped := stripFences(raw)
	if obj, ok := tryUnmarshal(stripped); ok {
		return obj, true
	}
	candidate := balancedObject(stripped)
	if candidate != "" {
		if obj, ok := tryUnmarshal(candidate); ok {
			return obj, true
		}
	}

	// Stage 3: lenient repair on the best candidate, one retry.
	target := candidate
	if target == "" {
		target = truncatedObject(stripped)
	}
	if target == "" {
		return nil, false
	}
	if obj, ok := tryUnmarshal(repair(target)); ok {
		return obj, true
	}
	return nil, false
}

func tryUnmarshal(s string) (map[string]any, bool) {
	if s == "" || s[0] != '{' {
		return nil, false
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return nil, false
	}
	return obj, true
}

// stripFences removes a surrounding markdown code fence, with or without a
// language tag. Content without fences is returned trimmed.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// Drop the language tag up to the first newline.
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		return strings.TrimSpace(strings.TrimSuffix(s, "```"))
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// balancedObject returns the first balanced brace-delimited substring,
// tracking JSON string literals so braces inside strings don't count.
// Returns "" when no balanced object exists.
func balancedObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

// truncatedObject returns everything from the first opening brace to the
// end of the text, the usual shape of a reply cut off mid-object.
func truncatedObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}
	return strings.TrimSpace(s[start:])
}

var smartQuotes = strings.NewReplacer(
	"“", `"`, // left double
	"”", `"`, // right double
	"„", `"`, // low double
	"‘", "'", // left single
	"’", "'", // right single
)

// repair applies deterministic fixes for the common ways models break
// JSON: smart quotes, trailing commas, and unterminated braces/brackets.
func repair(s string) string {
	s = smartQuotes.Replace(s)
	s = removeTrailingCommas(s)

	// Close unterminated strings, then brackets and braces, innermost first.
	var stack []byte
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			stack = append(stack, c)
		case '}':
			if len(stack) > 0 && stack[len(stack)-1] == '{' {
				stack = stack[:len(stack)-1]
			}
		case ']':
			if len(stack) > 0 && stack[len(stack)-1] == '[' {
				stack = stack[:len(stack)-1]
			}
		}
	}
	if inString {
		s += `"`
	}
	s = strings.TrimRight(s, " \t\n\r")
	s = strings.TrimSuffix(s, ",")
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == '{' {
			s += "}"
		} else {
			s += "]"
		}
	}
	return s
}

// removeTrailingCommas drops commas that directly precede a closing brace
// or bracket, outside string literals.
func removeTrailingCommas(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			b.WriteByte(c)
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		if c == '"' {
			inString = true
			b.WriteByte(c)
			continue
		}
		if c == ',' {
			j := i + 1
			for j < len(s) && (s[j] == ' ' || s[j] == '\t' || s[j] == '\n' || s[j] == '\r') {
				j++
			}
			if j < len(s) && (s[j] == '}' || s[j] == ']') {
				continue // drop the comma
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}

// validate checks the parsed object against the schema. Declared fields
// are copied into the result with list types normalized; unknown fields
// are ignored for forward compatibility.
func validate(obj map[string]any, schema Schema) Result {
	fields := make(map[string]any, len(schema.Fields))
	for _, f := range schema.Fields {
		v, present := obj[f.Name]
		if !present {
			if f.Required {
				return mismatch(schema, "missing required field "+f.Name)
			}
			continue
		}
		typed, ok := coerce(v, f.Type)
		if !ok {
			if f.Required {
				return mismatch(schema, "field "+f.Name+" is not a "+f.Type.String())
			}
			continue // mistyped optional field: ignore
		}
		fields[f.Name] = typed
	}
	return Result{Fields: fields, Valid: true}
}

func mismatch(schema Schema, detail string) Result {
	return Result{Valid: false, Reason: ReasonSchemaMismatch,
		Detail: schema.Name + ": " + detail}
}

func coerce(v any, t FieldType) (any, bool) {
	switch t {
	case TypeString:
		s, ok := v.(string)
		return s, ok
	case TypeBool:
		b, ok := v.(bool)
		return b, ok
	case TypeNumber:
		f, ok := v.(float64)
		return f, ok
	case TypeInteger:
		f, ok := v.(float64)
		if !ok || f != math.Trunc(f) {
			return nil, false
		}
		return f, true
	case TypeStringList:
		raw, ok := v.([]any)
		if !ok {
			return nil, false
		}
		list := make([]string, len(raw))
		for i, item := range raw {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			list[i] = s
		}
		return list, true
	case TypeObjectList:
		raw, ok := v.([]any)
		if !ok {
			return nil, false
		}
		list := make([]map[string]any, len(raw))
		for i, item := range raw {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, false
			}
			list[i] = m
		}
		return list, true
	default:
		return nil, false
	}
}
