package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// ChatRequest is the body of a chat turn.
type ChatRequest struct {
	// Message is the user's text. Required and non-empty.
	Message string `json:"message"`
}

// UnmarshalJSON decodes a chat request, rejecting a missing or non-string
// message.
func (r *ChatRequest) UnmarshalJSON(data []byte) error {
	var raw struct {
		Message json.RawMessage `json:"message"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if isAbsent(raw.Message) {
		return &ValidationError{Field: "message", Message: "message is required", Code: CodeMissingField}
	}
	if err := json.Unmarshal(raw.Message, &r.Message); err != nil {
		return &ValidationError{Field: "message", Message: "message must be a string", Code: CodeInvalidValue}
	}
	return nil
}

// Validate checks constraints that decoding does not.
func (r *ChatRequest) Validate() error {
	if strings.TrimSpace(r.Message) == "" {
		return &ValidationError{Field: "message", Message: "message must not be empty", Code: CodeInvalidValue}
	}
	return nil
}

// CopyRequest is the body of a copy generation request.
type CopyRequest struct {
	// Scene selects the template. Unknown scenes are allowed.
	Scene string `json:"scene"`

	// Config holds the template fields by key. Every value is a string.
	Config map[string]string `json:"config"`
}

// UnmarshalJSON decodes a copy request. "fields" is read when "config" is
// absent. JSON null field values are treated as omitted.
func (r *CopyRequest) UnmarshalJSON(data []byte) error {
	var raw struct {
		Scene  json.RawMessage `json:"scene"`
		Config json.RawMessage `json:"config"`
		Fields json.RawMessage `json:"fields"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if isAbsent(raw.Scene) {
		return &ValidationError{Field: "scene", Message: "scene is required", Code: CodeMissingField}
	}
	if err := json.Unmarshal(raw.Scene, &r.Scene); err != nil {
		return &ValidationError{Field: "scene", Message: "scene must be a string", Code: CodeInvalidValue}
	}

	param, body := "config", raw.Config
	if isAbsent(body) && !isAbsent(raw.Fields) {
		param, body = "fields", raw.Fields
	}
	if isAbsent(body) {
		return &ValidationError{Field: "config", Message: "config is required", Code: CodeMissingField}
	}

	var values map[string]json.RawMessage
	if err := json.Unmarshal(body, &values); err != nil {
		return &ValidationError{Field: param, Message: param + " must be an object", Code: CodeInvalidValue}
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	r.Config = make(map[string]string, len(values))
	for _, k := range keys {
		v := values[k]
		if isAbsent(v) {
			continue
		}
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return &ValidationError{
				Field:   param + "." + k,
				Message: fmt.Sprintf("%s.%s must be a string", param, k),
				Code:    CodeInvalidValue,
			}
		}
		r.Config[k] = s
	}
	return nil
}

// Validate checks constraints that decoding does not.
func (r *CopyRequest) Validate() error {
	if strings.TrimSpace(r.Scene) == "" {
		return &ValidationError{Field: "scene", Message: "scene must not be empty", Code: CodeInvalidValue}
	}
	return nil
}

func isAbsent(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// ValidationError represents a request validation error.
type ValidationError struct {
	Field   string
	Message string
	Code    string
}

func (e *ValidationError) Error() string {
	return e.Message
}
