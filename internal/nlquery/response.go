package nlquery

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ResponseShape is the top-level form of an inference response body.
type ResponseShape int

const (
	// ShapeUnknown is any body that is not one of the shapes below.
	ShapeUnknown ResponseShape = iota
	// ShapeList is [{"generated_text": "..."}, ...].
	ShapeList
	// ShapeObject is {"generated_text": "..."}.
	ShapeObject
	// ShapeError is {"error": ...}.
	ShapeError
)

func (s ResponseShape) String() string {
	switch s {
	case ShapeList:
		return "list"
	case ShapeObject:
		return "object"
	case ShapeError:
		return "error"
	}
	return "unknown"
}

// Response is a decoded inference response.
type Response struct {
	Shape ResponseShape
	Text  string
	Error string
}

type generated struct {
	GeneratedText *string `json:"generated_text"`
}

type errorBody struct {
	Error json.RawMessage `json:"error"`
}

// DecodeResponse classifies body into one of the response shapes.
func DecodeResponse(body []byte) Response {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return Response{}
	}

	switch trimmed[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil || len(items) == 0 {
			return Response{}
		}
		var g generated
		if err := json.Unmarshal(items[0], &g); err != nil || g.GeneratedText == nil {
			return Response{}
		}
		return Response{Shape: ShapeList, Text: *g.GeneratedText}
	case '{':
		var e errorBody
		if err := json.Unmarshal(trimmed, &e); err == nil && e.Error != nil {
			return Response{Shape: ShapeError, Error: errorMessage(e.Error)}
		}
		var g generated
		if err := json.Unmarshal(trimmed, &g); err != nil || g.GeneratedText == nil {
			return Response{}
		}
		return Response{Shape: ShapeObject, Text: *g.GeneratedText}
	}
	return Response{}
}

// GeneratedText returns the model text, or an error for error and unknown shapes.
func (r Response) GeneratedText() (string, error) {
	switch r.Shape {
	case ShapeList, ShapeObject:
		return r.Text, nil
	case ShapeError:
		return "", fmt.Errorf("%w: %s", ErrGeneratorResponse, r.Error)
	}
	return "", ErrNoGenerated
}

func errorMessage(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
