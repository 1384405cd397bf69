package harness

import (
	"encoding/json"
	"net/http"
	"reflect"
	"strings"
	"testing"
)

// AssertStatus asserts the response status code.
func (r *Response) AssertStatus(t testing.TB, expected int) {
	t.Helper()

	if r.StatusCode != expected {
		t.Errorf("status mismatch\nexpected: %d\nactual: %d\nbody: %s", expected, r.StatusCode, r.Body)
	}
}

// AssertHeader asserts that the response header key has the expected value.
func (r *Response) AssertHeader(t testing.TB, key, expected string) {
	t.Helper()

	actual := r.Header.Get(key)
	if actual == "" {
		t.Errorf("response does not have header %q", key)
		return
	}
	if actual != expected {
		t.Errorf("header %q value mismatch\nexpected: %q\nactual: %q", key, expected, actual)
	}
}

// AssertJSONBody asserts that the body is JSON equal to expected. The
// expected value can be a string, []byte, or any value that encodes to JSON.
func (r *Response) AssertJSONBody(t testing.TB, expected any) {
	t.Helper()

	var expectedJSON, actualJSON any

	switch v := expected.(type) {
	case string:
		if err := json.Unmarshal([]byte(v), &expectedJSON); err != nil {
			t.Errorf("failed to parse expected JSON: %v", err)
			return
		}
	case []byte:
		if err := json.Unmarshal(v, &expectedJSON); err != nil {
			t.Errorf("failed to parse expected JSON: %v", err)
			return
		}
	default:
		data, err := json.Marshal(v)
		if err != nil {
			t.Errorf("failed to marshal expected value: %v", err)
			return
		}
		if err := json.Unmarshal(data, &expectedJSON); err != nil {
			t.Errorf("failed to parse expected JSON: %v", err)
			return
		}
	}

	if err := json.Unmarshal(r.Body, &actualJSON); err != nil {
		t.Errorf("response body is not valid JSON: %v\nbody: %s", err, r.Body)
		return
	}

	if !reflect.DeepEqual(actualJSON, expectedJSON) {
		expectedBytes, _ := json.MarshalIndent(expectedJSON, "", "  ")
		actualBytes, _ := json.MarshalIndent(actualJSON, "", "  ")
		t.Errorf("response body does not match expected JSON\nexpected:\n%s\nactual:\n%s",
			string(expectedBytes), string(actualBytes))
	}
}

// JSONField extracts a field from the body JSON. Nested fields use dot
// notation. Returns nil if the body is not a JSON object or the field does
// not exist.
func (r *Response) JSONField(field string) any {
	var data map[string]any
	if err := json.Unmarshal(r.Body, &data); err != nil {
		return nil
	}

	var current any = data
	for _, part := range strings.Split(field, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current = m[part]
	}
	return current
}

// AssertJSONField asserts that a JSON field in the body has the expected value.
func (r *Response) AssertJSONField(t testing.TB, field string, expected any) {
	t.Helper()

	actual := r.JSONField(field)
	if actual == nil {
		t.Errorf("JSON field %q not found in response body: %s", field, r.Body)
		return
	}

	if !reflect.DeepEqual(actual, expected) {
		t.Errorf("JSON field %q mismatch\nexpected: %v (%T)\nactual: %v (%T)",
			field, expected, expected, actual, actual)
	}
}

// AssertServerError asserts a 500 response carrying the canned body.
func (r *Response) AssertServerError(t testing.TB, responses Responses) {
	t.Helper()

	r.AssertStatus(t, http.StatusInternalServerError)
	r.AssertJSONBody(t, responses.ServerErrorBody)
}
