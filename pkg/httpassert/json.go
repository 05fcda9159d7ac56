// SPDX-License-Identifier: Apache-2.0

package httpassert

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"sigs.k8s.io/yaml"
)

// JSONEq asserts that two JSON documents are semantically equal: key order
// and insignificant whitespace are ignored. On mismatch the failure message
// carries a structural diff rather than the two raw strings.
func JSONEq(t *testing.T, want, got string) bool {
	t.Helper()

	var wantVal, gotVal any
	if err := json.Unmarshal([]byte(want), &wantVal); err != nil {
		t.Errorf("expected value is not valid JSON: %v", err)
		return false
	}
	if err := json.Unmarshal([]byte(got), &gotVal); err != nil {
		t.Errorf("actual value is not valid JSON: %v", err)
		return false
	}

	if diff := cmp.Diff(wantVal, gotVal); diff != "" {
		t.Errorf("JSON mismatch (-want +got):\n%s", diff)
		return false
	}
	return true
}

// MatchesSchema asserts that doc validates against the JSON Schema at
// schemaPath. An unloadable schema is a test setup defect and fails the test
// immediately.
func MatchesSchema(t *testing.T, schemaPath, doc string) bool {
	t.Helper()

	sch, err := jsonschema.Compile(schemaPath)
	if err != nil {
		t.Fatalf("Failed to compile schema %s: %v", schemaPath, err)
	}

	var v any
	if err := json.Unmarshal([]byte(doc), &v); err != nil {
		t.Errorf("document is not valid JSON: %v", err)
		return false
	}

	if err := sch.Validate(v); err != nil {
		t.Errorf("document does not match schema %s: %v", schemaPath, err)
		return false
	}
	return true
}

// YAMLFixture loads a YAML file and returns its JSON encoding, for use with
// the JSON helpers. JSON being a subset of YAML, plain .json fixtures load
// too.
func YAMLFixture(t *testing.T, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read fixture %s: %v", path, err)
	}

	jsonData, err := yaml.YAMLToJSON(data)
	if err != nil {
		t.Fatalf("Failed to convert fixture %s to JSON: %v", path, err)
	}

	return string(jsonData)
}
