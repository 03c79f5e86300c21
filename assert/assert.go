package assert

import (
	"reflect"
	"strings"
	"testing"
)

// Equal compares two values and reports any differences
func Equal(t *testing.T, expected, actual any, label string) {
	t.Helper()
	if !deepEqual(expected, actual) {
		t.Errorf("Expected %#v, got %#v for %s", expected, actual, label)
	}
}

// deepEqual compares two values, treating ints of any size as equal by value
func deepEqual(expected, actual any) bool {
	if reflect.DeepEqual(expected, actual) {
		return true
	}
	ev := reflect.ValueOf(expected)
	av := reflect.ValueOf(actual)
	if isInt(ev.Kind()) && isInt(av.Kind()) {
		return ev.Int() == av.Int()
	}
	return false
}

func isInt(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return false
}

// Lines compares two line slices and reports each mismatching line
func Lines(t *testing.T, expected, actual []string, label string) {
	t.Helper()
	if len(expected) != len(actual) {
		t.Errorf("Expected %d lines, got %d for %s:\n%s", len(expected), len(actual), label, strings.Join(actual, "\n"))
		return
	}
	for i := range expected {
		if expected[i] != actual[i] {
			t.Errorf("Line %d: expected %q, got %q for %s", i, expected[i], actual[i], label)
		}
	}
}

// True fails if value is not true
func True(t *testing.T, value bool, label string) {
	t.Helper()
	if !value {
		t.Errorf("Expected true for %s", label)
	}
}

// False fails if value is not false
func False(t *testing.T, value bool, label string) {
	t.Helper()
	if value {
		t.Errorf("Expected false for %s", label)
	}
}

// Len checks that the length equals expected, fails fatally if not (for safe index access)
func Len(t *testing.T, expected int, collection any, label string) {
	t.Helper()
	v := reflect.ValueOf(collection)
	switch v.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map, reflect.String:
	default:
		t.Fatalf("Len requires slice/array/map/string, got %v for %s", v.Kind(), label)
	}
	if v.Len() != expected {
		t.Fatalf("Expected length %d, got %d for %s", expected, v.Len(), label)
	}
}

// Contains checks if a string contains a substring
func Contains(t *testing.T, haystack, needle string, label string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Errorf("Expected %q to contain %q for %s", haystack, needle, label)
	}
}

// NotContains checks if a string does not contain a substring
func NotContains(t *testing.T, haystack, needle string, label string) {
	t.Helper()
	if strings.Contains(haystack, needle) {
		t.Errorf("Expected %q to not contain %q for %s", haystack, needle, label)
	}
}

// Error checks that an error is not nil
func Error(t *testing.T, err error, label string) {
	t.Helper()
	if err == nil {
		t.Errorf("Expected error for %s", label)
	}
}

// NoError checks that an error is nil, stopping the test otherwise
func NoError(t *testing.T, err error, label string) {
	t.Helper()
	if err != nil {
		t.Fatalf("Expected no error for %s, got: %v", label, err)
	}
}
