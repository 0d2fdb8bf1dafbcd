package task

import (
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		shape     Shape
		payload   string
		wantValid bool
		wantPath  string
	}{
		{
			name:      "valid task",
			shape:     ShapeTask,
			payload:   `{"id":1,"title":"a","description":"b","startingDate":"2024-01-01","endingDate":"2024-01-02"}`,
			wantValid: true,
		},
		{
			name:      "task missing title",
			shape:     ShapeTask,
			payload:   `{"description":"b","startingDate":"2024-01-01","endingDate":"2024-01-02"}`,
			wantValid: false,
		},
		{
			name:      "valid empty list",
			shape:     ShapeList,
			payload:   `[]`,
			wantValid: true,
		},
		{
			name:      "list with bad item",
			shape:     ShapeList,
			payload:   `[{"title":"a","description":"b","startingDate":"2024-01-01","endingDate":"2024-01-02"},{"title":1,"description":"b","startingDate":"x","endingDate":"y"}]`,
			wantValid: false,
			wantPath:  "[1].title",
		},
		{
			name:      "list is an object",
			shape:     ShapeList,
			payload:   `{"tasks":[]}`,
			wantValid: false,
		},
		{
			name:      "not json",
			shape:     ShapeTask,
			payload:   `<html>`,
			wantValid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Validate(tt.shape, []byte(tt.payload))
			if len(result.Warnings) > 0 {
				t.Fatalf("unexpected warnings: %v", result.Warnings)
			}
			if result.Valid != tt.wantValid {
				t.Fatalf("Valid = %v, want %v (errors: %v)", result.Valid, tt.wantValid, result.Errors)
			}
			if tt.wantValid && result.Err() != nil {
				t.Errorf("Err() = %v, want nil", result.Err())
			}
			if !tt.wantValid && result.Err() == nil {
				t.Error("Err() = nil, want error")
			}
			if tt.wantPath != "" {
				found := false
				for _, err := range result.Errors {
					if strings.HasPrefix(err.Error(), tt.wantPath) {
						found = true
					}
				}
				if !found {
					t.Errorf("no error at %s in %v", tt.wantPath, result.Errors)
				}
			}
		})
	}
}

func TestValidateUnknownShape(t *testing.T) {
	result := Validate(Shape("nope"), []byte(`{}`))
	if !result.Valid {
		t.Errorf("unknown shape should not fail validation")
	}
	if len(result.Warnings) != 1 {
		t.Errorf("expected one warning, got %v", result.Warnings)
	}
}

func TestJSONPointerToPath(t *testing.T) {
	tests := map[string]string{
		"":               "",
		"#":              "",
		"/0/title":       "[0].title",
		"#/a~1b/2":       "a/b[2]",
		"/title":         "title",
		"/items/3/field": "items[3].field",
	}
	for in, want := range tests {
		if got := jsonPointerToPath(in); got != want {
			t.Errorf("jsonPointerToPath(%q) = %q, want %q", in, got, want)
		}
	}
}
