package validator

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestValidateStruct(t *testing.T) {
	type TestStruct struct {
		Name        string    `json:"name" validate:"required,max=10"`
		Type        string    `json:"type" validate:"required,oneof=private|team"`
		Mode        string    `json:"mode" validate:"oneof=manual|ai"`
		Description *string   `json:"description" validate:"max=5"`
		UserID      uuid.UUID `json:"user_id" validate:"required"`
		Items       []string  `json:"items" validate:"max=2"`
	}

	long := "much too long"
	short := "ok"
	valid := TestStruct{Name: "Laptop", Type: "team", UserID: uuid.New()}

	tests := []struct {
		name    string
		mutate  func(s *TestStruct)
		wantErr string
	}{
		{name: "valid struct", mutate: func(s *TestStruct) {}},
		{name: "optional fields set", mutate: func(s *TestStruct) { s.Mode = "ai"; s.Description = &short }},
		{name: "missing name", mutate: func(s *TestStruct) { s.Name = "  " }, wantErr: "name is required"},
		{name: "name too long", mutate: func(s *TestStruct) { s.Name = strings.Repeat("é", 11) }, wantErr: "name must be at most 10 characters"},
		{name: "multibyte name within limit", mutate: func(s *TestStruct) { s.Name = strings.Repeat("é", 10) }},
		{name: "unknown type", mutate: func(s *TestStruct) { s.Type = "group" }, wantErr: "type must be one of private, team"},
		{name: "unknown mode", mutate: func(s *TestStruct) { s.Mode = "auto" }, wantErr: "mode must be one of manual, ai"},
		{name: "pointer too long", mutate: func(s *TestStruct) { s.Description = &long }, wantErr: "description must be at most 5 characters"},
		{name: "nil uuid", mutate: func(s *TestStruct) { s.UserID = uuid.Nil }, wantErr: "user_id is required"},
		{name: "too many items", mutate: func(s *TestStruct) { s.Items = []string{"a", "b", "c"} }, wantErr: "items must have at most 2 entries"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := valid
			tt.mutate(&input)

			err := ValidateStruct(&input)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("ValidateStruct() unexpected error: %v", err)
				}
				return
			}
			if err == nil || err.Error() != tt.wantErr {
				t.Errorf("ValidateStruct() error = %v, expected %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateStructRequiresStruct(t *testing.T) {
	if err := ValidateStruct("text"); err == nil {
		t.Error("Expected error for non-struct input")
	}
}

func TestSanitizeString(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"  test  ", "test"},
		{"test\x00string", "teststring"},
		{"normal", "normal"},
	}

	for _, tt := range tests {
		result := SanitizeString(tt.input)
		if result != tt.expected {
			t.Errorf("SanitizeString(%q) = %q, expected %q", tt.input, result, tt.expected)
		}
	}
}
