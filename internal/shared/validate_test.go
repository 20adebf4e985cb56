package shared

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateStruct(t *testing.T) {
	type input struct {
		Name  string `validate:"required"`
		Email string `validate:"required,email"`
		Pass  string `validate:"min=8"`
	}

	tt := []struct {
		name     string
		in       input
		wantErr  bool
		contains string
	}{
		{name: "valid", in: input{Name: "Ada", Email: "ada@x.com", Pass: "Secret123"}},
		{name: "missing name", in: input{Email: "ada@x.com", Pass: "Secret123"}, wantErr: true, contains: "Name is required"},
		{name: "bad email", in: input{Name: "Ada", Email: "nope", Pass: "Secret123"}, wantErr: true, contains: "valid email"},
		{name: "short password", in: input{Name: "Ada", Email: "ada@x.com", Pass: "abc"}, wantErr: true, contains: "at least 8"},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateStruct(tc.in)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ValidateStruct() error = %v, wantErr %v", err, tc.wantErr)
			}
			if !tc.wantErr {
				return
			}
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.contains) {
				t.Errorf("expected %q in %q", tc.contains, err.Error())
			}
		})
	}
}
