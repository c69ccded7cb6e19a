package core

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/albaseet/catalog/internal/catalog"
	"github.com/albaseet/catalog/internal/importer"
	"github.com/albaseet/catalog/internal/store"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{
			name:        "nil error returns empty",
			err:         nil,
			wantCode:    "",
			wantMessage: "",
		},
		{
			name:        "wrapped not found",
			err:         fmt.Errorf("update product: %w", store.ErrNotFound),
			wantCode:    "PRD001",
			wantMessage: "Product not found",
		},
		{
			name:     "size index",
			err:      fmt.Errorf("update stock: %w", catalog.ErrSizeIndex),
			wantCode: "PRD002",
		},
		{
			name:     "validation",
			err:      ValidationErrors{{Field: "name.en", Message: "is required"}},
			wantCode: "VAL001",
		},
		{
			name:     "file too large",
			err:      fmt.Errorf("read upload: %w", ErrFileTooLarge),
			wantCode: "FILE001",
		},
		{
			name:     "parse error with line",
			err:      &importer.ParseError{Format: importer.FormatCSV, Line: 4, Err: errors.New(`extraneous " in field`)},
			wantCode: "FILE002",
		},
		{
			name:     "unsupported format inside parse error",
			err:      &importer.ParseError{Format: "pdf", Err: importer.ErrUnsupportedFormat},
			wantCode: "FILE003",
		},
		{
			name:     "empty file",
			err:      &importer.ParseError{Format: importer.FormatXLSX, Err: importer.ErrEmptyFile},
			wantCode: "FILE005",
		},
		{
			name:     "broken workbook",
			err:      &importer.ParseError{Format: importer.FormatXLSX, Err: errors.New("open workbook: zip: not a valid zip file")},
			wantCode: "FILE007",
		},
		{
			name:     "too many imports",
			err:      ErrTooManyImports,
			wantCode: "IMP001",
		},
		{
			name:     "expired import",
			err:      fmt.Errorf("commit import abc: %w", ErrImportNotFound),
			wantCode: "IMP002",
		},
		{
			name:        "connection refused maps correctly",
			err:         errors.New("dial tcp: connection refused"),
			wantCode:    "DB004",
			wantMessage: "Unable to connect to database",
		},
		{
			name:     "deadline beats timeout pattern",
			err:      fmt.Errorf("list products: %w", context.DeadlineExceeded),
			wantCode: "REQ002",
		},
		{
			name:        "case insensitive matching",
			err:         errors.New("ERROR: DUPLICATE KEY value violates"),
			wantCode:    "DB001",
			wantMessage: "A product with this ID already exists",
		},
		{
			name:        "unknown error returns default",
			err:         errors.New("some random internal error"),
			wantCode:    "ERR000",
			wantMessage: "An unexpected error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if tt.wantMessage != "" && got.Message != tt.wantMessage {
				t.Errorf("MapError() message = %q, want %q", got.Message, tt.wantMessage)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	result := FormatUserError(store.ErrNotFound)

	expected := "Product not found (Code: PRD001). Refresh the product list and try again"
	if result != expected {
		t.Errorf("FormatUserError() = %q, want %q", result, expected)
	}
	if got := FormatUserError(nil); got != "" {
		t.Errorf("FormatUserError(nil) = %q, want empty", got)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error is not user facing", nil, false},
		{"known error is user facing", ErrNoFile, true},
		{"unknown error is not user facing", errors.New("random internal error xyz"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUserFacing(tt.err); got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewUserError(t *testing.T) {
	t.Run("nil error returns nil", func(t *testing.T) {
		if got := NewUserError(nil); got != nil {
			t.Errorf("NewUserError(nil) = %v, want nil", got)
		}
	})

	t.Run("wraps technical error with user message", func(t *testing.T) {
		techErr := fmt.Errorf("get product 42: %w", store.ErrNotFound)
		userErr := NewUserError(techErr)

		if userErr.Error() != "Product not found" {
			t.Errorf("Error() = %q, want user message", userErr.Error())
		}
		if !errors.Is(userErr, store.ErrNotFound) {
			t.Error("Unwrap() should return original error")
		}
	})
}
