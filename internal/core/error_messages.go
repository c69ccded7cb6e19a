package core

// error_messages.go maps technical errors to user-facing messages with a
// code that support staff can look up.
//
// # Product Errors (PRD001-PRD099)
//
//	PRD001 - Product not found
//	PRD002 - Size index out of range
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL001 - Product fields failed validation
//	VAL002 - Request body is not valid JSON
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File exceeds the upload size limit
//	FILE002 - File could not be parsed
//	FILE003 - Unsupported file type
//	FILE004 - No file provided
//	FILE005 - File has no data rows
//	FILE006 - Workbook has no sheets
//	FILE007 - Workbook could not be opened
//
// # Import Errors (IMP001-IMP099)
//
//	IMP001 - Too many imports in progress
//	IMP002 - Import session not found or expired
//	IMP003 - Import has no accepted rows to commit
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Duplicate key
//	DB004 - Connection refused
//	DB005 - Connection reset
//	DB006 - Timeout
//	DB007 - Deadlock
//
// # Request Errors (REQ001-REQ099)
//
//	REQ001 - Request cancelled
//	REQ002 - Request timed out
//	RATE001 - Rate limited
//
// # Default Error (ERR000)
//
// Sentinel errors are matched with errors.Is first. Anything else falls back
// to case-insensitive substring patterns; the first match wins.

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/albaseet/catalog/internal/catalog"
	"github.com/albaseet/catalog/internal/importer"
	"github.com/albaseet/catalog/internal/store"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"` // What happened (user-friendly)
	Action  string `json:"action"`  // What to do about it
	Code    string `json:"code"`    // Error code for support reference
}

// errorKind maps a sentinel error to its user message.
type errorKind struct {
	target error
	msg    UserMessage
}

var errorKinds = []errorKind{
	{store.ErrNotFound, UserMessage{
		Message: "Product not found",
		Action:  "Refresh the product list and try again",
		Code:    "PRD001",
	}},
	{catalog.ErrSizeIndex, UserMessage{
		Message: "This product has no size at that position",
		Action:  "Reload the product and pick an existing size",
		Code:    "PRD002",
	}},
	{ErrValidation, UserMessage{
		Message: "Some product fields are invalid",
		Action:  "Fill in both names and use non-negative prices and stock",
		Code:    "VAL001",
	}},
	{ErrInvalidBody, UserMessage{
		Message: "The request body could not be read",
		Action:  "Send a valid JSON object",
		Code:    "VAL002",
	}},
	{ErrFileTooLarge, UserMessage{
		Message: "File exceeds the maximum upload size",
		Action:  "Split the file into smaller sheets",
		Code:    "FILE001",
	}},
	{importer.ErrUnsupportedFormat, UserMessage{
		Message: "Unsupported file type",
		Action:  "Upload an .xlsx, .csv or .tsv file",
		Code:    "FILE003",
	}},
	{ErrNoFile, UserMessage{
		Message: "No file was selected",
		Action:  "Choose a spreadsheet to upload",
		Code:    "FILE004",
	}},
	{importer.ErrEmptyFile, UserMessage{
		Message: "The uploaded file has no data rows",
		Action:  "Download the template and fill in at least one product",
		Code:    "FILE005",
	}},
	{importer.ErrNoSheets, UserMessage{
		Message: "The workbook has no sheets",
		Action:  "Add a sheet with a header row and products",
		Code:    "FILE006",
	}},
	{ErrTooManyImports, UserMessage{
		Message: "The system is busy with other imports",
		Action:  "Please wait a moment and try again",
		Code:    "IMP001",
	}},
	{ErrImportNotFound, UserMessage{
		Message: "Import session not found",
		Action:  "The preview may have expired. Upload the file again",
		Code:    "IMP002",
	}},
	{ErrNothingToImport, UserMessage{
		Message: "No valid products to import",
		Action:  "Fix the rejected rows and upload the file again",
		Code:    "IMP003",
	}},
	{context.Canceled, UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "REQ001",
	}},
	{context.DeadlineExceeded, UserMessage{
		Message: "Request timed out",
		Action:  "Try a smaller file or try again later",
		Code:    "REQ002",
	}},
}

var parseErrorMessage = UserMessage{
	Message: "The file could not be read",
	Action:  "Save it again as .xlsx or UTF-8 .csv and retry",
	Code:    "FILE002",
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns matches driver errors that carry no sentinel.
// Specific patterns come before general ones.
var errorPatterns = []errorPattern{
	{"open workbook", UserMessage{
		Message: "The workbook could not be opened",
		Action:  "Check the file is a valid Excel workbook",
		Code:    "FILE007",
	}},
	{"duplicate key", UserMessage{
		Message: "A product with this ID already exists",
		Action:  "Refresh the product list and try again",
		Code:    "DB001",
	}},
	{"connection refused", UserMessage{
		Message: "Unable to connect to database",
		Action:  "Please try again in a few moments",
		Code:    "DB004",
	}},
	{"connection reset", UserMessage{
		Message: "Database connection was interrupted",
		Action:  "Please try again",
		Code:    "DB005",
	}},
	{"timeout", UserMessage{
		Message: "Operation timed out",
		Action:  "Try a smaller file or try again later",
		Code:    "DB006",
	}},
	{"deadlock", UserMessage{
		Message: "Database was busy with conflicting operations",
		Action:  "Please try again",
		Code:    "DB007",
	}},
	{"rate limit", UserMessage{
		Message: "Too many requests",
		Action:  "Please wait a moment before trying again",
		Code:    "RATE001",
	}},
}

// defaultMessage is returned when nothing matches (ERR000).
// Support staff should check the logs for the technical error.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
//
//	msg := MapError(fmt.Errorf("get product: %w", store.ErrNotFound))
//	// msg.Code == "PRD001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, k := range errorKinds {
		if errors.Is(err, k.target) {
			return k.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	var pe *importer.ParseError
	if errors.As(err, &pe) {
		return parseErrorMessage
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to something more specific than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user message.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err and keeps it reachable through Unwrap.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
