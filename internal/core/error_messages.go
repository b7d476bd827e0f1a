package core

// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support reference.
// Error codes are grouped by category:
//
// # Table Errors (TBL001-TBL099)
//
//	TBL001 - Invalid selection: The requested rows cannot be selected
//	         Action: Select a single row, or only rows that exist
//	         Patterns: "invalid selection"
//
//	TBL002 - Unknown column: The table has no such column
//	         Action: Check the column name
//	         Patterns: "unknown column"
//
//	TBL003 - Row out of range: The row does not exist
//	         Action: Refresh the table and try again
//	         Patterns: "row index out of range"
//
//	TBL004 - Bad page size: Rows per page must be positive
//	         Action: Choose one of the offered page sizes
//	         Patterns: "rows per page"
//
//	TBL005 - Invalid columns: The dataset's columns are misconfigured
//	         Action: Fix the dataset definition
//	         Patterns: "duplicate column name", "column name is empty"
//
// # Dataset Errors (DS001-DS099)
//
//	DS001 - Unknown dataset: The dataset does not exist
//	        Action: Verify the dataset name is correct
//	        Patterns: "unknown dataset"
//
//	DS002 - Session expired: The table session was closed
//	        Action: Reopen the table
//	        Patterns: "session not found"
//
//	DS003 - System busy: Too many tables are open
//	        Action: Close a table or wait a moment and try again
//	        Patterns: "too many open sessions"
//
//	DS004 - System busy: Too many tables are loading rows
//	        Action: Try again shortly
//	        Patterns: "too many concurrent fetches"
//
// # Database Errors (DB001-DB099)
//
//	DB004 - Connection refused: Unable to connect to database
//	DB005 - Connection reset: Database connection was interrupted
//	DB006 - Timeout: Operation timed out
//
// # Request Errors (REQ001-REQ099)
//
//	REQ001 - Request cancelled ("context canceled")
//	REQ002 - Request timeout ("context deadline exceeded")
//	REQ003 - Bad request body ("invalid request body")
//
// # Rate Limiting (RATE001-RATE099)
//
//	RATE001 - Rate limited: Too many requests
//
// # Default Error (ERR000)
//
//	ERR000 - Unknown error: An unexpected error occurred
//
// # Pattern Matching
//
// Error patterns are matched case-insensitively using strings.Contains.
// The first matching pattern wins, so more specific patterns come first.

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error patterns (case-insensitive) to user messages.
// Order matters: the first match wins.
var errorPatterns = []errorPattern{
	// Table errors
	{
		pattern: "invalid selection",
		msg: UserMessage{
			Message: "The requested rows cannot be selected",
			Action:  "Select a single row, or only rows that exist",
			Code:    "TBL001",
		},
	},
	{
		pattern: "unknown column",
		msg: UserMessage{
			Message: "The table has no such column",
			Action:  "Check the column name",
			Code:    "TBL002",
		},
	},
	{
		pattern: "row index out of range",
		msg: UserMessage{
			Message: "The row does not exist",
			Action:  "Refresh the table and try again",
			Code:    "TBL003",
		},
	},
	{
		pattern: "rows per page",
		msg: UserMessage{
			Message: "Rows per page must be positive",
			Action:  "Choose one of the offered page sizes",
			Code:    "TBL004",
		},
	},
	{
		pattern: "duplicate column name",
		msg: UserMessage{
			Message: "The dataset's columns are misconfigured",
			Action:  "Fix the dataset definition",
			Code:    "TBL005",
		},
	},
	{
		pattern: "column name is empty",
		msg: UserMessage{
			Message: "The dataset's columns are misconfigured",
			Action:  "Fix the dataset definition",
			Code:    "TBL005",
		},
	},

	// Dataset and session errors
	{
		pattern: "unknown dataset",
		msg: UserMessage{
			Message: "Dataset not found",
			Action:  "Verify the dataset name is correct",
			Code:    "DS001",
		},
	},
	{
		pattern: "session not found",
		msg: UserMessage{
			Message: "Table session not found",
			Action:  "The table may have been closed. Please reopen it",
			Code:    "DS002",
		},
	},
	{
		pattern: "too many open sessions",
		msg: UserMessage{
			Message: "Too many tables are open",
			Action:  "Close a table or wait a moment and try again",
			Code:    "DS003",
		},
	},
	{
		pattern: "too many concurrent fetches",
		msg: UserMessage{
			Message: "System busy",
			Action:  "Too many tables are loading. Please try again shortly",
			Code:    "DS004",
		},
	},

	// Database connection errors
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB004",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB005",
		},
	},

	// Request errors
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "REQ001",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Narrow the filters or try again later",
			Code:    "REQ002",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Narrow the filters or try again later",
			Code:    "DB006",
		},
	},
	{
		pattern: "invalid request body",
		msg: UserMessage{
			Message: "The request could not be read",
			Action:  "Check the request payload",
			Code:    "REQ003",
		},
	},

	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// If no pattern matches, a generic fallback message with code ERR000 is returned.
//
// Example:
//
//	msg := MapError(&InvalidSelectionError{Reason: "more than one row in single mode"})
//	// msg.Code == "TBL001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
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

// IsUserFacing reports whether an error matches a known pattern rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	msg := MapError(err)
	return msg.Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-facing message.
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

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
