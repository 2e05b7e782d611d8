package core

// error_messages.go maps technical errors to user-facing messages with codes.
//
// # Error Codes Reference
//
// # Input Errors
//
//	ENC001  - Encoding not recognized (neither UTF-8 nor Windows-1251)
//	          Action: Re-save the file as UTF-8 or Windows-1251
//
//	READ001 - A row has a different number of fields than the header
//	          Action: Check the reported line for a missing or extra delimiter
//
//	READ002 - The file has malformed quoting
//	          Action: Check quotes around fields on the reported line
//
//	READ003 - The file could not be read
//	          Action: Check the path and file permissions
//
// # Transform Errors
//
//	COL001  - Unknown column
//	          Action: Use a column name exactly as shown in the header row
//
//	ARG001  - Invalid action or argument
//	          Action: Check the action syntax, e.g. head=10 or select=Name,City
//
// # Output Errors
//
//	WRITE001 - Characters cannot be represented in the output encoding
//	           Action: Switch the output encoding to UTF-8
//
//	WRITE002 - The result file could not be written
//	           Action: Check the output path and free disk space
//
//	EXP001   - The ZIP export failed
//	           Action: Check the archive path and free disk space
//
// # Database Errors
//
//	DB001 - Push to the database failed
//	        Action: Check the table name and database connection
//
//	DB002 - No database is configured
//	        Action: Set DATABASE_URL and restart
//
// # Service Errors
//
//	SES001  - Session not found or expired
//	FILE001 - Upload exceeds the size limit
//	FILE002 - No file in the request
//	BUSY001 - Too many exports in progress
//	AUTH001 - Missing or invalid API key
//
// # Default Error (ERR000)
//
// Fallback when nothing matches. Check the logs for the technical error.
//
// # Matching
//
// Typed matchers (errors.Is / errors.As) run first, in order, followed by
// case-insensitive substring patterns for errors that only carry text, such
// as driver errors. The first match wins, so specific entries come first.

import (
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/csvmaster/internal/csvio"
	"github.com/JonMunkholm/csvmaster/internal/export"
	"github.com/JonMunkholm/csvmaster/internal/pgsink"
	"github.com/JonMunkholm/csvmaster/internal/table"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

var (
	msgEncoding = UserMessage{
		Message: "File encoding was not recognized",
		Action:  "Re-save the file as UTF-8 or Windows-1251",
		Code:    "ENC001",
	}
	msgFieldCount = UserMessage{
		Message: "A row has a different number of fields than the header",
		Action:  "Check the reported line for a missing or extra delimiter",
		Code:    "READ001",
	}
	msgQuoting = UserMessage{
		Message: "The file has malformed quoting",
		Action:  "Check quotes around fields on the reported line",
		Code:    "READ002",
	}
	msgRead = UserMessage{
		Message: "The file could not be read",
		Action:  "Check the path and file permissions",
		Code:    "READ003",
	}
	msgColumn = UserMessage{
		Message: "Unknown column",
		Action:  "Use a column name exactly as shown in the header row",
		Code:    "COL001",
	}
	msgArgument = UserMessage{
		Message: "Invalid action or argument",
		Action:  "Check the action syntax, e.g. head=10 or select=Name,City",
		Code:    "ARG001",
	}
	msgUnencodable = UserMessage{
		Message: "Some characters cannot be represented in the output encoding",
		Action:  "Switch the output encoding to UTF-8",
		Code:    "WRITE001",
	}
	msgWrite = UserMessage{
		Message: "The result file could not be written",
		Action:  "Check the output path and free disk space",
		Code:    "WRITE002",
	}
	msgExport = UserMessage{
		Message: "The ZIP export failed",
		Action:  "Check the archive path and free disk space",
		Code:    "EXP001",
	}
	msgPush = UserMessage{
		Message: "Push to the database failed",
		Action:  "Check the table name and database connection",
		Code:    "DB001",
	}
	msgNoDatabase = UserMessage{
		Message: "No database is configured",
		Action:  "Set DATABASE_URL and restart",
		Code:    "DB002",
	}
	msgSession = UserMessage{
		Message: "Session not found",
		Action:  "The session may have expired. Please upload the file again",
		Code:    "SES001",
	}
	msgTooLarge = UserMessage{
		Message: "File exceeds the maximum size limit",
		Action:  "Split the file or raise CSV_MAX_FILE_SIZE",
		Code:    "FILE001",
	}
	msgNoFile = UserMessage{
		Message: "No file was selected",
		Action:  "Please select a delimited text file to upload",
		Code:    "FILE002",
	}
	msgBusy = UserMessage{
		Message: "System is busy with other exports",
		Action:  "Please wait a moment and try again",
		Code:    "BUSY001",
	}
	msgAuth = UserMessage{
		Message: "Missing or invalid API key",
		Action:  "Send a valid key in the X-API-Key header",
		Code:    "AUTH001",
	}
)

// errorKind matches errors by identity or type.
type errorKind struct {
	match func(error) bool
	msg   UserMessage
}

func is(targets ...error) func(error) bool {
	return func(err error) bool {
		for _, t := range targets {
			if errors.Is(err, t) {
				return true
			}
		}
		return false
	}
}

func as[T error]() func(error) bool {
	return func(err error) bool {
		var target T
		return errors.As(err, &target)
	}
}

var errorKinds = []errorKind{
	{is(csvio.ErrEncodingUndetected), msgEncoding},
	{is(csvio.ErrFieldCount), msgFieldCount},
	{is(table.ErrUnknownColumn), msgColumn},
	{is(
		table.ErrInvalidArgument,
		csvio.ErrUnsupportedEncoding,
		csvio.ErrUnsupportedDelimiter,
		ErrUnknownAction,
		ErrInvalidAction,
		export.ErrInvalidBaseName,
		pgsink.ErrInvalidTableName,
	), msgArgument},
	{is(ErrNoDatabase), msgNoDatabase},
	{is(ErrSessionNotFound), msgSession},
	{is(ErrFileTooLarge), msgTooLarge},
	{is(ErrNoFile), msgNoFile},
	{is(ErrBusy), msgBusy},
	{is(ErrUnauthorized), msgAuth},
}

// errorPattern matches errors by message text.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns run after errorKinds, so wrappers such as WriteError only
// catch what no pattern claims.
var errorPatterns = []errorPattern{
	{"rune not supported", msgUnencodable},
	{"quoted-field", msgQuoting},
	{"request body too large", msgTooLarge},
}

// errorFallbacks are the broad wrapper types, checked last.
var errorFallbacks = []errorKind{
	{as[*pgsink.PushError](), msgPush},
	{as[*export.ExportError](), msgExport},
	{as[*csvio.WriteError](), msgWrite},
	{as[*csvio.ReadError](), msgRead},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or check the logs",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// A nil error yields the zero UserMessage.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, k := range errorKinds {
		if k.match(err) {
			return k.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	for _, k := range errorFallbacks {
		if k.match(err) {
			return k.msg
		}
	}

	return defaultMessage
}

// FormatUserError renders "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to something other than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
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

// NewUserError maps err; it returns nil for a nil err.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
