package dto

import "net/http"

// Error codes carried in the error envelope. Domain errors raise short codes
// such as NO_OPEN_PERIOD; NormalizeErrorCode lifts them into the ERR_ form.

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation error codes
const (
	// ErrCodeValidation is the base code for validation errors
	ErrCodeValidation = "ERR_VALIDATION"
)

// Authentication error codes
const (
	// ErrCodeUnauthorized is used when authentication is required but missing/invalid
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	// ErrCodeForbidden is used when the user lacks permission
	ErrCodeForbidden = "ERR_FORBIDDEN"
	// ErrCodeTokenExpired is used when the auth token has expired
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	// ErrCodeTokenInvalid is used when the auth token is invalid
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeAlreadyExists is used when trying to create a duplicate resource
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	// ErrCodeConflict is used for general resource conflicts
	ErrCodeConflict = "ERR_CONFLICT"
	// ErrCodeConcurrencyConflict is used when optimistic locking fails
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
)

// Business rule error codes
const (
	// ErrCodeInvalidState is used when an operation is invalid for current state
	ErrCodeInvalidState = "ERR_INVALID_STATE"
)

// Input error codes
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
)

// Ledger error codes
const (
	// ErrCodeNoOpenPeriod is used when no open fiscal period covers the entry date
	ErrCodeNoOpenPeriod = "ERR_NO_OPEN_PERIOD"
	// ErrCodeUnbalancedEntry is used when debits and credits differ
	ErrCodeUnbalancedEntry = "ERR_UNBALANCED_ENTRY"
	// ErrCodeEmptyEntry is used when an entry without lines is posted
	ErrCodeEmptyEntry = "ERR_EMPTY_ENTRY"
	// ErrCodeHeaderAccount is used when a line targets a header account
	ErrCodeHeaderAccount = "ERR_HEADER_ACCOUNT"
	// ErrCodeAccountInactive is used when a line targets an inactive account
	ErrCodeAccountInactive = "ERR_ACCOUNT_INACTIVE"
	// ErrCodeInvalidLineAmount is used when a line is not exactly one positive side
	ErrCodeInvalidLineAmount = "ERR_INVALID_LINE_AMOUNT"
	// ErrCodeEntryNotDraft is used when a posted entry is modified
	ErrCodeEntryNotDraft = "ERR_ENTRY_NOT_DRAFT"
	// ErrCodeAccountMappingMissing is used when no account serves a posting role
	ErrCodeAccountMappingMissing = "ERR_ACCOUNT_MAPPING_MISSING"
	// ErrCodePeriodOverlap is used when a new period shares days with another
	ErrCodePeriodOverlap = "ERR_PERIOD_OVERLAP"
	// ErrCodePeriodInUse is used when deleting a period that entries reference
	ErrCodePeriodInUse = "ERR_PERIOD_IN_USE"
	// ErrCodeInvalidPeriodTransition is used for forbidden period status changes
	ErrCodeInvalidPeriodTransition = "ERR_INVALID_PERIOD_TRANSITION"
	// ErrCodeAccountHasBalance is used when deleting an account that carries a balance
	ErrCodeAccountHasBalance = "ERR_ACCOUNT_HAS_BALANCE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// General errors
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	// Validation errors -> 400 Bad Request
	ErrCodeValidation: http.StatusBadRequest,

	// Auth errors
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,

	// Resource errors
	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,

	// Business rule errors -> 422 Unprocessable Entity
	ErrCodeInvalidState: http.StatusUnprocessableEntity,

	// Input errors -> 400 Bad Request
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,

	// Ledger rules -> 422 Unprocessable Entity, overlaps -> 409
	ErrCodeNoOpenPeriod:            http.StatusUnprocessableEntity,
	ErrCodeUnbalancedEntry:         http.StatusUnprocessableEntity,
	ErrCodeEmptyEntry:              http.StatusUnprocessableEntity,
	ErrCodeHeaderAccount:           http.StatusUnprocessableEntity,
	ErrCodeAccountInactive:         http.StatusUnprocessableEntity,
	ErrCodeInvalidLineAmount:       http.StatusUnprocessableEntity,
	ErrCodeEntryNotDraft:           http.StatusUnprocessableEntity,
	ErrCodeAccountMappingMissing:   http.StatusUnprocessableEntity,
	ErrCodePeriodOverlap:           http.StatusConflict,
	ErrCodePeriodInUse:             http.StatusConflict,
	ErrCodeInvalidPeriodTransition: http.StatusUnprocessableEntity,
	ErrCodeAccountHasBalance:       http.StatusUnprocessableEntity,
}

// ErrorHelp holds the remedy attached to ledger rule violations
var ErrorHelp = map[string]string{
	ErrCodeNoOpenPeriod:          "Open or create a fiscal period covering the entry date",
	ErrCodeAccountMappingMissing: "Create an active posting account with the code the posting role resolves to",
	ErrCodeUnbalancedEntry:       "Total debits must equal total credits",
	ErrCodeHeaderAccount:         "Post to a detail account below the header",
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// LegacyErrorCodeMapping maps domain error codes to envelope codes
var LegacyErrorCodeMapping = map[string]string{
	"NOT_FOUND":             ErrCodeNotFound,
	"ALREADY_EXISTS":        ErrCodeAlreadyExists,
	"INVALID_INPUT":         ErrCodeInvalidInput,
	"INVALID_STATE":         ErrCodeInvalidState,
	"UNAUTHORIZED":          ErrCodeUnauthorized,
	"FORBIDDEN":             ErrCodeForbidden,
	"CONCURRENCY_CONFLICT":  ErrCodeConcurrencyConflict,
	"VALIDATION_ERROR":      ErrCodeValidation,
	"BAD_REQUEST":           ErrCodeBadRequest,
	"INTERNAL_ERROR":        ErrCodeInternal,
	"OPTIMISTIC_LOCK_ERROR": ErrCodeConcurrencyConflict,

	"NO_OPEN_PERIOD":            ErrCodeNoOpenPeriod,
	"UNBALANCED_ENTRY":          ErrCodeUnbalancedEntry,
	"EMPTY_ENTRY":               ErrCodeEmptyEntry,
	"HEADER_ACCOUNT":            ErrCodeHeaderAccount,
	"ACCOUNT_INACTIVE":          ErrCodeAccountInactive,
	"INVALID_LINE_AMOUNT":       ErrCodeInvalidLineAmount,
	"ENTRY_NOT_DRAFT":           ErrCodeEntryNotDraft,
	"ACCOUNT_MAPPING_MISSING":   ErrCodeAccountMappingMissing,
	"PERIOD_OVERLAP":            ErrCodePeriodOverlap,
	"PERIOD_IN_USE":             ErrCodePeriodInUse,
	"INVALID_PERIOD_TRANSITION": ErrCodeInvalidPeriodTransition,
	"ACCOUNT_HAS_BALANCE":       ErrCodeAccountHasBalance,
	"ACCOUNT_NOT_FOUND":         ErrCodeNotFound,
	"TENANT_MISMATCH":           ErrCodeForbidden,
	"ENTRY_NOT_POSTED":          ErrCodeInvalidState,

	// aggregate field validation
	"INVALID_ACCOUNT":        ErrCodeInvalidInput,
	"INVALID_ACCOUNT_CODE":   ErrCodeInvalidInput,
	"INVALID_ACCOUNT_NAME":   ErrCodeInvalidInput,
	"INVALID_ACCOUNT_TYPE":   ErrCodeInvalidInput,
	"INVALID_PARENT_ACCOUNT": ErrCodeInvalidInput,
	"INVALID_ENTRY_DATE":     ErrCodeInvalidInput,
	"INVALID_ENTRY_NUMBER":   ErrCodeInvalidInput,
	"INVALID_FISCAL_YEAR":    ErrCodeInvalidInput,
	"INVALID_LINE":           ErrCodeInvalidInput,
	"INVALID_PERIOD":         ErrCodeInvalidInput,
	"INVALID_PERIOD_CODE":    ErrCodeInvalidInput,
	"INVALID_PERIOD_NUMBER":  ErrCodeInvalidInput,
	"INVALID_PERIOD_RANGE":   ErrCodeInvalidInput,
	"INVALID_SOURCE_TYPE":    ErrCodeInvalidInput,
	"INVALID_TENANT":         ErrCodeInvalidInput,
}

// NormalizeErrorCode converts a legacy error code to the standardized format
// If the code is already in the new format or unknown, returns it as-is
func NormalizeErrorCode(code string) string {
	if newCode, ok := LegacyErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}
