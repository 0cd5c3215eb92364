package errors

// ErrorCode identifies an application error class in API responses
type ErrorCode int32

const (
	ErrorCode_HTTP_OK ErrorCode = 0

	// General
	ErrorCode_INTERNAL         ErrorCode = 1000
	ErrorCode_INVALID_ARGUMENT ErrorCode = 1001
	ErrorCode_NOT_FOUND        ErrorCode = 1002
	ErrorCode_INVALID_PAYLOAD  ErrorCode = 1003

	// Pipeline
	ErrorCode_CONFIGURATION ErrorCode = 2000
	ErrorCode_VALIDATION    ErrorCode = 2001
	ErrorCode_UPSTREAM      ErrorCode = 2002
	ErrorCode_TIMED_OUT     ErrorCode = 2003
	ErrorCode_EMPTY_MIX     ErrorCode = 2004
	ErrorCode_MEDIA_ENGINE  ErrorCode = 2005

	// Integrations
	ErrorCode_INTEGRATION_STORAGE_FAILED ErrorCode = 3000
	ErrorCode_INTEGRATION_CACHE_FAILED   ErrorCode = 3001
	ErrorCode_DB_QUERY_FAILED            ErrorCode = 3002
)

var errorCodeNames = map[ErrorCode]string{
	ErrorCode_HTTP_OK:                    "OK",
	ErrorCode_INTERNAL:                   "INTERNAL",
	ErrorCode_INVALID_ARGUMENT:           "INVALID_ARGUMENT",
	ErrorCode_NOT_FOUND:                  "NOT_FOUND",
	ErrorCode_INVALID_PAYLOAD:            "INVALID_PAYLOAD",
	ErrorCode_CONFIGURATION:              "CONFIGURATION",
	ErrorCode_VALIDATION:                 "VALIDATION",
	ErrorCode_UPSTREAM:                   "UPSTREAM",
	ErrorCode_TIMED_OUT:                  "TIMED_OUT",
	ErrorCode_EMPTY_MIX:                  "EMPTY_MIX",
	ErrorCode_MEDIA_ENGINE:               "MEDIA_ENGINE",
	ErrorCode_INTEGRATION_STORAGE_FAILED: "INTEGRATION_STORAGE_FAILED",
	ErrorCode_INTEGRATION_CACHE_FAILED:   "INTEGRATION_CACHE_FAILED",
	ErrorCode_DB_QUERY_FAILED:            "DB_QUERY_FAILED",
}

// String returns the symbolic name of the code
func (c ErrorCode) String() string {
	if name, ok := errorCodeNames[c]; ok {
		return name
	}
	return "UNKNOWN"
}
