package api

const (
	// Generic request/server errors
	CodeInvalidRequest = "E_INVALID_REQUEST" // bad or invalid request
	CodeInternalError  = "E_INTERNAL_ERROR"  // internal server error
	CodeRateLimited    = "E_RATE_LIMITED"    // too many requests from one client

	// Auth errors
	CodeAuthInvalidCredentials    = "E_AUTH_INVALID_CREDENTIALS"     // token is invalid, expired, or malformed.
	CodeAuthTokenGenerationFailed = "E_AUTH_TOKEN_GENERATION_FAILED" // a failure during the generation of a session token.

	// Task errors
	CodeTaskActionFailed = "E_TASK_ACTION_FAILED" // an action of the action list could not be applied.
	CodeTaskBadRequest   = "E_TASK_BAD_REQUEST"   // the `r` form field is missing or not a valid request document.
)
