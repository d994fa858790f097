package constants

// Context keys shared between middleware and handlers
const (
	ContextKeyUserID      = "user_id"
	ContextKeyTokenID     = "token_id"
	ContextKeyTokenExpiry = "token_expiry"
	ContextKeyTaskID      = "task_id"
	ContextKeyRequestID   = "request_id"
)

// HeaderRequestID is echoed back on every response
const HeaderRequestID = "X-Request-ID"

// HeaderTotalCount carries the unpaginated result size of list endpoints
const HeaderTotalCount = "X-Total-Count"

// Auth
const (
	MinPasswordLength  = 6
	MaxPasswordLength  = 72 // bcrypt input limit in bytes
	MinJWTSecretLength = 32
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Task numbering
const (
	TaskNumberPrefix = "TASK-"
	TaskSequenceName = "task"
	TaskNumberDigits = 3
)

// MaxSuggestedTasks caps how many drafts a single suggestion request may return
const MaxSuggestedTasks = 20
