package logging

// Field name constants for structured logging.
const (
	FieldError  = "error"
	FieldPath   = "path"
	FieldConfig = "config"

	FieldRecovery = "recovery"
	FieldEffort   = "effort"
	FieldEvents   = "events"
	FieldErrors   = "errors"
	FieldLine     = "line"
	FieldColumn   = "column"

	FieldVersion = "version"
	FieldCommit  = "commit"
	FieldBuilt   = "built"
)
