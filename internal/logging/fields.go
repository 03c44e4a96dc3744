package logging

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldSubjectID is the standardized structured logging key for group/subject identifiers.
	FieldSubjectID = "subject_id"
	// FieldEntryID is the standardized structured logging key for check-queue entry identifiers.
	FieldEntryID = "entry_id"
	// FieldStatus is the standardized structured logging key for queue entry statuses.
	FieldStatus = "status"
	// FieldCorrelationID is the standardized structured logging key for request correlation identifiers.
	FieldCorrelationID = "correlation_id"
	// FieldEventType is the standardized structured logging key classifying warning/error events.
	FieldEventType = "event_type"
	// FieldErrorHint is the standardized structured logging key suggesting an operator next step.
	FieldErrorHint = "error_hint"
)
