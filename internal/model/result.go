package model

// AuditDebugRecord captures one auditor run's raw output for inspection.
type AuditDebugRecord struct {
	AuditNumber int    `json:"audit_number"`
	RawResponse string `json:"raw_response,omitempty"`
	ParsedCount int    `json:"parsed_count"`
	Error       string `json:"error,omitempty"`
}

// DebugInfo is the optional inspection package attached to a result.
type DebugInfo struct {
	Audits        []AuditDebugRecord `json:"audits,omitempty"`
	FilterRawText string             `json:"filter_raw_text,omitempty"`
	// SuspiciousWipe is set when the filter agent emptied a non-trivial
	// finding set: worth a human look, not a confirmed true negative.
	SuspiciousWipe bool `json:"suspicious_wipe,omitempty"`
	FailedAudits   int  `json:"failed_audits,omitempty"`
}

// AnalysisResult is the package returned by the core to its caller.
type AnalysisResult struct {
	Success    bool        `json:"success"`
	Violations []Violation `json:"violations"`

	TotalViolationsFound int     `json:"total_violations_found"`
	UniqueViolations     int     `json:"unique_violations"`
	ProcessingTime       float64 `json:"processing_time_seconds"`

	Error string `json:"error,omitempty"`

	Debug *DebugInfo `json:"debug_info,omitempty"`
}
