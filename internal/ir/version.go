package ir

// Version constants for the migration format and tool.
const (
	// FormatVersion is the new-form predicate encoding version written by the tool.
	FormatVersion = "2"

	// ToolVersion is the treemig version recorded in run ledgers.
	ToolVersion = "0.1.0"
)
