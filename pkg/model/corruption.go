// pkg/model/corruption.go
package model

// Corruption operation and reason identifiers
const (
	OperationMissingInjection = "missing_injection"
	ReasonConfiguredFraction  = "configured_fraction"
)

// CorruptionOperation represents a single cell overwritten after generation
type CorruptionOperation struct {
	ColumnName    string      // Column that was corrupted
	RowIndex      int         // Position of the row in the dataset
	RowIdentifier string      // device_id of the row
	OriginalValue interface{} // Value before corruption (nil when the cell was null by construction)
	Operation     string      // Type of corruption performed (e.g., "missing_injection")
	Reason        string      // Why the cell was selected
}
