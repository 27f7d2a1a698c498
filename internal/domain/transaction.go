package domain

import "fmt"

// TransactionOutcome classifies the result of a verified register write.
type TransactionOutcome int

const (
	// TxCommitted means the full readback matched the written frame and the
	// validation bit was left set.
	TxCommitted TransactionOutcome = iota

	// TxRolledBack means the readback mismatched; the validation bit was
	// cleared and the mismatched fields are recorded.
	TxRolledBack

	// TxUnreachable means the transport timed out or lost the connection at
	// some step of the protocol.
	TxUnreachable
)

// String returns a human-readable representation of the outcome.
func (o TransactionOutcome) String() string {
	switch o {
	case TxCommitted:
		return "Committed"
	case TxRolledBack:
		return "RolledBack"
	case TxUnreachable:
		return "Unreachable"
	default:
		return "Unknown"
	}
}

// FieldMismatch records one register field whose readback differed from what
// was written.
type FieldMismatch struct {
	// Field is the register field name, e.g. "totalFlowRate".
	Field string `json:"field"`

	// Offset is the byte offset of the field in the register block.
	Offset int `json:"offset"`

	// Wrote and Read are hex renderings of the written and read bytes.
	Wrote string `json:"wrote"`
	Read  string `json:"read"`
}

// String renders the mismatch for diagnostics.
func (m FieldMismatch) String() string {
	return fmt.Sprintf("%s@%d: wrote %s, read %s", m.Field, m.Offset, m.Wrote, m.Read)
}

// TransactionResult is the outcome of one write-verify-commit-or-rollback
// sequence against the controller.
type TransactionResult struct {
	Outcome TransactionOutcome `json:"outcome"`

	// Mismatches is populated only for TxRolledBack.
	Mismatches []FieldMismatch `json:"mismatches,omitempty"`

	// Detail carries timeout context for TxUnreachable.
	Detail string `json:"detail,omitempty"`
}

// Committed reports whether the transaction left the validation bit set over
// a verified frame.
func (r TransactionResult) Committed() bool {
	return r.Outcome == TxCommitted
}
