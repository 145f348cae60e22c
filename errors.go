package consolida

import (
	"fmt"

	"github.com/pkg/errors"
)

// Error codes
var (
	// ErrNotFound is returned when a fund key is absent from the store.
	ErrNotFound = errors.New("not found")
	// ErrMissingTable is returned when a required source table is absent
	// from the snapshot.
	ErrMissingTable = errors.New("tabela obrigatória ausente")
)

// MalformedRecordError reports a source row that could not be parsed. The
// row is skipped and the run continues; one bad row must not abort the
// consolidation of the remaining ones.
type MalformedRecordError struct {
	Line   int
	Reason string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("linha %d malformada: %s", e.Line, e.Reason)
}

// ReferentialGapError reports a class or subclass referencing a parent key
// absent from its parent table. Non-fatal: the orphan is flagged and kept
// in the flattened output.
type ReferentialGapError struct {
	Table  string
	Key    string
	Parent string
}

func (e *ReferentialGapError) Error() string {
	return fmt.Sprintf("%s %q referencia pai inexistente %q", e.Table, e.Key, e.Parent)
}

// StoreUnavailableError reports a failed read or write on the snapshot
// store. Fatal: the run aborts before any partial commit.
type StoreUnavailableError struct {
	Op  string
	Err error
}

func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("armazenamento indisponível (%s): %v", e.Op, e.Err)
}

func (e *StoreUnavailableError) Unwrap() error { return e.Err }

// ExportError reports a failed export. Fatal for the export call only; the
// store is unaffected.
type ExportError struct {
	Destination string
	Err         error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("erro ao exportar para %q: %v", e.Destination, e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }
