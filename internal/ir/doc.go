// Package ir holds the data model shared by every other package: diagnostic
// kinds and records, source artifacts, and the immutable compilation result.
//
// ir imports nothing internal, so it stays the foundational layer with no
// circular dependencies.
//
// Key invariants:
//   - A Compilation is FAILED if and only if it carries a KindError diagnostic
//   - Diagnostic columns are only set when the line is set
//   - Generated source names are unique within one Compilation
//   - Snapshots are canonical JSON (sorted keys, NFC strings, no floats)
package ir
