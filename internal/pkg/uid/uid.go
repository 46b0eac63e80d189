// Package uid generates identifiers.
//
// NumberID yields sortable int64 ids (account keys). StringID yields opaque
// string ids (passcode records, correlation ids).
package uid

// NumberID generates int64 identifiers.
type NumberID interface {
	Generate() int64
}

// StringID generates string identifiers.
type StringID interface {
	Generate() string
}
