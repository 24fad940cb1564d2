// Package uid generates identifiers: numeric ids for persisted records and
// string ids for correlation and token identifiers.
package uid

// NumberID produces unique, roughly time ordered int64 identifiers.
type NumberID interface {
	Generate() int64
}

// StringID produces unique string identifiers.
type StringID interface {
	Generate() string
}
