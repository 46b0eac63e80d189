// Package validator checks struct `validate` tags and reports failures as a
// field to message map keyed in snake_case.
package validator

// Validator validates structs using their `validate` tags.
type Validator interface {
	Validate(data any) error
}
