package uid

import "github.com/google/uuid"

// UUID yields v7 UUID strings, which sort by creation time. Passcode record
// ids and correlation ids come from here.
type UUID struct{}

func NewUUID() UUID { return UUID{} }

func (UUID) Generate() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}
