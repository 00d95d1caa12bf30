package websocket

import "github.com/google/uuid"

// newID returns a random identifier of the form "{prefix}-{uuid}".
func newID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}
