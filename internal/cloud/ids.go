package cloud

import (
	"encoding/binary"

	"github.com/google/uuid"
)

// RequestID returns a random client token for correlating a request with
// the device's reply.
func RequestID() uint32 {
	id := uuid.New()
	return binary.LittleEndian.Uint32(id[:4])
}

// NewEnvID returns a random 16-byte environment id for the envId field.
func NewEnvID() []byte {
	id := uuid.New()
	return id[:]
}
