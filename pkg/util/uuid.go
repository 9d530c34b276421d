package util

import (
	"math/big"

	"github.com/google/uuid"
)

// contentSpace namespaces name-based ids for converted output.
var contentSpace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/jpfielding/dcmview"))

// ContentID returns a stable id for the given parts, used as an ETag.
func ContentID(parts ...[]byte) string {
	var data []byte
	for _, p := range parts {
		data = append(data, p...)
		data = append(data, 0)
	}
	return uuid.NewSHA1(contentSpace, data).String()
}

// RequestID returns a random id for a request.
func RequestID() string {
	return uuid.NewString()
}

// DicomUID returns a random UID under the 2.25 root (UUID derived, PS3.5 B.2).
func DicomUID() string {
	u := uuid.New()
	return "2.25." + new(big.Int).SetBytes(u[:]).String()
}
