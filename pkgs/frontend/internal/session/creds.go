package session

import (
	"github.com/spaolacci/murmur3"
)

// HashCredentials returns the hash binding a session to the
// Authorization headers of the request that opened it.
func HashCredentials(authHeaders []string) uint64 {

	h := murmur3.New64()
	for _, v := range authHeaders {
		_, _ = h.Write([]byte(v))
		_, _ = h.Write([]byte{0})
	}

	return h.Sum64() & 0x7FFFFFFFFFFFFFFF // #nosec G115
}
