// Package deviceid defines the unique-device-identifier collaborator:
// a non-secret, per-device diversifier folded into the CRC-32 whitener
// at startup so that two devices under identical physical conditions
// still diverge.
package deviceid

import (
	"crypto/rand"
	"encoding/binary"
	"os"
)

// MinLen is the minimum number of bytes a Provider must return. Only
// the first 12 bytes (three little-endian 32-bit words) are consumed
// by CRC reseeding; callers may return more.
const MinLen = 12

// Provider returns a device-specific, non-secret identifier.
type Provider interface {
	UniqueID() []byte
}

// ProviderFunc adapts a plain function to a Provider.
type ProviderFunc func() []byte

func (f ProviderFunc) UniqueID() []byte { return f() }

// Static always returns the same identifier. Useful for tests and for
// reproducing known-answer scenarios with a fixed
// unique_device_id of 12 41 24 BD 3B 48 62 AF 7A 0A 42 F1.
func Static(id []byte) Provider {
	cp := make([]byte, len(id))
	copy(cp, id)
	return ProviderFunc(func() []byte { return cp })
}

// Host derives a best-effort identifier on a general-purpose OS, where
// there is no burned-in silicon identifier to read: the hostname padded
// or truncated to MinLen bytes, falling back to random bytes if the
// hostname is unavailable or too short. This has no bearing on the
// entropy quality of the generator — it is a diversifier, not a secret
// or a source of randomness — so a fallback to crypto/rand here is
// about convenience, not security.
func Host() Provider {
	return ProviderFunc(func() []byte {
		id := make([]byte, MinLen)
		name, err := os.Hostname()
		if err == nil && len(name) > 0 {
			n := copy(id, name)
			if n < MinLen {
				_, _ = rand.Read(id[n:])
			}
			return id
		}
		_, _ = rand.Read(id)
		return id
	})
}

// Words splits the first 12 bytes of id into three little-endian
// 32-bit words, per the data model's fixed byte ordering. id must be
// at least MinLen bytes long.
func Words(id []byte) [3]uint32 {
	var w [3]uint32
	for i := range w {
		w[i] = binary.LittleEndian.Uint32(id[i*4:])
	}
	return w
}
