package seal

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// HandleSize is the size of a ciphertext handle.
const HandleSize = 32

var ErrInvalidHandle = errors.New("invalid ciphertext handle")

// Handle is an opaque 32-byte reference to an encrypted value held by
// the external encryption backend. The registry never sees the
// ciphertext bytes it points at, let alone the plaintext; it only
// binds handles to (record, slot) and gates who may ask the backend
// to decrypt them.
type Handle [HandleSize]byte

func ParseHandle(s string) (Handle, error) {
	var h Handle
	if err := h.UnmarshalText([]byte(s)); err != nil {
		return Handle{}, err
	}
	return h, nil
}

func (h Handle) String() string { return "0x" + hex.EncodeToString(h[:]) }
func (h Handle) IsZero() bool   { return h == Handle{} }

func (h Handle) MarshalText() ([]byte, error) { return []byte(h.String()), nil }

func (h *Handle) UnmarshalText(text []byte) error {
	s := strings.TrimPrefix(strings.TrimSpace(string(text)), "0x")
	b, err := hex.DecodeString(strings.ToLower(s))
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidHandle, s)
	}
	if len(b) != HandleSize {
		return fmt.Errorf("%w: want %d bytes, got %d", ErrInvalidHandle, HandleSize, len(b))
	}
	copy(h[:], b)
	return nil
}
