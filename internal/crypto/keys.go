package crypto

import (
	"encoding/hex"
	"errors"
	"fmt"
)

// ErrMissingKey is returned when an encrypted file is read without its key.
var ErrMissingKey = errors.New("crypto: key not configured")

// LEAKeyDelta holds the LEA key-schedule round constants.
var LEAKeyDelta = [8]uint32{
	0xc3efe9db, 0x44626b02, 0x79e27c8a, 0x78df30ec,
	0x715ea49e, 0xc785da0a, 0xe04ef22a, 0xe5c40957,
}

// Keys holds the file keys for encrypted BMD versions. Either may be unset.
type Keys struct {
	xor    [16]byte
	lea    [32]byte
	hasXOR bool
	hasLEA bool
}

// ParseKeys decodes hex key strings. Empty strings leave that key unset.
func ParseKeys(xorHex, leaHex string) (Keys, error) {
	var k Keys
	if xorHex != "" {
		raw, err := hex.DecodeString(xorHex)
		if err != nil {
			return Keys{}, fmt.Errorf("crypto: xor key: %w", err)
		}
		if len(raw) != len(k.xor) {
			return Keys{}, fmt.Errorf("crypto: xor key must be %d bytes, got %d", len(k.xor), len(raw))
		}
		copy(k.xor[:], raw)
		k.hasXOR = true
	}
	if leaHex != "" {
		raw, err := hex.DecodeString(leaHex)
		if err != nil {
			return Keys{}, fmt.Errorf("crypto: lea key: %w", err)
		}
		if len(raw) != len(k.lea) {
			return Keys{}, fmt.Errorf("crypto: lea key must be %d bytes, got %d", len(k.lea), len(raw))
		}
		copy(k.lea[:], raw)
		k.hasLEA = true
	}
	return k, nil
}

// XOR returns the v12 key.
func (k Keys) XOR() ([16]byte, error) {
	if !k.hasXOR {
		return k.xor, fmt.Errorf("%w: xor", ErrMissingKey)
	}
	return k.xor, nil
}

// LEA returns the v15 key.
func (k Keys) LEA() ([32]byte, error) {
	if !k.hasLEA {
		return k.lea, fmt.Errorf("%w: lea", ErrMissingKey)
	}
	return k.lea, nil
}
