package credential

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"log"

	"github.com/cespare/xxhash/v2"
)

const codecVersion = 1

// tagSize is the truncated keyed-hash integrity tag appended to the payload.
// It exists to reject corrupted or foreign-key blobs cleanly, not to
// authenticate against an adversary.
const tagSize = 4

// ErrInvalidKey is returned by NewCodec when the obfuscation key is empty.
var ErrInvalidKey = errors.New("obfuscation key must not be empty")

// Codec obfuscates and deobfuscates strings with a fixed key.
//
// Codec instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Codec struct {
	key []byte
}

// NewCodec creates a [Codec] keyed by secret. The secret is typically baked
// into the consuming binary at build time via -ldflags.
func NewCodec(secret string) (*Codec, error) {
	if secret == "" {
		return nil, ErrInvalidKey
	}
	return &Codec{key: []byte(secret)}, nil
}

// Encode obfuscates plaintext. Encode("") returns "".
func (c *Codec) Encode(plaintext string) string {
	if plaintext == "" {
		return ""
	}

	payload := make([]byte, 1+len(plaintext))
	payload[0] = codecVersion
	copy(payload[1:], plaintext)
	c.applyKeystream(payload[1:])

	out := make([]byte, 0, len(payload)+tagSize)
	out = append(out, payload...)
	out = append(out, c.tag(payload)...)

	return base64.RawURLEncoding.EncodeToString(out)
}

// Decode reverses [Codec.Encode]. Any malformed input — bad base64, wrong
// version, truncated payload, tag mismatch — fails soft: Decode logs once
// and returns "". It never returns an error into callers, since a corrupted
// backup must read as "no session", not as a failure.
func (c *Codec) Decode(ciphertext string) string {
	if ciphertext == "" {
		return ""
	}

	raw, err := base64.RawURLEncoding.DecodeString(ciphertext)
	if err != nil {
		log.Print("goSession: credential decode rejected malformed encoding")
		return ""
	}
	if len(raw) < 1+1+tagSize {
		log.Print("goSession: credential decode rejected truncated payload")
		return ""
	}

	payload := raw[:len(raw)-tagSize]
	tag := raw[len(raw)-tagSize:]

	if payload[0] != codecVersion {
		log.Print("goSession: credential decode rejected unknown version")
		return ""
	}
	expected := c.tag(payload)
	if string(expected) != string(tag) {
		log.Print("goSession: credential decode rejected integrity mismatch")
		return ""
	}

	plain := make([]byte, len(payload)-1)
	copy(plain, payload[1:])
	c.applyKeystream(plain)

	return string(plain)
}

// applyKeystream XORs data in place with a keystream derived from the key.
// XOR is its own inverse, so the same call both encodes and decodes.
func (c *Codec) applyKeystream(data []byte) {
	var (
		block   [sha256.Size]byte
		counter uint64
		offset  = sha256.Size // force generation on first byte
	)

	for i := range data {
		if offset == sha256.Size {
			block = keystreamBlock(c.key, counter)
			counter++
			offset = 0
		}
		data[i] ^= block[offset]
		offset++
	}
}

func keystreamBlock(key []byte, counter uint64) [sha256.Size]byte {
	var ctr [8]byte
	binary.BigEndian.PutUint64(ctr[:], counter)

	h := sha256.New()
	h.Write(key)
	h.Write(ctr[:])

	var out [sha256.Size]byte
	copy(out[:], h.Sum(nil))
	return out
}

func (c *Codec) tag(payload []byte) []byte {
	d := xxhash.New()
	_, _ = d.Write(c.key)
	_, _ = d.Write(payload)

	var sum [8]byte
	binary.BigEndian.PutUint64(sum[:], d.Sum64())
	return sum[:tagSize]
}
