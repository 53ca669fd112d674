// AngelaMos | 2026
// password.go

package identity

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/crypto/argon2"

	"github.com/smartpro-edu/smartpro/internal/core"
)

type HashParams struct {
	Time    uint32
	Memory  uint32
	Threads uint8
	KeyLen  uint32
	SaltLen int
}

var DefaultHashParams = HashParams{
	Time:    1,
	Memory:  64 * 1024,
	Threads: 4,
	KeyLen:  32,
	SaltLen: 16,
}

// Hasher produces and checks argon2id hashes in the PHC string format.
type Hasher struct {
	params HashParams

	dummyOnce sync.Once
	dummy     string
	dummyErr  error
}

func NewHasher(params HashParams) *Hasher {
	return &Hasher{params: params}
}

func (h *Hasher) Hash(password string) (string, error) {
	salt := make([]byte, h.params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	key := argon2.IDKey(
		[]byte(password),
		salt,
		h.params.Time,
		h.params.Memory,
		h.params.Threads,
		h.params.KeyLen,
	)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.params.Memory,
		h.params.Time,
		h.params.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

func (h *Hasher) Verify(password, encoded string) (bool, error) {
	params, salt, want, err := decodeHash(encoded)
	if err != nil {
		return false, err
	}

	got := argon2.IDKey(
		[]byte(password),
		salt,
		params.Time,
		params.Memory,
		params.Threads,
		params.KeyLen,
	)

	return subtle.ConstantTimeCompare(want, got) == 1, nil
}

// VerifyWithRehash also returns a fresh hash when the stored one was made
// with different parameters. A failed rehash is not an error.
func (h *Hasher) VerifyWithRehash(
	password, encoded string,
) (bool, string, error) {
	valid, err := h.Verify(password, encoded)
	if err != nil || !valid {
		return false, "", err
	}

	if !h.needsRehash(encoded) {
		return true, "", nil
	}

	fresh, err := h.Hash(password)
	if err != nil {
		//nolint:nilerr // password verified; rehash failure is non-critical
		return true, "", nil
	}
	return true, fresh, nil
}

// VerifyTimingSafe runs a full hash comparison even when encoded is empty,
// so unknown emails cost the same as wrong passwords.
func (h *Hasher) VerifyTimingSafe(
	password, encoded string,
) (bool, string, error) {
	if encoded != "" {
		return h.VerifyWithRehash(password, encoded)
	}

	dummy, err := h.dummyHash()
	if err != nil {
		return false, "", err
	}
	//nolint:errcheck // result discarded; only the work matters
	_, _ = h.Verify(password, dummy)
	return false, "", nil
}

func (h *Hasher) dummyHash() (string, error) {
	h.dummyOnce.Do(func() {
		h.dummy, h.dummyErr = h.Hash("dummy_password_for_timing_attack_prevention")
	})
	return h.dummy, h.dummyErr
}

func (h *Hasher) needsRehash(encoded string) bool {
	params, _, _, err := decodeHash(encoded)
	if err != nil {
		return true
	}

	return params.Memory != h.params.Memory ||
		params.Time != h.params.Time ||
		params.Threads != h.params.Threads ||
		params.KeyLen != h.params.KeyLen
}

func decodeHash(encoded string) (*HashParams, []byte, []byte, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 {
		return nil, nil, nil, fmt.Errorf("invalid hash format")
	}

	if parts[1] != "argon2id" {
		return nil, nil, nil, fmt.Errorf("unsupported algorithm: %s", parts[1])
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return nil, nil, nil, fmt.Errorf("invalid version: %w", err)
	}
	if version != argon2.Version {
		return nil, nil, nil, fmt.Errorf("incompatible version: %d", version)
	}

	params := &HashParams{}
	_, err := fmt.Sscanf(
		parts[3],
		"m=%d,t=%d,p=%d",
		&params.Memory,
		&params.Time,
		&params.Threads,
	)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("invalid params: %w", err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, nil, nil, fmt.Errorf("decode salt: %w", err)
	}

	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return nil, nil, nil, fmt.Errorf("decode hash: %w", err)
	}

	//nolint:gosec // G115: argon2id key length is always small
	params.KeyLen = uint32(len(key))
	params.SaltLen = len(salt)

	return params, salt, key, nil
}

// Policy bounds secret length in characters.
type Policy struct {
	MinLength int
	MaxLength int
}

func (p Policy) Check(secret string) error {
	n := utf8.RuneCountInString(secret)
	if n < p.MinLength {
		return fmt.Errorf(
			"password shorter than %d characters: %w",
			p.MinLength,
			core.ErrWeakCredential,
		)
	}
	if p.MaxLength > 0 && n > p.MaxLength {
		return fmt.Errorf(
			"password longer than %d characters: %w",
			p.MaxLength,
			core.ErrWeakCredential,
		)
	}
	return nil
}
