// AngelaMos | 2026
// security.go

package core

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/argon2"
)

var ErrMalformedHash = errors.New("malformed password hash")

// ArgonParams are the argon2id cost settings encoded into every hash.
type ArgonParams struct {
	Time    uint32
	Memory  uint32
	Threads uint8
	KeyLen  uint32
	SaltLen uint32
}

var DefaultArgonParams = ArgonParams{
	Time:    1,
	Memory:  64 * 1024,
	Threads: 4,
	KeyLen:  32,
	SaltLen: 16,
}

// Passwords hashes and verifies account passwords. Hashes written with
// other parameters still verify and are reported for upgrade.
type Passwords struct {
	params ArgonParams

	dummyOnce sync.Once
	dummy     string
}

func NewPasswords(params ArgonParams) *Passwords {
	return &Passwords{params: params}
}

// DefaultPasswords is the hasher used by the account flows and the seeder.
var DefaultPasswords = NewPasswords(DefaultArgonParams)

func (p *Passwords) Hash(password string) (string, error) {
	salt := make([]byte, p.params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt,
		p.params.Time, p.params.Memory, p.params.Threads, p.params.KeyLen)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		p.params.Memory,
		p.params.Time,
		p.params.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify checks password against encoded. When it matches but encoded was
// produced with stale parameters, upgraded carries a fresh hash.
func (p *Passwords) Verify(password, encoded string) (ok bool, upgraded string, err error) {
	stored, salt, key, err := decodeHash(encoded)
	if err != nil {
		return false, "", err
	}

	candidate := argon2.IDKey([]byte(password), salt,
		stored.Time, stored.Memory, stored.Threads, stored.KeyLen)
	if subtle.ConstantTimeCompare(key, candidate) != 1 {
		return false, "", nil
	}

	if stored == p.params {
		return true, "", nil
	}

	upgraded, err = p.Hash(password)
	if err != nil {
		//nolint:nilerr // the password matched; a failed upgrade only delays it
		return true, "", nil
	}
	return true, upgraded, nil
}

// Burn spends one verification's worth of work so a login against an
// unknown email takes as long as one against a known email.
func (p *Passwords) Burn(password string) {
	p.dummyOnce.Do(func() {
		//nolint:errcheck // an empty dummy only fails decoding, which still returns
		p.dummy, _ = p.Hash("webuzz-timing-dummy")
	})
	//nolint:errcheck // timing only
	_, _, _ = p.Verify(password, p.dummy)
}

func decodeHash(encoded string) (ArgonParams, []byte, []byte, error) {
	var params ArgonParams

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return params, nil, nil, ErrMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return params, nil, nil, fmt.Errorf("%w: version %q", ErrMalformedHash, parts[2])
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d",
		&params.Memory, &params.Time, &params.Threads); err != nil {
		return params, nil, nil, fmt.Errorf("%w: params: %w", ErrMalformedHash, err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return params, nil, nil, fmt.Errorf("%w: salt: %w", ErrMalformedHash, err)
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return params, nil, nil, fmt.Errorf("%w: key: %w", ErrMalformedHash, err)
	}

	//nolint:gosec // G115: salt and key are a few dozen bytes
	params.SaltLen, params.KeyLen = uint32(len(salt)), uint32(len(key))

	return params, salt, key, nil
}
