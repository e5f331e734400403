package hashutil

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/scrypt"
)

// Hash produces a new PHC (or, for bcrypt, native) hash string for password
// under the named scheme. Used by the user-management CLI, never by the
// connection-handling hot path.
func Hash(scheme, password string) (string, error) {
	switch scheme {
	case SchemeArgon2:
		return HashArgon2(password)
	case SchemeBcrypt:
		return HashBcrypt(password)
	case SchemeScrypt:
		return HashScrypt(password)
	default:
		return "", fmt.Errorf("hashutil: unknown scheme %q", scheme)
	}
}

func randomSalt(n int) ([]byte, error) {
	salt := make([]byte, n)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("hashutil: generating salt: %w", err)
	}
	return salt, nil
}

// HashArgon2 hashes password with Argon2id using conservative defaults
// (64MiB memory, 3 iterations, 4 lanes) and returns a PHC string.
func HashArgon2(password string) (string, error) {
	salt, err := randomSalt(16)
	if err != nil {
		return "", err
	}
	const (
		memory  = 65536
		time    = 3
		threads = 4
		keyLen  = 32
	)
	key := argon2.IDKey([]byte(password), salt, time, memory, threads, keyLen)

	return fmt.Sprintf("$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		memory, time, threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// HashBcrypt hashes password with bcrypt's default cost, returning its
// native self-describing format.
func HashBcrypt(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashutil: bcrypt hash: %w", err)
	}
	return string(h), nil
}

// HashScrypt hashes password with Scrypt using conservative defaults
// (N=2^17, r=8, p=1) and returns a PHC string.
func HashScrypt(password string) (string, error) {
	salt, err := randomSalt(16)
	if err != nil {
		return "", err
	}
	const (
		logN     = 17
		r        = 8
		parallel = 1
		keyLen   = 32
	)
	key, err := scrypt.Key([]byte(password), salt, 1<<logN, r, parallel, keyLen)
	if err != nil {
		return "", fmt.Errorf("hashutil: scrypt hash: %w", err)
	}

	return fmt.Sprintf("$scrypt$ln=%d,r=%d,p=%d$%s$%s",
		logN, r, parallel,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}
