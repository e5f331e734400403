// Package hashutil verifies PHC-format password hashes (argon2, scrypt)
// and bcrypt's native format. It is pure and stateless: a parse failure
// or a mismatch both yield false, never an error or a panic.
package hashutil

import (
	"crypto/subtle"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/scrypt"
)

const (
	SchemeArgon2 = "argon2"
	SchemeBcrypt = "bcrypt"
	SchemeScrypt = "scrypt"
)

// Verify checks password against hash under the named scheme. An unknown
// scheme always returns false.
func Verify(scheme, password, hash string) bool {
	switch scheme {
	case SchemeArgon2:
		return VerifyArgon2(password, hash)
	case SchemeBcrypt:
		return VerifyBcrypt(password, hash)
	case SchemeScrypt:
		return VerifyScrypt(password, hash)
	default:
		return false
	}
}

// VerifyArgon2 checks an Argon2id PHC hash ($argon2id$v=19$m=...,t=...,p=...$salt$hash).
func VerifyArgon2(password, hash string) bool {
	p, err := parsePHC(hash)
	if err != nil {
		return false
	}

	memory := uint32(p.uintParam("m", 65536))
	time := uint32(p.uintParam("t", 3))
	threads := uint8(p.uintParam("p", 4))
	keyLen := uint32(len(p.hash))
	if keyLen == 0 {
		return false
	}

	candidate := argon2.IDKey([]byte(password), p.salt, time, memory, threads, keyLen)
	return subtle.ConstantTimeCompare(candidate, p.hash) == 1
}

// VerifyScrypt checks a Scrypt PHC hash ($scrypt$ln=...,r=...,p=...$salt$hash).
func VerifyScrypt(password, hash string) bool {
	p, err := parsePHC(hash)
	if err != nil {
		return false
	}

	logN := p.uintParam("ln", 17)
	r := int(p.uintParam("r", 8))
	parallel := int(p.uintParam("p", 1))
	n := 1 << logN
	keyLen := len(p.hash)
	if keyLen == 0 {
		return false
	}

	candidate, err := scrypt.Key([]byte(password), p.salt, n, r, parallel, keyLen)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(candidate, p.hash) == 1
}

// VerifyBcrypt checks a native bcrypt hash ($2a$, $2b$, or $2y$).
func VerifyBcrypt(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
