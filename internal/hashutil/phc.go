package hashutil

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
)

// phcHash is a parsed PHC-format hash string: $id$[v=V$]param=val,...$salt$hash.
// See https://github.com/P-H-C/phc-string-format for the grammar; argon2 and
// scrypt both use it, bcrypt has its own native $2{a,b,y}$ encoding instead.
type phcHash struct {
	id     string
	params map[string]string
	salt   []byte
	hash   []byte
}

// parsePHC splits a PHC string into its components. Any malformed input
// returns an error — callers treat a parse failure as a verification
// failure, never a panic or an exception to the caller.
func parsePHC(s string) (*phcHash, error) {
	if !strings.HasPrefix(s, "$") {
		return nil, fmt.Errorf("hashutil: not a PHC string")
	}
	fields := strings.Split(s[1:], "$")
	if len(fields) < 3 {
		return nil, fmt.Errorf("hashutil: malformed PHC string")
	}

	id := fields[0]
	rest := fields[1:]

	// An optional v=NN version field sits right after the id.
	if strings.HasPrefix(rest[0], "v=") {
		rest = rest[1:]
	}
	if len(rest) < 3 {
		return nil, fmt.Errorf("hashutil: malformed PHC string")
	}

	paramStr := rest[0]
	saltStr := rest[1]
	hashStr := rest[2]

	params := map[string]string{}
	if paramStr != "" {
		for _, kv := range strings.Split(paramStr, ",") {
			parts := strings.SplitN(kv, "=", 2)
			if len(parts) != 2 {
				return nil, fmt.Errorf("hashutil: malformed PHC parameter %q", kv)
			}
			params[parts[0]] = parts[1]
		}
	}

	salt, err := b64Decode(saltStr)
	if err != nil {
		return nil, fmt.Errorf("hashutil: decoding salt: %w", err)
	}
	hash, err := b64Decode(hashStr)
	if err != nil {
		return nil, fmt.Errorf("hashutil: decoding hash: %w", err)
	}

	return &phcHash{id: id, params: params, salt: salt, hash: hash}, nil
}

// b64Decode accepts the unpadded base64 alphabet PHC strings use, falling
// back to standard padded base64 for hashes produced by other encoders.
func b64Decode(s string) ([]byte, error) {
	if b, err := base64.RawStdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.StdEncoding.DecodeString(s)
}

func (p *phcHash) uintParam(name string, def uint64) uint64 {
	v, ok := p.params[name]
	if !ok {
		return def
	}
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return def
	}
	return n
}
