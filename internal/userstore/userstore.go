// Package userstore loads and manages the hashed-user credential file used
// by the simple authentication backend.
package userstore

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/quintusl/socksd/internal/hashutil"
)

// UserEntry is one row of the credential file.
type UserEntry struct {
	PasswordHash string  `yaml:"password_hash"`
	Salt         *string `yaml:"salt,omitempty"`
	CreatedAt    string  `yaml:"created_at"`
	LastModified string  `yaml:"last_modified"`
	Enabled      bool    `yaml:"enabled"`
}

// Document is the on-disk shape of the credential file.
type Document struct {
	HashType string               `yaml:"hash_type"`
	Users    map[string]UserEntry `yaml:"users"`
}

// snapshot is an immutable point-in-time view of the loaded credential
// file, stored in atomic.Value for lock-free verification on the
// connection hot path.
type snapshot struct {
	doc Document
}

// Store holds a credential file in memory and can hot-reload it.
// VerifyPassword is lock-free; mutating operations (AddUser, etc.) are
// serialized and, when backed by a file path, persisted immediately.
type Store struct {
	path string
	snap atomic.Value // holds *snapshot
	wmu  sync.Mutex
}

func validate(doc *Document) error {
	for username, u := range doc.Users {
		if username == "" {
			return fmt.Errorf("userstore: username cannot be empty")
		}
		if u.PasswordHash == "" {
			return fmt.Errorf("userstore: password hash cannot be empty for user %q", username)
		}
	}
	return nil
}

// Load reads a credential YAML file from path.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("userstore: reading %s: %w", path, err)
	}

	doc := Document{HashType: hashutil.SchemeArgon2, Users: map[string]UserEntry{}}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("userstore: parsing %s: %w", path, err)
	}
	if err := validate(&doc); err != nil {
		return nil, err
	}

	s := &Store{path: path}
	s.snap.Store(&snapshot{doc: doc})
	return s, nil
}

// New creates an empty in-memory store (no backing file) using hashType
// for any users later added, used by "user init".
func New(hashType string) *Store {
	s := &Store{}
	s.snap.Store(&snapshot{doc: Document{HashType: hashType, Users: map[string]UserEntry{}}})
	return s
}

func (s *Store) load() *snapshot {
	return s.snap.Load().(*snapshot)
}

// VerifyPassword returns true iff username exists, is enabled, and
// password matches its stored hash. Never returns true for an unknown
// or disabled user. Lock-free.
func (s *Store) VerifyPassword(username, password string) bool {
	doc := s.load().doc
	u, ok := doc.Users[username]
	if !ok || !u.Enabled {
		return false
	}
	return hashutil.Verify(doc.HashType, password, u.PasswordHash)
}

// cloneDoc returns a mutable copy of the current document. Must be called
// with wmu held.
func (s *Store) cloneDoc() Document {
	cur := s.load().doc
	users := make(map[string]UserEntry, len(cur.Users))
	for k, v := range cur.Users {
		users[k] = v
	}
	return Document{HashType: cur.HashType, Users: users}
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// AddUser hashes password under the store's configured scheme and adds a
// new, enabled user. Fails if the username already exists.
func (s *Store) AddUser(username, password string) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()

	doc := s.cloneDoc()
	if _, exists := doc.Users[username]; exists {
		return fmt.Errorf("userstore: user already exists: %s", username)
	}

	hash, err := hashutil.Hash(doc.HashType, password)
	if err != nil {
		return err
	}

	ts := now()
	doc.Users[username] = UserEntry{
		PasswordHash: hash,
		CreatedAt:    ts,
		LastModified: ts,
		Enabled:      true,
	}

	s.snap.Store(&snapshot{doc: doc})
	return s.persist(doc)
}

// RemoveUser deletes a user. Fails if the username does not exist.
func (s *Store) RemoveUser(username string) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()

	doc := s.cloneDoc()
	if _, exists := doc.Users[username]; !exists {
		return fmt.Errorf("userstore: user not found: %s", username)
	}
	delete(doc.Users, username)

	s.snap.Store(&snapshot{doc: doc})
	return s.persist(doc)
}

// UpdatePassword rehashes password for an existing user and re-stamps
// last_modified.
func (s *Store) UpdatePassword(username, password string) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()

	doc := s.cloneDoc()
	u, exists := doc.Users[username]
	if !exists {
		return fmt.Errorf("userstore: user not found: %s", username)
	}

	hash, err := hashutil.Hash(doc.HashType, password)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	u.LastModified = now()
	doc.Users[username] = u

	s.snap.Store(&snapshot{doc: doc})
	return s.persist(doc)
}

// SetEnabled flips a user's enabled flag and re-stamps last_modified.
func (s *Store) SetEnabled(username string, enabled bool) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()

	doc := s.cloneDoc()
	u, exists := doc.Users[username]
	if !exists {
		return fmt.Errorf("userstore: user not found: %s", username)
	}
	u.Enabled = enabled
	u.LastModified = now()
	doc.Users[username] = u

	s.snap.Store(&snapshot{doc: doc})
	return s.persist(doc)
}

// ListUsernames returns every username currently in the store.
func (s *Store) ListUsernames() []string {
	doc := s.load().doc
	names := make([]string, 0, len(doc.Users))
	for name := range doc.Users {
		names = append(names, name)
	}
	return names
}

// persist writes doc back to disk if the store was loaded from a file.
// A store created with New (no backing file) is a no-op here; its caller
// is expected to call Save explicitly.
func (s *Store) persist(doc Document) error {
	if s.path == "" {
		return nil
	}
	return save(s.path, doc)
}

// Save writes the store's current contents to path, used directly by
// "user init" for a store with no backing file yet.
func (s *Store) Save(path string) error {
	s.path = path
	return save(path, s.load().doc)
}

func save(path string, doc Document) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("userstore: marshaling: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("userstore: writing %s: %w", path, err)
	}
	return nil
}
