package storage

import (
	"fmt"
	"time"
)

// Ring is a registered decoy matrix that signers can authenticate against
type Ring struct {
	ID        string     `json:"id" db:"id"`       // Ring ID (UUID)
	Curve     string     `json:"curve" db:"curve"` // Group the keys live in
	Keys      [][]string `json:"keys" db:"keys"`   // n x m hex-encoded public keys
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

// RingSession is a pending ring authentication challenge
type RingSession struct {
	ID        string    `json:"id" db:"id"`           // Session ID (UUID)
	RingID    string    `json:"ring_id" db:"ring_id"` // Ring the signer must belong to
	Scope     string    `json:"scope" db:"scope"`     // Linkability scope
	Nonce     []byte    `json:"nonce" db:"nonce"`     // Server randomness bound into the message
	Used      bool      `json:"used" db:"used"`       // Whether session has been used
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// KeyImageRecord notes that a key image completed authentication in a scope
type KeyImageRecord struct {
	Scope      string    `json:"scope" db:"scope"`
	KeyImage   string    `json:"key_image" db:"key_image"`
	RingID     string    `json:"ring_id" db:"ring_id"`
	RecordedAt time.Time `json:"recorded_at" db:"recorded_at"`
}

// RingStore defines the interface for ring registration
type RingStore interface {
	// CreateRing registers a new ring
	CreateRing(ring *Ring) error

	// GetRing retrieves a ring by ID
	GetRing(id string) (*Ring, error)

	// ListRings returns all rings (for admin purposes)
	ListRings() ([]Ring, error)
}

// SessionStore defines the interface for challenge session storage
type SessionStore interface {
	// CreateSession creates a new challenge session
	CreateSession(session *RingSession) error

	// GetSession retrieves a live session by ID
	GetSession(sessionID string) (*RingSession, error)

	// MarkSessionUsed marks a session as used
	MarkSessionUsed(sessionID string) error

	// CleanupExpiredSessions removes expired sessions
	CleanupExpiredSessions(maxAge time.Duration) error
}

// KeyImageStore is the linkability ledger
type KeyImageStore interface {
	// RecordKeyImage records a key image in a scope. It returns
	// ErrKeyImageLinked if the image is already present there.
	RecordKeyImage(record *KeyImageRecord) error

	// HasKeyImage reports whether a key image is recorded in a scope
	HasKeyImage(scope, keyImage string) (bool, error)

	// ListKeyImages returns the records of a scope
	ListKeyImages(scope string) ([]KeyImageRecord, error)
}

// DenylistStore defines the interface for banned key images
type DenylistStore interface {
	// AddToDenylist bans a key image
	AddToDenylist(keyImage string) error

	// IsInDenylist checks if a key image is banned
	IsInDenylist(keyImage string) (bool, error)

	// RemoveFromDenylist unbans a key image
	RemoveFromDenylist(keyImage string) error

	// ListDenylist returns all banned key images
	ListDenylist() ([]string, error)
}

// Store combines all storage interfaces
type Store interface {
	RingStore
	SessionStore
	KeyImageStore
	DenylistStore

	// Close closes the storage connection
	Close() error

	// Ping checks if the storage is healthy
	Ping() error

	// Stats returns entity counts for monitoring
	Stats() map[string]int
}

var (
	// ErrRingNotFound indicates a ring was not found
	ErrRingNotFound = fmt.Errorf("ring not found")

	// ErrRingExists indicates a ring ID is already taken
	ErrRingExists = fmt.Errorf("ring already exists")

	// ErrSessionNotFound indicates a session was not found
	ErrSessionNotFound = fmt.Errorf("session not found")

	// ErrSessionExpired indicates a session has expired
	ErrSessionExpired = fmt.Errorf("session expired")

	// ErrSessionUsed indicates a session has already been used
	ErrSessionUsed = fmt.Errorf("session already used")

	// ErrKeyImageLinked indicates the key image already authenticated in the scope
	ErrKeyImageLinked = fmt.Errorf("key image already used in scope")
)
