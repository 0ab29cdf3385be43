package storage

import (
	"sync"
	"time"
)

// DefaultSessionTTL is how long a challenge session stays usable
const DefaultSessionTTL = 2 * time.Minute

// MemoryStore implements the Store interface using in-memory storage
// This is suitable for development and testing, but not for production
type MemoryStore struct {
	mu         sync.RWMutex
	rings      map[string]*Ring
	sessions   map[string]*RingSession
	keyImages  map[string]map[string]*KeyImageRecord // scope -> key image -> record
	denylist   map[string]bool
	sessionTTL time.Duration

	done      chan struct{}
	closeOnce sync.Once
}

// NewMemoryStore creates a new in-memory store. A non-positive sessionTTL
// selects DefaultSessionTTL.
func NewMemoryStore(sessionTTL time.Duration) *MemoryStore {
	if sessionTTL <= 0 {
		sessionTTL = DefaultSessionTTL
	}

	store := &MemoryStore{
		rings:      make(map[string]*Ring),
		sessions:   make(map[string]*RingSession),
		keyImages:  make(map[string]map[string]*KeyImageRecord),
		denylist:   make(map[string]bool),
		sessionTTL: sessionTTL,
		done:       make(chan struct{}),
	}

	// Start cleanup goroutine
	go store.cleanupLoop()

	return store
}

// cleanupLoop runs periodic cleanup of expired sessions until Close
func (s *MemoryStore) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.CleanupExpiredSessions(s.sessionTTL)
		case <-s.done:
			return
		}
	}
}

// CreateRing registers a new ring
func (s *MemoryStore) CreateRing(ring *Ring) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.rings[ring.ID]; exists {
		return ErrRingExists
	}

	ring.CreatedAt = time.Now()

	ringCopy := copyRing(ring)
	s.rings[ring.ID] = ringCopy

	return nil
}

// GetRing retrieves a ring by ID
func (s *MemoryStore) GetRing(id string) (*Ring, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ring, exists := s.rings[id]
	if !exists {
		return nil, ErrRingNotFound
	}

	return copyRing(ring), nil
}

// ListRings returns all rings
func (s *MemoryStore) ListRings() ([]Ring, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rings := make([]Ring, 0, len(s.rings))
	for _, ring := range s.rings {
		rings = append(rings, *copyRing(ring))
	}

	return rings, nil
}

// copyRing deep-copies the key matrix so callers cannot mutate stored rings
func copyRing(ring *Ring) *Ring {
	c := *ring
	c.Keys = make([][]string, len(ring.Keys))
	for k, row := range ring.Keys {
		c.Keys[k] = append([]string(nil), row...)
	}
	return &c
}

// CreateSession creates a new challenge session
func (s *MemoryStore) CreateSession(session *RingSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Set creation time
	session.CreatedAt = time.Now()

	// Store a copy to avoid race conditions
	sessionCopy := *session
	sessionCopy.Nonce = append([]byte(nil), session.Nonce...)
	s.sessions[session.ID] = &sessionCopy

	return nil
}

// GetSession retrieves a session by ID
func (s *MemoryStore) GetSession(sessionID string) (*RingSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, exists := s.sessions[sessionID]
	if !exists {
		return nil, ErrSessionNotFound
	}

	if time.Since(session.CreatedAt) > s.sessionTTL {
		return nil, ErrSessionExpired
	}

	// Return a copy to avoid race conditions
	sessionCopy := *session
	sessionCopy.Nonce = append([]byte(nil), session.Nonce...)
	return &sessionCopy, nil
}

// MarkSessionUsed marks a session as used
func (s *MemoryStore) MarkSessionUsed(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, exists := s.sessions[sessionID]
	if !exists {
		return ErrSessionNotFound
	}

	if session.Used {
		return ErrSessionUsed
	}

	session.Used = true
	return nil
}

// CleanupExpiredSessions removes expired sessions
func (s *MemoryStore) CleanupExpiredSessions(maxAge time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)

	for id, session := range s.sessions {
		if session.CreatedAt.Before(cutoff) {
			delete(s.sessions, id)
		}
	}

	return nil
}

// RecordKeyImage records a key image in its scope
func (s *MemoryStore) RecordKeyImage(record *KeyImageRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	scope, ok := s.keyImages[record.Scope]
	if !ok {
		scope = make(map[string]*KeyImageRecord)
		s.keyImages[record.Scope] = scope
	}

	if _, linked := scope[record.KeyImage]; linked {
		return ErrKeyImageLinked
	}

	record.RecordedAt = time.Now()
	recordCopy := *record
	scope[record.KeyImage] = &recordCopy

	return nil
}

// HasKeyImage reports whether a key image is recorded in a scope
func (s *MemoryStore) HasKeyImage(scope, keyImage string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.keyImages[scope][keyImage]
	return ok, nil
}

// ListKeyImages returns the records of a scope
func (s *MemoryStore) ListKeyImages(scope string) ([]KeyImageRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]KeyImageRecord, 0, len(s.keyImages[scope]))
	for _, record := range s.keyImages[scope] {
		records = append(records, *record)
	}

	return records, nil
}

// AddToDenylist bans a key image
func (s *MemoryStore) AddToDenylist(keyImage string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.denylist[keyImage] = true
	return nil
}

// IsInDenylist checks if a key image is banned
func (s *MemoryStore) IsInDenylist(keyImage string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.denylist[keyImage], nil
}

// RemoveFromDenylist unbans a key image
func (s *MemoryStore) RemoveFromDenylist(keyImage string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.denylist, keyImage)
	return nil
}

// ListDenylist returns all banned key images
func (s *MemoryStore) ListDenylist() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	images := make([]string, 0, len(s.denylist))
	for img := range s.denylist {
		images = append(images, img)
	}

	return images, nil
}

// Close stops the cleanup loop
func (s *MemoryStore) Close() error {
	s.closeOnce.Do(func() { close(s.done) })
	return nil
}

// Ping checks if the store is healthy (always true for memory store)
func (s *MemoryStore) Ping() error {
	return nil
}

// Stats returns storage statistics for monitoring
func (s *MemoryStore) Stats() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	images := 0
	for _, scope := range s.keyImages {
		images += len(scope)
	}

	return map[string]int{
		"rings":      len(s.rings),
		"sessions":   len(s.sessions),
		"scopes":     len(s.keyImages),
		"key_images": images,
		"denylist":   len(s.denylist),
	}
}
