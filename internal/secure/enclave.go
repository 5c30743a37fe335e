// Package secure keeps the remote access token in protected memory between
// lookup and request signing. The enclave encrypts the value at rest in
// memory and mlocks the backing pages where the platform allows it.
package secure

import (
	"errors"
	"sync"

	"github.com/awnumar/memguard"
)

// SecureBuffer wraps a memguard.Enclave holding one sensitive value.
type SecureBuffer struct {
	enclave   *memguard.Enclave
	mu        sync.RWMutex
	destroyed bool
}

// NewSecureBuffer copies data into a protected memory region. The caller
// should zero its own copy afterwards.
func NewSecureBuffer(data []byte) *SecureBuffer {
	return &SecureBuffer{enclave: memguard.NewEnclave(data)}
}

// Open decrypts the protected value into a locked buffer. The caller must
// Destroy() the returned buffer as soon as the plaintext is no longer
// needed.
func (s *SecureBuffer) Open() (*memguard.LockedBuffer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.destroyed {
		return nil, errors.New("secure buffer already destroyed")
	}
	return s.enclave.Open()
}

// Destroy marks the buffer unusable. Idempotent. The encrypted enclave
// contents are garbage collected; call memguard.Purge() at process exit for
// full cleanup.
func (s *SecureBuffer) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.destroyed {
		return
	}
	s.enclave = nil
	s.destroyed = true
}

// String implements fmt.Stringer so a SecureBuffer can never leak its
// contents through formatting.
func (s *SecureBuffer) String() string {
	return "[SECURE]"
}
