// Package secretbuf provides a byte buffer for credential material that is
// guaranteed to be wiped when it is no longer needed.
package secretbuf

import "sync"

// Buffer holds secret bytes and zeroizes them on Clear. The zero value is an
// empty, already-cleared Buffer.
type Buffer struct {
	mu   sync.Mutex
	data []byte
}

// New copies b into a new Buffer. The caller retains ownership of b.
func New(b []byte) *Buffer {
	buf := &Buffer{data: make([]byte, len(b))}
	copy(buf.data, b)
	return buf
}

// NewString copies s into a new Buffer.
func NewString(s string) *Buffer {
	return New([]byte(s))
}

// Empty reports whether the buffer holds no bytes.
func (b *Buffer) Empty() bool {
	if b == nil {
		return true
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.data) == 0
}

// String returns a copy of the held bytes as a string. Callers must not
// retain it beyond the lifetime they would accept for the secret itself.
func (b *Buffer) String() string {
	if b == nil {
		return ""
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.data)
}

// Bytes returns a copy of the held bytes.
func (b *Buffer) Bytes() []byte {
	if b == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]byte, len(b.data))
	copy(out, b.data)
	return out
}

// Clone makes an independent copy of the buffer. This is the only sanctioned
// way to duplicate secret material (e.g. registry re-encryption at rest).
func (b *Buffer) Clone() *Buffer {
	if b == nil {
		return nil
	}
	return New(b.Bytes())
}

// Set replaces the buffer's contents, wiping the previous bytes first.
func (b *Buffer) Set(data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	wipe(b.data)
	b.data = make([]byte, len(data))
	copy(b.data, data)
}

// Clear wipes the buffer's bytes in place and releases them.
func (b *Buffer) Clear() {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	wipe(b.data)
	b.data = nil
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
