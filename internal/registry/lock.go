package registry

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"

	"golang.org/x/crypto/argon2"

	"github.com/oidcd/oidcd/internal/ierrors"
	"github.com/oidcd/oidcd/internal/secretbuf"
)

// Argon2id parameters for the registry lock KDF: the 64 MiB memory and 4
// lanes of the RFC 9106 "second recommended option" (memory-constrained
// environments), but with a single pass where that option uses three,
// for a per-session agent rather than a server-side KDF.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024 // KiB
	argonThreads = 4
	argonKeyLen  = 32
	saltLen      = 16
)

// Lock encrypts every secret field of every loaded record with a key
// derived from password via Argon2id, using a fresh per-lock random salt.
// Calling Lock while already locked is itself an operation "other
// than unlock" and is rejected.
func (r *Registry) Lock(password string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.locked {
		return ierrors.New(ierrors.KindAgentLocked, "registry is locked")
	}

	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return ierrors.Wrap(ierrors.KindInternal, "failed to generate lock salt", err)
	}
	key := deriveKey(password, salt)

	for _, a := range r.byShortname {
		if err := lockAccount(a, key, salt); err != nil {
			return ierrors.Wrap(ierrors.KindInternal, "failed to encrypt account secrets", err)
		}
	}
	r.locked = true
	wipeBytes(key)
	return nil
}

// Unlock re-derives the key from password and decrypts every record. On
// any authentication failure it leaves the registry locked and returns
// BadPassword without mutating any record.
func (r *Registry) Unlock(password string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.locked {
		return nil
	}

	type decrypted struct {
		account      *Account
		clientSecret []byte
		refreshToken []byte
		accessToken  []byte
		username     []byte
		password     []byte
		codeVerifier []byte
	}

	plans := make([]decrypted, 0, len(r.byShortname))
	for _, a := range r.byShortname {
		d := decrypted{account: a}
		var err error
		if d.clientSecret, err = decryptField(a.ClientSecret.Bytes(), password); err != nil {
			return ierrors.New(ierrors.KindBadPassword, "incorrect lock password")
		}
		if d.refreshToken, err = decryptField(a.RefreshToken.Bytes(), password); err != nil {
			return ierrors.New(ierrors.KindBadPassword, "incorrect lock password")
		}
		if d.accessToken, err = decryptField(a.AccessToken.Bytes(), password); err != nil {
			return ierrors.New(ierrors.KindBadPassword, "incorrect lock password")
		}
		if d.username, err = decryptField(a.Username.Bytes(), password); err != nil {
			return ierrors.New(ierrors.KindBadPassword, "incorrect lock password")
		}
		if d.password, err = decryptField(a.Password.Bytes(), password); err != nil {
			return ierrors.New(ierrors.KindBadPassword, "incorrect lock password")
		}
		if d.codeVerifier, err = decryptField(a.PKCECodeVerifier.Bytes(), password); err != nil {
			return ierrors.New(ierrors.KindBadPassword, "incorrect lock password")
		}
		plans = append(plans, d)
	}

	// All fields decrypted successfully; commit.
	for _, d := range plans {
		d.account.ClientSecret.Set(d.clientSecret)
		d.account.RefreshToken.Set(d.refreshToken)
		d.account.AccessToken.Set(d.accessToken)
		d.account.Username.Set(d.username)
		d.account.Password.Set(d.password)
		d.account.PKCECodeVerifier.Set(d.codeVerifier)
		d.account.encrypted = false
	}
	r.locked = false
	return nil
}

func lockAccount(a *Account, key, salt []byte) error {
	fields := []*secretbuf.Buffer{
		a.ClientSecret, a.RefreshToken, a.AccessToken,
		a.Username, a.Password, a.PKCECodeVerifier,
	}
	for _, f := range fields {
		ct, err := encryptBytes(f.Bytes(), key, salt)
		if err != nil {
			return err
		}
		f.Set(ct)
	}
	a.encrypted = true
	return nil
}

func deriveKey(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)
}

// encryptBytes seals plaintext as salt‖nonce‖ciphertext under the
// caller-supplied key directly (salt is only carried for the AEAD
// envelope shape; the key itself is already derived by deriveKey).
func encryptBytes(plaintext, key, salt []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	sealed := gcm.Seal(nil, nonce, plaintext, nil)

	out := make([]byte, 0, len(salt)+len(nonce)+len(sealed))
	out = append(out, salt...)
	out = append(out, nonce...)
	out = append(out, sealed...)
	return out, nil
}

// decryptField opens a salt‖nonce‖ciphertext blob, re-deriving the key from
// password and the embedded salt.
func decryptField(blob []byte, password string) ([]byte, error) {
	if len(blob) < saltLen {
		return nil, ierrors.New(ierrors.KindBadPassword, "malformed encrypted field")
	}
	salt := blob[:saltLen]
	key := deriveKey(password, salt)
	defer wipeBytes(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	nonceSize := gcm.NonceSize()
	rest := blob[saltLen:]
	if len(rest) < nonceSize {
		return nil, ierrors.New(ierrors.KindBadPassword, "malformed encrypted field")
	}
	nonce, ciphertext := rest[:nonceSize], rest[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ierrors.New(ierrors.KindBadPassword, "incorrect lock password")
	}
	return plaintext, nil
}

func wipeBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
