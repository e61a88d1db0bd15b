// Package credentials seals source auth bundles with AES-GCM so they are
// stored encrypted and opened only while a request is being built.
package credentials

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

const (
	envelopeVersion = "aes-gcm-v1"
	additionalData  = "api_data_sources.auth_credentials"
)

var (
	ErrNoKey   = errors.New("credentials: encryption key is not configured")
	ErrDecrypt = errors.New("credentials: cannot decrypt bundle")
)

// Bundle is the decrypted credential set. Which fields matter depends on the
// source auth type.
type Bundle struct {
	Token    string `json:"token,omitempty"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	Header   string `json:"header,omitempty"`
	Key      string `json:"key,omitempty"`
}

func (b Bundle) IsZero() bool {
	return b == Bundle{}
}

type envelope struct {
	Enc   string `json:"enc"`
	Nonce string `json:"nonce"`
	Data  string `json:"data"`
}

// Vault holds the primary key and an optional previous key accepted for
// decryption during rotation.
type Vault struct {
	primary cipher.AEAD
	all     []cipher.AEAD
}

// NewVault builds a vault from raw key material (base64 or raw bytes).
func NewVault(primary string, previous ...string) *Vault {
	v := &Vault{}
	seen := map[string]struct{}{}
	for i, raw := range append([]string{primary}, previous...) {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if _, ok := seen[raw]; ok {
			continue
		}
		seen[raw] = struct{}{}
		gcm := newGCM(parseKey(raw))
		if gcm == nil {
			continue
		}
		if i == 0 {
			v.primary = gcm
		}
		v.all = append(v.all, gcm)
	}
	return v
}

// NewVaultFromEnv reads the key material from the named environment variables.
func NewVaultFromEnv(keyEnv, prevKeyEnv string) *Vault {
	return NewVault(os.Getenv(strings.TrimSpace(keyEnv)), os.Getenv(strings.TrimSpace(prevKeyEnv)))
}

func (v *Vault) Enabled() bool {
	return v != nil && v.primary != nil
}

// Seal encrypts a bundle. An empty bundle seals to the empty string.
func (v *Vault) Seal(b Bundle) (string, error) {
	if b.IsZero() {
		return "", nil
	}
	if !v.Enabled() {
		return "", ErrNoKey
	}
	plain, err := json.Marshal(b)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, v.primary.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	ct := v.primary.Seal(nil, nonce, plain, []byte(additionalData))
	out, err := json.Marshal(envelope{
		Enc:   envelopeVersion,
		Nonce: base64.StdEncoding.EncodeToString(nonce),
		Data:  base64.StdEncoding.EncodeToString(ct),
	})
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Open decrypts a sealed bundle. Rows written before encryption was enabled
// hold the plain JSON bundle and are returned as is.
func (v *Vault) Open(sealed string) (Bundle, error) {
	sealed = strings.TrimSpace(sealed)
	if sealed == "" {
		return Bundle{}, nil
	}
	var env envelope
	if err := json.Unmarshal([]byte(sealed), &env); err != nil {
		return Bundle{}, fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	if env.Enc == "" {
		var plain Bundle
		if err := json.Unmarshal([]byte(sealed), &plain); err != nil {
			return Bundle{}, fmt.Errorf("%w: %v", ErrDecrypt, err)
		}
		return plain, nil
	}
	if env.Enc != envelopeVersion || env.Nonce == "" || env.Data == "" {
		return Bundle{}, fmt.Errorf("%w: unsupported envelope %q", ErrDecrypt, env.Enc)
	}
	if v == nil || len(v.all) == 0 {
		return Bundle{}, ErrNoKey
	}
	nonce, err := base64.StdEncoding.DecodeString(env.Nonce)
	if err != nil {
		return Bundle{}, fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	ct, err := base64.StdEncoding.DecodeString(env.Data)
	if err != nil {
		return Bundle{}, fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	for _, gcm := range v.all {
		if len(nonce) != gcm.NonceSize() {
			continue
		}
		pt, err := gcm.Open(nil, nonce, ct, []byte(additionalData))
		if err != nil {
			continue
		}
		var b Bundle
		if err := json.Unmarshal(pt, &b); err != nil {
			return Bundle{}, fmt.Errorf("%w: %v", ErrDecrypt, err)
		}
		return b, nil
	}
	return Bundle{}, ErrDecrypt
}

// Reseal re-encrypts a stored value with the primary key. changed is false
// when the value is empty.
func (v *Vault) Reseal(sealed string) (out string, changed bool, err error) {
	b, err := v.Open(sealed)
	if err != nil {
		return sealed, false, err
	}
	if b.IsZero() {
		return sealed, false, nil
	}
	out, err = v.Seal(b)
	if err != nil {
		return sealed, false, err
	}
	return out, true, nil
}

func parseKey(k string) []byte {
	if strings.TrimSpace(k) == "" {
		return nil
	}
	// Prefer base64 key. fallback to raw bytes.
	keyBytes, err := base64.StdEncoding.DecodeString(k)
	if err != nil {
		keyBytes = []byte(k)
	}
	switch len(keyBytes) {
	case 16, 24, 32:
	default:
		if len(keyBytes) < 16 {
			return nil
		}
		if len(keyBytes) < 24 {
			keyBytes = keyBytes[:16]
		} else if len(keyBytes) < 32 {
			keyBytes = keyBytes[:24]
		} else {
			keyBytes = keyBytes[:32]
		}
	}
	return keyBytes
}

func newGCM(keyBytes []byte) cipher.AEAD {
	if len(keyBytes) == 0 {
		return nil
	}
	block, err := aes.NewCipher(keyBytes)
	if err != nil {
		return nil
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil
	}
	return gcm
}
