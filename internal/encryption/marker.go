package encryption

import (
	"bytes"
	"fmt"
	"io"

	"lexdesk/internal/practice"
)

var markerHeader = []byte("LEXENC\x00\x00")

// MarkerEncryptor is a deterministic stand-in for tests. It prepends a fixed
// header on encryption and strips it on decryption, so ciphertext differs
// from plaintext without any key material.
type MarkerEncryptor struct {
	// Passphrase, when set, is required by Unlock.
	Passphrase string
}

var _ practice.Encryptor = (*MarkerEncryptor)(nil)

func NewMarkerEncryptor() *MarkerEncryptor {
	return &MarkerEncryptor{}
}

func (e *MarkerEncryptor) Enabled() bool { return true }

func (e *MarkerEncryptor) Setup(passphrase string) error {
	e.Passphrase = passphrase
	return nil
}

func (e *MarkerEncryptor) Encrypt(r io.Reader, w io.Writer) error {
	if _, err := w.Write(markerHeader); err != nil {
		return fmt.Errorf("writing marker header: %w", err)
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}

func (e *MarkerEncryptor) Unlock(passphrase string) (practice.DecryptionContext, error) {
	if e.Passphrase != "" && passphrase != e.Passphrase {
		return nil, fmt.Errorf("wrong passphrase")
	}
	return markerDecryptionContext{}, nil
}

type markerDecryptionContext struct{}

func (markerDecryptionContext) Decrypt(r io.Reader, w io.Writer) error {
	header := make([]byte, len(markerHeader))
	if _, err := io.ReadFull(r, header); err != nil {
		return fmt.Errorf("reading marker header: %w", err)
	}
	if !bytes.Equal(header, markerHeader) {
		return fmt.Errorf("invalid marker header")
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}
