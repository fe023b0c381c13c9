package encryption

import (
	"errors"
	"io"

	"lexdesk/internal/practice"
)

// ErrDisabled is returned by key operations when encryption is off.
var ErrDisabled = errors.New("encryption is disabled (encryption.type = none)")

// PlainEncryptor stores files as-is.
type PlainEncryptor struct{}

var _ practice.Encryptor = PlainEncryptor{}

func (PlainEncryptor) Enabled() bool { return false }

func (PlainEncryptor) Setup(passphrase string) error { return ErrDisabled }

// Encrypt copies r to w unchanged.
func (PlainEncryptor) Encrypt(r io.Reader, w io.Writer) error {
	_, err := io.Copy(w, r)
	return err
}

func (PlainEncryptor) Unlock(passphrase string) (practice.DecryptionContext, error) {
	return nil, ErrDisabled
}
