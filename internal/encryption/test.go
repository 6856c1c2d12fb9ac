package encryption

import (
	"bytes"
	"fmt"
	"io"

	"ih-go/internal/ih"
)

// testHeader marks content "encrypted" by TestEncryptor.
var testHeader = []byte("IHENC\x00\x00\x01")

// TestEncryptor is a deterministic stand-in for AgeEncryptor that needs no
// keys: it prefixes a fixed header on encrypt and strips it on decrypt.
// Unlock accepts any passphrase except "wrong".
type TestEncryptor struct {
	configured bool
}

var _ ih.Encryptor = (*TestEncryptor)(nil)

// NewTestEncryptor creates a configured TestEncryptor.
func NewTestEncryptor() *TestEncryptor {
	return &TestEncryptor{configured: true}
}

func (e *TestEncryptor) Setup(passphrase string) error {
	e.configured = true
	return nil
}

func (e *TestEncryptor) Encrypt(r io.Reader, w io.Writer) error {
	if _, err := w.Write(testHeader); err != nil {
		return fmt.Errorf("writing test header: %w", err)
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}

func (e *TestEncryptor) Unlock(passphrase string) (ih.DecryptionContext, error) {
	if passphrase == "wrong" {
		return nil, ErrWrongPassphrase
	}
	return &TestDecryptionContext{}, nil
}

func (e *TestEncryptor) IsConfigured() bool {
	return e.configured
}

// TestDecryptionContext strips the header added by TestEncryptor.
type TestDecryptionContext struct{}

var _ ih.DecryptionContext = (*TestDecryptionContext)(nil)

func (c *TestDecryptionContext) Decrypt(r io.Reader, w io.Writer) error {
	header := make([]byte, len(testHeader))
	if _, err := io.ReadFull(r, header); err != nil {
		return fmt.Errorf("reading test header: %w", err)
	}
	if !bytes.Equal(header, testHeader) {
		return fmt.Errorf("invalid test encryption header")
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}
