package encryption

import (
	"fmt"

	"ih-go/internal/config"
	"ih-go/internal/ih"
)

// NewEncryptorFromConfig creates an Encryptor based on the configuration type.
// It returns nil for "none": blobs are then stored as plaintext.
func NewEncryptorFromConfig(cfg config.EncryptionConfig) (ih.Encryptor, error) {
	switch cfg.Type {
	case "none", "":
		return nil, nil
	case "age":
		if cfg.PublicKeyPath == "" || cfg.PrivateKeyPath == "" {
			return nil, fmt.Errorf("age encryption requires public_key_path and private_key_path")
		}
		return NewAgeEncryptor(cfg), nil
	case "test":
		return NewTestEncryptor(), nil
	default:
		return nil, fmt.Errorf("unknown encryption type: %q", cfg.Type)
	}
}
