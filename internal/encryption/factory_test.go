package encryption

import (
	"testing"

	"ih-go/internal/config"
)

func TestNewEncryptorFromConfig(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.EncryptionConfig
		wantNil  bool
		wantType string
		wantErr  bool
	}{
		{name: "none", cfg: config.EncryptionConfig{Type: "none"}, wantNil: true},
		{name: "unset", cfg: config.EncryptionConfig{}, wantNil: true},
		{name: "age", cfg: config.EncryptionConfig{Type: "age", PublicKeyPath: "/k/ih.pub", PrivateKeyPath: "/k/ih.key"}, wantType: "age"},
		{name: "age without paths", cfg: config.EncryptionConfig{Type: "age"}, wantErr: true},
		{name: "test", cfg: config.EncryptionConfig{Type: "test"}, wantType: "test"},
		{name: "unknown", cfg: config.EncryptionConfig{Type: "rot13"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewEncryptorFromConfig(tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantNil {
				if got != nil {
					t.Errorf("got %T, want nil", got)
				}
				return
			}
			switch tt.wantType {
			case "age":
				if _, ok := got.(*AgeEncryptor); !ok {
					t.Errorf("got %T, want *AgeEncryptor", got)
				}
			case "test":
				if _, ok := got.(*TestEncryptor); !ok {
					t.Errorf("got %T, want *TestEncryptor", got)
				}
			}
		})
	}
}
