package encryption

import (
	"context"
	"fmt"
)

const (
	AWSKeyManagerType   KeyManagerID = "AWS_KMS"
	LocalKeyManagerType KeyManagerID = "LOCAL"
)

type KeyManagerID string

func (s KeyManagerID) String() string {
	return string(s)
}

func KeyManagerIDs() []string {
	return []string{AWSKeyManagerType.String(), LocalKeyManagerType.String()}
}

// ParseKeyManagerID validates a key manager name taken from configuration.
func ParseKeyManagerID(s string) (KeyManagerID, error) {
	for _, id := range KeyManagerIDs() {
		if id == s {
			return KeyManagerID(s), nil
		}
	}
	return "", fmt.Errorf("error unknown key manager %q, expected one of %v", s, KeyManagerIDs())
}

// KeyManager generates and unwraps per-value data keys for envelope encryption.
type KeyManager interface {
	// GenerateDataKey returns a new data key in both plain text and encrypted form.
	GenerateDataKey(ctx context.Context) (dataKeyPlainText *[32]byte, dataKeyEncrypted []byte, err error)
	// DecryptDataKey decrypts a previously generated data key.
	DecryptDataKey(ctx context.Context, dataKeyEncrypted []byte) (dataKeyPlainText *[32]byte, err error)
}
