package encryption

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/pkg/errors"
)

type LocalKeyManagerMasterKey *[32]byte

// ParseLocalMasterKey decodes a hex encoded 256-bit master key.
func ParseLocalMasterKey(hexKey string) (LocalKeyManagerMasterKey, error) {
	raw, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, errors.Wrap(err, "error decoding master key")
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("error master key must be 32 bytes, found %d", len(raw))
	}
	var key [32]byte
	copy(key[:], raw)
	return &key, nil
}

// LocalKeyManager wraps data keys with a master key held in process memory.
// Prefer AWSKeyManager outside of development.
type LocalKeyManager struct {
	masterKey *[32]byte
}

func NewLocalKeyManager(masterKey LocalKeyManagerMasterKey) *LocalKeyManager {
	return &LocalKeyManager{masterKey: masterKey}
}

func (a *LocalKeyManager) GenerateDataKey(ctx context.Context) (*[32]byte, []byte, error) {
	dataKey := newEncryptionKey()
	wrapped, err := encrypt(dataKey[:], a.masterKey)
	if err != nil {
		return nil, nil, errors.Wrap(err, "error encrypting data key")
	}
	return dataKey, wrapped, nil
}

func (a *LocalKeyManager) DecryptDataKey(ctx context.Context, dataKeyEncrypted []byte) (*[32]byte, error) {
	raw, err := decrypt(dataKeyEncrypted, a.masterKey)
	if err != nil {
		return nil, errors.Wrap(err, "error decrypting data key")
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("error data key must be 32 bytes, found %d", len(raw))
	}
	var dataKey [32]byte
	copy(dataKey[:], raw)
	return &dataKey, nil
}
