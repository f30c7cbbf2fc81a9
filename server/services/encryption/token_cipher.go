package encryption

import (
	"context"

	"github.com/pkg/errors"
)

// Sealed is an envelope-encrypted value: the data is encrypted with a one-off data key,
// and the data key is itself encrypted by the KeyManager's master key.
type Sealed struct {
	Ciphertext       []byte
	DataKeyEncrypted []byte
}

// TokenCipher encrypts credentials before they are persisted and decrypts them on the way out.
type TokenCipher struct {
	keyManager KeyManager
}

func NewTokenCipher(keyManager KeyManager) *TokenCipher {
	return &TokenCipher{keyManager: keyManager}
}

// Seal encrypts plaintext under a freshly generated data key.
func (c *TokenCipher) Seal(ctx context.Context, plaintext []byte) (Sealed, error) {
	dataKey, dataKeyEncrypted, err := c.keyManager.GenerateDataKey(ctx)
	if err != nil {
		return Sealed{}, errors.Wrap(err, "error generating data key")
	}
	ciphertext, err := encrypt(plaintext, dataKey)
	if err != nil {
		return Sealed{}, errors.Wrap(err, "error encrypting data")
	}
	return Sealed{Ciphertext: ciphertext, DataKeyEncrypted: dataKeyEncrypted}, nil
}

// Open decrypts a value previously produced by Seal.
func (c *TokenCipher) Open(ctx context.Context, sealed Sealed) ([]byte, error) {
	dataKey, err := c.keyManager.DecryptDataKey(ctx, sealed.DataKeyEncrypted)
	if err != nil {
		return nil, errors.Wrap(err, "error decrypting data key")
	}
	plaintext, err := decrypt(sealed.Ciphertext, dataKey)
	if err != nil {
		return nil, errors.Wrap(err, "error decrypting data")
	}
	return plaintext, nil
}
