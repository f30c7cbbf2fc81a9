package credential

import (
	"context"

	"github.com/pkg/errors"

	"github.com/devboard/devboard/common/models"
	"github.com/devboard/devboard/server/services/encryption"
)

// sealedToken is a token as persisted outside process memory. The token itself
// only ever leaves the process envelope encrypted.
type sealedToken struct {
	models.PersonalAccessToken
	TokenEncrypted   []byte `json:"token_encrypted"`
	DataKeyEncrypted []byte `json:"data_key_encrypted"`
}

func sealToken(ctx context.Context, cipher *encryption.TokenCipher, token *models.PersonalAccessToken) (*sealedToken, error) {
	sealed, err := cipher.Seal(ctx, []byte(token.Token))
	if err != nil {
		return nil, errors.Wrap(err, "error sealing token")
	}
	stripped := *token
	stripped.Token = ""
	return &sealedToken{
		PersonalAccessToken: stripped,
		TokenEncrypted:      sealed.Ciphertext,
		DataKeyEncrypted:    sealed.DataKeyEncrypted,
	}, nil
}

func openToken(ctx context.Context, cipher *encryption.TokenCipher, sealed *sealedToken) (*models.PersonalAccessToken, error) {
	plaintext, err := cipher.Open(ctx, encryption.Sealed{
		Ciphertext:       sealed.TokenEncrypted,
		DataKeyEncrypted: sealed.DataKeyEncrypted,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "error opening token for %s", sealed.ScmServerOrigin)
	}
	token := sealed.PersonalAccessToken
	token.Token = string(plaintext)
	return &token, nil
}
