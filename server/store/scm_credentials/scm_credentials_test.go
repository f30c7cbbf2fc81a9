package scm_credentials

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/devboard/devboard/common/gerror"
	"github.com/devboard/devboard/common/logger"
	"github.com/devboard/devboard/common/models"
	"github.com/devboard/devboard/server/store"
	"github.com/devboard/devboard/server/store/store_test"
)

func TestTokenStore(t *testing.T) {
	ctx := context.Background()
	db, cleanup, err := store_test.Connect(t.TempDir(), logger.NoOpLogFactory)
	require.NoError(t, err)
	defer cleanup()
	tokens := NewTokenStore(db, logger.NoOpLogFactory)

	_, err = tokens.Read(ctx, nil, "u1", "https://github.com")
	require.True(t, gerror.IsNotFound(err))

	now := models.NewTime(time.Now())
	row := &store.ScmTokenRow{
		PersonalAccessToken: models.PersonalAccessToken{
			ID:              "t1",
			UserID:          "u1",
			ScmServerOrigin: "https://github.com",
			ProviderName:    models.GitHubSystem,
			ScmUserName:     "octocat",
			CreatedAt:       now,
			UpdatedAt:       now,
		},
		TokenEncrypted:   []byte("ciphertext-1"),
		DataKeyEncrypted: []byte("key-1"),
	}
	require.NoError(t, tokens.Upsert(ctx, nil, row))

	got, err := tokens.Read(ctx, nil, "u1", "https://github.com")
	require.NoError(t, err)
	require.Equal(t, "t1", got.ID)
	require.Equal(t, "octocat", got.ScmUserName)
	require.Equal(t, []byte("ciphertext-1"), got.TokenEncrypted)

	replacement := *row
	replacement.ID = "t2"
	replacement.ScmUserName = "hubot"
	replacement.TokenEncrypted = []byte("ciphertext-2")
	require.NoError(t, tokens.Upsert(ctx, nil, &replacement))

	got, err = tokens.Read(ctx, nil, "u1", "https://github.com")
	require.NoError(t, err)
	require.Equal(t, "t1", got.ID)
	require.Equal(t, "hubot", got.ScmUserName)
	require.Equal(t, []byte("ciphertext-2"), got.TokenEncrypted)

	_, err = tokens.Read(ctx, nil, "u2", "https://github.com")
	require.True(t, gerror.IsNotFound(err))

	require.NoError(t, tokens.Delete(ctx, nil, "u1", "https://github.com"))
	require.NoError(t, tokens.Delete(ctx, nil, "u1", "https://github.com"))
	_, err = tokens.Read(ctx, nil, "u1", "https://github.com")
	require.True(t, gerror.IsNotFound(err))
}

func TestRejectionStore(t *testing.T) {
	ctx := context.Background()
	db, cleanup, err := store_test.Connect(t.TempDir(), logger.NoOpLogFactory)
	require.NoError(t, err)
	defer cleanup()
	rejections := NewRejectionStore(db, logger.NoOpLogFactory)

	exists, err := rejections.Exists(ctx, nil, "u1", "https://gitlab.com")
	require.NoError(t, err)
	require.False(t, exists)

	rejection := &models.AuthorisationRejection{
		UserID:          "u1",
		ScmServerOrigin: "https://gitlab.com",
		ProviderName:    models.GitLabSystem,
		CreatedAt:       models.NewTime(time.Now()),
	}
	require.NoError(t, rejections.Create(ctx, nil, rejection))
	require.NoError(t, rejections.Create(ctx, nil, rejection))

	exists, err = rejections.Exists(ctx, nil, "u1", "https://gitlab.com")
	require.NoError(t, err)
	require.True(t, exists)
	exists, err = rejections.Exists(ctx, nil, "u2", "https://gitlab.com")
	require.NoError(t, err)
	require.False(t, exists)

	require.NoError(t, rejections.Delete(ctx, nil, "u1", "https://gitlab.com"))
	exists, err = rejections.Exists(ctx, nil, "u1", "https://gitlab.com")
	require.NoError(t, err)
	require.False(t, exists)
}
