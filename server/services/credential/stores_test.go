package credential

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/devboard/devboard/common/gerror"
	"github.com/devboard/devboard/common/logger"
	"github.com/devboard/devboard/common/models"
	"github.com/devboard/devboard/server/services/encryption"
	"github.com/devboard/devboard/server/store/scm_credentials"
	"github.com/devboard/devboard/server/store/store_test"
)

const testMasterKey = "3132333435363738313233343536373831323334353637383132333435363738"

func testCipher(t *testing.T) *encryption.TokenCipher {
	masterKey, err := encryption.ParseLocalMasterKey(testMasterKey)
	require.NoError(t, err)
	return encryption.NewTokenCipher(encryption.NewLocalKeyManager(masterKey))
}

func TestMemoryStore(t *testing.T) {
	testStore(t, NewMemoryStore())
}

func TestDatabaseStore(t *testing.T) {
	db, cleanup, err := store_test.Connect(t.TempDir(), logger.NoOpLogFactory)
	require.NoError(t, err)
	defer cleanup()
	testStore(t, NewDatabaseStore(
		scm_credentials.NewTokenStore(db, logger.NoOpLogFactory),
		scm_credentials.NewRejectionStore(db, logger.NoOpLogFactory),
		testCipher(t)))
}

func TestRedisStore(t *testing.T) {
	address := os.Getenv("DEVBOARD_TEST_REDIS")
	if address == "" {
		t.Skip("DEVBOARD_TEST_REDIS not set")
	}
	ctx := context.Background()
	client, cleanup, err := NewRedisClient(ctx, RedisConfig{Address: address})
	require.NoError(t, err)
	defer cleanup()
	flush(t, client)
	defer flush(t, client)
	testStore(t, NewRedisStore(client, testCipher(t)))
}

func flush(t *testing.T, client *redis.Client) {
	keys, err := client.Keys(context.Background(), redisKeyPrefix+":*").Result()
	require.NoError(t, err)
	if len(keys) > 0 {
		require.NoError(t, client.Del(context.Background(), keys...).Err())
	}
}

func testStore(t *testing.T, s Store) {
	ctx := context.Background()
	now := models.NewTime(time.Now())

	t.Run("Tokens", func(t *testing.T) {
		_, err := s.GetToken(ctx, "alice", "https://github.com")
		require.True(t, gerror.IsNotFound(err))

		token := &models.PersonalAccessToken{
			ID:              "pat-1",
			UserID:          "alice",
			ScmServerOrigin: "https://github.com",
			ProviderName:    models.GitHubSystem,
			ScmUserName:     "alice-gh",
			Token:           "gho_first",
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		require.NoError(t, s.PutToken(ctx, token))
		require.Equal(t, "gho_first", token.Token, "storing must not modify the caller's token")

		got, err := s.GetToken(ctx, "alice", "https://github.com")
		require.NoError(t, err)
		require.Equal(t, "gho_first", got.Token)
		require.Equal(t, "alice-gh", got.ScmUserName)
		require.Equal(t, models.GitHubSystem, got.ProviderName)

		replacement := *token
		replacement.Token = "gho_second"
		require.NoError(t, s.PutToken(ctx, &replacement))
		got, err = s.GetToken(ctx, "alice", "https://github.com")
		require.NoError(t, err)
		require.Equal(t, "gho_second", got.Token)

		_, err = s.GetToken(ctx, "bob", "https://github.com")
		require.True(t, gerror.IsNotFound(err), "tokens are scoped to the user")
		_, err = s.GetToken(ctx, "alice", "https://github.example.com")
		require.True(t, gerror.IsNotFound(err), "tokens are scoped to the server")

		require.NoError(t, s.DeleteToken(ctx, "alice", "https://github.com"))
		require.NoError(t, s.DeleteToken(ctx, "alice", "https://github.com"))
		_, err = s.GetToken(ctx, "alice", "https://github.com")
		require.True(t, gerror.IsNotFound(err))
	})

	t.Run("Rejections", func(t *testing.T) {
		exists, err := s.HasRejection(ctx, "alice", "https://gitlab.com")
		require.NoError(t, err)
		require.False(t, exists)

		rejection := &models.AuthorisationRejection{
			UserID:          "alice",
			ScmServerOrigin: "https://gitlab.com",
			ProviderName:    models.GitLabSystem,
			CreatedAt:       now,
		}
		require.NoError(t, s.PutRejection(ctx, rejection))
		require.NoError(t, s.PutRejection(ctx, rejection))

		exists, err = s.HasRejection(ctx, "alice", "https://gitlab.com")
		require.NoError(t, err)
		require.True(t, exists)
		exists, err = s.HasRejection(ctx, "bob", "https://gitlab.com")
		require.NoError(t, err)
		require.False(t, exists)

		require.NoError(t, s.DeleteRejection(ctx, "alice", "https://gitlab.com"))
		require.NoError(t, s.DeleteRejection(ctx, "alice", "https://gitlab.com"))
		exists, err = s.HasRejection(ctx, "alice", "https://gitlab.com")
		require.NoError(t, err)
		require.False(t, exists)
	})
}
