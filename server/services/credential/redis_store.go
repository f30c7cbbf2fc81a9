package credential

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/devboard/devboard/common/gerror"
	"github.com/devboard/devboard/common/models"
	"github.com/devboard/devboard/server/services/encryption"
)

const redisKeyPrefix = "devboard:scm"

type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

// RedisStore shares credentials between server replicas. Tokens are envelope encrypted.
type RedisStore struct {
	client redis.UniversalClient
	cipher *encryption.TokenCipher
}

func NewRedisStore(client redis.UniversalClient, cipher *encryption.TokenCipher) *RedisStore {
	return &RedisStore{client: client, cipher: cipher}
}

// NewRedisClient connects to the configured server and checks it is reachable. The returned
// function closes the client.
func NewRedisClient(ctx context.Context, config RedisConfig) (*redis.Client, func(), error) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Address,
		Password: config.Password,
		DB:       config.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("error connecting to redis at %s: %w", config.Address, err)
	}
	return client, func() { client.Close() }, nil
}

func tokenKey(userID string, serverOrigin string) string {
	return fmt.Sprintf("%s:token:%s:%s", redisKeyPrefix, userID, serverOrigin)
}

func rejectionKey(userID string, serverOrigin string) string {
	return fmt.Sprintf("%s:rejection:%s:%s", redisKeyPrefix, userID, serverOrigin)
}

func (s *RedisStore) GetToken(ctx context.Context, userID string, serverOrigin string) (*models.PersonalAccessToken, error) {
	data, err := s.client.Get(ctx, tokenKey(userID, serverOrigin)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, gerror.NewErrNotFound("Not Found").IDetail("scm_server", serverOrigin)
	}
	if err != nil {
		return nil, fmt.Errorf("error reading token from redis: %w", err)
	}
	sealed := &sealedToken{}
	if err := json.Unmarshal(data, sealed); err != nil {
		return nil, fmt.Errorf("error decoding token from redis: %w", err)
	}
	return openToken(ctx, s.cipher, sealed)
}

func (s *RedisStore) PutToken(ctx context.Context, token *models.PersonalAccessToken) error {
	sealed, err := sealToken(ctx, s.cipher, token)
	if err != nil {
		return err
	}
	data, err := json.Marshal(sealed)
	if err != nil {
		return fmt.Errorf("error encoding token: %w", err)
	}
	err = s.client.Set(ctx, tokenKey(token.UserID, token.ScmServerOrigin), data, 0).Err()
	if err != nil {
		return fmt.Errorf("error writing token to redis: %w", err)
	}
	return nil
}

func (s *RedisStore) DeleteToken(ctx context.Context, userID string, serverOrigin string) error {
	err := s.client.Del(ctx, tokenKey(userID, serverOrigin)).Err()
	if err != nil {
		return fmt.Errorf("error deleting token from redis: %w", err)
	}
	return nil
}

func (s *RedisStore) HasRejection(ctx context.Context, userID string, serverOrigin string) (bool, error) {
	n, err := s.client.Exists(ctx, rejectionKey(userID, serverOrigin)).Result()
	if err != nil {
		return false, fmt.Errorf("error reading rejection from redis: %w", err)
	}
	return n > 0, nil
}

func (s *RedisStore) PutRejection(ctx context.Context, rejection *models.AuthorisationRejection) error {
	data, err := json.Marshal(rejection)
	if err != nil {
		return fmt.Errorf("error encoding rejection: %w", err)
	}
	err = s.client.SetNX(ctx, rejectionKey(rejection.UserID, rejection.ScmServerOrigin), data, 0).Err()
	if err != nil {
		return fmt.Errorf("error writing rejection to redis: %w", err)
	}
	return nil
}

func (s *RedisStore) DeleteRejection(ctx context.Context, userID string, serverOrigin string) error {
	err := s.client.Del(ctx, rejectionKey(userID, serverOrigin)).Err()
	if err != nil {
		return fmt.Errorf("error deleting rejection from redis: %w", err)
	}
	return nil
}
