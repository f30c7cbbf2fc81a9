package credential

import (
	"context"
	"sync"

	"github.com/devboard/devboard/common/gerror"
	"github.com/devboard/devboard/common/models"
)

type credentialKey struct {
	userID       string
	serverOrigin string
}

// MemoryStore keeps credentials in process memory. Everything is lost on restart.
type MemoryStore struct {
	tokens     map[credentialKey]models.PersonalAccessToken
	rejections map[credentialKey]models.AuthorisationRejection
	mutex      sync.RWMutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tokens:     make(map[credentialKey]models.PersonalAccessToken),
		rejections: make(map[credentialKey]models.AuthorisationRejection),
	}
}

func (s *MemoryStore) GetToken(ctx context.Context, userID string, serverOrigin string) (*models.PersonalAccessToken, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	token, ok := s.tokens[credentialKey{userID, serverOrigin}]
	if !ok {
		return nil, gerror.NewErrNotFound("Not Found").IDetail("scm_server", serverOrigin)
	}
	return &token, nil
}

func (s *MemoryStore) PutToken(ctx context.Context, token *models.PersonalAccessToken) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.tokens[credentialKey{token.UserID, token.ScmServerOrigin}] = *token
	return nil
}

func (s *MemoryStore) DeleteToken(ctx context.Context, userID string, serverOrigin string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.tokens, credentialKey{userID, serverOrigin})
	return nil
}

func (s *MemoryStore) HasRejection(ctx context.Context, userID string, serverOrigin string) (bool, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	_, ok := s.rejections[credentialKey{userID, serverOrigin}]
	return ok, nil
}

func (s *MemoryStore) PutRejection(ctx context.Context, rejection *models.AuthorisationRejection) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	key := credentialKey{rejection.UserID, rejection.ScmServerOrigin}
	if _, ok := s.rejections[key]; !ok {
		s.rejections[key] = *rejection
	}
	return nil
}

func (s *MemoryStore) DeleteRejection(ctx context.Context, userID string, serverOrigin string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.rejections, credentialKey{userID, serverOrigin})
	return nil
}
