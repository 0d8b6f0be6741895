package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/zitadel/authserver/pkg/oidc"
	"github.com/zitadel/authserver/pkg/op"
)

var _ op.Storage = (*Memory)(nil)

// Memory implements op.Storage in memory. Every collection has its
// own lock, so unrelated requests only contend on the same map.
type Memory struct {
	*Directory

	clientLock sync.RWMutex
	clients    map[string]*oidc.ClientInformationResponse

	authReqLock  sync.Mutex
	authRequests map[string]*op.AuthRequest

	grantLock sync.Mutex
	grants    map[string]*op.Grant

	tokenLock   sync.RWMutex
	tokens      map[string]*op.Token
	grantTokens map[string][]string
}

func NewMemory(dir *Directory) *Memory {
	return &Memory{
		Directory:    dir,
		clients:      make(map[string]*oidc.ClientInformationResponse),
		authRequests: make(map[string]*op.AuthRequest),
		grants:       make(map[string]*op.Grant),
		tokens:       make(map[string]*op.Token),
		grantTokens:  make(map[string][]string),
	}
}

func (s *Memory) GetClientByClientID(_ context.Context, clientID string) (op.Client, error) {
	if client, ok := s.staticClient(clientID); ok {
		return client, nil
	}
	s.clientLock.RLock()
	info, ok := s.clients[clientID]
	s.clientLock.RUnlock()
	if !ok {
		return nil, fmt.Errorf("client %s: %w", clientID, op.ErrNotFound)
	}
	return s.registeredClient(info)
}

func (s *Memory) RegisterClient(_ context.Context, info *oidc.ClientInformationResponse) error {
	if _, ok := s.staticClient(info.ClientID); ok {
		return fmt.Errorf("client %s already exists", info.ClientID)
	}
	s.clientLock.Lock()
	defer s.clientLock.Unlock()
	if _, ok := s.clients[info.ClientID]; ok {
		return fmt.Errorf("client %s already exists", info.ClientID)
	}
	stored := *info
	s.clients[info.ClientID] = &stored
	return nil
}

func (s *Memory) ClientInformation(_ context.Context, clientID string) (*oidc.ClientInformationResponse, error) {
	s.clientLock.RLock()
	defer s.clientLock.RUnlock()
	info, ok := s.clients[clientID]
	if !ok {
		return nil, fmt.Errorf("client %s: %w", clientID, op.ErrNotFound)
	}
	stored := *info
	return &stored, nil
}

func (s *Memory) SaveAuthRequest(_ context.Context, authReq *op.AuthRequest) error {
	s.authReqLock.Lock()
	defer s.authReqLock.Unlock()
	stored := *authReq
	s.authRequests[authReq.ID] = &stored
	return nil
}

func (s *Memory) AuthRequestByID(_ context.Context, id string) (*op.AuthRequest, error) {
	s.authReqLock.Lock()
	defer s.authReqLock.Unlock()
	authReq, ok := s.authRequests[id]
	if !ok {
		return nil, fmt.Errorf("auth request %s: %w", id, op.ErrNotFound)
	}
	stored := *authReq
	return &stored, nil
}

func (s *Memory) UpdateAuthRequest(_ context.Context, authReq *op.AuthRequest) error {
	s.authReqLock.Lock()
	defer s.authReqLock.Unlock()
	if _, ok := s.authRequests[authReq.ID]; !ok {
		return fmt.Errorf("auth request %s: %w", authReq.ID, op.ErrNotFound)
	}
	stored := *authReq
	s.authRequests[authReq.ID] = &stored
	return nil
}

func (s *Memory) DeleteAuthRequest(_ context.Context, id string) error {
	s.authReqLock.Lock()
	defer s.authReqLock.Unlock()
	delete(s.authRequests, id)
	return nil
}

func (s *Memory) DeleteExpiredAuthRequests(_ context.Context, before time.Time) (int, error) {
	s.authReqLock.Lock()
	defer s.authReqLock.Unlock()
	var n int
	for id, authReq := range s.authRequests {
		if authReq.ExpiresAt.Before(before) {
			delete(s.authRequests, id)
			n++
		}
	}
	return n, nil
}

func (s *Memory) SaveGrant(_ context.Context, grant *op.Grant) error {
	s.grantLock.Lock()
	defer s.grantLock.Unlock()
	if _, ok := s.grants[grant.Code]; ok {
		return fmt.Errorf("grant %s already exists", grant.ID)
	}
	stored := *grant
	s.grants[grant.Code] = &stored
	return nil
}

func (s *Memory) GrantByCode(_ context.Context, code string) (*op.Grant, error) {
	s.grantLock.Lock()
	defer s.grantLock.Unlock()
	grant, ok := s.grants[code]
	if !ok {
		return nil, fmt.Errorf("grant: %w", op.ErrNotFound)
	}
	stored := *grant
	return &stored, nil
}

func (s *Memory) UpdateGrantState(_ context.Context, code string, from, to op.GrantState) (bool, error) {
	s.grantLock.Lock()
	defer s.grantLock.Unlock()
	grant, ok := s.grants[code]
	if !ok {
		return false, fmt.Errorf("grant: %w", op.ErrNotFound)
	}
	if grant.State != from {
		return false, nil
	}
	grant.State = to
	return true, nil
}

func (s *Memory) ExpiredGrants(_ context.Context, before time.Time) ([]*op.Grant, error) {
	s.grantLock.Lock()
	defer s.grantLock.Unlock()
	var grants []*op.Grant
	for _, grant := range s.grants {
		if grant.ExpiresAt.Before(before) {
			stored := *grant
			grants = append(grants, &stored)
		}
	}
	return grants, nil
}

func (s *Memory) DeleteGrant(_ context.Context, code string) error {
	s.grantLock.Lock()
	defer s.grantLock.Unlock()
	if _, ok := s.grants[code]; !ok {
		return fmt.Errorf("grant: %w", op.ErrNotFound)
	}
	delete(s.grants, code)
	return nil
}

func (s *Memory) SaveToken(_ context.Context, token *op.Token) error {
	s.tokenLock.Lock()
	defer s.tokenLock.Unlock()
	stored := *token
	s.tokens[token.ID] = &stored
	if token.GrantID != "" {
		s.grantTokens[token.GrantID] = append(s.grantTokens[token.GrantID], token.ID)
	}
	return nil
}

func (s *Memory) TokenByID(_ context.Context, id string) (*op.Token, error) {
	s.tokenLock.RLock()
	defer s.tokenLock.RUnlock()
	token, ok := s.tokens[id]
	if !ok {
		return nil, fmt.Errorf("token %s: %w", id, op.ErrNotFound)
	}
	stored := *token
	return &stored, nil
}

func (s *Memory) RevokeToken(_ context.Context, id string) (bool, error) {
	s.tokenLock.Lock()
	defer s.tokenLock.Unlock()
	token, ok := s.tokens[id]
	if !ok {
		return false, fmt.Errorf("token %s: %w", id, op.ErrNotFound)
	}
	if token.Revoked {
		return false, nil
	}
	token.Revoked = true
	return true, nil
}

func (s *Memory) RevokeTokensByGrant(_ context.Context, grantID string) (int, error) {
	s.tokenLock.Lock()
	defer s.tokenLock.Unlock()
	var n int
	for _, id := range s.grantTokens[grantID] {
		if token, ok := s.tokens[id]; ok && !token.Revoked {
			token.Revoked = true
			n++
		}
	}
	return n, nil
}

func (s *Memory) HasActiveTokens(_ context.Context, grantID string, at time.Time) (bool, error) {
	s.tokenLock.RLock()
	defer s.tokenLock.RUnlock()
	for _, id := range s.grantTokens[grantID] {
		if token, ok := s.tokens[id]; ok && token.Active(at) {
			return true, nil
		}
	}
	return false, nil
}

func (s *Memory) DeleteExpiredTokens(_ context.Context, before time.Time) (int, error) {
	s.tokenLock.Lock()
	defer s.tokenLock.Unlock()
	var n int
	for id, token := range s.tokens {
		if !token.ExpiresAt.Before(before) {
			continue
		}
		delete(s.tokens, id)
		n++
		if token.GrantID == "" {
			continue
		}
		ids := s.grantTokens[token.GrantID]
		for i, grantTokenID := range ids {
			if grantTokenID == id {
				ids = append(ids[:i], ids[i+1:]...)
				break
			}
		}
		if len(ids) == 0 {
			delete(s.grantTokens, token.GrantID)
		} else {
			s.grantTokens[token.GrantID] = ids
		}
	}
	return n, nil
}

func (s *Memory) Health(context.Context) error {
	return nil
}
