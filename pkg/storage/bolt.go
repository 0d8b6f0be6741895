package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/zitadel/authserver/pkg/oidc"
	"github.com/zitadel/authserver/pkg/op"
)

var (
	clientsBucket      = []byte("clients")
	authRequestsBucket = []byte("auth_requests")
	grantsBucket       = []byte("grants")
	tokensBucket       = []byte("tokens")
	// grantTokensBucket indexes tokens by grant, keyed grant id + "/" + token id.
	grantTokensBucket = []byte("grant_tokens")
)

var errBucketMissing = errors.New("bucket missing")

var _ op.Storage = (*Bolt)(nil)

// Bolt implements op.Storage in a bbolt file. Records are stored as
// JSON and state transitions run in a single write transaction.
type Bolt struct {
	*Directory
	db *bbolt.DB
}

// OpenBolt opens or creates the database file.
func OpenBolt(path string, dir *Directory) (*Bolt, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 10 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt database %s: %w", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		for _, bucket := range [][]byte{clientsBucket, authRequestsBucket, grantsBucket, tokensBucket, grantTokensBucket} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Bolt{Directory: dir, db: db}, nil
}

func (s *Bolt) Close() error {
	return s.db.Close()
}

func boltGet(tx *bbolt.Tx, bucket []byte, key string, v any) error {
	b := tx.Bucket(bucket)
	if b == nil {
		return fmt.Errorf("%s: %w", bucket, errBucketMissing)
	}
	data := b.Get([]byte(key))
	if data == nil {
		return fmt.Errorf("%s %s: %w", bucket, key, op.ErrNotFound)
	}
	return json.Unmarshal(data, v)
}

func boltPut(tx *bbolt.Tx, bucket []byte, key string, v any) error {
	b := tx.Bucket(bucket)
	if b == nil {
		return fmt.Errorf("%s: %w", bucket, errBucketMissing)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return b.Put([]byte(key), data)
}

func (s *Bolt) GetClientByClientID(_ context.Context, clientID string) (op.Client, error) {
	if client, ok := s.staticClient(clientID); ok {
		return client, nil
	}
	info := new(oidc.ClientInformationResponse)
	err := s.db.View(func(tx *bbolt.Tx) error {
		return boltGet(tx, clientsBucket, clientID, info)
	})
	if err != nil {
		return nil, err
	}
	return s.registeredClient(info)
}

func (s *Bolt) RegisterClient(_ context.Context, info *oidc.ClientInformationResponse) error {
	if _, ok := s.staticClient(info.ClientID); ok {
		return fmt.Errorf("client %s already exists", info.ClientID)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		if tx.Bucket(clientsBucket).Get([]byte(info.ClientID)) != nil {
			return fmt.Errorf("client %s already exists", info.ClientID)
		}
		return boltPut(tx, clientsBucket, info.ClientID, info)
	})
}

func (s *Bolt) ClientInformation(_ context.Context, clientID string) (*oidc.ClientInformationResponse, error) {
	info := new(oidc.ClientInformationResponse)
	err := s.db.View(func(tx *bbolt.Tx) error {
		return boltGet(tx, clientsBucket, clientID, info)
	})
	if err != nil {
		return nil, err
	}
	return info, nil
}

func (s *Bolt) SaveAuthRequest(_ context.Context, authReq *op.AuthRequest) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return boltPut(tx, authRequestsBucket, authReq.ID, authReq)
	})
}

func (s *Bolt) AuthRequestByID(_ context.Context, id string) (*op.AuthRequest, error) {
	authReq := new(op.AuthRequest)
	err := s.db.View(func(tx *bbolt.Tx) error {
		return boltGet(tx, authRequestsBucket, id, authReq)
	})
	if err != nil {
		return nil, err
	}
	return authReq, nil
}

func (s *Bolt) UpdateAuthRequest(_ context.Context, authReq *op.AuthRequest) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if tx.Bucket(authRequestsBucket).Get([]byte(authReq.ID)) == nil {
			return fmt.Errorf("auth request %s: %w", authReq.ID, op.ErrNotFound)
		}
		return boltPut(tx, authRequestsBucket, authReq.ID, authReq)
	})
}

func (s *Bolt) DeleteAuthRequest(_ context.Context, id string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(authRequestsBucket).Delete([]byte(id))
	})
}

func (s *Bolt) DeleteExpiredAuthRequests(_ context.Context, before time.Time) (n int, err error) {
	err = s.db.Update(func(tx *bbolt.Tx) error {
		n, err = deleteExpired(tx.Bucket(authRequestsBucket), func(data []byte) (bool, error) {
			authReq := new(op.AuthRequest)
			if err := json.Unmarshal(data, authReq); err != nil {
				return false, err
			}
			return authReq.ExpiresAt.Before(before), nil
		})
		return err
	})
	return n, err
}

// deleteExpired deletes the records of the bucket expired reports
// true for. Keys are collected first, bbolt does not allow
// deleting while iterating with ForEach.
func deleteExpired(b *bbolt.Bucket, expired func([]byte) (bool, error)) (int, error) {
	var keys [][]byte
	err := b.ForEach(func(k, v []byte) error {
		ok, err := expired(v)
		if err != nil {
			return fmt.Errorf("%s: %w", k, err)
		}
		if ok {
			keys = append(keys, bytes.Clone(k))
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	for _, k := range keys {
		if err = b.Delete(k); err != nil {
			return 0, err
		}
	}
	return len(keys), nil
}

func (s *Bolt) SaveGrant(_ context.Context, grant *op.Grant) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if tx.Bucket(grantsBucket).Get([]byte(grant.Code)) != nil {
			return fmt.Errorf("grant %s already exists", grant.ID)
		}
		return boltPut(tx, grantsBucket, grant.Code, grant)
	})
}

func (s *Bolt) GrantByCode(_ context.Context, code string) (*op.Grant, error) {
	grant := new(op.Grant)
	err := s.db.View(func(tx *bbolt.Tx) error {
		return boltGet(tx, grantsBucket, code, grant)
	})
	if err != nil {
		return nil, err
	}
	return grant, nil
}

// UpdateGrantState reads and writes the grant in the same write
// transaction, bbolt allows only one of them at a time.
func (s *Bolt) UpdateGrantState(_ context.Context, code string, from, to op.GrantState) (updated bool, err error) {
	err = s.db.Update(func(tx *bbolt.Tx) error {
		grant := new(op.Grant)
		if err := boltGet(tx, grantsBucket, code, grant); err != nil {
			return err
		}
		if grant.State != from {
			return nil
		}
		grant.State = to
		if err := boltPut(tx, grantsBucket, code, grant); err != nil {
			return err
		}
		updated = true
		return nil
	})
	return updated, err
}

func (s *Bolt) ExpiredGrants(_ context.Context, before time.Time) ([]*op.Grant, error) {
	var grants []*op.Grant
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(grantsBucket).ForEach(func(_, v []byte) error {
			grant := new(op.Grant)
			if err := json.Unmarshal(v, grant); err != nil {
				return err
			}
			if grant.ExpiresAt.Before(before) {
				grants = append(grants, grant)
			}
			return nil
		})
	})
	return grants, err
}

func (s *Bolt) DeleteGrant(_ context.Context, code string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(grantsBucket)
		if b.Get([]byte(code)) == nil {
			return fmt.Errorf("grant: %w", op.ErrNotFound)
		}
		return b.Delete([]byte(code))
	})
}

func grantTokenKey(grantID, tokenID string) []byte {
	return []byte(grantID + "/" + tokenID)
}

func (s *Bolt) SaveToken(_ context.Context, token *op.Token) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := boltPut(tx, tokensBucket, token.ID, token); err != nil {
			return err
		}
		if token.GrantID == "" {
			return nil
		}
		return tx.Bucket(grantTokensBucket).Put(grantTokenKey(token.GrantID, token.ID), []byte(token.ID))
	})
}

func (s *Bolt) TokenByID(_ context.Context, id string) (*op.Token, error) {
	token := new(op.Token)
	err := s.db.View(func(tx *bbolt.Tx) error {
		return boltGet(tx, tokensBucket, id, token)
	})
	if err != nil {
		return nil, err
	}
	return token, nil
}

func (s *Bolt) RevokeToken(_ context.Context, id string) (revoked bool, err error) {
	err = s.db.Update(func(tx *bbolt.Tx) error {
		revoked, err = revokeToken(tx, id)
		return err
	})
	return revoked, err
}

// revokeToken reports whether the token was active before.
func revokeToken(tx *bbolt.Tx, id string) (bool, error) {
	token := new(op.Token)
	if err := boltGet(tx, tokensBucket, id, token); err != nil {
		return false, err
	}
	if token.Revoked {
		return false, nil
	}
	token.Revoked = true
	return true, boltPut(tx, tokensBucket, id, token)
}

func (s *Bolt) RevokeTokensByGrant(_ context.Context, grantID string) (n int, err error) {
	err = s.db.Update(func(tx *bbolt.Tx) error {
		prefix := []byte(grantID + "/")
		c := tx.Bucket(grantTokensBucket).Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			revoked, err := revokeToken(tx, string(v))
			if errors.Is(err, op.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			if revoked {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (s *Bolt) HasActiveTokens(_ context.Context, grantID string, at time.Time) (active bool, err error) {
	err = s.db.View(func(tx *bbolt.Tx) error {
		prefix := []byte(grantID + "/")
		c := tx.Bucket(grantTokensBucket).Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			token := new(op.Token)
			err := boltGet(tx, tokensBucket, string(v), token)
			if errors.Is(err, op.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			if token.Active(at) {
				active = true
				return nil
			}
		}
		return nil
	})
	return active, err
}

func (s *Bolt) DeleteExpiredTokens(_ context.Context, before time.Time) (n int, err error) {
	err = s.db.Update(func(tx *bbolt.Tx) error {
		var index [][]byte
		n, err = deleteExpired(tx.Bucket(tokensBucket), func(data []byte) (bool, error) {
			token := new(op.Token)
			if err := json.Unmarshal(data, token); err != nil {
				return false, err
			}
			expired := token.ExpiresAt.Before(before)
			if expired && token.GrantID != "" {
				index = append(index, grantTokenKey(token.GrantID, token.ID))
			}
			return expired, nil
		})
		if err != nil {
			return err
		}
		for _, k := range index {
			if err := tx.Bucket(grantTokensBucket).Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
	return n, err
}

func (s *Bolt) Health(context.Context) error {
	return s.db.View(func(tx *bbolt.Tx) error {
		if tx.Bucket(grantsBucket) == nil {
			return fmt.Errorf("%s: %w", grantsBucket, errBucketMissing)
		}
		return nil
	})
}
