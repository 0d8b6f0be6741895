package mock

import (
	"testing"

	"github.com/golang/mock/gomock"

	"github.com/zitadel/authserver/pkg/op"
)

func NewStorage(t *testing.T) op.Storage {
	return NewMockStorage(gomock.NewController(t))
}

// NewStorageWithClient returns a storage which resolves client to itself
// and reports every other client_id as unknown.
func NewStorageWithClient(t *testing.T, client op.Client) op.Storage {
	s := NewStorage(t)
	m := s.(*MockStorage)
	m.EXPECT().GetClientByClientID(gomock.Any(), gomock.Any()).AnyTimes().DoAndReturn(
		func(_ any, id string) (op.Client, error) {
			if id == client.GetID() {
				return client, nil
			}
			return nil, op.ErrNotFound
		})
	return s
}
