package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iudanet/entrypack/internal/crypto"
)

// setupStorage возвращает хранилище в памяти с тестовым шифром
func setupStorage(t *testing.T) *Storage {
	t.Helper()

	key := make([]byte, crypto.KeySize)
	for i := range key {
		key[i] = byte(i)
	}
	cipher, err := crypto.NewCipher(key)
	require.NoError(t, err)

	s, err := New(context.Background(), ":memory:", cipher)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, s.Close())
	})
	return s
}
