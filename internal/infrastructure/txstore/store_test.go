package txstore

import (
	"testing"
	"time"

	"storage_dapp/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_PutGet(t *testing.T) {
	s := New(time.Minute, time.Minute)
	s.Put(entity.TxRecord{Hash: "0xABCDEF", Status: entity.TxMining})

	rec, ok := s.Get("0xabcdef")
	require.True(t, ok)
	assert.Equal(t, entity.TxMining, rec.Status)

	s.Put(entity.TxRecord{Hash: "0xabcdef", Status: entity.TxConfirmed, BlockNumber: 9})
	rec, ok = s.Get("0xABCDEF")
	require.True(t, ok)
	assert.Equal(t, entity.TxConfirmed, rec.Status)
	assert.Equal(t, uint64(9), rec.BlockNumber)

	_, ok = s.Get("0x00")
	assert.False(t, ok)
}

func TestStore_Expires(t *testing.T) {
	s := New(20*time.Millisecond, time.Hour)
	s.Put(entity.TxRecord{Hash: "0x01"})

	assert.Eventually(t, func() bool {
		_, ok := s.Get("0x01")
		return !ok
	}, time.Second, 10*time.Millisecond)
}
