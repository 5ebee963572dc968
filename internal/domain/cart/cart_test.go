package cart

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCart_AddDeduplicates(t *testing.T) {
	var c Cart
	added, err := c.Add("SHIRT001", 20)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = c.Add(" SHIRT001 ", 20)
	require.NoError(t, err)
	assert.False(t, added)
	assert.Equal(t, []string{"SHIRT001"}, c.Codes)
}

func TestCart_AddRespectsLimit(t *testing.T) {
	var c Cart
	for i := 0; i < 3; i++ {
		_, err := c.Add("ITEM"+strconv.Itoa(i), 3)
		require.NoError(t, err)
	}
	_, err := c.Add("ITEM9", 3)
	assert.ErrorIs(t, err, ErrFull)
	assert.Equal(t, 3, c.Len())

	// уже лежащий код — не ошибка даже в полной корзине
	added, err := c.Add("ITEM0", 3)
	assert.NoError(t, err)
	assert.False(t, added)
}

func TestCart_AddRejectsEmptyCode(t *testing.T) {
	var c Cart
	_, err := c.Add("  ", 20)
	assert.Error(t, err)
}

func TestCart_RemoveAndClear(t *testing.T) {
	c := Cart{Codes: []string{"A", "B", "C"}}
	assert.True(t, c.Remove("B"))
	assert.False(t, c.Remove("B"))
	assert.Equal(t, []string{"A", "C"}, c.Codes)

	c.Clear()
	assert.Zero(t, c.Len())
}

func TestSessionIDs(t *testing.T) {
	a, b := NewSessionID(), NewSessionID()
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 36)
	assert.Equal(t, "tg:42", TelegramSession(42))
	assert.True(t, strings.HasPrefix(TelegramSession(-100123), "tg:-"))
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	c, err := s.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", c.SessionID)
	assert.Empty(t, c.Codes)

	c.Codes = []string{"A"}
	require.NoError(t, s.Save(ctx, c))
	c.Codes[0] = "mutated"

	got, err := s.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, got.Codes)
	assert.False(t, got.UpdatedAt.IsZero())

	require.NoError(t, s.Delete(ctx, "s1"))
	got, err = s.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, got.Codes)
}

func TestService(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryStore(), 2)

	c, added, err := svc.Add(ctx, "s", "A")
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, []string{"A"}, c.Codes)

	_, added, err = svc.Add(ctx, "s", "A")
	require.NoError(t, err)
	assert.False(t, added)

	_, _, err = svc.Add(ctx, "s", "B")
	require.NoError(t, err)
	_, _, err = svc.Add(ctx, "s", "C")
	assert.ErrorIs(t, err, ErrFull)

	_, removed, err := svc.Remove(ctx, "s", "A")
	require.NoError(t, err)
	assert.True(t, removed)

	codes, err := svc.Codes(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, codes)

	// другие сессии не затронуты
	other, err := svc.Codes(ctx, "other")
	require.NoError(t, err)
	assert.Empty(t, other)

	require.NoError(t, svc.Clear(ctx, "s"))
	codes, err = svc.Codes(ctx, "s")
	require.NoError(t, err)
	assert.Empty(t, codes)
}

func TestService_DefaultLimit(t *testing.T) {
	assert.Equal(t, DefaultMaxItems, NewService(NewMemoryStore(), 0).MaxItems())
}

func TestService_ConcurrentAddsKeepAll(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryStore(), 50)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, _ = svc.Add(ctx, "s", "ITEM"+strconv.Itoa(i))
		}(i)
	}
	wg.Wait()

	codes, err := svc.Codes(ctx, "s")
	require.NoError(t, err)
	assert.Len(t, codes, 20)
}
