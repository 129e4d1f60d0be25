package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntityPool_ReservesZero(t *testing.T) {
	p := NewEntityPool()
	id := p.Create()
	assert.False(t, id.IsZero())
	assert.Equal(t, uint32(1), id.Index())
	assert.False(t, p.Alive(0))
}

func TestEntityPool_DestroyInvalidatesStaleID(t *testing.T) {
	p := NewEntityPool()
	a := p.Create()
	p.Destroy(a)
	assert.False(t, p.Alive(a))

	b := p.Create()
	assert.Equal(t, a.Index(), b.Index(), "freed index is reused")
	assert.Equal(t, a.Generation()+1, b.Generation())
	assert.True(t, p.Alive(b))
	assert.False(t, p.Alive(a))

	// destroying a stale id must not touch the live one
	p.Destroy(a)
	assert.True(t, p.Alive(b))
}

func TestStore_InsertionOrder(t *testing.T) {
	s := NewStore[int]()
	vals := []int{10, 20, 30, 40}
	for i := range vals {
		s.Set(EntityID(i+1), &vals[i])
	}
	s.Remove(2)

	var got []int
	s.Each(func(_ EntityID, v *int) { got = append(got, *v) })
	assert.Equal(t, []int{10, 30, 40}, got)
	assert.Equal(t, 3, s.Len())
	assert.False(t, s.Has(2))

	v, ok := s.Get(4)
	require.True(t, ok)
	assert.Equal(t, 40, *v)

	// replace keeps position
	repl := 99
	s.Set(1, &repl)
	first := s.Values()[0]
	assert.Equal(t, 99, *first)
}

func TestStore_ValuesIsCopy(t *testing.T) {
	s := NewStore[int]()
	v := 1
	s.Set(1, &v)
	out := s.Values()
	out[0] = nil
	got, ok := s.Get(1)
	require.True(t, ok)
	assert.NotNil(t, got)
}

func TestWorld_FlushDestroyQueue(t *testing.T) {
	w := NewWorld()
	s := NewStore[string]()
	w.Register(s)

	a := w.CreateEntity()
	b := w.CreateEntity()
	av, bv := "a", "b"
	s.Set(a, &av)
	s.Set(b, &bv)

	w.MarkForDestruction(a)
	w.MarkForDestruction(a)
	assert.Equal(t, 1, w.PendingDestruction())

	assert.Equal(t, 1, w.FlushDestroyQueue())
	assert.False(t, w.Alive(a))
	assert.True(t, w.Alive(b))
	assert.False(t, s.Has(a))
	assert.True(t, s.Has(b))
	assert.Equal(t, 0, w.PendingDestruction())
}
