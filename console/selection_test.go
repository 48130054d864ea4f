package console

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectionStaysInsideDeclaredColumns(t *testing.T) {
	declared := []string{"id", "customer", "total", "created"}
	names := append([]string{"ghost", "", "ID"}, declared...)

	rng := rand.New(rand.NewSource(7))
	s := NewSelection(declared)
	for i := 0; i < 500; i++ {
		s = s.Toggle(names[rng.Intn(len(names))])
		for _, p := range s.Projected() {
			assert.Contains(t, declared, p)
		}
		assert.LessOrEqual(t, s.Len(), len(declared))
	}
}

func TestSelectionProjectedFollowsDeclaredOrder(t *testing.T) {
	s := NewSelection([]string{"a", "b", "c"}).Toggle("c").Toggle("a")
	assert.Equal(t, []string{"a", "c"}, s.Projected())
}

func TestSelectionToggleIsImmutable(t *testing.T) {
	all := SelectAll([]string{"a", "b"})
	less := all.Toggle("a")

	assert.True(t, all.Has("a"))
	assert.False(t, less.Has("a"))
	assert.Equal(t, []string{"a", "b"}, all.Projected())
}

func TestSelectionUnknownIgnored(t *testing.T) {
	s := NewSelection([]string{"a"}, "a", "zzz")
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, s.Projected(), s.Toggle("zzz").Projected())
}

func TestSelectionEmpty(t *testing.T) {
	assert.True(t, NewSelection(nil).Empty())
	assert.True(t, SelectAll([]string{"a"}).Toggle("a").Empty())
	assert.Empty(t, Selection{}.Projected())
}

func TestSelectionDeclaredIsACopy(t *testing.T) {
	s := NewSelection([]string{"id", "total"}, "id")
	d := s.Declared()
	d[0] = "changed"
	assert.Equal(t, []string{"id", "total"}, s.Declared())
}
