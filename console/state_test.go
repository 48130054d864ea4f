package console

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSnapshotsNotifyEveryListener(t *testing.T) {
	var s snapshots[int]
	var first, second []int
	s.subscribe(func(v int) { first = append(first, v) })
	s.subscribe(func(v int) {
		second = append(second, v)
		// reading from a listener must not deadlock
		assert.Equal(t, v, s.get())
	})

	assert.Equal(t, 1, s.update(func(v int) int { return v + 1 }))
	assert.Equal(t, 3, s.update(func(v int) int { return v + 2 }))

	assert.Equal(t, []int{1, 3}, first)
	assert.Equal(t, []int{1, 3}, second)
}

func TestSnapshotsSubscribeDuringNotify(t *testing.T) {
	var s snapshots[string]
	var late []string
	s.subscribe(func(v string) {
		if v == "a" {
			s.subscribe(func(v string) { late = append(late, v) })
		}
	})

	s.update(func(string) string { return "a" })
	s.update(func(string) string { return "b" })

	assert.Equal(t, []string{"b"}, late)
}
