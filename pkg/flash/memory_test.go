package flash

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemoryQueue_PendingOrder(t *testing.T) {
	q := NewMemoryQueue()

	q.Success("user1", "saved")
	q.Error("user1", "but careful")

	messages := q.Pending("user1")
	assert.Len(t, messages, 2)
	assert.Equal(t, LevelSuccess, messages[0].Level)
	assert.Equal(t, "saved", messages[0].Text)
	assert.Equal(t, LevelError, messages[1].Level)
}

func TestMemoryQueue_PerUserIsolation(t *testing.T) {
	q := NewMemoryQueue()

	q.Success("user1", "for one")
	assert.Empty(t, q.Pending("user2"))
}

func TestMemoryQueue_ClearPending(t *testing.T) {
	q := NewMemoryQueue()

	q.Success("user1", "saved")
	q.ClearPending("user1")
	assert.Empty(t, q.Pending("user1"))
}

func TestMemoryQueue_IgnoresEmptyUser(t *testing.T) {
	q := NewMemoryQueue()

	q.Success("", "lost")
	assert.Empty(t, q.Pending(""))
}
