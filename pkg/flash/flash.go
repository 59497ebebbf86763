package flash

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// Message levels
const (
	LevelSuccess = "success"
	LevelError   = "error"
)

// TTLPending how long undelivered flashes survive before expiring
const TTLPending = 30 * time.Minute

// keyPrefix for per-user pending flash lists
const keyPrefix = "flash:"

// Message is one queued user-facing notification
type Message struct {
	Level string    `json:"level"`
	Text  string    `json:"text"`
	At    time.Time `json:"at"`
}

// Queue buffers user-facing notifications until the next interactive
// page view consumes them
type Queue interface {
	Success(userID, text string)
	Error(userID, text string)
	Pending(userID string) []Message
	ClearPending(userID string)
}

// redisQueue Redis-backed implementation
type redisQueue struct {
	client *redis.Client
}

// NewRedisQueue creates a flash queue on top of a Redis client
func NewRedisQueue(client *redis.Client) Queue {
	return &redisQueue{client: client}
}

func (q *redisQueue) key(userID string) string {
	return keyPrefix + userID
}

func (q *redisQueue) push(userID string, msg Message) {
	if q.client == nil || userID == "" {
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	ctx := context.Background()
	pipe := q.client.TxPipeline()
	pipe.RPush(ctx, q.key(userID), data)
	pipe.Expire(ctx, q.key(userID), TTLPending)
	_, _ = pipe.Exec(ctx)
}

func (q *redisQueue) Success(userID, text string) {
	q.push(userID, Message{Level: LevelSuccess, Text: text, At: time.Now()})
}

func (q *redisQueue) Error(userID, text string) {
	q.push(userID, Message{Level: LevelError, Text: text, At: time.Now()})
}

func (q *redisQueue) Pending(userID string) []Message {
	if q.client == nil || userID == "" {
		return nil
	}
	ctx := context.Background()
	raw, err := q.client.LRange(ctx, q.key(userID), 0, -1).Result()
	if err != nil {
		return nil
	}
	msgs := make([]Message, 0, len(raw))
	for _, item := range raw {
		var msg Message
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			continue
		}
		msgs = append(msgs, msg)
	}
	return msgs
}

func (q *redisQueue) ClearPending(userID string) {
	if q.client == nil || userID == "" {
		return
	}
	_ = q.client.Del(context.Background(), q.key(userID)).Err()
}
