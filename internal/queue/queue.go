// Package queue implements the job queue on Redis lists, one list per lane,
// plus a pub/sub channel carrying job state changes back to the API.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/driftbox/driftbox/internal/domain"
)

// Lane names. Each lane is a Redis list consumed with BRPOP.
const (
	LaneThumbnails = "driftbox:q:thumbnails"
	LaneWelcome    = "driftbox:q:welcome"
)

const eventsChannel = "driftbox:events"

// ErrEmpty signals that no job became available before the timeout.
var ErrEmpty = errors.New("queue: empty")

// Queue publishes and consumes jobs.
type Queue struct {
	client *redis.Client
}

// New constructs a Queue.
func New(client *redis.Client) *Queue {
	return &Queue{client: client}
}

// Enqueue pushes a JSON-encoded job onto a lane.
func (q *Queue) Enqueue(ctx context.Context, lane string, job any) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job: %w", err)
	}
	if err := q.client.LPush(ctx, lane, payload).Err(); err != nil {
		return fmt.Errorf("enqueue: %w", err)
	}
	return nil
}

// Dequeue blocks up to timeout for the next job on any of the given lanes.
// Multiple consumers may dequeue different jobs concurrently; delivery of a
// single job to more than one consumer is tolerated by job idempotency, not
// prevented here.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration, lanes ...string) (string, []byte, error) {
	res, err := q.client.BRPop(ctx, timeout, lanes...).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil, ErrEmpty
	}
	if err != nil {
		return "", nil, fmt.Errorf("dequeue: %w", err)
	}
	if len(res) != 2 {
		return "", nil, ErrEmpty
	}
	return res[0], []byte(res[1]), nil
}

// PublishEvent broadcasts a job state change.
func (q *Queue) PublishEvent(ctx context.Context, event domain.JobEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := q.client.Publish(ctx, eventsChannel, payload).Err(); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// SubscribeEvents returns a channel of raw job events. The returned stop
// function tears the subscription down. Slow consumers drop events rather
// than stall the pipeline.
func (q *Queue) SubscribeEvents(ctx context.Context) (<-chan []byte, func(), error) {
	sub := q.client.Subscribe(ctx, eventsChannel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, fmt.Errorf("subscribe events: %w", err)
	}
	out := make(chan []byte, 64)
	go func() {
		defer close(out)
		for msg := range sub.Channel() {
			select {
			case out <- []byte(msg.Payload):
			default:
			}
		}
	}()
	stop := func() { _ = sub.Close() }
	return out, stop, nil
}
