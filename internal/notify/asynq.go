package notify

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"
)

const taskPushDeliver = "push:deliver"

// Queue enqueues push notifications onto Redis via asynq. Delivery is
// fire-and-forget: tasks get zero retries and a failed enqueue is only
// logged.
type Queue struct {
	client *asynq.Client
}

func NewQueue(redisURL string) (*Queue, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, err
	}
	return &Queue{client: asynq.NewClient(opt)}, nil
}

var _ Notifier = (*Queue)(nil)

func (q *Queue) Notify(ctx context.Context, n Notification) bool {
	payload, err := json.Marshal(n)
	if err != nil {
		log.Error().Err(err).Str("user_id", n.UserID).Msg("notify marshal")
		return false
	}
	_, err = q.client.EnqueueContext(ctx, asynq.NewTask(taskPushDeliver, payload),
		asynq.Queue("push"), asynq.MaxRetry(0))
	if err != nil {
		log.Warn().Err(err).Str("user_id", n.UserID).Msg("notify enqueue")
		return false
	}
	return true
}

func (q *Queue) Close() error { return q.client.Close() }

// Sender hands a notification to the actual push provider (APNs, FCM, ...).
type Sender func(ctx context.Context, n Notification) error

// Worker consumes the push queue and forwards notifications to a Sender.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
}

func NewWorker(redisURL string, send Sender) (*Worker, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, err
	}
	if send == nil {
		send = func(_ context.Context, n Notification) error {
			log.Info().Str("user_id", n.UserID).Str("title", n.Title).Str("body", n.Body).Msg("push delivered")
			return nil
		}
	}
	srv := asynq.NewServer(opt, asynq.Config{
		Concurrency: 5,
		Queues:      map[string]int{"push": 1},
	})
	mux := asynq.NewServeMux()
	mux.HandleFunc(taskPushDeliver, func(ctx context.Context, t *asynq.Task) error {
		var n Notification
		if err := json.Unmarshal(t.Payload(), &n); err != nil {
			log.Error().Err(err).Msg("push payload decode")
			return nil // malformed tasks are dropped, never retried
		}
		if err := send(ctx, n); err != nil {
			log.Warn().Err(err).Str("user_id", n.UserID).Msg("push send")
		}
		return nil
	})
	return &Worker{server: srv, mux: mux}, nil
}

// Run blocks until ctx is canceled, then shuts the worker down.
func (w *Worker) Run(ctx context.Context) error {
	if err := w.server.Start(w.mux); err != nil {
		return err
	}
	<-ctx.Done()
	w.server.Shutdown()
	return nil
}
