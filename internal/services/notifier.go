package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	types "github.com/yungbote/homework-backend/internal/domain"
	"github.com/yungbote/homework-backend/internal/platform/logger"
)

// StepNotifier publishes step-state transitions so pollers and dashboards
// can react without hammering the status endpoint. Best-effort: publish
// failures are logged, never propagated into the pipeline.
type StepNotifier interface {
	StepStateChanged(ctx context.Context, runID uuid.UUID, stepName types.StepName, state types.StepState)
	RunSucceeded(ctx context.Context, runID uuid.UUID)
	Close() error
}

type stepEvent struct {
	RunID    uuid.UUID       `json:"run_id"`
	StepName types.StepName  `json:"step_name,omitempty"`
	State    types.StepState `json:"state,omitempty"`
	Event    string          `json:"event"`
	At       time.Time       `json:"at"`
}

type redisNotifier struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
}

// NewStepNotifier connects to REDIS_ADDR. When the variable is unset the
// noop notifier is returned so single-process deployments need no Redis.
func NewStepNotifier(log *logger.Logger) (StepNotifier, error) {
	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		log.Info("REDIS_ADDR not set; step notifications disabled")
		return NopStepNotifier{}, nil
	}
	ch := strings.TrimSpace(os.Getenv("REDIS_STEP_CHANNEL"))
	if ch == "" {
		ch = "homework.steps"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &redisNotifier{
		log:     log.With("service", "StepNotifier"),
		rdb:     rdb,
		channel: ch,
	}, nil
}

func (n *redisNotifier) publish(ctx context.Context, ev stepEvent) {
	raw, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if err := n.rdb.Publish(ctx, n.channel, raw).Err(); err != nil {
		n.log.Warn("step event publish failed", "event", ev.Event, "run_id", ev.RunID, "error", err)
	}
}

func (n *redisNotifier) StepStateChanged(ctx context.Context, runID uuid.UUID, stepName types.StepName, state types.StepState) {
	n.publish(ctx, stepEvent{
		RunID:    runID,
		StepName: stepName,
		State:    state,
		Event:    "step_state_changed",
		At:       time.Now().UTC(),
	})
}

func (n *redisNotifier) RunSucceeded(ctx context.Context, runID uuid.UUID) {
	n.publish(ctx, stepEvent{
		RunID: runID,
		Event: "run_succeeded",
		At:    time.Now().UTC(),
	})
}

func (n *redisNotifier) Close() error { return n.rdb.Close() }

// NopStepNotifier drops all events.
type NopStepNotifier struct{}

func (NopStepNotifier) StepStateChanged(context.Context, uuid.UUID, types.StepName, types.StepState) {
}
func (NopStepNotifier) RunSucceeded(context.Context, uuid.UUID) {}
func (NopStepNotifier) Close() error                            { return nil }
