package logic

import (
	"context"
	"errors"
	"fmt"
	"github.com/spaolacci/murmur3"
	"silo_bridge/dal"
	"silo_bridge/shared"
	"strconv"
	"time"
)

//go:generate mockgen --build_flags=--mod=mod -destination ../test/mocks/mock_task_queue.go -package mocks silo_bridge/logic ITaskQueue

// TaskParams identifies the record a propagation task works on.
// Version is the record version the task was created for.
type TaskParams struct {
	Key     string `json:"key"`
	Version int    `json:"-"`
}

type ITaskQueue interface {
	Enqueue(ctx context.Context, queue string, params TaskParams) (string, error)
	Notifications() <-chan struct{}
}

type taskQueue struct {
	logger   shared.ILogger
	repo     dal.IRepo
	metrics  IMetrics
	newTasks chan struct{}
}

func NewTaskQueue(logger shared.ILogger, repo dal.IRepo, metrics IMetrics) ITaskQueue {
	return &taskQueue{
		logger:   logger,
		repo:     repo,
		metrics:  metrics,
		newTasks: make(chan struct{}, 1),
	}
}

// TaskName derives a stable task name, so enqueueing the same version of a record
// twice yields one task.
func TaskName(queue string, params TaskParams) string {
	hash := murmur3.Sum64([]byte(params.Key + "\t" + strconv.Itoa(params.Version)))
	return fmt.Sprintf("%s-%016x", queue, hash)
}

func (tq *taskQueue) Enqueue(ctx context.Context, queue string, params TaskParams) (string, error) {

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if _, err := KindForQueue(queue); err != nil {
		return "", err
	}

	name := TaskName(queue, params)
	err := tq.repo.AddTaskQueueItem(&dal.TaskQueueItem{
		Name:       name,
		Queue:      queue,
		Key:        params.Key,
		EnqueuedAt: time.Now().UTC(),
	})
	if errors.Is(err, dal.ErrConflict) {
		tq.logger.Debugf("Task already queued: %s", name)
		return name, nil
	}
	if err != nil {
		return "", err
	}
	tq.metrics.TaskEnqueued(queue)

	// Wake the worker; a pending wake-up is as good as a new one
	select {
	case tq.newTasks <- struct{}{}:
	default:
	}
	return name, nil
}

func (tq *taskQueue) Notifications() <-chan struct{} {
	return tq.newTasks
}
