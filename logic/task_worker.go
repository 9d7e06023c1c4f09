package logic

import (
	"context"
	"silo_bridge/dal"
	"silo_bridge/shared"
	"time"
)

type ITaskWorker interface {
	Start()
	Stop()
}

const taskLoopIdleWakeSec = 5
const maxTaskAttempts = 5
const taskRetryBaseDelay = 30 * time.Second

type taskResult struct {
	item *dal.TaskQueueItem
	err  error
}

type taskWorker struct {
	cfg        *shared.Config
	logger     shared.ILogger
	repo       dal.IRepo
	queue      ITaskQueue
	deliverer  IDeliverer
	propagator IPropagator
	metrics    IMetrics
	tqProgress map[int]struct{}
	stop       chan struct{}
	done       chan struct{}
	ctx        context.Context
	cancel     context.CancelFunc
}

func NewTaskWorker(
	cfg *shared.Config,
	logger shared.ILogger,
	repo dal.IRepo,
	queue ITaskQueue,
	deliverer IDeliverer,
	propagator IPropagator,
	metrics IMetrics,
) ITaskWorker {
	return &taskWorker{
		cfg:        cfg,
		logger:     logger,
		repo:       repo,
		queue:      queue,
		deliverer:  deliverer,
		propagator: propagator,
		metrics:    metrics,
	}
}

func (w *taskWorker) Start() {
	w.tqProgress = make(map[int]struct{})
	w.stop = make(chan struct{})
	w.done = make(chan struct{})
	w.ctx, w.cancel = context.WithCancel(context.Background())
	go w.taskQueueLoop()
}

// Stop cancels in-flight deliveries and waits for the loop to exit.
// Interrupted tasks stay in the queue and run again after a restart.
func (w *taskWorker) Stop() {
	if w.stop == nil {
		return
	}
	w.cancel()
	close(w.stop)
	<-w.done
	w.stop = nil
}

// retryDelay doubles with every failed attempt.
func retryDelay(attempts int) time.Duration {
	return taskRetryBaseDelay << (attempts - 1)
}

func (w *taskWorker) taskQueueLoop() {

	defer close(w.done)
	handled := make(chan taskResult)
	inFlight := 0

	startTasks := func() {
		if len(w.tqProgress) >= w.cfg.MaxParallelTasks {
			return
		}
		maxId := -1
		for id := range w.tqProgress {
			maxId = max(maxId, id)
		}
		items, qlen, err := w.repo.GetTaskQueueItems(maxId, w.cfg.MaxParallelTasks-len(w.tqProgress), time.Now().UTC())
		if err != nil {
			w.logger.Errorf("Failed to get task queue items: %v", err)
			return
		}
		w.metrics.TaskQueueLength(qlen)
		for _, item := range items {
			w.tqProgress[item.Id] = struct{}{}
			inFlight++
			go w.runTask(item, handled)
		}
	}

	finishTask := func(res taskResult) {
		inFlight--
		delete(w.tqProgress, res.item.Id)
		if w.ctx.Err() != nil {
			return
		}
		if res.err == nil {
			w.metrics.TaskHandled(res.item.Queue, "ok")
			w.removeTask(res.item)
			return
		}
		attempts := res.item.Attempts + 1
		if attempts < maxTaskAttempts {
			w.metrics.TaskHandled(res.item.Queue, "retry")
			w.logger.Warnf("Task %s failed, attempt %d: %v", res.item.Name, attempts, res.err)
			notBefore := time.Now().UTC().Add(retryDelay(attempts))
			if err := w.repo.RescheduleTaskQueueItem(res.item.Id, attempts, notBefore); err != nil {
				w.logger.Errorf("Failed to reschedule task %d: %v", res.item.Id, err)
			}
			return
		}
		w.metrics.TaskHandled(res.item.Queue, "gave_up")
		w.logger.Errorf("Giving up on task %s after %d attempts: %v", res.item.Name, attempts, res.err)
		if kind, err := KindForQueue(res.item.Queue); err == nil {
			if err = w.propagator.MarkError(kind, res.item.Key); err != nil {
				w.logger.Errorf("Failed to mark %s %s as errored: %v", kind, res.item.Key, err)
			}
		}
		w.removeTask(res.item)
	}

	for {
		select {
		case <-w.stop:
			for ; inFlight > 0; inFlight-- {
				<-handled
			}
			return
		case <-w.queue.Notifications():
			w.logger.Debug("New tasks in queue")
			startTasks()
		case <-time.After(taskLoopIdleWakeSec * time.Second):
			startTasks()
		case res := <-handled:
			w.logger.Debugf("Task handled: %d", res.item.Id)
			finishTask(res)
			startTasks()
		}
	}
}

func (w *taskWorker) runTask(item *dal.TaskQueueItem, handled chan taskResult) {
	err := w.deliverer.Deliver(w.ctx, item)
	handled <- taskResult{item, err}
}

func (w *taskWorker) removeTask(item *dal.TaskQueueItem) {
	if err := w.repo.DeleteTaskQueueItem(item.Id); err != nil {
		w.logger.Errorf("Failed to remove task from queue: %d: %v", item.Id, err)
	}
}
