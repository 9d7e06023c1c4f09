package logic_test

import (
	"context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"silo_bridge/logic"
	"silo_bridge/shared"
	"silo_bridge/test"
	"silo_bridge/test/mocks"
	"testing"
	"time"
)

func TestTaskNameIsStable(t *testing.T) {
	a := logic.TaskName(logic.QueuePropagate, logic.TaskParams{Key: "k", Version: 1})
	assert.Equal(t, a, logic.TaskName(logic.QueuePropagate, logic.TaskParams{Key: "k", Version: 1}))
	assert.NotEqual(t, a, logic.TaskName(logic.QueuePropagate, logic.TaskParams{Key: "k", Version: 2}))
	assert.NotEqual(t, a, logic.TaskName(logic.QueuePropagateBlogPost, logic.TaskParams{Key: "k", Version: 1}))
	assert.True(t, test.IsTaskName(logic.QueuePropagate, a))
	assert.False(t, test.IsTaskName(logic.QueuePropagate, logic.TaskName(logic.QueuePropagateBlogPost, logic.TaskParams{Key: "k"})))
}

func TestEnqueue(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockMetrics := mocks.NewMockIMetrics(ctrl)
	mockMetrics.EXPECT().TaskEnqueued(logic.QueuePropagate).Times(1)
	cfg := test.NewTestConfig(t)
	repo := test.NewTestRepo(t, cfg)
	queue := logic.NewTaskQueue(shared.NewDiscardLogger(), repo, mockMetrics)
	ctx := context.Background()
	params := logic.TaskParams{Key: "tag:twitter.com,2013:2", Version: 3}

	name, err := queue.Enqueue(ctx, logic.QueuePropagate, params)
	require.NoError(t, err)
	assert.Equal(t, logic.TaskName(logic.QueuePropagate, params), name)

	select {
	case <-queue.Notifications():
	default:
		t.Fatal("expected a wake-up after enqueue")
	}

	// Same version again: same task, no new row
	again, err := queue.Enqueue(ctx, logic.QueuePropagate, params)
	require.NoError(t, err)
	assert.Equal(t, name, again)

	items, qlen, err := repo.GetTaskQueueItems(0, 10, time.Now().UTC().Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, 1, qlen)
	assert.Equal(t, params.Key, items[0].Key)

	_, err = queue.Enqueue(ctx, "sideways", params)
	assert.Error(t, err)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = queue.Enqueue(cancelled, logic.QueuePropagate, logic.TaskParams{Key: "other"})
	assert.Error(t, err)
}
