package logic_test

import (
	"fmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"silo_bridge/logic"
	"silo_bridge/shared"
	"silo_bridge/test"
	"silo_bridge/test/mocks"
	"sync"
	"testing"
)

func newTestCache(t *testing.T) (*gomock.Controller, logic.IResolutionCache, *mocks.MockIMetrics) {
	ctrl := gomock.NewController(t)
	mockMetrics := mocks.NewMockIMetrics(ctrl)
	cfg := test.NewTestConfig(t)
	repo := test.NewTestRepo(t, cfg)
	test.NewSource(t, repo, "facebook", "212038", "snarfed.org")
	cache := logic.NewResolutionCache(cfg, shared.NewDiscardLogger(), repo, mockMetrics)
	return ctrl, cache, mockMetrics
}

func TestResolutionCacheSurvivesFlush(t *testing.T) {
	ctrl, cache, mockMetrics := newTestCache(t)
	test.SetupDummyMetrics(ctrl, mockMetrics)
	key := shared.SourceKey("facebook", "212038")

	_, ok := cache.GetObjectId(key, "123")
	assert.False(t, ok)

	cache.PutObjectId(key, "123", "456")
	cache.PutObjectId(key, "789", "")
	cache.PutPublic(key, "123", true)
	require.NoError(t, cache.Flush(key))

	objId, ok := cache.GetObjectId(key, "123")
	assert.True(t, ok)
	assert.Equal(t, "456", objId)

	objId, ok = cache.GetObjectId(key, "789")
	assert.True(t, ok, "known to resolve to nothing")
	assert.Equal(t, "", objId)

	public, ok := cache.GetPublic(key, "123")
	assert.True(t, ok)
	assert.True(t, public)

	_, ok = cache.GetPublic(key, "456")
	assert.False(t, ok)
}

func TestResolutionCacheEvictsSmallestKeys(t *testing.T) {
	_, cache, mockMetrics := newTestCache(t)
	mockMetrics.EXPECT().CacheEvicted(logic.CacheResolvedObjectIds, 50)
	key := shared.SourceKey("facebook", "212038")

	for i := 1; i <= 250; i++ {
		cache.PutObjectId(key, fmt.Sprint(i), fmt.Sprintf("obj%d", i))
	}
	require.NoError(t, cache.Flush(key))

	for i := 1; i <= 50; i++ {
		_, ok := cache.GetObjectId(key, fmt.Sprint(i))
		assert.False(t, ok, "key %d should be evicted", i)
	}
	for i := 51; i <= 250; i++ {
		objId, ok := cache.GetObjectId(key, fmt.Sprint(i))
		assert.True(t, ok, "key %d should be kept", i)
		assert.Equal(t, fmt.Sprintf("obj%d", i), objId)
	}
}

func TestResolutionCacheMergesWithStored(t *testing.T) {
	ctrl, cache, mockMetrics := newTestCache(t)
	test.SetupDummyMetrics(ctrl, mockMetrics)
	key := shared.SourceKey("facebook", "212038")

	cache.PutObjectId(key, "1", "a")
	require.NoError(t, cache.Flush(key))
	cache.PutObjectId(key, "2", "b")
	require.NoError(t, cache.Flush(key))

	val, ok := cache.GetObjectId(key, "1")
	assert.True(t, ok)
	assert.Equal(t, "a", val)
	val, ok = cache.GetObjectId(key, "2")
	assert.True(t, ok)
	assert.Equal(t, "b", val)
}

func TestResolutionCacheTreatsCorruptBlobAsEmpty(t *testing.T) {
	cfg := test.NewTestConfig(t)
	repo := test.NewTestRepo(t, cfg)
	src := test.NewSource(t, repo, "facebook", "212038")
	src.ResolvedObjectIds = []byte("definitely not zstd")
	require.NoError(t, repo.UpdateSource(src))

	ctrl := gomock.NewController(t)
	mockMetrics := mocks.NewMockIMetrics(ctrl)
	test.SetupDummyMetrics(ctrl, mockMetrics)
	cache := logic.NewResolutionCache(cfg, shared.NewDiscardLogger(), repo, mockMetrics)

	_, ok := cache.GetObjectId(src.Key, "123")
	assert.False(t, ok)

	cache.PutObjectId(src.Key, "123", "456")
	require.NoError(t, cache.Flush(src.Key))
	objId, ok := cache.GetObjectId(src.Key, "123")
	assert.True(t, ok)
	assert.Equal(t, "456", objId)
}

func TestResolutionCacheFlushWithoutChangesIsNoop(t *testing.T) {
	_, cache, _ := newTestCache(t)
	key := shared.SourceKey("facebook", "212038")
	_, _ = cache.GetPublic(key, "1")
	assert.NoError(t, cache.Flush(key))
	assert.NoError(t, cache.Flush("facebook:unknown"))
}

func TestResolutionCacheDiscard(t *testing.T) {
	ctrl, cache, mockMetrics := newTestCache(t)
	test.SetupDummyMetrics(ctrl, mockMetrics)
	key := shared.SourceKey("facebook", "212038")

	cache.PutObjectId(key, "1", "10")
	require.NoError(t, cache.Flush(key))
	cache.PutObjectId(key, "2", "20")
	cache.Discard(key)

	_, ok := cache.GetObjectId(key, "2")
	assert.False(t, ok)
	objId, ok := cache.GetObjectId(key, "1")
	assert.True(t, ok)
	assert.Equal(t, "10", objId)
}

func TestResolutionCacheDiscardKeepsSiblingUnit(t *testing.T) {
	ctrl, cache, mockMetrics := newTestCache(t)
	test.SetupDummyMetrics(ctrl, mockMetrics)
	key := shared.SourceKey("facebook", "212038")

	cache.Begin(key)
	cache.Begin(key)
	cache.PutObjectId(key, "7", "70")

	// The failed unit ends first; the other one is still running
	cache.Discard(key)
	val, ok := cache.GetObjectId(key, "7")
	require.True(t, ok)
	assert.Equal(t, "70", val)

	require.NoError(t, cache.Flush(key))
	val, ok = cache.GetObjectId(key, "7")
	assert.True(t, ok, "flushed by the surviving unit")
	assert.Equal(t, "70", val)
}

func TestResolutionCacheConcurrentUnits(t *testing.T) {
	ctrl, cache, mockMetrics := newTestCache(t)
	test.SetupDummyMetrics(ctrl, mockMetrics)
	key := shared.SourceKey("facebook", "212038")
	const units = 10

	var wg sync.WaitGroup
	for i := 0; i < units; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cache.Begin(key)
			cache.PutObjectId(key, fmt.Sprint(i), fmt.Sprintf("obj%d", i))
			_, _ = cache.GetPublic("facebook:other", fmt.Sprint(i))
		}()
	}
	wg.Wait()

	// Entries of every unit are written by the first flush; the last one forgets the overlay
	for i := 0; i < units; i++ {
		require.NoError(t, cache.Flush(key))
	}
	for i := 0; i < units; i++ {
		val, ok := cache.GetObjectId(key, fmt.Sprint(i))
		assert.True(t, ok, "key %d", i)
		assert.Equal(t, fmt.Sprintf("obj%d", i), val)
	}
}
