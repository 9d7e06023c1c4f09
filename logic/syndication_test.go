package logic_test

import (
	"context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"silo_bridge/dal"
	"silo_bridge/logic"
	"silo_bridge/shared"
	"silo_bridge/test"
	"silo_bridge/test/mocks"
	"testing"
)

type syndicationFixture struct {
	repo    dal.IRepo
	matcher logic.ISyndicationMatcher
}

func newSyndicationFixture(t *testing.T) *syndicationFixture {
	ctrl := gomock.NewController(t)
	mockMetrics := mocks.NewMockIMetrics(ctrl)
	test.SetupDummyMetrics(ctrl, mockMetrics)
	cfg := test.NewTestConfig(t)
	repo := test.NewTestRepo(t, cfg)
	logger := shared.NewDiscardLogger()
	cache := logic.NewResolutionCache(cfg, logger, repo, mockMetrics)
	silos := logic.NewSiloRegistry(cfg, logger, cache)
	return &syndicationFixture{
		repo:    repo,
		matcher: logic.NewSyndicationMatcher(logger, repo, silos, cache, mockMetrics),
	}
}

const (
	synA = "https://twitter.com/snarfed_org/status/1"
	synB = "https://twitter.com/snarfed_org/status/2"
	orig = "http://or.ig/post"
)

func TestSyndicationInsertIsIdempotent(t *testing.T) {
	f := newSyndicationFixture(t)
	src := test.NewSource(t, f.repo, "twitter", "snarfed_org", "or.ig")

	require.NoError(t, f.matcher.Insert(src, synA, orig))
	require.NoError(t, f.matcher.Insert(src, synA, orig))

	rows, err := f.repo.GetSyndicatedPosts(src.Key, dal.FieldSyndication, synA)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	originals, known, err := f.matcher.OriginalsFor(src.Key, synA)
	require.NoError(t, err)
	assert.True(t, known)
	assert.Equal(t, []string{orig}, originals)
}

func TestSyndicationFanOut(t *testing.T) {
	f := newSyndicationFixture(t)
	src := test.NewSource(t, f.repo, "twitter", "snarfed_org", "or.ig")

	require.NoError(t, f.matcher.Insert(src, synA, orig))
	require.NoError(t, f.matcher.Insert(src, synB, orig))
	require.NoError(t, f.matcher.Insert(src, synA, "http://or.ig/other"))

	syns, known, err := f.matcher.SyndicationsFor(src.Key, orig)
	require.NoError(t, err)
	assert.True(t, known)
	assert.ElementsMatch(t, []string{synA, synB}, syns)

	originals, _, err := f.matcher.OriginalsFor(src.Key, synA)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{orig, "http://or.ig/other"}, originals)
}

func TestSyndicationPlaceholdersAreReplaced(t *testing.T) {
	f := newSyndicationFixture(t)
	src := test.NewSource(t, f.repo, "twitter", "snarfed_org", "or.ig")

	require.NoError(t, f.matcher.InsertSyndicationBlank(src.Key, synA))
	require.NoError(t, f.matcher.InsertSyndicationBlank(src.Key, synA))
	require.NoError(t, f.matcher.InsertOriginalBlank(src.Key, orig))

	originals, known, err := f.matcher.OriginalsFor(src.Key, synA)
	require.NoError(t, err)
	assert.True(t, known)
	assert.Empty(t, originals)

	_, known, err = f.matcher.OriginalsFor(src.Key, synB)
	require.NoError(t, err)
	assert.False(t, known)

	require.NoError(t, f.matcher.Insert(src, synA, orig))

	rows, err := f.repo.GetSyndicatedPosts(src.Key, dal.FieldSyndication, synA)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].Original)
	assert.Equal(t, orig, *rows[0].Original)

	rows, err = f.repo.GetSyndicatedPosts(src.Key, dal.FieldOriginal, orig)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].Syndication)
}

func TestSyndicationScopedBySource(t *testing.T) {
	f := newSyndicationFixture(t)
	src1 := test.NewSource(t, f.repo, "twitter", "one")
	src2 := test.NewSource(t, f.repo, "twitter", "two")

	require.NoError(t, f.matcher.Insert(src1, synA, orig))
	_, known, err := f.matcher.OriginalsFor(src2.Key, synA)
	require.NoError(t, err)
	assert.False(t, known)
}

func TestRecordDiscovery(t *testing.T) {
	f := newSyndicationFixture(t)
	src := test.NewSource(t, f.repo, "twitter", "snarfed_org", "or.ig")
	ctx := context.Background()

	err := f.matcher.RecordDiscovery(ctx, src, "HTTP://Or.ig/post", []string{
		"http://twitter.com/snarfed_org/statuses/1?ref=x",
		"https://elsewhere.example/copy",
		"https://twitter.com/snarfed_org",
	})
	require.NoError(t, err)

	syns, known, err := f.matcher.SyndicationsFor(src.Key, orig)
	require.NoError(t, err)
	assert.True(t, known)
	assert.Equal(t, []string{synA}, syns)

	require.NoError(t, f.matcher.RecordDiscovery(ctx, src, "http://or.ig/lonely", nil))
	syns, known, err = f.matcher.SyndicationsFor(src.Key, "http://or.ig/lonely")
	require.NoError(t, err)
	assert.True(t, known)
	assert.Empty(t, syns)
}

func TestInsertTeachesFacebookUsername(t *testing.T) {
	f := newSyndicationFixture(t)
	src := test.NewSource(t, f.repo, "facebook", "212038", "or.ig")

	require.NoError(t, f.matcher.Insert(src, "https://www.facebook.com/ryan.b/posts/1", orig))

	stored, err := f.repo.GetSource(src.Key)
	require.NoError(t, err)
	assert.Equal(t, "ryan.b", stored.InferredUsername)
}
