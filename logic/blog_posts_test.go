package logic_test

import (
	"context"
	"errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"net/http"
	"net/http/httptest"
	"silo_bridge/dal"
	"silo_bridge/logic"
	"silo_bridge/shared"
	"silo_bridge/test"
	"silo_bridge/test/mocks"
	"strings"
	"testing"
	"time"
)

const testFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Or.ig</title>
  <link>https://or.ig/</link>
  <item>
    <title>Second</title>
    <link>https://or.ig/second</link>
    <pubDate>Tue, 02 Jan 2024 10:00:00 +0000</pubDate>
    <description>Nothing to link here.</description>
  </item>
  <item>
    <title>First</title>
    <link>https://or.ig/first?utm_source=rss</link>
    <pubDate>Mon, 01 Jan 2024 10:00:00 +0000</pubDate>
    <description><![CDATA[
      <p>I liked <a href="http://ext.example/a?utm_medium=feed">this</a>,
      <a href="/about">my about page</a>, <a href="https://or.ig/first">myself</a>
      and <a href="https://ext.example/a/">the same thing</a>. Also https://other.example/b.</p>
    ]]></description>
  </item>
  <item>
    <title>Episode</title>
    <pubDate>Wed, 03 Jan 2024 10:00:00 +0000</pubDate>
    <enclosure url="https://cdn.example/ep1.mp3?token=abc" type="audio/mpeg" length="1"/>
  </item>
</channel>
</rss>`

type blogPostsFixture struct {
	ctx   context.Context
	repo  dal.IRepo
	src   *dal.Source
	posts logic.IBlogPosts
}

func newBlogPostsFixture(t *testing.T) *blogPostsFixture {
	ctrl := gomock.NewController(t)
	mockMetrics := mocks.NewMockIMetrics(ctrl)
	test.SetupDummyMetrics(ctrl, mockMetrics)
	cfg := test.NewTestConfig(t)
	repo := test.NewTestRepo(t, cfg)
	logger := shared.NewDiscardLogger()
	queue := logic.NewTaskQueue(logger, repo, mockMetrics)
	return &blogPostsFixture{
		ctx:   context.Background(),
		repo:  repo,
		src:   test.NewSource(t, repo, "twitter", "snarfed_org", "or.ig"),
		posts: logic.NewBlogPosts(cfg, logger, repo, queue, shared.NewUserAgent(cfg), logic.NewBlockedTargets(cfg, logger)),
	}
}

func TestProcessFeedStoresNewPosts(t *testing.T) {
	f := newBlogPostsFixture(t)

	posts, err := f.posts.ProcessFeed(f.ctx, f.src, []byte(testFeed))
	require.NoError(t, err)
	require.Len(t, posts, 3)

	// Oldest first
	assert.Equal(t, "https://or.ig/first", posts[0].Key)
	assert.Equal(t, dal.StatusNew, posts[0].Status)
	assert.Equal(t, []string{"https://ext.example/a/", "https://other.example/b"}, posts[0].Unsent)
	assert.True(t, strings.Contains(posts[0].FeedItem, `"title":"First"`))

	assert.Equal(t, "https://or.ig/second", posts[1].Key)
	assert.Equal(t, dal.StatusComplete, posts[1].Status)
	assert.Empty(t, posts[1].Unsent)

	assert.Equal(t, "https://cdn.example/ep1.mp3", posts[2].Key)

	stored, err := f.repo.GetBlogPost("https://or.ig/first")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, posts[0].Unsent, stored.Unsent)

	items, qlen, err := f.repo.GetTaskQueueItems(0, 10, time.Now().UTC().Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, 1, qlen)
	require.Len(t, items, 1)
	assert.Equal(t, logic.QueuePropagateBlogPost, items[0].Queue)
	assert.Equal(t, "https://or.ig/first", items[0].Key)
}

func TestProcessFeedSkipsKnownPosts(t *testing.T) {
	f := newBlogPostsFixture(t)

	_, err := f.posts.ProcessFeed(f.ctx, f.src, []byte(testFeed))
	require.NoError(t, err)
	posts, err := f.posts.ProcessFeed(f.ctx, f.src, []byte(testFeed))
	require.NoError(t, err)
	assert.Empty(t, posts)

	// The pending post is offered to the queue again under the same task name
	_, qlen, err := f.repo.GetTaskQueueItems(0, 10, time.Now().UTC().Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, 1, qlen)
}

func TestProcessFeedRequeuesPostWithLostTask(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockQueue := mocks.NewMockITaskQueue(ctrl)
	cfg := test.NewTestConfig(t)
	repo := test.NewTestRepo(t, cfg)
	logger := shared.NewDiscardLogger()
	src := test.NewSource(t, repo, "twitter", "snarfed_org", "or.ig")
	posts := logic.NewBlogPosts(cfg, logger, repo, mockQueue, shared.NewUserAgent(cfg), logic.NewBlockedTargets(cfg, logger))
	first := "https://or.ig/first"
	gomock.InOrder(
		mockQueue.EXPECT().
			Enqueue(gomock.Any(), logic.QueuePropagateBlogPost, test.TaskFor(first)).
			Return("", errors.New("queue down")),
		mockQueue.EXPECT().
			Enqueue(gomock.Any(), logic.QueuePropagateBlogPost, test.TaskFor(first)).
			Return("propagate-blogpost-task", nil),
	)

	stored, err := posts.ProcessFeed(context.Background(), src, []byte(testFeed))
	require.Error(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, first, stored[0].Key)

	// The post is kept as new; the next run hands its task over and stores the rest
	stored, err = posts.ProcessFeed(context.Background(), src, []byte(testFeed))
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, "https://or.ig/second", stored[0].Key)

	post, err := repo.GetBlogPost(first)
	require.NoError(t, err)
	require.NotNil(t, post)
	assert.Equal(t, dal.StatusNew, post.Status)
}

func TestProcessFeedRejectsGarbage(t *testing.T) {
	f := newBlogPostsFixture(t)
	_, err := f.posts.ProcessFeed(f.ctx, f.src, []byte("this is not a feed"))
	assert.True(t, errors.Is(err, logic.ErrBadFeed))
}

func TestFetchFeed(t *testing.T) {
	f := newBlogPostsFixture(t)
	var gotUserAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		if r.URL.Path != "/feed.xml" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(testFeed))
	}))
	defer srv.Close()

	posts, err := f.posts.FetchFeed(f.ctx, f.src, srv.URL+"/feed.xml")
	require.NoError(t, err)
	assert.Len(t, posts, 3)
	assert.NotEmpty(t, gotUserAgent)

	_, err = f.posts.FetchFeed(f.ctx, f.src, srv.URL+"/missing.xml")
	assert.Error(t, err)
}
