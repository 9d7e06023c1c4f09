package dal

import (
	"errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"path/filepath"
	"silo_bridge/shared"
	"testing"
	"time"
)

func newTestRepo(t *testing.T) IRepo {
	cfg := &shared.Config{DbFile: filepath.Join(t.TempDir(), "test.db")}
	repo := NewRepo(cfg, shared.NewDiscardLogger())
	repo.InitUpdateDb()
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func strp(s string) *string {
	return &s
}

func TestSourceRoundTripAndVersioning(t *testing.T) {
	repo := newTestRepo(t)

	src := &Source{
		Key:        "facebook:212038",
		Silo:       "facebook",
		SiloId:     "212038",
		Features:   []string{"listen"},
		Domains:    []string{"snarfed.org"},
		DomainUrls: []string{"https://snarfed.org/"},
	}
	isNew, err := repo.AddSourceIfNotExist(src)
	require.NoError(t, err)
	assert.True(t, isNew)

	isNew, err = repo.AddSourceIfNotExist(&Source{Key: "facebook:212038", Silo: "facebook", SiloId: "212038"})
	require.NoError(t, err)
	assert.False(t, isNew)

	loaded, err := repo.GetSource("facebook:212038")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, []string{"snarfed.org"}, loaded.Domains)
	assert.Equal(t, []string{}, loaded.InferredUserIds)
	assert.Equal(t, SourceEnabled, loaded.Status)
	assert.Equal(t, 1, loaded.Version)

	stale := *loaded
	loaded.InferredUsername = "snarfed"
	loaded.PostPublics = []byte{1, 2, 3}
	require.NoError(t, repo.UpdateSource(loaded))
	assert.Equal(t, 2, loaded.Version)

	stale.Username = "other"
	assert.True(t, errors.Is(repo.UpdateSource(&stale), ErrConflict))

	again, err := repo.GetSource("facebook:212038")
	require.NoError(t, err)
	assert.Equal(t, "snarfed", again.InferredUsername)
	assert.Equal(t, "", again.Username)
	assert.Equal(t, []byte{1, 2, 3}, again.PostPublics)

	missing, err := repo.GetSource("twitter:nobody")
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestResponseInsertUpdate(t *testing.T) {
	repo := newTestRepo(t)

	resp := &Response{
		Webmentions: Webmentions{
			Key:       "tag:twitter.com,2013:100",
			SourceKey: "twitter:alice",
			Status:    StatusNew,
			Unsent:    []string{"http://a/1", "http://b/2"},
		},
		Type:           "comment",
		ActivitiesJson: []string{`{"id":"x"}`},
		ResponseJson:   `{"content":"hi"}`,
	}
	require.NoError(t, repo.InsertResponse(resp))
	assert.True(t, errors.Is(repo.InsertResponse(resp), ErrConflict))

	loaded, err := repo.GetResponse(resp.Key)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, []string{"http://a/1", "http://b/2"}, loaded.Unsent)
	assert.Equal(t, []string{}, loaded.Sent)
	assert.Equal(t, "comment", loaded.Type)
	assert.Nil(t, loaded.UrlsToActivity)

	loaded.Unsent = []string{"http://b/2"}
	loaded.Sent = []string{"http://a/1"}
	loaded.Status = StatusProcessing
	loaded.ActivitiesJson = append(loaded.ActivitiesJson, `{"id":"y"}`)
	loaded.UrlsToActivity = map[string]int{"http://a/1": 0, "http://b/2": 1}
	require.NoError(t, repo.UpdateResponse(loaded))

	resp.Status = StatusComplete
	assert.True(t, errors.Is(repo.UpdateResponse(resp), ErrConflict))

	list, err := repo.GetResponsesByStatus(StatusProcessing, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, []string{"http://a/1"}, list[0].Sent)
	assert.Equal(t, map[string]int{"http://a/1": 0, "http://b/2": 1}, list[0].UrlsToActivity)
}

func TestBlogPostInsertUpdate(t *testing.T) {
	repo := newTestRepo(t)

	post := &BlogPost{
		Webmentions: Webmentions{Key: "https://snarfed.org/post", SourceKey: "twitter:alice", Status: StatusNew},
		FeedItem:    `{"title":"x"}`,
	}
	require.NoError(t, repo.InsertBlogPost(post))
	post.Status = StatusError
	post.Error = []string{"http://target/"}
	require.NoError(t, repo.UpdateBlogPost(post))

	list, err := repo.GetBlogPostsByStatus(StatusError, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, []string{"http://target/"}, list[0].Error)
	assert.Equal(t, 2, list[0].Version)
}

func TestSyndicationTxRollsBack(t *testing.T) {
	repo := newTestRepo(t)

	err := repo.WithSyndicationTx("twitter:alice", func(tx ISyndicationTx) error {
		return tx.Add(strp("http://or.ig/1"), strp("https://twitter.com/alice/status/1"))
	})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = repo.WithSyndicationTx("twitter:alice", func(tx ISyndicationTx) error {
		if err := tx.Add(strp("http://or.ig/2"), nil); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	rows, err := repo.GetSyndicatedPosts("twitter:alice", FieldOriginal, "http://or.ig/2")
	require.NoError(t, err)
	assert.Empty(t, rows)

	rows, err = repo.GetSyndicatedPosts("twitter:alice", FieldSyndication, "https://twitter.com/alice/status/1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "http://or.ig/1", *rows[0].Original)

	// Other sources don't see the row
	rows, err = repo.GetSyndicatedPosts("twitter:bob", FieldSyndication, "https://twitter.com/alice/status/1")
	require.NoError(t, err)
	assert.Empty(t, rows)

	_, err = repo.GetSyndicatedPosts("twitter:alice", SyndicationField("id; DROP TABLE"), "x")
	assert.Error(t, err)
}

func TestTaskQueue(t *testing.T) {
	repo := newTestRepo(t)
	now := time.Now().UTC()

	first := &TaskQueueItem{Name: "a", Queue: "propagate", Key: "k1", EnqueuedAt: now}
	second := &TaskQueueItem{Name: "b", Queue: "propagate", Key: "k2", EnqueuedAt: now}
	require.NoError(t, repo.AddTaskQueueItem(first))
	require.NoError(t, repo.AddTaskQueueItem(second))
	dup := &TaskQueueItem{Name: "a", Queue: "propagate", Key: "k1", EnqueuedAt: now}
	assert.True(t, errors.Is(repo.AddTaskQueueItem(dup), ErrConflict))

	items, qlen, err := repo.GetTaskQueueItems(-1, 10, now)
	require.NoError(t, err)
	assert.Equal(t, 2, qlen)
	require.Len(t, items, 2)
	assert.Equal(t, "k1", items[0].Key)

	require.NoError(t, repo.RescheduleTaskQueueItem(first.Id, 1, now.Add(time.Hour)))
	items, _, err = repo.GetTaskQueueItems(-1, 10, now)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "k2", items[0].Key)

	items, _, err = repo.GetTaskQueueItems(second.Id, 10, now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, items)

	require.NoError(t, repo.DeleteTaskQueueItem(second.Id))
	items, qlen, err = repo.GetTaskQueueItems(-1, 10, now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, qlen)
	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].Attempts)
}
