package dal

import (
	"database/sql"
	"errors"
	"time"
)

const responseColumns = `key, source_key, type, status, activities_json, response_json, old_response_jsons,
	original_posts, urls_to_activity, unsent, sent, error, failed, skipped, created_at, updated_at, version`

const blogPostColumns = `key, source_key, status, feed_item, unsent, sent, error, failed, skipped,
	created_at, updated_at, version`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResponse(row rowScanner) (*Response, error) {
	var res Response
	var activities, oldJsons, originals, urlsToActivity, unsent, sent, errored, failed, skipped string
	err := row.Scan(&res.Key, &res.SourceKey, &res.Type, &res.Status, &activities, &res.ResponseJson, &oldJsons,
		&originals, &urlsToActivity, &unsent, &sent, &errored, &failed, &skipped,
		&res.CreatedAt, &res.UpdatedAt, &res.Version)
	if err != nil {
		return nil, err
	}
	if res.UrlsToActivity, err = fromJsonIndexMap(urlsToActivity); err != nil {
		return nil, err
	}
	err = fromJsonLists(activities, &res.ActivitiesJson, oldJsons, &res.OldResponseJsons, originals, &res.OriginalPosts,
		unsent, &res.Unsent, sent, &res.Sent, errored, &res.Error, failed, &res.Failed, skipped, &res.Skipped)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func scanBlogPost(row rowScanner) (*BlogPost, error) {
	var res BlogPost
	var unsent, sent, errored, failed, skipped string
	err := row.Scan(&res.Key, &res.SourceKey, &res.Status, &res.FeedItem, &unsent, &sent, &errored, &failed,
		&skipped, &res.CreatedAt, &res.UpdatedAt, &res.Version)
	if err != nil {
		return nil, err
	}
	err = fromJsonLists(unsent, &res.Unsent, sent, &res.Sent, errored, &res.Error, failed, &res.Failed,
		skipped, &res.Skipped)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (repo *Repo) GetResponse(key string) (*Response, error) {

	repo.muDb.RLock()
	defer repo.muDb.RUnlock()

	row := repo.db.QueryRow(`SELECT `+responseColumns+` FROM responses WHERE key=?`, key)
	res, err := scanResponse(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return res, err
}

// InsertResponse stores a new response. If one with the same key already exists,
// another writer got there first and ErrConflict is returned.
func (repo *Repo) InsertResponse(resp *Response) error {

	repo.muDb.Lock()
	defer repo.muDb.Unlock()

	now := time.Now().UTC()
	resp.CreatedAt = now
	resp.UpdatedAt = now
	resp.Version = 1
	_, err := repo.db.Exec(`INSERT INTO responses (`+responseColumns+`)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		resp.Key, resp.SourceKey, resp.Type, resp.Status, toJsonList(resp.ActivitiesJson), resp.ResponseJson,
		toJsonList(resp.OldResponseJsons), toJsonList(resp.OriginalPosts), toJsonIndexMap(resp.UrlsToActivity),
		toJsonList(resp.Unsent),
		toJsonList(resp.Sent), toJsonList(resp.Error), toJsonList(resp.Failed), toJsonList(resp.Skipped),
		resp.CreatedAt, resp.UpdatedAt, resp.Version)
	if err != nil && isDuplicateKey(err) {
		return ErrConflict
	}
	return err
}

func (repo *Repo) UpdateResponse(resp *Response) error {

	repo.muDb.Lock()
	defer repo.muDb.Unlock()

	updatedAt := time.Now().UTC()
	res, err := repo.db.Exec(`UPDATE responses SET type=?, status=?, activities_json=?, response_json=?,
		old_response_jsons=?, original_posts=?, urls_to_activity=?, unsent=?, sent=?, error=?, failed=?, skipped=?,
		updated_at=?, version=version+1
		WHERE key=? AND version=?`,
		resp.Type, resp.Status, toJsonList(resp.ActivitiesJson), resp.ResponseJson,
		toJsonList(resp.OldResponseJsons), toJsonList(resp.OriginalPosts), toJsonIndexMap(resp.UrlsToActivity),
		toJsonList(resp.Unsent),
		toJsonList(resp.Sent), toJsonList(resp.Error), toJsonList(resp.Failed), toJsonList(resp.Skipped),
		updatedAt, resp.Key, resp.Version)
	if err != nil {
		return err
	}
	if err = checkVersionedUpdate(res); err != nil {
		return err
	}
	resp.UpdatedAt = updatedAt
	resp.Version++
	return nil
}

func (repo *Repo) GetResponsesByStatus(status string, limit int) ([]*Response, error) {

	repo.muDb.RLock()
	defer repo.muDb.RUnlock()

	rows, err := repo.db.Query(`SELECT `+responseColumns+` FROM responses WHERE status=?
		ORDER BY updated_at DESC LIMIT ?`, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := make([]*Response, 0)
	for rows.Next() {
		var resp *Response
		if resp, err = scanResponse(rows); err != nil {
			return nil, err
		}
		res = append(res, resp)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

func (repo *Repo) GetBlogPost(key string) (*BlogPost, error) {

	repo.muDb.RLock()
	defer repo.muDb.RUnlock()

	row := repo.db.QueryRow(`SELECT `+blogPostColumns+` FROM blog_posts WHERE key=?`, key)
	res, err := scanBlogPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return res, err
}

func (repo *Repo) InsertBlogPost(post *BlogPost) error {

	repo.muDb.Lock()
	defer repo.muDb.Unlock()

	now := time.Now().UTC()
	post.CreatedAt = now
	post.UpdatedAt = now
	post.Version = 1
	_, err := repo.db.Exec(`INSERT INTO blog_posts (`+blogPostColumns+`)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		post.Key, post.SourceKey, post.Status, post.FeedItem, toJsonList(post.Unsent), toJsonList(post.Sent),
		toJsonList(post.Error), toJsonList(post.Failed), toJsonList(post.Skipped),
		post.CreatedAt, post.UpdatedAt, post.Version)
	if err != nil && isDuplicateKey(err) {
		return ErrConflict
	}
	return err
}

func (repo *Repo) UpdateBlogPost(post *BlogPost) error {

	repo.muDb.Lock()
	defer repo.muDb.Unlock()

	updatedAt := time.Now().UTC()
	res, err := repo.db.Exec(`UPDATE blog_posts SET status=?, feed_item=?, unsent=?, sent=?, error=?, failed=?,
		skipped=?, updated_at=?, version=version+1
		WHERE key=? AND version=?`,
		post.Status, post.FeedItem, toJsonList(post.Unsent), toJsonList(post.Sent), toJsonList(post.Error),
		toJsonList(post.Failed), toJsonList(post.Skipped), updatedAt, post.Key, post.Version)
	if err != nil {
		return err
	}
	if err = checkVersionedUpdate(res); err != nil {
		return err
	}
	post.UpdatedAt = updatedAt
	post.Version++
	return nil
}

func (repo *Repo) GetBlogPostsByStatus(status string, limit int) ([]*BlogPost, error) {

	repo.muDb.RLock()
	defer repo.muDb.RUnlock()

	rows, err := repo.db.Query(`SELECT `+blogPostColumns+` FROM blog_posts WHERE status=?
		ORDER BY updated_at DESC LIMIT ?`, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := make([]*BlogPost, 0)
	for rows.Next() {
		var post *BlogPost
		if post, err = scanBlogPost(rows); err != nil {
			return nil, err
		}
		res = append(res, post)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}
