package dal

import (
	"database/sql"
	"fmt"
	"time"
)

type SyndicationField string

const (
	FieldOriginal    SyndicationField = "original"
	FieldSyndication SyndicationField = "syndication"
)

// ISyndicationTx is the view of one source's syndicated_posts rows inside a transaction.
type ISyndicationTx interface {
	Find(field SyndicationField, value string) ([]*SyndicatedPost, error)
	Delete(id int64) error
	Add(original, syndication *string) error
}

type syndicationTx struct {
	tx        *sql.Tx
	sourceKey string
}

func checkField(field SyndicationField) error {
	if field != FieldOriginal && field != FieldSyndication {
		return fmt.Errorf("unknown syndication field: %q", field)
	}
	return nil
}

func readSyndicatedPosts(rows *sql.Rows) ([]*SyndicatedPost, error) {
	var err error
	res := make([]*SyndicatedPost, 0)
	for rows.Next() {
		sp := SyndicatedPost{}
		if err = rows.Scan(&sp.Id, &sp.SourceKey, &sp.Original, &sp.Syndication, &sp.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, &sp)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

func (stx *syndicationTx) Find(field SyndicationField, value string) ([]*SyndicatedPost, error) {
	if err := checkField(field); err != nil {
		return nil, err
	}
	rows, err := stx.tx.Query(`SELECT id, source_key, original, syndication, created_at
		FROM syndicated_posts WHERE source_key=? AND `+string(field)+`=? ORDER BY id ASC`,
		stx.sourceKey, value)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return readSyndicatedPosts(rows)
}

func (stx *syndicationTx) Delete(id int64) error {
	_, err := stx.tx.Exec(`DELETE FROM syndicated_posts WHERE id=? AND source_key=?`, id, stx.sourceKey)
	return err
}

func (stx *syndicationTx) Add(original, syndication *string) error {
	if original == nil && syndication == nil {
		return fmt.Errorf("syndicated post needs at least one URL")
	}
	_, err := stx.tx.Exec(`INSERT INTO syndicated_posts (source_key, original, syndication, created_at)
		VALUES(?, ?, ?, ?)`, stx.sourceKey, original, syndication, time.Now().UTC())
	return err
}

// WithSyndicationTx runs fn inside one immediate transaction scoped to sourceKey.
// If fn returns an error, nothing it did is kept.
func (repo *Repo) WithSyndicationTx(sourceKey string, fn func(tx ISyndicationTx) error) (err error) {

	repo.muDb.Lock()
	defer repo.muDb.Unlock()

	var tx *sql.Tx
	if tx, err = repo.db.Begin(); err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(&syndicationTx{tx, sourceKey}); err != nil {
		return err
	}
	err = tx.Commit()
	return err
}

func (repo *Repo) GetSyndicatedPosts(sourceKey string, field SyndicationField, value string) ([]*SyndicatedPost, error) {

	repo.muDb.RLock()
	defer repo.muDb.RUnlock()

	if err := checkField(field); err != nil {
		return nil, err
	}
	rows, err := repo.db.Query(`SELECT id, source_key, original, syndication, created_at
		FROM syndicated_posts WHERE source_key=? AND `+string(field)+`=? ORDER BY id ASC`,
		sourceKey, value)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return readSyndicatedPosts(rows)
}
