package dal

import (
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/mattn/go-sqlite3"
	"silo_bridge/shared"
	"sync"
	"time"
)

const schemaVer = 2

//go:embed scripts/*
var scripts embed.FS

// ErrConflict is returned when a versioned write lost a race with another writer.
var ErrConflict = errors.New("record was modified concurrently")

type IRepo interface {
	InitUpdateDb()
	Close() error
	AddSourceIfNotExist(src *Source) (isNew bool, err error)
	GetSource(key string) (*Source, error)
	UpdateSource(src *Source) error
	GetResponse(key string) (*Response, error)
	InsertResponse(resp *Response) error
	UpdateResponse(resp *Response) error
	GetResponsesByStatus(status string, limit int) ([]*Response, error)
	GetBlogPost(key string) (*BlogPost, error)
	InsertBlogPost(post *BlogPost) error
	UpdateBlogPost(post *BlogPost) error
	GetBlogPostsByStatus(status string, limit int) ([]*BlogPost, error)
	GetSyndicatedPosts(sourceKey string, field SyndicationField, value string) ([]*SyndicatedPost, error)
	WithSyndicationTx(sourceKey string, fn func(tx ISyndicationTx) error) error
	AddTaskQueueItem(tqi *TaskQueueItem) error
	GetTaskQueueItems(aboveId, maxCount int, now time.Time) ([]*TaskQueueItem, int, error)
	RescheduleTaskQueueItem(id, attempts int, notBefore time.Time) error
	DeleteTaskQueueItem(id int) error
}

type Repo struct {
	cfg    *shared.Config
	logger shared.ILogger
	db     *sql.DB
	muDb   sync.RWMutex
}

func NewRepo(cfg *shared.Config, logger shared.ILogger) IRepo {

	var err error
	var db *sql.DB

	// https://phiresky.github.io/blog/2020/sqlite-performance-tuning/
	// _synchronous=1 is "normal"
	// _txlock=immediate takes the write lock at BEGIN so read-modify-write transactions don't deadlock
	cstr := "file:%s?cache=shared&mode=rwc&_journal_mode=WAL&_synchronous=1&_busy_timeout=5000&_txlock=immediate"
	db, err = sql.Open("sqlite3", fmt.Sprintf(cstr, cfg.DbFile))
	if err != nil {
		logger.Errorf("Failed to open/create DB file: %s: %v", cfg.DbFile, err)
		panic(err)
	}

	repo := Repo{
		cfg:    cfg,
		logger: logger,
		db:     db,
	}

	return &repo
}

func (repo *Repo) Close() error {
	return repo.db.Close()
}

func (repo *Repo) InitUpdateDb() {

	dbVer := 0
	sysParamsExists := false
	var err error
	var rows *sql.Rows

	rows, err = repo.db.Query("SELECT name FROM sqlite_master WHERE type='table' AND name='sys_params'")
	if err != nil {
		repo.logger.Errorf("Failed to check if 'sys_params' table exists: %v", err)
		panic(err)
	}
	for rows.Next() {
		sysParamsExists = true
	}
	_ = rows.Close()
	if !sysParamsExists {
		repo.logger.Printf("Database appears to be empty; current schema version is %d", schemaVer)
	} else {
		row := repo.db.QueryRow("SELECT val FROM sys_params WHERE name='schema_ver'")
		if err = row.Scan(&dbVer); err != nil {
			repo.logger.Errorf("Failed to query schema version: %v", err)
			panic(err)
		}
		repo.logger.Printf("Database is at version %d; current schema version is %d", dbVer, schemaVer)
	}
	for i := dbVer; i < schemaVer; i += 1 {
		nextVer := i + 1
		fn := fmt.Sprintf("scripts/create-%02d.sql", nextVer)
		repo.logger.Printf("Running %s", fn)
		var sqlBytes []byte
		if sqlBytes, err = scripts.ReadFile(fn); err != nil {
			repo.logger.Errorf("Failed to read init script %s: %v", fn, err)
			panic(err)
		}
		if _, err = repo.db.Exec(string(sqlBytes)); err != nil {
			repo.logger.Errorf("Failed to execute init script %s: %v", fn, err)
			panic(err)
		}
		_, err = repo.db.Exec("UPDATE sys_params SET val=? WHERE name='schema_ver'", nextVer)
		if err != nil {
			repo.logger.Errorf("Failed to update schema_ver to %d: %v", nextVer, err)
			panic(err)
		}
	}
}

func isDuplicateKey(err error) bool {
	// MySQL: mysql.MySQLError; mysqlErr.Number == 1062
	if sqliteErr, ok := err.(sqlite3.Error); ok {
		return sqliteErr.Code == 19 && (sqliteErr.ExtendedCode == 2067 || sqliteErr.ExtendedCode == 1555)
	}
	return false
}

func toJsonList(items []string) string {
	if items == nil {
		return "[]"
	}
	data, _ := json.Marshal(items)
	return string(data)
}

func fromJsonList(str string) ([]string, error) {
	res := []string{}
	if str == "" {
		return res, nil
	}
	if err := json.Unmarshal([]byte(str), &res); err != nil {
		return nil, err
	}
	return res, nil
}

// toJsonIndexMap stores a nil map as an empty object.
func toJsonIndexMap(m map[string]int) string {
	if len(m) == 0 {
		return "{}"
	}
	data, _ := json.Marshal(m)
	return string(data)
}

// fromJsonIndexMap returns nil for an empty object.
func fromJsonIndexMap(str string) (map[string]int, error) {
	var res map[string]int
	if str == "" {
		return nil, nil
	}
	if err := json.Unmarshal([]byte(str), &res); err != nil {
		return nil, err
	}
	if len(res) == 0 {
		return nil, nil
	}
	return res, nil
}

// fromJsonLists decodes each column into its destination, stopping at the first error.
func fromJsonLists(pairs ...any) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		str := pairs[i].(string)
		dest := pairs[i+1].(*[]string)
		var err error
		if *dest, err = fromJsonList(str); err != nil {
			return err
		}
	}
	return nil
}

func checkVersionedUpdate(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrConflict
	}
	return nil
}

func (repo *Repo) AddSourceIfNotExist(src *Source) (isNew bool, err error) {

	repo.muDb.Lock()
	defer repo.muDb.Unlock()

	if src.CreatedAt.IsZero() {
		src.CreatedAt = time.Now().UTC()
	}
	if src.Status == "" {
		src.Status = SourceEnabled
	}
	if src.PollStatus == "" {
		src.PollStatus = "ok"
	}
	src.Version = 1

	isNew = true
	_, err = repo.db.Exec(`INSERT INTO sources
		(key, silo, silo_id, created_at, features, domains, domain_urls, status, poll_status,
		 username, inferred_username, inferred_user_ids, resolved_object_ids, post_publics, version)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		src.Key, src.Silo, src.SiloId, src.CreatedAt, toJsonList(src.Features), toJsonList(src.Domains),
		toJsonList(src.DomainUrls), src.Status, src.PollStatus, src.Username, src.InferredUsername,
		toJsonList(src.InferredUserIds), src.ResolvedObjectIds, src.PostPublics, src.Version)
	if err == nil {
		return
	}
	// Duplicate key: source with this key already exists
	if isDuplicateKey(err) {
		isNew = false
		err = nil
	}
	return
}

func (repo *Repo) GetSource(key string) (*Source, error) {

	repo.muDb.RLock()
	defer repo.muDb.RUnlock()

	row := repo.db.QueryRow(`SELECT key, silo, silo_id, created_at, features, domains, domain_urls, status,
		poll_status, username, inferred_username, inferred_user_ids, resolved_object_ids, post_publics, version
		FROM sources WHERE key=?`, key)
	var res Source
	var features, domains, domainUrls, inferredIds string
	err := row.Scan(&res.Key, &res.Silo, &res.SiloId, &res.CreatedAt, &features, &domains, &domainUrls,
		&res.Status, &res.PollStatus, &res.Username, &res.InferredUsername, &inferredIds,
		&res.ResolvedObjectIds, &res.PostPublics, &res.Version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	err = fromJsonLists(features, &res.Features, domains, &res.Domains, domainUrls, &res.DomainUrls,
		inferredIds, &res.InferredUserIds)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// UpdateSource writes every mutable field if the stored version still matches src.Version.
// On success src.Version is advanced; on a lost race it returns ErrConflict.
func (repo *Repo) UpdateSource(src *Source) error {

	repo.muDb.Lock()
	defer repo.muDb.Unlock()

	res, err := repo.db.Exec(`UPDATE sources SET features=?, domains=?, domain_urls=?, status=?, poll_status=?,
		username=?, inferred_username=?, inferred_user_ids=?, resolved_object_ids=?, post_publics=?,
		version=version+1
		WHERE key=? AND version=?`,
		toJsonList(src.Features), toJsonList(src.Domains), toJsonList(src.DomainUrls), src.Status, src.PollStatus,
		src.Username, src.InferredUsername, toJsonList(src.InferredUserIds), src.ResolvedObjectIds, src.PostPublics,
		src.Key, src.Version)
	if err != nil {
		return err
	}
	if err = checkVersionedUpdate(res); err != nil {
		return err
	}
	src.Version++
	return nil
}
