package dal

import (
	"time"
)

// AddTaskQueueItem returns ErrConflict if a task with the same name is already queued.
func (repo *Repo) AddTaskQueueItem(tqi *TaskQueueItem) error {

	repo.muDb.Lock()
	defer repo.muDb.Unlock()

	if tqi.NotBefore.IsZero() {
		tqi.NotBefore = tqi.EnqueuedAt
	}
	res, err := repo.db.Exec(`INSERT INTO task_queue (name, queue, key, enqueued_at, not_before, attempts)
		VALUES(?, ?, ?, ?, ?, ?)`,
		tqi.Name, tqi.Queue, tqi.Key, tqi.EnqueuedAt, tqi.NotBefore, tqi.Attempts)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	tqi.Id = int(id)
	return nil
}

// GetTaskQueueItems returns up to maxCount items due at now with an id above aboveId,
// plus the total number of items in the queue.
func (repo *Repo) GetTaskQueueItems(aboveId, maxCount int, now time.Time) ([]*TaskQueueItem, int, error) {

	repo.muDb.RLock()
	defer repo.muDb.RUnlock()

	var qlen int
	row := repo.db.QueryRow(`SELECT COUNT(*) FROM task_queue`)
	if err := row.Scan(&qlen); err != nil {
		return nil, 0, err
	}

	rows, err := repo.db.Query(`SELECT id, name, queue, key, enqueued_at, not_before, attempts
		FROM task_queue WHERE id>? AND not_before<=? ORDER BY id ASC LIMIT ?`, aboveId, now, maxCount)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	res := make([]*TaskQueueItem, 0, maxCount)
	for rows.Next() {
		tqi := TaskQueueItem{}
		err = rows.Scan(&tqi.Id, &tqi.Name, &tqi.Queue, &tqi.Key, &tqi.EnqueuedAt, &tqi.NotBefore, &tqi.Attempts)
		if err != nil {
			return nil, 0, err
		}
		res = append(res, &tqi)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, err
	}
	return res, qlen, nil
}

func (repo *Repo) RescheduleTaskQueueItem(id, attempts int, notBefore time.Time) error {

	repo.muDb.Lock()
	defer repo.muDb.Unlock()

	_, err := repo.db.Exec(`UPDATE task_queue SET attempts=?, not_before=? WHERE id=?`, attempts, notBefore, id)
	return err
}

func (repo *Repo) DeleteTaskQueueItem(id int) error {

	repo.muDb.Lock()
	defer repo.muDb.Unlock()

	_, err := repo.db.Exec(`DELETE FROM task_queue WHERE id=?`, id)
	return err
}
