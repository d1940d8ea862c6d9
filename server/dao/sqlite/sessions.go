package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rhassan/pricedsl/server/dao"
)

type SessionsDB struct {
	db *sql.DB
}

func (repo *SessionsDB) init() error {
	_, err := repo.db.Exec(`CREATE TABLE IF NOT EXISTS sessions (
		id TEXT NOT NULL PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE ON UPDATE CASCADE,
		created INTEGER NOT NULL,
		ended INTEGER
	);`)
	if err != nil {
		return wrapDBError(err)
	}
	return nil
}

func (repo *SessionsDB) Create(ctx context.Context, s dao.Session) (dao.Session, error) {
	newUUID, err := uuid.NewRandom()
	if err != nil {
		return dao.Session{}, fmt.Errorf("could not generate ID: %w", err)
	}

	now := time.Now()
	_, err = repo.db.ExecContext(ctx, `INSERT INTO sessions (id, user_id, created, ended) VALUES (?, ?, ?, NULL)`,
		newUUID.String(), s.UserID.String(), now.Unix())
	if err != nil {
		return dao.Session{}, wrapDBError(err)
	}

	return repo.GetByID(ctx, newUUID)
}

func scanSession(row rowScanner) (dao.Session, error) {
	var s dao.Session
	var id, userID string
	var created int64
	var ended sql.NullInt64

	err := row.Scan(&id, &userID, &created, &ended)
	if err != nil {
		return s, wrapDBError(err)
	}

	if err := convertFromDB_UUID(id, &s.ID); err != nil {
		return s, err
	}
	if err := convertFromDB_UUID(userID, &s.UserID); err != nil {
		return s, err
	}
	s.Created = time.Unix(created, 0)
	if ended.Valid {
		t := time.Unix(ended.Int64, 0)
		s.Ended = &t
	}

	return s, nil
}

func (repo *SessionsDB) GetByID(ctx context.Context, id uuid.UUID) (dao.Session, error) {
	row := repo.db.QueryRowContext(ctx, `SELECT id, user_id, created, ended FROM sessions WHERE id = ?;`, id.String())
	return scanSession(row)
}

func (repo *SessionsDB) GetAll(ctx context.Context) ([]dao.Session, error) {
	rows, err := repo.db.QueryContext(ctx, `SELECT id, user_id, created, ended FROM sessions;`)
	if err != nil {
		return nil, wrapDBError(err)
	}
	defer rows.Close()

	var all []dao.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return all, err
		}
		all = append(all, s)
	}
	return all, rows.Err()
}

func (repo *SessionsDB) GetAllByUser(ctx context.Context, userID uuid.UUID) ([]dao.Session, error) {
	rows, err := repo.db.QueryContext(ctx, `SELECT id, user_id, created, ended FROM sessions WHERE user_id = ?;`, userID.String())
	if err != nil {
		return nil, wrapDBError(err)
	}
	defer rows.Close()

	var all []dao.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return all, err
		}
		all = append(all, s)
	}
	if len(all) == 0 {
		return nil, dao.ErrNotFound
	}
	return all, rows.Err()
}

func (repo *SessionsDB) Update(ctx context.Context, id uuid.UUID, s dao.Session) (dao.Session, error) {
	var ended sql.NullInt64
	if s.Ended != nil {
		ended = sql.NullInt64{Int64: s.Ended.Unix(), Valid: true}
	}

	res, err := repo.db.ExecContext(ctx, `UPDATE sessions SET id=?, user_id=?, created=?, ended=? WHERE id=?;`,
		s.ID.String(), s.UserID.String(), s.Created.Unix(), ended, id.String())
	if err != nil {
		return dao.Session{}, wrapDBError(err)
	}
	rowsAff, err := res.RowsAffected()
	if err != nil {
		return dao.Session{}, wrapDBError(err)
	}
	if rowsAff < 1 {
		return dao.Session{}, dao.ErrNotFound
	}

	return repo.GetByID(ctx, s.ID)
}

func (repo *SessionsDB) Delete(ctx context.Context, id uuid.UUID) (dao.Session, error) {
	curVal, err := repo.GetByID(ctx, id)
	if err != nil {
		return curVal, err
	}

	res, err := repo.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id.String())
	if err != nil {
		return curVal, wrapDBError(err)
	}
	rowsAff, err := res.RowsAffected()
	if err != nil {
		return curVal, wrapDBError(err)
	}
	if rowsAff < 1 {
		return curVal, dao.ErrNotFound
	}

	return curVal, nil
}

func (repo *SessionsDB) Close() error {
	return nil
}
