package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rhassan/pricedsl/server/dao"
)

type ContractsDB struct {
	db *sql.DB
}

func (repo *ContractsDB) init() error {
	_, err := repo.db.Exec(`CREATE TABLE IF NOT EXISTS contracts (
		id TEXT NOT NULL PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE ON UPDATE CASCADE,
		name TEXT NOT NULL,
		source TEXT NOT NULL,
		created INTEGER NOT NULL,
		modified INTEGER NOT NULL
	);`)
	if err != nil {
		return wrapDBError(err)
	}
	return nil
}

func (repo *ContractsDB) Create(ctx context.Context, c dao.Contract) (dao.Contract, error) {
	newUUID, err := uuid.NewRandom()
	if err != nil {
		return dao.Contract{}, fmt.Errorf("could not generate ID: %w", err)
	}

	now := time.Now()
	_, err = repo.db.ExecContext(ctx,
		`INSERT INTO contracts (id, user_id, name, source, created, modified) VALUES (?, ?, ?, ?, ?, ?)`,
		newUUID.String(), c.UserID.String(), c.Name, c.Source, now.Unix(), now.Unix(),
	)
	if err != nil {
		return dao.Contract{}, wrapDBError(err)
	}

	return repo.GetByID(ctx, newUUID)
}

func scanContract(row rowScanner) (dao.Contract, error) {
	var c dao.Contract
	var id, userID string
	var created, modified int64

	err := row.Scan(&id, &userID, &c.Name, &c.Source, &created, &modified)
	if err != nil {
		return c, wrapDBError(err)
	}

	if err := convertFromDB_UUID(id, &c.ID); err != nil {
		return c, err
	}
	if err := convertFromDB_UUID(userID, &c.UserID); err != nil {
		return c, err
	}
	c.Created = time.Unix(created, 0)
	c.Modified = time.Unix(modified, 0)

	return c, nil
}

func (repo *ContractsDB) GetByID(ctx context.Context, id uuid.UUID) (dao.Contract, error) {
	row := repo.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, source, created, modified FROM contracts WHERE id = ?;`, id.String())
	return scanContract(row)
}

func (repo *ContractsDB) GetAll(ctx context.Context) ([]dao.Contract, error) {
	rows, err := repo.db.QueryContext(ctx, `SELECT id, user_id, name, source, created, modified FROM contracts;`)
	if err != nil {
		return nil, wrapDBError(err)
	}
	defer rows.Close()

	var all []dao.Contract
	for rows.Next() {
		c, err := scanContract(rows)
		if err != nil {
			return all, err
		}
		all = append(all, c)
	}
	return all, rows.Err()
}

func (repo *ContractsDB) GetAllByUser(ctx context.Context, userID uuid.UUID) ([]dao.Contract, error) {
	rows, err := repo.db.QueryContext(ctx,
		`SELECT id, user_id, name, source, created, modified FROM contracts WHERE user_id = ?;`, userID.String())
	if err != nil {
		return nil, wrapDBError(err)
	}
	defer rows.Close()

	var all []dao.Contract
	for rows.Next() {
		c, err := scanContract(rows)
		if err != nil {
			return all, err
		}
		all = append(all, c)
	}
	return all, rows.Err()
}

func (repo *ContractsDB) Update(ctx context.Context, id uuid.UUID, c dao.Contract) (dao.Contract, error) {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE contracts SET name=?, source=?, modified=? WHERE id=?;`,
		c.Name, c.Source, time.Now().Unix(), id.String(),
	)
	if err != nil {
		return dao.Contract{}, wrapDBError(err)
	}
	rowsAff, err := res.RowsAffected()
	if err != nil {
		return dao.Contract{}, wrapDBError(err)
	}
	if rowsAff < 1 {
		return dao.Contract{}, dao.ErrNotFound
	}

	return repo.GetByID(ctx, id)
}

func (repo *ContractsDB) Delete(ctx context.Context, id uuid.UUID) (dao.Contract, error) {
	curVal, err := repo.GetByID(ctx, id)
	if err != nil {
		return curVal, err
	}

	res, err := repo.db.ExecContext(ctx, `DELETE FROM contracts WHERE id = ?`, id.String())
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

func (repo *ContractsDB) Close() error {
	return nil
}
