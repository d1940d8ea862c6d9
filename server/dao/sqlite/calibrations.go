package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dekarrin/rezi"
	"github.com/google/uuid"
	"github.com/rhassan/pricedsl/server/dao"
)

type CalibrationsDB struct {
	db *sql.DB
}

func (repo *CalibrationsDB) init() error {
	_, err := repo.db.Exec(`CREATE TABLE IF NOT EXISTS calibrations (
		id TEXT NOT NULL PRIMARY KEY,
		market TEXT NOT NULL UNIQUE,
		parameters TEXT NOT NULL,
		created INTEGER NOT NULL,
		modified INTEGER NOT NULL
	);`)
	if err != nil {
		return wrapDBError(err)
	}
	return nil
}

func (repo *CalibrationsDB) Create(ctx context.Context, c dao.Calibration) (dao.Calibration, error) {
	newUUID, err := uuid.NewRandom()
	if err != nil {
		return dao.Calibration{}, fmt.Errorf("could not generate ID: %w", err)
	}

	paramData, err := rezi.Enc(c.Parameters)
	if err != nil {
		return dao.Calibration{}, fmt.Errorf("could not encode parameters: %w", err)
	}

	now := time.Now()
	_, err = repo.db.ExecContext(ctx,
		`INSERT INTO calibrations (id, market, parameters, created, modified) VALUES (?, ?, ?, ?, ?)`,
		newUUID.String(), c.Market, convertToDB_ByteSlice(paramData), now.Unix(), now.Unix(),
	)
	if err != nil {
		return dao.Calibration{}, wrapDBError(err)
	}

	return repo.GetByID(ctx, newUUID)
}

func scanCalibration(row rowScanner) (dao.Calibration, error) {
	var c dao.Calibration
	var id, params string
	var created, modified int64

	err := row.Scan(&id, &c.Market, &params, &created, &modified)
	if err != nil {
		return c, wrapDBError(err)
	}

	if err := convertFromDB_UUID(id, &c.ID); err != nil {
		return c, err
	}

	var paramData []byte
	if err := convertFromDB_ByteSlice(params, &paramData); err != nil {
		return c, err
	}
	c.Parameters = make(map[string]float64)
	if _, err := rezi.Dec(paramData, &c.Parameters); err != nil {
		return c, fmt.Errorf("could not decode parameters: %w", err)
	}

	c.Created = time.Unix(created, 0)
	c.Modified = time.Unix(modified, 0)

	return c, nil
}

func (repo *CalibrationsDB) GetByID(ctx context.Context, id uuid.UUID) (dao.Calibration, error) {
	row := repo.db.QueryRowContext(ctx,
		`SELECT id, market, parameters, created, modified FROM calibrations WHERE id = ?;`, id.String())
	return scanCalibration(row)
}

func (repo *CalibrationsDB) GetByMarket(ctx context.Context, market string) (dao.Calibration, error) {
	row := repo.db.QueryRowContext(ctx,
		`SELECT id, market, parameters, created, modified FROM calibrations WHERE market = ?;`, market)
	return scanCalibration(row)
}

func (repo *CalibrationsDB) GetAll(ctx context.Context) ([]dao.Calibration, error) {
	rows, err := repo.db.QueryContext(ctx, `SELECT id, market, parameters, created, modified FROM calibrations;`)
	if err != nil {
		return nil, wrapDBError(err)
	}
	defer rows.Close()

	var all []dao.Calibration
	for rows.Next() {
		c, err := scanCalibration(rows)
		if err != nil {
			return all, err
		}
		all = append(all, c)
	}
	return all, rows.Err()
}

func (repo *CalibrationsDB) Update(ctx context.Context, id uuid.UUID, c dao.Calibration) (dao.Calibration, error) {
	paramData, err := rezi.Enc(c.Parameters)
	if err != nil {
		return dao.Calibration{}, fmt.Errorf("could not encode parameters: %w", err)
	}

	res, err := repo.db.ExecContext(ctx,
		`UPDATE calibrations SET market=?, parameters=?, modified=? WHERE id=?;`,
		c.Market, convertToDB_ByteSlice(paramData), time.Now().Unix(), id.String(),
	)
	if err != nil {
		return dao.Calibration{}, wrapDBError(err)
	}
	rowsAff, err := res.RowsAffected()
	if err != nil {
		return dao.Calibration{}, wrapDBError(err)
	}
	if rowsAff < 1 {
		return dao.Calibration{}, dao.ErrNotFound
	}

	return repo.GetByID(ctx, id)
}

func (repo *CalibrationsDB) Delete(ctx context.Context, id uuid.UUID) (dao.Calibration, error) {
	curVal, err := repo.GetByID(ctx, id)
	if err != nil {
		return curVal, err
	}

	res, err := repo.db.ExecContext(ctx, `DELETE FROM calibrations WHERE id = ?`, id.String())
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

func (repo *CalibrationsDB) Close() error {
	return nil
}
