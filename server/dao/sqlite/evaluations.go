package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rhassan/pricedsl/server/dao"
)

type EvaluationsDB struct {
	db *sql.DB
}

func (repo *EvaluationsDB) init() error {
	_, err := repo.db.Exec(`CREATE TABLE IF NOT EXISTS evaluations (
		id TEXT NOT NULL PRIMARY KEY,
		contract_id TEXT NOT NULL REFERENCES contracts(id) ON DELETE CASCADE ON UPDATE CASCADE,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE ON UPDATE CASCADE,
		path_count INTEGER NOT NULL,
		mean REAL NOT NULL,
		std_err REAL NOT NULL,
		stub_count INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		created INTEGER NOT NULL
	);`)
	if err != nil {
		return wrapDBError(err)
	}
	return nil
}

func (repo *EvaluationsDB) Create(ctx context.Context, e dao.Evaluation) (dao.Evaluation, error) {
	newUUID, err := uuid.NewRandom()
	if err != nil {
		return dao.Evaluation{}, fmt.Errorf("could not generate ID: %w", err)
	}

	_, err = repo.db.ExecContext(ctx,
		`INSERT INTO evaluations (id, contract_id, user_id, path_count, mean, std_err, stub_count, duration_ms, created)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		newUUID.String(), e.ContractID.String(), e.UserID.String(), e.PathCount, e.Mean, e.StdErr,
		e.StubCount, e.DurationMS, time.Now().Unix(),
	)
	if err != nil {
		return dao.Evaluation{}, wrapDBError(err)
	}

	return repo.GetByID(ctx, newUUID)
}

func scanEvaluation(row rowScanner) (dao.Evaluation, error) {
	var e dao.Evaluation
	var id, contractID, userID string
	var created int64

	err := row.Scan(&id, &contractID, &userID, &e.PathCount, &e.Mean, &e.StdErr, &e.StubCount, &e.DurationMS, &created)
	if err != nil {
		return e, wrapDBError(err)
	}

	if err := convertFromDB_UUID(id, &e.ID); err != nil {
		return e, err
	}
	if err := convertFromDB_UUID(contractID, &e.ContractID); err != nil {
		return e, err
	}
	if err := convertFromDB_UUID(userID, &e.UserID); err != nil {
		return e, err
	}
	e.Created = time.Unix(created, 0)

	return e, nil
}

const evalSelectCols = `id, contract_id, user_id, path_count, mean, std_err, stub_count, duration_ms, created`

func (repo *EvaluationsDB) GetByID(ctx context.Context, id uuid.UUID) (dao.Evaluation, error) {
	row := repo.db.QueryRowContext(ctx, `SELECT `+evalSelectCols+` FROM evaluations WHERE id = ?;`, id.String())
	return scanEvaluation(row)
}

func timeRangeClause(column string, notBefore, notAfter *time.Time, args []interface{}) (string, []interface{}) {
	var clauses []string
	if notBefore != nil {
		clauses = append(clauses, fmt.Sprintf("%s >= ?", column))
		args = append(args, notBefore.Unix())
	}
	if notAfter != nil {
		clauses = append(clauses, fmt.Sprintf("%s <= ?", column))
		args = append(args, notAfter.Unix())
	}
	if len(clauses) == 0 {
		return "", args
	}
	return " AND " + strings.Join(clauses, " AND "), args
}

func (repo *EvaluationsDB) GetAllByContract(ctx context.Context, contractID uuid.UUID, notBefore, notAfter *time.Time) ([]dao.Evaluation, error) {
	args := []interface{}{contractID.String()}
	extra, args := timeRangeClause("created", notBefore, notAfter, args)

	rows, err := repo.db.QueryContext(ctx,
		`SELECT `+evalSelectCols+` FROM evaluations WHERE contract_id = ?`+extra+`;`, args...)
	if err != nil {
		return nil, wrapDBError(err)
	}
	defer rows.Close()

	var all []dao.Evaluation
	for rows.Next() {
		e, err := scanEvaluation(rows)
		if err != nil {
			return all, err
		}
		all = append(all, e)
	}
	return all, rows.Err()
}

func (repo *EvaluationsDB) GetAllByUser(ctx context.Context, userID uuid.UUID, notBefore, notAfter *time.Time) ([]dao.Evaluation, error) {
	args := []interface{}{userID.String()}
	extra, args := timeRangeClause("created", notBefore, notAfter, args)

	rows, err := repo.db.QueryContext(ctx,
		`SELECT `+evalSelectCols+` FROM evaluations WHERE user_id = ?`+extra+`;`, args...)
	if err != nil {
		return nil, wrapDBError(err)
	}
	defer rows.Close()

	var all []dao.Evaluation
	for rows.Next() {
		e, err := scanEvaluation(rows)
		if err != nil {
			return all, err
		}
		all = append(all, e)
	}
	return all, rows.Err()
}

func (repo *EvaluationsDB) Delete(ctx context.Context, id uuid.UUID) (dao.Evaluation, error) {
	curVal, err := repo.GetByID(ctx, id)
	if err != nil {
		return curVal, err
	}

	res, err := repo.db.ExecContext(ctx, `DELETE FROM evaluations WHERE id = ?`, id.String())
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

func (repo *EvaluationsDB) Close() error {
	return nil
}
