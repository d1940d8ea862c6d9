package sqlite

import (
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rhassan/pricedsl/server/dao"
	"github.com/rhassan/pricedsl/server/serr"
	"modernc.org/sqlite"
)

type store struct {
	dbFilename string
	db         *sql.DB

	users  *UsersDB
	seshes *SessionsDB
	conts  *ContractsDB
	calibs *CalibrationsDB
	evals  *EvaluationsDB
}

func NewDatastore(storageDir string) (dao.Store, error) {
	st := &store{dbFilename: "data.db"}

	fileName := filepath.Join(storageDir, st.dbFilename)

	var err error
	st.db, err = sql.Open("sqlite", fileName)
	if err != nil {
		return nil, wrapDBError(err)
	}

	st.users = &UsersDB{db: st.db}
	if err := st.users.init(); err != nil {
		return nil, err
	}

	st.seshes = &SessionsDB{db: st.db}
	if err := st.seshes.init(); err != nil {
		return nil, err
	}

	st.conts = &ContractsDB{db: st.db}
	if err := st.conts.init(); err != nil {
		return nil, err
	}

	st.calibs = &CalibrationsDB{db: st.db}
	if err := st.calibs.init(); err != nil {
		return nil, err
	}

	st.evals = &EvaluationsDB{db: st.db}
	if err := st.evals.init(); err != nil {
		return nil, err
	}

	return st, nil
}

func (s *store) Users() dao.UserRepository               { return s.users }
func (s *store) Sessions() dao.SessionRepository         { return s.seshes }
func (s *store) Contracts() dao.ContractRepository       { return s.conts }
func (s *store) Calibrations() dao.CalibrationRepository { return s.calibs }
func (s *store) Evaluations() dao.EvaluationRepository   { return s.evals }

func (s *store) Close() error {
	return s.db.Close()
}

// convertToDB_UUID converts a uuid.UUID to storage DB format on disk.
func convertToDB_UUID(u uuid.UUID) string {
	return u.String()
}

// convertToDB_ByteSlice converts bytes to storage DB format on disk.
func convertToDB_ByteSlice(b []byte) string {
	if len(b) < 1 {
		return ""
	}
	return base64.StdEncoding.EncodeToString(b)
}

// convertFromDB_UUID converts storage DB format value to a uuid.UUID and
// stores it at the address pointed to by target. If there is a problem with
// the decoding, the returned error will be of type serr.Error, and will wrap
// dao.ErrDecodingFailure. If this function returns a non-nil error, target
// will not have been modified.
func convertFromDB_UUID(s string, target *uuid.UUID) error {
	u, err := uuid.Parse(s)
	if err != nil {
		return serr.New("", err, dao.ErrDecodingFailure)
	}
	*target = u
	return nil
}

// convertFromDB_ByteSlice converts storage DB format string to an actual
// byte slice and stores it at the address pointed to by target. If there is
// a problem with the decoding, the returned error will be of type
// serr.Error, and will wrap dao.ErrDecodingFailure. If this function returns
// a non-nil error, target will not have been modified.
func convertFromDB_ByteSlice(s string, target *[]byte) error {
	decoded, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return serr.New("", err, dao.ErrDecodingFailure)
	}
	*target = decoded
	return nil
}

func wrapDBError(err error) error {
	if err == nil {
		return nil
	}
	sqliteErr := &sqlite.Error{}
	if errors.As(err, &sqliteErr) {
		if sqliteErr.Code() == 19 {
			return dao.ErrConstraintViolation
		}
		return fmt.Errorf("%s", sqlite.ErrorCodeString[sqliteErr.Code()])
	} else if errors.Is(err, sql.ErrNoRows) {
		return dao.ErrNotFound
	}
	return err
}
