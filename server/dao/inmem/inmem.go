package inmem

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/rhassan/pricedsl/server/dao"
)

type store struct {
	users   *InMemoryUsersRepository
	seshes  *InMemorySessionsRepository
	conts   *InMemoryContractsRepository
	calibs  *InMemoryCalibrationsRepository
	evals   *InMemoryEvaluationsRepository
}

func NewDatastore() dao.Store {
	return &store{
		users:  NewUsersRepository(),
		seshes: NewSessionsRepository(),
		conts:  NewContractsRepository(),
		calibs: NewCalibrationsRepository(),
		evals:  NewEvaluationsRepository(),
	}
}

func (s *store) Users() dao.UserRepository               { return s.users }
func (s *store) Sessions() dao.SessionRepository         { return s.seshes }
func (s *store) Contracts() dao.ContractRepository       { return s.conts }
func (s *store) Calibrations() dao.CalibrationRepository { return s.calibs }
func (s *store) Evaluations() dao.EvaluationRepository   { return s.evals }

func (s *store) Close() error {
	var err error

	join := func(next error) {
		if next == nil {
			return
		}
		if err != nil {
			err = fmt.Errorf("%s\nadditionally, %w", err, next)
		} else {
			err = next
		}
	}

	join(s.users.Close())
	join(s.seshes.Close())
	join(s.conts.Close())
	join(s.calibs.Close())
	join(s.evals.Close())

	return err
}

// sliceIndexOf returns the index of target in s, or -1 if it is not present.
func sliceIndexOf(target uuid.UUID, s []uuid.UUID) int {
	for i := range s {
		if s[i] == target {
			return i
		}
	}
	return -1
}

// sliceRemove returns a copy of s with the first occurrence of target
// removed.
func sliceRemove(target uuid.UUID, s []uuid.UUID) []uuid.UUID {
	idx := sliceIndexOf(target, s)
	if idx < 0 {
		return s
	}
	out := make([]uuid.UUID, 0, len(s)-1)
	out = append(out, s[:idx]...)
	out = append(out, s[idx+1:]...)
	return out
}
