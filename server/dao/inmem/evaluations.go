package inmem

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rhassan/pricedsl/server/dao"
)

func NewEvaluationsRepository() *InMemoryEvaluationsRepository {
	return &InMemoryEvaluationsRepository{
		evals:           make(map[uuid.UUID]dao.Evaluation),
		byContractIndex: make(map[uuid.UUID][]uuid.UUID),
		byUserIndex:     make(map[uuid.UUID][]uuid.UUID),
	}
}

type InMemoryEvaluationsRepository struct {
	evals           map[uuid.UUID]dao.Evaluation
	byContractIndex map[uuid.UUID][]uuid.UUID
	byUserIndex     map[uuid.UUID][]uuid.UUID
}

func (imer *InMemoryEvaluationsRepository) Close() error {
	return nil
}

func (imer *InMemoryEvaluationsRepository) Create(ctx context.Context, e dao.Evaluation) (dao.Evaluation, error) {
	newUUID, err := uuid.NewRandom()
	if err != nil {
		return dao.Evaluation{}, fmt.Errorf("could not generate ID: %w", err)
	}

	e.ID = newUUID
	e.Created = time.Now()

	imer.evals[e.ID] = e
	imer.byContractIndex[e.ContractID] = append(imer.byContractIndex[e.ContractID], e.ID)
	imer.byUserIndex[e.UserID] = append(imer.byUserIndex[e.UserID], e.ID)

	return e, nil
}

func (imer *InMemoryEvaluationsRepository) GetByID(ctx context.Context, id uuid.UUID) (dao.Evaluation, error) {
	e, ok := imer.evals[id]
	if !ok {
		return dao.Evaluation{}, dao.ErrNotFound
	}
	return e, nil
}

func filterByTimeRange(all []dao.Evaluation, notBefore, notAfter *time.Time) []dao.Evaluation {
	if notBefore == nil && notAfter == nil {
		return all
	}
	filtered := make([]dao.Evaluation, 0, len(all))
	for _, e := range all {
		if notBefore != nil && e.Created.Before(*notBefore) {
			continue
		}
		if notAfter != nil && e.Created.After(*notAfter) {
			continue
		}
		filtered = append(filtered, e)
	}
	return filtered
}

func (imer *InMemoryEvaluationsRepository) GetAllByContract(ctx context.Context, contractID uuid.UUID, notBefore, notAfter *time.Time) ([]dao.Evaluation, error) {
	ids := imer.byContractIndex[contractID]
	all := make([]dao.Evaluation, len(ids))
	for i := range ids {
		all[i] = imer.evals[ids[i]]
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID.String() < all[j].ID.String() })
	return filterByTimeRange(all, notBefore, notAfter), nil
}

func (imer *InMemoryEvaluationsRepository) GetAllByUser(ctx context.Context, userID uuid.UUID, notBefore, notAfter *time.Time) ([]dao.Evaluation, error) {
	ids := imer.byUserIndex[userID]
	all := make([]dao.Evaluation, len(ids))
	for i := range ids {
		all[i] = imer.evals[ids[i]]
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID.String() < all[j].ID.String() })
	return filterByTimeRange(all, notBefore, notAfter), nil
}

func (imer *InMemoryEvaluationsRepository) Delete(ctx context.Context, id uuid.UUID) (dao.Evaluation, error) {
	e, ok := imer.evals[id]
	if !ok {
		return dao.Evaluation{}, dao.ErrNotFound
	}

	updatedByContract := sliceRemove(e.ID, imer.byContractIndex[e.ContractID])
	if len(updatedByContract) < 1 {
		delete(imer.byContractIndex, e.ContractID)
	} else {
		imer.byContractIndex[e.ContractID] = updatedByContract
	}

	updatedByUser := sliceRemove(e.ID, imer.byUserIndex[e.UserID])
	if len(updatedByUser) < 1 {
		delete(imer.byUserIndex, e.UserID)
	} else {
		imer.byUserIndex[e.UserID] = updatedByUser
	}

	delete(imer.evals, e.ID)

	return e, nil
}
