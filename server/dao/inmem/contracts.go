package inmem

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rhassan/pricedsl/server/dao"
)

func NewContractsRepository() *InMemoryContractsRepository {
	return &InMemoryContractsRepository{
		contracts:     make(map[uuid.UUID]dao.Contract),
		byUserIDIndex: make(map[uuid.UUID][]uuid.UUID),
	}
}

type InMemoryContractsRepository struct {
	contracts     map[uuid.UUID]dao.Contract
	byUserIDIndex map[uuid.UUID][]uuid.UUID
}

func (imcr *InMemoryContractsRepository) Close() error {
	return nil
}

func (imcr *InMemoryContractsRepository) Create(ctx context.Context, c dao.Contract) (dao.Contract, error) {
	newUUID, err := uuid.NewRandom()
	if err != nil {
		return dao.Contract{}, fmt.Errorf("could not generate ID: %w", err)
	}

	c.ID = newUUID
	c.Created = time.Now()
	c.Modified = c.Created

	imcr.contracts[c.ID] = c
	imcr.byUserIDIndex[c.UserID] = append(imcr.byUserIDIndex[c.UserID], c.ID)

	return c, nil
}

func (imcr *InMemoryContractsRepository) GetByID(ctx context.Context, id uuid.UUID) (dao.Contract, error) {
	c, ok := imcr.contracts[id]
	if !ok {
		return dao.Contract{}, dao.ErrNotFound
	}
	return c, nil
}

func (imcr *InMemoryContractsRepository) GetAllByUser(ctx context.Context, userID uuid.UUID) ([]dao.Contract, error) {
	ids := imcr.byUserIDIndex[userID]
	all := make([]dao.Contract, len(ids))
	for i := range ids {
		all[i] = imcr.contracts[ids[i]]
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID.String() < all[j].ID.String() })
	return all, nil
}

func (imcr *InMemoryContractsRepository) GetAll(ctx context.Context) ([]dao.Contract, error) {
	all := make([]dao.Contract, 0, len(imcr.contracts))
	for k := range imcr.contracts {
		all = append(all, imcr.contracts[k])
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID.String() < all[j].ID.String() })
	return all, nil
}

func (imcr *InMemoryContractsRepository) Update(ctx context.Context, id uuid.UUID, c dao.Contract) (dao.Contract, error) {
	existing, ok := imcr.contracts[id]
	if !ok {
		return dao.Contract{}, dao.ErrNotFound
	}

	if c.ID != id {
		if _, ok := imcr.contracts[c.ID]; ok {
			return dao.Contract{}, dao.ErrConstraintViolation
		}
	}

	c.Modified = time.Now()
	imcr.contracts[c.ID] = c
	if c.ID != id {
		delete(imcr.contracts, id)
	}

	if c.UserID != existing.UserID || c.ID != id {
		updated := sliceRemove(existing.ID, imcr.byUserIDIndex[existing.UserID])
		if len(updated) < 1 {
			delete(imcr.byUserIDIndex, existing.UserID)
		} else {
			imcr.byUserIDIndex[existing.UserID] = updated
		}
		imcr.byUserIDIndex[c.UserID] = append(imcr.byUserIDIndex[c.UserID], c.ID)
	}

	return c, nil
}

func (imcr *InMemoryContractsRepository) Delete(ctx context.Context, id uuid.UUID) (dao.Contract, error) {
	c, ok := imcr.contracts[id]
	if !ok {
		return dao.Contract{}, dao.ErrNotFound
	}

	updated := sliceRemove(c.ID, imcr.byUserIDIndex[c.UserID])
	if len(updated) < 1 {
		delete(imcr.byUserIDIndex, c.UserID)
	} else {
		imcr.byUserIDIndex[c.UserID] = updated
	}
	delete(imcr.contracts, c.ID)

	return c, nil
}
