package inmem

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rhassan/pricedsl/server/dao"
)

func NewCalibrationsRepository() *InMemoryCalibrationsRepository {
	return &InMemoryCalibrationsRepository{
		calibs:        make(map[uuid.UUID]dao.Calibration),
		byMarketIndex: make(map[string]uuid.UUID),
	}
}

type InMemoryCalibrationsRepository struct {
	calibs        map[uuid.UUID]dao.Calibration
	byMarketIndex map[string]uuid.UUID
}

func (imkr *InMemoryCalibrationsRepository) Close() error {
	return nil
}

func (imkr *InMemoryCalibrationsRepository) Create(ctx context.Context, c dao.Calibration) (dao.Calibration, error) {
	newUUID, err := uuid.NewRandom()
	if err != nil {
		return dao.Calibration{}, fmt.Errorf("could not generate ID: %w", err)
	}

	if _, ok := imkr.byMarketIndex[c.Market]; ok {
		return dao.Calibration{}, dao.ErrConstraintViolation
	}

	c.ID = newUUID
	c.Created = time.Now()
	c.Modified = c.Created

	imkr.calibs[c.ID] = c
	imkr.byMarketIndex[c.Market] = c.ID

	return c, nil
}

func (imkr *InMemoryCalibrationsRepository) GetByID(ctx context.Context, id uuid.UUID) (dao.Calibration, error) {
	c, ok := imkr.calibs[id]
	if !ok {
		return dao.Calibration{}, dao.ErrNotFound
	}
	return c, nil
}

func (imkr *InMemoryCalibrationsRepository) GetByMarket(ctx context.Context, market string) (dao.Calibration, error) {
	id, ok := imkr.byMarketIndex[market]
	if !ok {
		return dao.Calibration{}, dao.ErrNotFound
	}
	return imkr.calibs[id], nil
}

func (imkr *InMemoryCalibrationsRepository) GetAll(ctx context.Context) ([]dao.Calibration, error) {
	all := make([]dao.Calibration, 0, len(imkr.calibs))
	for k := range imkr.calibs {
		all = append(all, imkr.calibs[k])
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID.String() < all[j].ID.String() })
	return all, nil
}

func (imkr *InMemoryCalibrationsRepository) Update(ctx context.Context, id uuid.UUID, c dao.Calibration) (dao.Calibration, error) {
	existing, ok := imkr.calibs[id]
	if !ok {
		return dao.Calibration{}, dao.ErrNotFound
	}

	if c.Market != existing.Market {
		if _, ok := imkr.byMarketIndex[c.Market]; ok {
			return dao.Calibration{}, dao.ErrConstraintViolation
		}
	}

	c.Modified = time.Now()
	imkr.calibs[id] = c
	if c.Market != existing.Market {
		delete(imkr.byMarketIndex, existing.Market)
		imkr.byMarketIndex[c.Market] = id
	}

	return c, nil
}

func (imkr *InMemoryCalibrationsRepository) Delete(ctx context.Context, id uuid.UUID) (dao.Calibration, error) {
	c, ok := imkr.calibs[id]
	if !ok {
		return dao.Calibration{}, dao.ErrNotFound
	}

	delete(imkr.byMarketIndex, c.Market)
	delete(imkr.calibs, id)

	return c, nil
}
