package inmem

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rhassan/pricedsl/server/dao"
)

func NewSessionsRepository() *InMemorySessionsRepository {
	return &InMemorySessionsRepository{
		seshes:        make(map[uuid.UUID]dao.Session),
		byUserIDIndex: make(map[uuid.UUID][]uuid.UUID),
	}
}

type InMemorySessionsRepository struct {
	seshes        map[uuid.UUID]dao.Session
	byUserIDIndex map[uuid.UUID][]uuid.UUID
}

func (imsr *InMemorySessionsRepository) Close() error {
	return nil
}

func (imsr *InMemorySessionsRepository) Create(ctx context.Context, s dao.Session) (dao.Session, error) {
	newUUID, err := uuid.NewRandom()
	if err != nil {
		return dao.Session{}, fmt.Errorf("could not generate ID: %w", err)
	}

	s.ID = newUUID
	s.Created = time.Now()

	imsr.seshes[s.ID] = s
	imsr.byUserIDIndex[s.UserID] = append(imsr.byUserIDIndex[s.UserID], s.ID)

	return s, nil
}

func (imsr *InMemorySessionsRepository) GetAll(ctx context.Context) ([]dao.Session, error) {
	all := make([]dao.Session, 0, len(imsr.seshes))
	for k := range imsr.seshes {
		all = append(all, imsr.seshes[k])
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID.String() < all[j].ID.String() })
	return all, nil
}

func (imsr *InMemorySessionsRepository) GetAllByUser(ctx context.Context, id uuid.UUID) ([]dao.Session, error) {
	byUser := imsr.byUserIDIndex[id]
	if len(byUser) < 1 {
		return nil, dao.ErrNotFound
	}

	all := make([]dao.Session, len(byUser))
	for i := range byUser {
		all[i] = imsr.seshes[byUser[i]]
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID.String() < all[j].ID.String() })
	return all, nil
}

func (imsr *InMemorySessionsRepository) Update(ctx context.Context, id uuid.UUID, s dao.Session) (dao.Session, error) {
	existing, ok := imsr.seshes[id]
	if !ok {
		return dao.Session{}, dao.ErrNotFound
	}

	if s.ID != id {
		if _, ok := imsr.seshes[s.ID]; ok {
			return dao.Session{}, dao.ErrConstraintViolation
		}
	}

	imsr.seshes[s.ID] = s
	if s.ID != id {
		delete(imsr.seshes, id)
	}

	if s.UserID != existing.UserID {
		updated := sliceRemove(existing.ID, imsr.byUserIDIndex[existing.UserID])
		if len(updated) < 1 {
			delete(imsr.byUserIDIndex, existing.UserID)
		} else {
			imsr.byUserIDIndex[existing.UserID] = updated
		}
		imsr.byUserIDIndex[s.UserID] = append(imsr.byUserIDIndex[s.UserID], s.ID)
	} else if s.ID != id {
		byUser := imsr.byUserIDIndex[existing.UserID]
		pos := sliceIndexOf(id, byUser)
		if pos < 0 {
			return dao.Session{}, fmt.Errorf("DB ASSERTION FAILURE: missing index entry for user %s to session %s", existing.UserID, existing.ID)
		}
		byUser[pos] = s.ID
		imsr.byUserIDIndex[existing.UserID] = byUser
	}

	return s, nil
}

func (imsr *InMemorySessionsRepository) GetByID(ctx context.Context, id uuid.UUID) (dao.Session, error) {
	s, ok := imsr.seshes[id]
	if !ok {
		return dao.Session{}, dao.ErrNotFound
	}

	return s, nil
}

func (imsr *InMemorySessionsRepository) Delete(ctx context.Context, id uuid.UUID) (dao.Session, error) {
	s, ok := imsr.seshes[id]
	if !ok {
		return dao.Session{}, dao.ErrNotFound
	}

	updated := sliceRemove(s.ID, imsr.byUserIDIndex[s.UserID])
	if len(updated) < 1 {
		delete(imsr.byUserIDIndex, s.UserID)
	} else {
		imsr.byUserIDIndex[s.UserID] = updated
	}

	delete(imsr.seshes, s.ID)

	return s, nil
}
