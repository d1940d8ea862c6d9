package server

import (
	"context"
	"encoding/base64"
	"errors"
	"time"

	"github.com/rhassan/pricedsl/server/dao"
	"github.com/rhassan/pricedsl/server/serr"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Login verifies the provided username and password against the existing user
// in persistence and returns that user if they match. A Session record is
// opened as a side effect so that login activity can be audited later.
//
// The returned error, if non-nil, will return true for various calls to
// errors.Is depending on what caused the error. If the credentials do not match
// a user or if the password is incorrect, it will match serr.ErrBadCredentials.
// If the error occured due to an unexpected problem with the DB, it will match
// serr.ErrDB.
func (tqs TunaQuestServer) Login(ctx context.Context, username string, password string) (dao.User, error) {
	user, err := tqs.db.Users().GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return dao.User{}, serr.ErrBadCredentials
		}
		return dao.User{}, serr.WrapDB("", err)
	}

	bcryptHash, err := base64.StdEncoding.DecodeString(user.Password)
	if err != nil {
		return dao.User{}, err
	}

	err = bcrypt.CompareHashAndPassword(bcryptHash, []byte(password))
	if err != nil {
		if err == bcrypt.ErrMismatchedHashAndPassword {
			return dao.User{}, serr.ErrBadCredentials
		}
		return dao.User{}, serr.WrapDB("", err)
	}

	user.LastLoginTime = time.Now()
	user, err = tqs.db.Users().Update(ctx, user.ID, user)
	if err != nil {
		return dao.User{}, serr.WrapDB("cannot update user login time", err)
	}

	if _, err := tqs.db.Sessions().Create(ctx, dao.Session{UserID: user.ID}); err != nil {
		return dao.User{}, serr.WrapDB("cannot record session", err)
	}

	return user, nil
}

// Logout marks the user with the given ID as having logged out, invalidating
// any login that may be active, and closes out their most recent open
// Session record. Returns the user entity that was logged out.
//
// The returned error, if non-nil, will return true for various calls to
// errors.Is depending on what caused the error. If the user doesn't exist, it
// will match serr.ErrNotFound. If the error occured due to an unexpected
// problem with the DB, it will match serr.ErrDB.
func (tqs TunaQuestServer) Logout(ctx context.Context, who uuid.UUID) (dao.User, error) {
	existing, err := tqs.db.Users().GetByID(ctx, who)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return dao.User{}, serr.ErrNotFound
		}
		return dao.User{}, serr.WrapDB("could not retrieve user", err)
	}

	existing.LastLogoutTime = time.Now()

	updated, err := tqs.db.Users().Update(ctx, existing.ID, existing)
	if err != nil {
		return dao.User{}, serr.WrapDB("could not update user", err)
	}

	tqs.closeLatestSession(ctx, who)

	return updated, nil
}

// closeLatestSession marks the most recently-opened, still-open Session for
// the given user as ended. Failures here are logged but do not fail the
// logout itself, since the Session trail is an audit convenience and not a
// source of truth for whether a user is logged in (the JWT and
// LastLogoutTime are).
func (tqs TunaQuestServer) closeLatestSession(ctx context.Context, who uuid.UUID) {
	seshes, err := tqs.db.Sessions().GetAllByUser(ctx, who)
	if err != nil {
		return
	}

	var latest *dao.Session
	for i := range seshes {
		if seshes[i].Ended != nil {
			continue
		}
		if latest == nil || seshes[i].Created.After(latest.Created) {
			s := seshes[i]
			latest = &s
		}
	}
	if latest == nil {
		return
	}

	now := time.Now()
	latest.Ended = &now
	tqs.db.Sessions().Update(ctx, latest.ID, *latest)
}
