// Package dao provides data access objects for use in the pricing server.
package dao

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrConstraintViolation = errors.New("a uniqueness constraint was violated")
	ErrNotFound            = errors.New("the requested resource was not found")
	ErrDecodingFailure     = errors.New("field could not be decoded from DB storage format to model format")
)

// Store holds all the repositories.
type Store interface {
	Users() UserRepository
	Sessions() SessionRepository
	Contracts() ContractRepository
	Calibrations() CalibrationRepository
	Evaluations() EvaluationRepository
	Close() error
}

// Contract is a stored pricing DSL module, identified by name and owned by
// the user that submitted it.
type ContractRepository interface {
	Create(ctx context.Context, c Contract) (Contract, error)
	GetByID(ctx context.Context, id uuid.UUID) (Contract, error)
	GetAllByUser(ctx context.Context, userID uuid.UUID) ([]Contract, error)
	GetAll(ctx context.Context) ([]Contract, error)
	Update(ctx context.Context, id uuid.UUID, c Contract) (Contract, error)
	Delete(ctx context.Context, id uuid.UUID) (Contract, error)
	Close() error
}

type Contract struct {
	ID       uuid.UUID
	UserID   uuid.UUID
	Name     string
	Source   string // pricing DSL source text
	Created  time.Time
	Modified time.Time
}

// Calibration is a named, persisted set of market parameters (interest rate,
// volatility, and so on) that can be supplied to an evaluation in place of
// inlining them in every request.
type CalibrationRepository interface {
	Create(ctx context.Context, c Calibration) (Calibration, error)
	GetByID(ctx context.Context, id uuid.UUID) (Calibration, error)
	GetByMarket(ctx context.Context, market string) (Calibration, error)
	GetAll(ctx context.Context) ([]Calibration, error)
	Update(ctx context.Context, id uuid.UUID, c Calibration) (Calibration, error)
	Delete(ctx context.Context, id uuid.UUID) (Calibration, error)
	Close() error
}

type Calibration struct {
	ID         uuid.UUID
	Market     string // underlying name this calibration applies to
	Parameters map[string]float64
	Created    time.Time
	Modified   time.Time
}

// Evaluation is the recorded result of compiling and running a Contract
// against a PathCount/Calibration combination.
type EvaluationRepository interface {
	Create(ctx context.Context, e Evaluation) (Evaluation, error)
	GetByID(ctx context.Context, id uuid.UUID) (Evaluation, error)
	GetAllByContract(ctx context.Context, contractID uuid.UUID, notBefore, notAfter *time.Time) ([]Evaluation, error)
	GetAllByUser(ctx context.Context, userID uuid.UUID, notBefore, notAfter *time.Time) ([]Evaluation, error)
	Delete(ctx context.Context, id uuid.UUID) (Evaluation, error)
	Close() error
}

type Evaluation struct {
	ID          uuid.UUID
	ContractID  uuid.UUID
	UserID      uuid.UUID
	PathCount   int
	Mean        float64
	StdErr      float64
	StubCount   int
	DurationMS  int64
	Created     time.Time
}

// Session is an auth login record, kept so that logins can be listed and
// revoked independently of JWT expiry.
type SessionRepository interface {
	Create(ctx context.Context, sesh Session) (Session, error)
	GetByID(ctx context.Context, id uuid.UUID) (Session, error)
	GetAllByUser(ctx context.Context, userID uuid.UUID) ([]Session, error)
	GetAll(ctx context.Context) ([]Session, error)
	Update(ctx context.Context, id uuid.UUID, sesh Session) (Session, error)
	Delete(ctx context.Context, id uuid.UUID) (Session, error)
	Close() error
}

type Session struct {
	ID      uuid.UUID
	UserID  uuid.UUID
	Created time.Time
	Ended   *time.Time
}

type UserRepository interface {
	// Create creates a new User. All attributes except for auto-generated
	// fields are taken from the provided User.
	Create(ctx context.Context, user User) (User, error)
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	GetByUsername(ctx context.Context, username string) (User, error)
	GetAll(ctx context.Context) ([]User, error)
	Update(ctx context.Context, id uuid.UUID, user User) (User, error)
	Delete(ctx context.Context, id uuid.UUID) (User, error)

	// Close closes the connection.
	Close() error
}

type Role int

const (
	Guest Role = iota
	Unverified
	Normal

	Admin Role = 100
)

func (r Role) String() string {
	switch r {
	case Guest:
		return "guest"
	case Unverified:
		return "unverified"
	case Normal:
		return "normal"
	case Admin:
		return "admin"
	default:
		return fmt.Sprintf("Role(%d)", r)
	}
}

func ParseRole(s string) (Role, error) {
	check := strings.ToLower(s)
	switch check {
	case "guest":
		return Guest, nil
	case "unverified":
		return Unverified, nil
	case "normal":
		return Normal, nil
	case "admin":
		return Admin, nil
	default:
		return Guest, fmt.Errorf("must be one of 'guest', 'unverified', 'normal', or 'admin'")
	}
}

type User struct {
	ID             uuid.UUID     // PK, NOT NULL
	Username       string        // UNIQUE, NOT NULL
	Password       string        // NOT NULL
	Email          *mail.Address // NOT NULL
	Role           Role          // NOT NULL
	Created        time.Time     // NOT NULL
	Modified       time.Time
	LastLogoutTime time.Time // NOT NULL DEFAULT NOW()
	LastLoginTime  time.Time // NOT NULL
}
