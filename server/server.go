package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/rhassan/pricedsl/server/dao"
	"github.com/go-chi/chi/v5"
)

// URLParamKeyID is the chi URL parameter name used for the ID of the main
// entity referenced by a request path.
const URLParamKeyID = "id"

// APIPathPrefix is prepended to URIs embedded in response bodies (e.g.
// UserModel.URI) so that clients are given absolute-from-root links.
const APIPathPrefix = "/api/v1"

// Version is the API version string returned from GET /info.
const Version = "1.0.0"

// InfoModel is the response body for GET /info.
type InfoModel struct {
	Version string `json:"version"`
}

// TunaQuestServer serves the pricing API: user/session management plus
// contract, calibration, and evaluation endpoints, all backed by a dao.Store.
type TunaQuestServer struct {
	srv *chi.Mux

	db        dao.Store
	jwtSecret []byte
	unauthDly time.Duration
}

// New builds a TunaQuestServer from the given config, connecting to its
// configured persistence layer and wiring up all routes.
func New(cfg Config) (TunaQuestServer, error) {
	cfg = cfg.FillDefaults()
	if err := cfg.Validate(); err != nil {
		return TunaQuestServer{}, fmt.Errorf("invalid config: %w", err)
	}

	db, err := cfg.DB.Connect()
	if err != nil {
		return TunaQuestServer{}, fmt.Errorf("connect to db: %w", err)
	}

	tqs := TunaQuestServer{
		srv:       chi.NewRouter(),
		db:        db,
		jwtSecret: cfg.TokenSecret,
		unauthDly: cfg.UnauthDelay(),
	}

	tqs.initRoutes()

	return tqs, nil
}

func (tqs TunaQuestServer) requireAuth(next http.Handler) http.Handler {
	return RequireAuth(tqs.db.Users(), tqs.jwtSecret, tqs.unauthDly, dao.User{}, next)
}

func (tqs TunaQuestServer) optionalAuth(next http.Handler) http.Handler {
	return OptionalAuth(tqs.db.Users(), tqs.jwtSecret, tqs.unauthDly, dao.User{}, next)
}

func (tqs TunaQuestServer) initRoutes() {
	r := tqs.srv

	r.Post("/login", Endpoint(tqs.epCreateLogin))

	r.Group(func(r chi.Router) {
		r.Use(tqs.requireAuth)

		r.Delete("/login/{"+URLParamKeyID+"}", Endpoint(tqs.epDeleteLogin))
		r.Post("/tokens", Endpoint(tqs.epCreateToken))

		r.Post("/users", Endpoint(tqs.epCreateNewUser))
		r.Get("/users", Endpoint(tqs.epGetAllUsers))
		r.Get("/users/{"+URLParamKeyID+"}", Endpoint(tqs.epGetUser))
		r.Patch("/users/{"+URLParamKeyID+"}", Endpoint(tqs.epUpdateUser))
		r.Put("/users/{"+URLParamKeyID+"}", Endpoint(tqs.epCreateExistingUser))
		r.Delete("/users/{"+URLParamKeyID+"}", Endpoint(tqs.epDeleteUser))

		r.Post("/contracts", Endpoint(tqs.epCreateContract))
		r.Get("/contracts", Endpoint(tqs.epGetAllContracts))
		r.Get("/contracts/{"+URLParamKeyID+"}", Endpoint(tqs.epGetContract))
		r.Put("/contracts/{"+URLParamKeyID+"}", Endpoint(tqs.epUpdateContract))
		r.Delete("/contracts/{"+URLParamKeyID+"}", Endpoint(tqs.epDeleteContract))
		r.Post("/contracts/{"+URLParamKeyID+"}/evaluate", Endpoint(tqs.epEvaluateContract))
		r.Get("/contracts/{"+URLParamKeyID+"}/evaluations", Endpoint(tqs.epGetContractEvaluations))

		r.Post("/calibrations", Endpoint(tqs.epCreateCalibration))
		r.Get("/calibrations", Endpoint(tqs.epGetAllCalibrations))
		r.Get("/calibrations/{"+URLParamKeyID+"}", Endpoint(tqs.epGetCalibration))
		r.Put("/calibrations/{"+URLParamKeyID+"}", Endpoint(tqs.epUpdateCalibration))
		r.Delete("/calibrations/{"+URLParamKeyID+"}", Endpoint(tqs.epDeleteCalibration))
	})

	r.Group(func(r chi.Router) {
		r.Use(tqs.optionalAuth)
		r.Get("/info", Endpoint(tqs.epGetInfo))
	})
}

func (tqs TunaQuestServer) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	tqs.srv.ServeHTTP(w, req)
}

// ServeForever starts the HTTP server on the given address and blocks until
// it exits or encounters a fatal error.
func (tqs TunaQuestServer) ServeForever(addr string) error {
	return http.ListenAndServe(addr, tqs.srv)
}

// Close releases resources held by the server's persistence layer.
func (tqs TunaQuestServer) Close() error {
	return tqs.db.Close()
}
