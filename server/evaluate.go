package server

import (
	"errors"
	"math"
	"math/rand"
	"net/http"
	"time"

	"github.com/rhassan/pricedsl"
	"github.com/rhassan/pricedsl/internal/dslast"
	"github.com/rhassan/pricedsl/internal/priceproc"
	"github.com/rhassan/pricedsl/internal/runner"
	"github.com/rhassan/pricedsl/internal/stubber"
	"github.com/rhassan/pricedsl/server/dao"
)

func evaluationToModel(e dao.Evaluation) EvaluationModel {
	return EvaluationModel{
		URI:        APIPathPrefix + "/contracts/" + e.ContractID.String() + "/evaluations/" + e.ID.String(),
		ID:         e.ID.String(),
		ContractID: e.ContractID.String(),
		UserID:     e.UserID.String(),
		PathCount:  e.PathCount,
		Mean:       e.Mean,
		StdErr:     e.StdErr,
		StubCount:  e.StubCount,
		DurationMS: e.DurationMS,
		Created:    e.Created.Format(time.RFC3339),
	}
}

// meanAndStdErr computes the sample mean and standard error of the mean
// across Monte-Carlo paths. A scalar result has zero standard error.
func meanAndStdErr(v dslast.Value) (mean, stdErr float64) {
	if !v.IsVector() {
		return v.Scalar(), 0
	}
	vec := v.Vector()
	n := len(vec)
	if n == 0 {
		return 0, 0
	}
	sum := 0.0
	for _, x := range vec {
		sum += x
	}
	mean = sum / float64(n)
	if n < 2 {
		return mean, 0
	}
	var sumSq float64
	for _, x := range vec {
		d := x - mean
		sumSq += d * d
	}
	variance := sumSq / float64(n-1)
	stdErr = math.Sqrt(variance / float64(n))
	return mean, stdErr
}

// POST /contracts/{id}/evaluate: compile and run the contract against a
// named calibration, recording the result as a new Evaluation.
func (tqs TunaQuestServer) epEvaluateContract(req *http.Request) EndpointResult {
	id := requireIDParam(req)
	user := req.Context().Value(AuthUser).(dao.User)

	contract, err := tqs.db.Contracts().GetByID(req.Context(), id)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return jsonNotFound()
		}
		return jsonInternalServerError(err.Error())
	}
	if err := owns(user, contract.UserID.String()); err != nil {
		return jsonForbidden("user '%s' evaluate contract %s: forbidden", user.Username, id)
	}

	var evalReq EvaluateRequest
	if err := parseJSON(req, &evalReq); err != nil {
		return jsonBadRequest(err.Error(), err.Error())
	}
	if evalReq.Market == "" {
		return jsonBadRequest("market: property is empty or missing from request", "empty market")
	}
	if evalReq.PathCount < 0 {
		return jsonBadRequest("path_count: must not be negative", "negative path_count")
	}
	if max := MaxPathCount(user.Role); evalReq.PathCount > max {
		return jsonForbidden("user '%s' (role %s): path_count %d exceeds role quota of %d", user.Username, user.Role, evalReq.PathCount, max)
	}

	calib, err := tqs.db.Calibrations().GetByMarket(req.Context(), evalReq.Market)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return jsonBadRequest("market: no calibration found with that name", "calibration '%s' not found", evalReq.Market)
		}
		return jsonInternalServerError(err.Error())
	}

	presentTime := time.Now().UTC()
	if evalReq.PresentTime != "" {
		presentTime, err = time.Parse(time.RFC3339, evalReq.PresentTime)
		if err != nil {
			return jsonBadRequest("present_time: "+err.Error(), "present_time does not parse: %s", err.Error())
		}
	}

	mod, err := pricedsl.Parse(contract.Source)
	if err != nil {
		return jsonInternalServerError("stored contract source no longer parses: " + err.Error())
	}

	env := dslast.Env{
		NS:           dslast.NewNamespace(),
		PresentTime:  presentTime,
		InterestRate: evalReq.InterestRate,
		PathCount:    evalReq.PathCount,
		Calibration:  calib.Parameters,
		Image:        priceproc.NewGBM(presentTime, evalReq.InterestRate, rand.New(rand.NewSource(presentTime.UnixNano()))),
	}

	started := time.Now()

	graph, err := stubber.CompileParallel(mod, env)
	if err != nil {
		return jsonBadRequest("contract: "+err.Error(), "contract does not compile: %s", err.Error())
	}
	value, stubCount, err := runner.Sequential(graph, env)
	if err != nil {
		return jsonInternalServerError("evaluation failed: " + err.Error())
	}

	duration := time.Since(started)
	mean, stdErr := meanAndStdErr(value)

	recorded, err := tqs.db.Evaluations().Create(req.Context(), dao.Evaluation{
		ContractID: contract.ID,
		UserID:     user.ID,
		PathCount:  evalReq.PathCount,
		Mean:       mean,
		StdErr:     stdErr,
		StubCount:  stubCount,
		DurationMS: duration.Milliseconds(),
	})
	if err != nil {
		return jsonInternalServerError("could not record evaluation: " + err.Error())
	}

	return jsonCreated(evaluationToModel(recorded), "user '%s' evaluated contract '%s' against market '%s'", user.Username, contract.Name, evalReq.Market)
}

// GET /contracts/{id}/evaluations: list past evaluations of a contract.
func (tqs TunaQuestServer) epGetContractEvaluations(req *http.Request) EndpointResult {
	id := requireIDParam(req)
	user := req.Context().Value(AuthUser).(dao.User)

	contract, err := tqs.db.Contracts().GetByID(req.Context(), id)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return jsonNotFound()
		}
		return jsonInternalServerError(err.Error())
	}
	if err := owns(user, contract.UserID.String()); err != nil {
		return jsonForbidden("user '%s' get evaluations of contract %s: forbidden", user.Username, id)
	}

	evals, err := tqs.db.Evaluations().GetAllByContract(req.Context(), contract.ID, nil, nil)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return jsonOK([]EvaluationModel{}, "contract '%s' has no evaluations", contract.Name)
		}
		return jsonInternalServerError(err.Error())
	}

	resp := make([]EvaluationModel, len(evals))
	for i := range evals {
		resp[i] = evaluationToModel(evals[i])
	}

	return jsonOK(resp, "user '%s' listed evaluations of contract '%s'", user.Username, contract.Name)
}
