package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/rhassan/pricedsl/server/dao"
)

func calibrationToModel(c dao.Calibration) CalibrationModel {
	return CalibrationModel{
		URI:        APIPathPrefix + "/calibrations/" + c.ID.String(),
		ID:         c.ID.String(),
		Market:     c.Market,
		Parameters: c.Parameters,
		Created:    c.Created.Format(time.RFC3339),
		Modified:   c.Modified.Format(time.RFC3339),
	}
}

// POST /calibrations: admin-only, registers a new named market calibration.
func (tqs TunaQuestServer) epCreateCalibration(req *http.Request) EndpointResult {
	user := req.Context().Value(AuthUser).(dao.User)
	if user.Role != dao.Admin {
		return jsonForbidden("user '%s' create calibration: forbidden, not an admin", user.Username)
	}

	var createReq CalibrationModel
	if err := parseJSON(req, &createReq); err != nil {
		return jsonBadRequest(err.Error(), err.Error())
	}
	if createReq.Market == "" {
		return jsonBadRequest("market: property is empty or missing from request", "empty market")
	}

	created, err := tqs.db.Calibrations().Create(req.Context(), dao.Calibration{
		Market:     createReq.Market,
		Parameters: createReq.Parameters,
	})
	if err != nil {
		if errors.Is(err, dao.ErrConstraintViolation) {
			return jsonConflict("a calibration for that market already exists", "market '%s' already calibrated", createReq.Market)
		}
		return jsonInternalServerError("could not create calibration: " + err.Error())
	}

	return jsonCreated(calibrationToModel(created), "user '%s' created calibration for market '%s'", user.Username, created.Market)
}

// GET /calibrations
func (tqs TunaQuestServer) epGetAllCalibrations(req *http.Request) EndpointResult {
	user := req.Context().Value(AuthUser).(dao.User)

	calibs, err := tqs.db.Calibrations().GetAll(req.Context())
	if err != nil {
		return jsonInternalServerError(err.Error())
	}

	resp := make([]CalibrationModel, len(calibs))
	for i := range calibs {
		resp[i] = calibrationToModel(calibs[i])
	}

	return jsonOK(resp, "user '%s' listed calibrations", user.Username)
}

// GET /calibrations/{id}
func (tqs TunaQuestServer) epGetCalibration(req *http.Request) EndpointResult {
	id := requireIDParam(req)
	user := req.Context().Value(AuthUser).(dao.User)

	c, err := tqs.db.Calibrations().GetByID(req.Context(), id)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return jsonNotFound()
		}
		return jsonInternalServerError(err.Error())
	}

	return jsonOK(calibrationToModel(c), "user '%s' got calibration for market '%s'", user.Username, c.Market)
}

// PUT /calibrations/{id}: admin-only, replaces the parameters of an
// existing calibration.
func (tqs TunaQuestServer) epUpdateCalibration(req *http.Request) EndpointResult {
	id := requireIDParam(req)
	user := req.Context().Value(AuthUser).(dao.User)
	if user.Role != dao.Admin {
		return jsonForbidden("user '%s' update calibration %s: forbidden, not an admin", user.Username, id)
	}

	existing, err := tqs.db.Calibrations().GetByID(req.Context(), id)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return jsonNotFound()
		}
		return jsonInternalServerError(err.Error())
	}

	var updateReq CalibrationModel
	if err := parseJSON(req, &updateReq); err != nil {
		return jsonBadRequest(err.Error(), err.Error())
	}
	if updateReq.Market == "" {
		return jsonBadRequest("market: property is empty or missing from request", "empty market")
	}

	existing.Market = updateReq.Market
	existing.Parameters = updateReq.Parameters

	updated, err := tqs.db.Calibrations().Update(req.Context(), id, existing)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return jsonNotFound()
		}
		return jsonInternalServerError(err.Error())
	}

	return jsonOK(calibrationToModel(updated), "user '%s' updated calibration for market '%s'", user.Username, updated.Market)
}

// DELETE /calibrations/{id}: admin-only.
func (tqs TunaQuestServer) epDeleteCalibration(req *http.Request) EndpointResult {
	id := requireIDParam(req)
	user := req.Context().Value(AuthUser).(dao.User)
	if user.Role != dao.Admin {
		return jsonForbidden("user '%s' delete calibration %s: forbidden, not an admin", user.Username, id)
	}

	existing, err := tqs.db.Calibrations().GetByID(req.Context(), id)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return jsonNotFound()
		}
		return jsonInternalServerError(err.Error())
	}

	if _, err := tqs.db.Calibrations().Delete(req.Context(), id); err != nil {
		if !errors.Is(err, dao.ErrNotFound) {
			return jsonInternalServerError("could not delete calibration: " + err.Error())
		}
	}

	return jsonNoContent("user '%s' deleted calibration for market '%s'", user.Username, existing.Market)
}
