package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/rhassan/pricedsl"
	"github.com/rhassan/pricedsl/server/dao"
	"github.com/rhassan/pricedsl/server/serr"
)

// parseContractSource validates that source is a well-formed contract
// program, without requiring any evaluation kwargs.
func parseContractSource(source string) (interface{}, error) {
	return pricedsl.Parse(source)
}

func contractToModel(c dao.Contract) ContractModel {
	return ContractModel{
		URI:      APIPathPrefix + "/contracts/" + c.ID.String(),
		ID:       c.ID.String(),
		UserID:   c.UserID.String(),
		Name:     c.Name,
		Source:   c.Source,
		Created:  c.Created.Format(time.RFC3339),
		Modified: c.Modified.Format(time.RFC3339),
	}
}

// owns returns nil if the given user may operate on a resource owned by
// ownerID (either they are the owner, or they are an admin).
func owns(user dao.User, ownerID string) error {
	if user.ID.String() == ownerID || user.Role == dao.Admin {
		return nil
	}
	return serr.ErrPermissions
}

// POST /contracts: create a new contract owned by the calling user.
func (tqs TunaQuestServer) epCreateContract(req *http.Request) EndpointResult {
	user := req.Context().Value(AuthUser).(dao.User)

	var createReq ContractUpdateRequest
	if err := parseJSON(req, &createReq); err != nil {
		return jsonBadRequest(err.Error(), err.Error())
	}
	if createReq.Name == "" {
		return jsonBadRequest("name: property is empty or missing from request", "empty name")
	}
	if createReq.Source == "" {
		return jsonBadRequest("source: property is empty or missing from request", "empty source")
	}
	if _, err := parseContractSource(createReq.Source); err != nil {
		return jsonBadRequest("source: "+err.Error(), "source does not parse: %s", err.Error())
	}

	created, err := tqs.db.Contracts().Create(req.Context(), dao.Contract{
		UserID: user.ID,
		Name:   createReq.Name,
		Source: createReq.Source,
	})
	if err != nil {
		return jsonInternalServerError("could not create contract: " + err.Error())
	}

	return jsonCreated(contractToModel(created), "user '%s' created contract '%s' (%s)", user.Username, created.Name, created.ID)
}

// GET /contracts: list the calling user's contracts (all contracts, for an
// admin).
func (tqs TunaQuestServer) epGetAllContracts(req *http.Request) EndpointResult {
	user := req.Context().Value(AuthUser).(dao.User)

	var contracts []dao.Contract
	var err error
	if user.Role == dao.Admin {
		contracts, err = tqs.db.Contracts().GetAll(req.Context())
	} else {
		contracts, err = tqs.db.Contracts().GetAllByUser(req.Context(), user.ID)
	}
	if err != nil {
		return jsonInternalServerError(err.Error())
	}

	resp := make([]ContractModel, len(contracts))
	for i := range contracts {
		resp[i] = contractToModel(contracts[i])
	}

	return jsonOK(resp, "user '%s' listed contracts", user.Username)
}

// GET /contracts/{id}
func (tqs TunaQuestServer) epGetContract(req *http.Request) EndpointResult {
	id := requireIDParam(req)
	user := req.Context().Value(AuthUser).(dao.User)

	c, err := tqs.db.Contracts().GetByID(req.Context(), id)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return jsonNotFound()
		}
		return jsonInternalServerError(err.Error())
	}

	if err := owns(user, c.UserID.String()); err != nil {
		return jsonForbidden("user '%s' get contract %s: forbidden", user.Username, id)
	}

	return jsonOK(contractToModel(c), "user '%s' got contract '%s'", user.Username, c.Name)
}

// PUT /contracts/{id}: replace name/source of an existing contract.
func (tqs TunaQuestServer) epUpdateContract(req *http.Request) EndpointResult {
	id := requireIDParam(req)
	user := req.Context().Value(AuthUser).(dao.User)

	existing, err := tqs.db.Contracts().GetByID(req.Context(), id)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return jsonNotFound()
		}
		return jsonInternalServerError(err.Error())
	}
	if err := owns(user, existing.UserID.String()); err != nil {
		return jsonForbidden("user '%s' update contract %s: forbidden", user.Username, id)
	}

	var updateReq ContractUpdateRequest
	if err := parseJSON(req, &updateReq); err != nil {
		return jsonBadRequest(err.Error(), err.Error())
	}
	if updateReq.Name == "" {
		return jsonBadRequest("name: property is empty or missing from request", "empty name")
	}
	if updateReq.Source == "" {
		return jsonBadRequest("source: property is empty or missing from request", "empty source")
	}
	if _, err := parseContractSource(updateReq.Source); err != nil {
		return jsonBadRequest("source: "+err.Error(), "source does not parse: %s", err.Error())
	}

	existing.Name = updateReq.Name
	existing.Source = updateReq.Source

	updated, err := tqs.db.Contracts().Update(req.Context(), id, existing)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return jsonNotFound()
		}
		return jsonInternalServerError(err.Error())
	}

	return jsonOK(contractToModel(updated), "user '%s' updated contract '%s'", user.Username, updated.Name)
}

// DELETE /contracts/{id}
func (tqs TunaQuestServer) epDeleteContract(req *http.Request) EndpointResult {
	id := requireIDParam(req)
	user := req.Context().Value(AuthUser).(dao.User)

	existing, err := tqs.db.Contracts().GetByID(req.Context(), id)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return jsonNotFound()
		}
		return jsonInternalServerError(err.Error())
	}
	if err := owns(user, existing.UserID.String()); err != nil {
		return jsonForbidden("user '%s' delete contract %s: forbidden", user.Username, id)
	}

	if _, err := tqs.db.Contracts().Delete(req.Context(), id); err != nil {
		if !errors.Is(err, dao.ErrNotFound) {
			return jsonInternalServerError("could not delete contract: " + err.Error())
		}
	}

	return jsonNoContent("user '%s' deleted contract '%s'", user.Username, existing.Name)
}
