package handlers

import (
	"net/http"

	"github.com/hackdayhq/hackathon-system/middleware"
	"github.com/hackdayhq/hackathon-system/services"
)

type RegistrationHandler struct {
	registration services.RegistrationService
}

func NewRegistrationHandler(registration services.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{registration: registration}
}

// Register enrolls the caller (idempotently) and returns the participant
// with its assigned team and hacker number.
func (h *RegistrationHandler) Register(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	participant, isNew, err := h.registration.Register(r.Context(), identity)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	status := http.StatusOK
	if isNew {
		status = http.StatusCreated
	}
	if err := writeJSON(w, status, jsonResponse{"participant": participant, "new": isNew}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RegistrationHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	participant, err := h.registration.GetProfile(r.Context(), identity)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"participant": participant}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
