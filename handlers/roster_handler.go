package handlers

import (
	"net/http"

	"github.com/hackdayhq/hackathon-system/services"
)

type RosterHandler struct {
	roster services.RosterService
}

func NewRosterHandler(roster services.RosterService) *RosterHandler {
	return &RosterHandler{roster: roster}
}

func (h *RosterHandler) Overview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.roster.Overview(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"roster": overview}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
