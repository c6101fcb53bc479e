package handlers

import (
	"errors"
	"net/http"

	"github.com/hackdayhq/hackathon-system/services"
)

type RelocationHandler struct {
	relocation services.RelocationService
}

func NewRelocationHandler(relocation services.RelocationService) *RelocationHandler {
	return &RelocationHandler{relocation: relocation}
}

type moveInput struct {
	Alias    string `json:"alias"`
	ToTeamID string `json:"to_team_id"`
}

func (h *RelocationHandler) Move(w http.ResponseWriter, r *http.Request) {
	var input moveInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.Alias == "" || input.ToTeamID == "" {
		badRequestResponse(w, r, errors.New("alias and to_team_id are required"))
		return
	}

	if err := h.relocation.Move(r.Context(), input.Alias, input.ToTeamID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"moved": true}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RelocationHandler) Reshuffle(w http.ResponseWriter, r *http.Request) {
	summary, err := h.relocation.BulkReshuffle(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"summary": summary}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
