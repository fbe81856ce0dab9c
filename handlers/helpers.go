package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/nftbrawl/arena-bot/brackets"
	"github.com/nftbrawl/arena-bot/services"
)

type jsonResponse map[string]interface{}

func readJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	const maxBytes = 1 << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		switch {
		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")
		default:
			return fmt.Errorf("invalid JSON body: %w", err)
		}
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrLobbyNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrLobbyExists),
		errors.Is(err, services.ErrDuplicateEntry),
		errors.Is(err, services.ErrLobbyFull),
		errors.Is(err, services.ErrBattleInProgress):
		status = http.StatusConflict
	case errors.Is(err, services.ErrInvalidAsset),
		errors.Is(err, services.ErrMissingWallet),
		errors.Is(err, services.ErrLinkTokenInvalid):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrNotHost):
		status = http.StatusForbidden
	case errors.Is(err, services.ErrAmbiguousConstraint),
		errors.Is(err, brackets.ErrTooFewContestants),
		errors.Is(err, brackets.ErrOddContestants),
		errors.Is(err, brackets.ErrTooManyContestants),
		errors.Is(err, brackets.ErrInvalidTeamSize):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrNoTokens),
		errors.Is(err, services.ErrOnCooldown):
		status = http.StatusTooManyRequests
	}
	writeJSON(w, status, jsonResponse{"error": err.Error()})
}
