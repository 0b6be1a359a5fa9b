package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/zeusync/fleetsim/internal/core/observability/log"
	"github.com/zeusync/fleetsim/internal/core/script"
	"github.com/zeusync/fleetsim/internal/core/storage"
)

type errorResponse struct {
	Error string `json:"error"`
}

// UploadResponse is returned by POST /teams/{id}/code. Error is set when the
// code was stored but could not be installed.
type UploadResponse struct {
	Version *storage.Version `json:"version,omitempty"`
	Team    int              `json:"team"`
	Error   string           `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.runner.Latest())
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	team, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || team < 0 {
		writeError(w, http.StatusBadRequest, ErrInvalidTeam)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.config.MaxCodeSize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, ErrCodeTooLarge)
			return
		}
		writeError(w, http.StatusBadRequest, err)
		return
	}
	code := string(body)
	resp := UploadResponse{Team: team}

	if s.store != nil {
		resp.Version, err = s.store.CreateVersion(r.Context(), storage.CreateVersionParams{
			Code:         code,
			ScenarioName: s.config.Scenario,
			Label:        r.URL.Query().Get("label"),
		})
		if err != nil {
			s.logger.Error("save version failed", log.Int("team", team), log.Error(err))
			writeError(w, http.StatusInternalServerError, err)
			return
		}
	}

	if err = s.runner.UploadCode(r.Context(), team, code); err != nil {
		var install *script.InstallError
		if !errors.As(err, &install) {
			writeError(w, http.StatusServiceUnavailable, err)
			return
		}
		resp.Error = err.Error()
		writeJSON(w, http.StatusUnprocessableEntity, resp)
		return
	}

	s.logger.Info("team code uploaded", log.Int("team", team))
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleVersions(w http.ResponseWriter, r *http.Request) {
	scenario := r.URL.Query().Get("scenario")
	if scenario == "" {
		scenario = s.config.Scenario
	}
	versions, err := s.store.ListVersions(r.Context(), scenario)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if versions == nil {
		versions = []storage.Version{}
	}
	writeJSON(w, http.StatusOK, versions)
}
