package api

import (
	"net/http"

	apitypes "picks-sizing/pkg/api"
	"picks-sizing/pkg/platform"
)

// All configuration routes sit behind platform.RequireUser.

func (s *Server) handleCreateConfiguration(w http.ResponseWriter, r *http.Request) {
	owner, _ := platform.UserFromContext(r.Context())

	var req apitypes.ConfigurationRequest
	if err := s.decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	cfg, err := s.configs.CreateConfiguration(r.Context(), owner, req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, apitypes.ConfigurationResponse{
		Message:       "Configuration saved successfully",
		Configuration: cfg,
		ConfigID:      cfg.ID,
	})
}

func (s *Server) handleListConfigurations(w http.ResponseWriter, r *http.Request) {
	owner, _ := platform.UserFromContext(r.Context())

	configs, err := s.configs.ListConfigurations(r.Context(), owner)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, configs)
}

func (s *Server) handleGetConfiguration(w http.ResponseWriter, r *http.Request) {
	owner, _ := platform.UserFromContext(r.Context())
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	cfg, err := s.configs.GetConfiguration(r.Context(), owner, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, cfg)
}

func (s *Server) handleUpdateConfiguration(w http.ResponseWriter, r *http.Request) {
	owner, _ := platform.UserFromContext(r.Context())
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var req apitypes.ConfigurationRequest
	if err := s.decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	cfg, err := s.configs.UpdateConfiguration(r.Context(), owner, id, req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, apitypes.ConfigurationResponse{
		Message:       "Configuration updated successfully",
		Configuration: cfg,
	})
}

func (s *Server) handleDeleteConfiguration(w http.ResponseWriter, r *http.Request) {
	owner, _ := platform.UserFromContext(r.Context())
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.configs.DeleteConfiguration(r.Context(), owner, id); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, apitypes.MessageResponse{Message: "Configuration deleted successfully"})
}
