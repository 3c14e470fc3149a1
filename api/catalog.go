package api

import (
	"net/http"

	"picks-sizing/internal/catalog"
	apitypes "picks-sizing/pkg/api"
)

// =============================================================================
// PROFILES (/api/calculate/tables)
// =============================================================================

func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	var (
		profiles []catalog.UnitResourceProfile
		err      error
	)
	if s.admin != nil {
		profiles, err = s.admin.ListProfiles(r.Context())
	} else {
		profiles, err = s.sizing.Catalog().Profiles(r.Context(), catalog.ProductTypes())
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if profiles == nil {
		profiles = []catalog.UnitResourceProfile{}
	}
	s.jsonResponse(w, http.StatusOK, profiles)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := s.admin.GetProfile(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, p)
}

func (s *Server) handleCreateProfile(w http.ResponseWriter, r *http.Request) {
	var p catalog.UnitResourceProfile
	if err := s.decodeBody(w, r, &p); err != nil {
		s.writeError(w, r, err)
		return
	}
	created, err := s.admin.CreateProfile(r.Context(), p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var p catalog.UnitResourceProfile
	if err := s.decodeBody(w, r, &p); err != nil {
		s.writeError(w, r, err)
		return
	}
	updated, err := s.admin.UpdateProfile(r.Context(), id, p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.admin.DeleteProfile(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, apitypes.MessageResponse{Message: "Record deleted successfully"})
}

// =============================================================================
// MODELS (/api/calculate/models)
// =============================================================================

func (s *Server) handleListModels(w http.ResponseWriter, r *http.Request) {
	var (
		models []catalog.HardwareModel
		err    error
	)
	if s.admin != nil {
		models, err = s.admin.ListModels(r.Context())
	} else {
		models, err = s.sizing.Catalog().Models(r.Context())
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if models == nil {
		models = []catalog.HardwareModel{}
	}
	s.jsonResponse(w, http.StatusOK, models)
}

func (s *Server) handleGetModel(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	hm, err := s.admin.GetModel(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, hm)
}

func (s *Server) handleCreateModel(w http.ResponseWriter, r *http.Request) {
	var hm catalog.HardwareModel
	if err := s.decodeBody(w, r, &hm); err != nil {
		s.writeError(w, r, err)
		return
	}
	created, err := s.admin.CreateModel(r.Context(), hm)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateModel(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var hm catalog.HardwareModel
	if err := s.decodeBody(w, r, &hm); err != nil {
		s.writeError(w, r, err)
		return
	}
	updated, err := s.admin.UpdateModel(r.Context(), id, hm)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteModel(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.admin.DeleteModel(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, apitypes.MessageResponse{Message: "Model deleted successfully"})
}

// =============================================================================
// SEGMENTS (/api/hardware, /api/application)
// =============================================================================

func (s *Server) handleListSegments(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		segments, err := s.segments.ListSegments(r.Context(), kind)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.jsonResponse(w, http.StatusOK, segments)
	}
}

func (s *Server) handleCreateSegment(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var seg apitypes.Segment
		if err := s.decodeBody(w, r, &seg); err != nil {
			s.writeError(w, r, err)
			return
		}
		seg.Kind = kind
		created, err := s.segments.CreateSegment(r.Context(), seg)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.jsonResponse(w, http.StatusCreated, created)
	}
}

func (s *Server) handleUpdateSegment(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		var seg apitypes.Segment
		if err := s.decodeBody(w, r, &seg); err != nil {
			s.writeError(w, r, err)
			return
		}
		seg.Kind = kind
		updated, err := s.segments.UpdateSegment(r.Context(), id, seg)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.jsonResponse(w, http.StatusOK, updated)
	}
}

func (s *Server) handleDeleteSegment(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if err := s.segments.DeleteSegment(r.Context(), kind, id); err != nil {
			s.writeError(w, r, err)
			return
		}
		s.jsonResponse(w, http.StatusOK, apitypes.MessageResponse{Message: kind + " deleted successfully"})
	}
}

// =============================================================================
// PARAMETERS (/api/picksparameters)
// =============================================================================

func (s *Server) handleListParameters(w http.ResponseWriter, r *http.Request) {
	params, err := s.reference.ListParameters(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, params)
}

func (s *Server) handleGetParameter(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := s.reference.GetParameter(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, p)
}

func (s *Server) handleCreateParameter(w http.ResponseWriter, r *http.Request) {
	var p apitypes.Parameter
	if err := s.decodeBody(w, r, &p); err != nil {
		s.writeError(w, r, err)
		return
	}
	created, err := s.reference.CreateParameter(r.Context(), p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateParameter(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var p apitypes.Parameter
	if err := s.decodeBody(w, r, &p); err != nil {
		s.writeError(w, r, err)
		return
	}
	updated, err := s.reference.UpdateParameter(r.Context(), id, p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, updated)
}

func (s *Server) handleBulkUpdateParameters(w http.ResponseWriter, r *http.Request) {
	var u apitypes.ParameterBulkUpdate
	if err := s.decodeBody(w, r, &u); err != nil {
		s.writeError(w, r, err)
		return
	}
	n, err := s.reference.UpdateParameterBackends(r.Context(), u)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.log.Debug().Int64("updated", n).Int("requested", len(u.FormData)).Msg("parameter backends updated")
	s.jsonResponse(w, http.StatusOK, apitypes.MessageResponse{Message: "Parameters updated successfully!"})
}

// =============================================================================
// CHANNELS (/api/channels)
// =============================================================================

func (s *Server) handleListChannels(w http.ResponseWriter, r *http.Request) {
	channels, err := s.reference.ListChannels(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, apitypes.ChannelList{Channels: channels})
}

func (s *Server) handleCreateChannel(w http.ResponseWriter, r *http.Request) {
	var ch apitypes.Channel
	if err := s.decodeBody(w, r, &ch); err != nil {
		s.writeError(w, r, err)
		return
	}
	created, err := s.reference.CreateChannel(r.Context(), ch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, apitypes.ChannelResponse{Message: "Channel created successfully", Channel: created})
}

func (s *Server) handleUpdateChannel(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var ch apitypes.Channel
	if err := s.decodeBody(w, r, &ch); err != nil {
		s.writeError(w, r, err)
		return
	}
	updated, err := s.reference.UpdateChannel(r.Context(), id, ch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, apitypes.ChannelResponse{Message: "Channel updated successfully", Channel: updated})
}
