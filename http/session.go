package http

import (
	"fmt"
	"net/http"

	"github.com/fwojciec/parley"
)

type startRequest struct {
	Model string `json:"model"`
}

type startResponse struct {
	ClientID string       `json:"client_id"`
	Model    parley.Model `json:"model"`
}

type messageRequest struct {
	ClientID string `json:"client_id"`
	Message  string `json:"message"`
}

type switchRequest struct {
	ClientID string `json:"client_id"`
	Model    string `json:"model"`
}

// replyResponse answers both /message and /switch-model.
type replyResponse struct {
	Response string       `json:"response"`
	Model    parley.Model `json:"model"`
}

func (s *Server) handlePing(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := decodeJSON(w, r, &req); err != nil {
		Error(w, r, s.logger, err)
		return
	}
	model, err := parley.ParseModel(req.Model)
	if err != nil {
		Error(w, r, s.logger, err)
		return
	}
	sess, err := s.service.StartSession(r.Context(), model)
	if err != nil {
		Error(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, startResponse{ClientID: sess.ID, Model: sess.Model})
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		Error(w, r, s.logger, err)
		return
	}
	reply, err := s.service.SendMessage(r.Context(), req.ClientID, req.Message)
	if err != nil {
		Error(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, replyResponse{Response: reply.Text, Model: reply.Model})
}

func (s *Server) handleSwitchModel(w http.ResponseWriter, r *http.Request) {
	var req switchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		Error(w, r, s.logger, err)
		return
	}
	model, err := parley.ParseModel(req.Model)
	if err != nil {
		Error(w, r, s.logger, err)
		return
	}
	model, err = s.service.SwitchProvider(r.Context(), req.ClientID, model)
	if err != nil {
		Error(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, replyResponse{
		Response: fmt.Sprintf("Switched to %s model", model),
		Model:    model,
	})
}

func (s *Server) handleEnd(w http.ResponseWriter, r *http.Request) {
	if err := s.service.EndSession(r.Context(), r.PathValue("client_id")); err != nil {
		Error(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"detail": "Conversation ended"})
}
