package server

import (
	"errors"
	"net/http"
	"strings"
)

// maxContextMessages caps how much conversation history a client may send.
const maxContextMessages = 6

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message        string   `json:"message"`
		RecentMessages []string `json:"recent_messages"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		respondError(w, http.StatusBadRequest, errors.New("message is required"))
		return
	}
	if len(req.RecentMessages) > maxContextMessages {
		req.RecentMessages = req.RecentMessages[len(req.RecentMessages)-maxContextMessages:]
	}

	user := userFrom(r.Context())
	reply, err := s.chat.HandleMessage(r.Context(), user, req.Message, req.RecentMessages)
	if err != nil {
		writeError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"reply": reply})
}
