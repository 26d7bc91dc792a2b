package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/notelink/slack-bridge/internal/resolve"
	"github.com/notelink/slack-bridge/internal/send"
	"github.com/notelink/slack-bridge/pkg/logger"
)

// sendRequest is the POST /v1/send payload.
type sendRequest struct {
	Tag      string `json:"tag"`
	BlockUID string `json:"block_uid"`
	AsUser   bool   `json:"as_user"`
}

// sendResponse is returned on success.
type sendResponse struct {
	ChannelID string `json:"channel_id"`
	Timestamp string `json:"timestamp"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) sendHandler(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.Tag == "" || req.BlockUID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "tag and block_uid are required"})
		return
	}

	res, err := s.sender.Send(r.Context(), send.Request{
		BlockUID: req.BlockUID,
		Tag:      req.Tag,
		AsUser:   req.AsUser,
	})
	if err != nil {
		status, msg := sendErrorStatus(err)
		if status >= http.StatusInternalServerError {
			s.log.WithCorrelationID(logger.CorrelationIDFromContext(r.Context())).
				Error("send failed", logger.ErrorField(err))
		}
		writeJSON(w, status, errorResponse{Error: msg})
		return
	}

	writeJSON(w, http.StatusOK, sendResponse{ChannelID: res.ChannelID, Timestamp: res.Timestamp})
}

// sendErrorStatus maps pipeline failures to HTTP statuses and the messages
// shown to the user in the popover.
func sendErrorStatus(err error) (int, string) {
	var notFound *resolve.NotFoundError
	switch {
	case errors.As(err, &notFound):
		msg := fmt.Sprintf("Couldn't find Slack user or channel for %s.", notFound.Tag)
		if notFound.Alias != "" {
			msg = fmt.Sprintf("Couldn't find Slack user or channel for %s (alias %s).", notFound.Tag, notFound.Alias)
		}
		return http.StatusNotFound, msg
	case errors.Is(err, send.ErrLoginRequired):
		return http.StatusUnauthorized, "Not logged in to Slack. Configure a valid token and try again."
	case errors.Is(err, send.ErrSendInProgress):
		return http.StatusConflict, "A send for this block and tag is already in progress."
	default:
		return http.StatusBadGateway, err.Error()
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
