package httpinterface

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/Kenbak/zipher/internal/core/application"
	"github.com/Kenbak/zipher/internal/core/domain"
	"github.com/Kenbak/zipher/internal/infrastructure/pubsub"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const (
	maxBodySize  = 4 << 20
	writeTimeout = 10 * time.Second
	pingInterval = 30 * time.Second
)

type handler struct {
	syncSvc    application.SyncService
	autoSyncer *application.AutoSyncer
	session    *application.Session
	pubsub     *pubsub.Service
	upgrader   websocket.Upgrader
}

func (h *handler) sync(w http.ResponseWriter, req *http.Request) {
	if !allowMethod(w, req, http.MethodPost) {
		return
	}

	balance, err := h.autoSyncer.SyncNow(req.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newBalanceResponse(balance))
}

func (h *handler) balance(w http.ResponseWriter, req *http.Request) {
	if !allowMethod(w, req, http.MethodGet) {
		return
	}

	balance, err := h.syncSvc.GetBalance(req.Context(), h.session.Address())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newBalanceResponse(balance))
}

func (h *handler) decrypt(w http.ResponseWriter, req *http.Request) {
	if !allowMethod(w, req, http.MethodPost) {
		return
	}

	var body decryptRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, req.Body, maxBodySize))
	if err := dec.Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{"invalid request body"})
		return
	}

	note, err := h.syncSvc.DecryptTransactionMemo(
		req.Context(), body.RawTx, body.ViewingKey,
	)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, decryptResponse{
		Memo:      note.Memo,
		Amount:    note.Amount,
		AmountZec: note.Amount.String(),
	})
}

func (h *handler) reset(w http.ResponseWriter, req *http.Request) {
	if !allowMethod(w, req, http.MethodPost) {
		return
	}

	if err := h.syncSvc.Reset(req.Context(), h.session.Address()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// syncEvents streams the sync events over a websocket. The optional event
// query param restricts the stream to a single event type.
func (h *handler) syncEvents(w http.ResponseWriter, req *http.Request) {
	topic := req.URL.Query().Get("event")
	if topic == "" {
		topic = pubsub.AnyTopic
	}

	sub, err := h.pubsub.Subscribe(topic, 0)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{err.Error()})
		return
	}

	conn, err := h.upgrader.Upgrade(w, req, nil)
	if err != nil {
		// nolint
		h.pubsub.Unsubscribe(sub.Id())
		log.WithError(err).Debug("http: websocket upgrade failed")
		return
	}

	// The reader goroutine only detects the client going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		// nolint
		h.pubsub.Unsubscribe(sub.Id())
		conn.Close()
	}()

	for {
		select {
		case <-closed:
			return
		case <-ticker.C:
			deadline := time.Now().Add(writeTimeout)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		case event, ok := <-sub.Events():
			if !ok {
				deadline := time.Now().Add(writeTimeout)
				// nolint
				conn.WriteControl(
					websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
					deadline,
				)
				return
			}
			// nolint
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(newEventMessage(event)); err != nil {
				return
			}
		}
	}
}

func allowMethod(w http.ResponseWriter, req *http.Request, method string) bool {
	if req.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	writeJSON(w, http.StatusMethodNotAllowed, errorResponse{"method not allowed"})
	return false
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.WithError(err).Debug("http: failed to write response")
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case application.IsNetworkError(err):
		status = http.StatusBadGateway
	case errors.Is(err, application.ErrSessionLocked):
		status = http.StatusLocked
	case errors.Is(err, domain.ErrNullAddress),
		errors.Is(err, domain.ErrNullViewingKey),
		errors.Is(err, application.ErrNullRawTransaction):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		log.WithError(err).Warn("http: request failed")
	}
	writeJSON(w, status, errorResponse{err.Error()})
}
