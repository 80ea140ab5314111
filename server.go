package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/assurlab/sydia-agent/agent/contract"
	dispatchx "github.com/assurlab/sydia-agent/agent/dispatch"
	notifyx "github.com/assurlab/sydia-agent/pkg/notify"
)

const maxUploadBytes = 16 << 20

type ServerConfig struct {
	Addr string `split_words:"true" default:":8000"`
}

// Server is the thin HTTP surface over the dispatcher. Everything it does is
// translation; conversation and operation semantics live below it.
type Server struct {
	dispatcher *dispatchx.Dispatcher
	gw         contractx.Gateway
	bus        *notifyx.Bus
}

func newServer(dispatcher *dispatchx.Dispatcher, gw contractx.Gateway, bus *notifyx.Bus) *Server {
	return &Server{
		dispatcher: dispatcher,
		gw:         gw,
		bus:        bus,
	}
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("GET /api/sinistres", s.handleListSinistres)
	mux.HandleFunc("POST /api/upload", s.handleUpload)
	mux.HandleFunc("GET /events", s.handleEvents)
	return mux
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type chatResponse struct {
	Response string `json:"response"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "corps JSON invalide")
		return
	}

	reply, err := s.dispatcher.HandleMessage(r.Context(), req.SessionID, req.Message)
	if err != nil {
		log.Error().Err(err).Str("session_id", req.SessionID).Msg("chat cycle failed")
		writeError(w, http.StatusInternalServerError, "erreur interne de l'assistant")
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{Response: reply})
}

func (s *Server) handleListSinistres(w http.ResponseWriter, r *http.Request) {
	res := s.gw.ListSinistres(r.Context())
	if !res.Success {
		writeError(w, http.StatusBadGateway, res.Err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sinistres": res.List})
}

// handleUpload receives a browser file and forwards it as a claim document.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "formulaire multipart invalide")
		return
	}

	idSinistre := parseInt64(r.FormValue("id_sinistre"))
	if idSinistre == 0 {
		writeError(w, http.StatusBadRequest, "id_sinistre est requis")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "fichier manquant")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "lecture du fichier impossible")
		return
	}

	res := s.gw.AddDocument(r.Context(), contractx.AddDocumentInput{
		IDSinistre:  idSinistre,
		Filename:    header.Filename,
		Commentaire: r.FormValue("commentaire"),
		Content:     content,
	})
	if !res.Success {
		writeError(w, http.StatusBadGateway, res.Err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"id_ged":   res.Data["id_ged"],
		"filename": header.Filename,
	})
}

// handleEvents streams refresh hints to the browser over SSE. Events that
// fire while nobody is connected are dropped; clients re-poll state on
// reconnect instead of expecting replay.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming non supporté")
		return
	}

	msgs, err := s.bus.Subscribe(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "abonnement aux notifications impossible")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher.Flush()

	heartbeat := time.NewTicker(25 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case msg, open := <-msgs:
			if !open {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg.Payload)
			flusher.Flush()
			msg.Ack()
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func parseInt64(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
