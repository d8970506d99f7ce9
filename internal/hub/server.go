package hub

import (
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Lcharvol/MidOrFeed-sub001/internal/lcu"
	"github.com/Lcharvol/MidOrFeed-sub001/internal/overlay"
	"github.com/Lcharvol/MidOrFeed-sub001/internal/settings"
	"github.com/Lcharvol/MidOrFeed-sub001/internal/webapi"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

// Server is the consumer-facing control surface: one WebSocket endpoint for
// the event broadcast plus request/response routes for explicit user
// actions. It binds to loopback; the UI windows are the only clients.
type Server struct {
	monitor     *lcu.Monitor
	rest        *lcu.Client
	overlay     *overlay.Controller
	settings    *settings.Store
	webAPI      *webapi.Client
	broadcaster *Broadcaster
}

func NewServer(monitor *lcu.Monitor, rest *lcu.Client, ctrl *overlay.Controller, store *settings.Store, remote *webapi.Client, broadcaster *Broadcaster) *Server {
	return &Server{
		monitor:     monitor,
		rest:        rest,
		overlay:     ctrl,
		settings:    store,
		webAPI:      remote,
		broadcaster: broadcaster,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealthz)
	r.Get("/ws", s.handleWS)

	r.Route("/api", func(r chi.Router) {
		r.Post("/lcu/reconnect", s.handleReconnect)
		r.Get("/lcu/status", s.handleStatus)
		r.Get("/lcu/summoner", s.handleSummoner)
		r.Get("/lcu/champselect", s.handleChampSelect)
		r.Get("/lcu/lobby", s.handleLobby)
		r.Post("/overlay/toggle", s.handleOverlayToggle)
		r.Get("/settings", s.handleSettingsGet)
		r.Patch("/settings", s.handleSettingsPatch)
		r.Post("/runes/import", s.handleRunesImport)
		r.Get("/remote/champions/{championID}/leadership", s.handleRemoteChampion)
		r.Get("/remote/builds", s.handleRemoteBuild)
	})

	return r
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		CheckOrigin: checkLocalOrigin,
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("hub: ws upgrade error: %v", err)
		return
	}

	c := s.broadcaster.AddClient(conn)

	go func() {
		defer s.broadcaster.RemoveClient(c)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *Server) handleReconnect(w http.ResponseWriter, r *http.Request) {
	s.monitor.ForcePoll()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"status": s.monitor.Status()})
}

// handleSummoner serves the logged-in summoner, or null when the lookup
// fails. UI windows poll this on status changes.
func (s *Server) handleSummoner(w http.ResponseWriter, r *http.Request) {
	summoner := s.rest.CurrentSummoner(r.Context())
	if summoner == nil {
		writeRaw(w, nil)
		return
	}
	writeJSON(w, summoner)
}

func (s *Server) handleChampSelect(w http.ResponseWriter, r *http.Request) {
	writeRaw(w, s.rest.ChampSelectSession(r.Context()))
}

func (s *Server) handleLobby(w http.ResponseWriter, r *http.Request) {
	writeRaw(w, s.rest.Lobby(r.Context()))
}

func (s *Server) handleOverlayToggle(w http.ResponseWriter, r *http.Request) {
	visible := s.overlay.Toggle()
	writeJSON(w, overlay.Visibility{Visible: visible})
}

func (s *Server) handleSettingsGet(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.settings.Get())
}

func (s *Server) handleSettingsPatch(w http.ResponseWriter, r *http.Request) {
	var patch map[string]any
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	// Explicit user action: write failures propagate to the caller.
	if err := s.settings.Update(patch); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, s.settings.Get())
}

func (s *Server) handleRunesImport(w http.ResponseWriter, r *http.Request) {
	var page lcu.RunePage
	if err := json.NewDecoder(r.Body).Decode(&page); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	err := s.rest.CreateRunePage(r.Context(), page)
	if err != nil {
		log.Printf("hub: rune import failed: %v", err)
	}
	writeJSON(w, map[string]bool{"success": err == nil})
}

func (s *Server) handleRemoteChampion(w http.ResponseWriter, r *http.Request) {
	championID, err := strconv.Atoi(chi.URLParam(r, "championID"))
	if err != nil {
		http.Error(w, "invalid champion id", http.StatusBadRequest)
		return
	}
	writeRaw(w, s.webAPI.ChampionLeadership(r.Context(), championID))
}

func (s *Server) handleRemoteBuild(w http.ResponseWriter, r *http.Request) {
	championID, err := strconv.Atoi(r.URL.Query().Get("championId"))
	if err != nil {
		http.Error(w, "invalid champion id", http.StatusBadRequest)
		return
	}
	role := r.URL.Query().Get("role")
	writeRaw(w, s.webAPI.Build(r.Context(), championID, role))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// writeRaw renders a pass-through result. A nil result is the literal JSON
// null. Remote failures are a null payload for the caller, never an error
// status.
func writeRaw(w http.ResponseWriter, data json.RawMessage) {
	w.Header().Set("Content-Type", "application/json")
	if data == nil {
		w.Write([]byte("null"))
		return
	}
	w.Write(data)
}

// checkLocalOrigin admits browser windows served from this machine only.
// Non-browser clients (no Origin header) are always admitted.
func checkLocalOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	parsed, err := url.Parse(origin)
	if err != nil {
		return false
	}
	host := parsed.Hostname()
	return host == "localhost" || host == "127.0.0.1" || host == "::1"
}
