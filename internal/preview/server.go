// Package preview serves live frames, diagnostics and a control channel over
// websockets, plus a JSON health endpoint.
package preview

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	diag "github.com/coreman2200/arcaluminis-ssgi/internal/diagnostics"
	framedrv "github.com/coreman2200/arcaluminis-ssgi/internal/driver/preview"
	"github.com/coreman2200/arcaluminis-ssgi/internal/temporal"
)

const writeWait = 200 * time.Millisecond

// Status is the snapshot reported by /health.
type Status struct {
	FrameID uint64
	Source  string
	Width   int
	Height  int
	Stats   temporal.Stats
}

// Controller is the part of the application the control channel may drive.
type Controller interface {
	ResetHistory()
	SetParam(name string, v float64) error
	Status() Status
}

// Command is one control message.
type Command struct {
	Cmd   string  `json:"cmd"` // "reset" | "exposure" | "pan" | "param"
	Name  string  `json:"name,omitempty"`
	Value float64 `json:"value,omitempty"`
	X     float64 `json:"x,omitempty"`
	Y     float64 `json:"y,omitempty"`
}

type reply struct {
	OK    bool   `json:"ok"`
	Cmd   string `json:"cmd"`
	Error string `json:"error,omitempty"`
}

var errUnknownCommand = errors.New("unknown command")

type Server struct {
	mu          sync.Mutex
	ctl         Controller
	startTime   time.Time
	frameID     uint64
	clients     map[*websocket.Conn]bool
	diagClients map[*websocket.Conn]bool
	upgrader    websocket.Upgrader
}

func NewServer(ctl Controller) *Server {
	return &Server{
		ctl:         ctl,
		startTime:   time.Now(),
		clients:     map[*websocket.Conn]bool{},
		diagClients: map[*websocket.Conn]bool{},
		upgrader:    websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
	}
}

// Routes returns the HTTP routes with permissive CORS.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.HandleFramesWS)
	mux.HandleFunc("/diag", s.HandleDiagWS)
	mux.HandleFunc("/control", s.HandleControlWS)
	mux.HandleFunc("/health", s.HandleHealth)
	return withCORS(mux)
}

// Clients returns the number of connected frame and diagnostics subscribers.
func (s *Server) Clients() (frames, diags int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients), len(s.diagClients)
}

func (s *Server) HandleFramesWS(w http.ResponseWriter, r *http.Request) {
	s.subscribe(w, r, s.clients)
}

func (s *Server) HandleDiagWS(w http.ResponseWriter, r *http.Request) {
	s.subscribe(w, r, s.diagClients)
}

// subscribe upgrades the request and keeps the connection registered until
// the peer goes away.
func (s *Server) subscribe(w http.ResponseWriter, r *http.Request, set map[*websocket.Conn]bool) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.mu.Lock()
	set[conn] = true
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			delete(set, conn)
			s.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *Server) HandleControlWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var cmd Command
		rep := reply{OK: true}
		if err := json.Unmarshal(data, &cmd); err != nil {
			rep = reply{Error: err.Error()}
		} else if err := s.Apply(cmd); err != nil {
			rep = reply{Cmd: cmd.Cmd, Error: err.Error()}
			s.PushDiag(diag.Diagnostic{
				Severity: diag.Warn, Code: diag.CodeControlUnsupported, Summary: "Control command rejected",
				Detail: err.Error(), Evidence: map[string]any{"cmd": cmd.Cmd},
			})
		} else {
			rep.Cmd = cmd.Cmd
		}
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(rep); err != nil {
			return
		}
	}
}

// Apply executes one control command against the controller.
func (s *Server) Apply(cmd Command) error {
	switch cmd.Cmd {
	case "reset":
		s.ctl.ResetHistory()
		log.Info().Msg("history reset from control channel")
		return nil
	case "exposure":
		return s.ctl.SetParam("ExposureEV", cmd.Value)
	case "pan":
		if err := s.ctl.SetParam("PanX", cmd.X); err != nil {
			return err
		}
		return s.ctl.SetParam("PanY", cmd.Y)
	case "param":
		return s.ctl.SetParam(cmd.Name, cmd.Value)
	default:
		return fmt.Errorf("%w %q", errUnknownCommand, cmd.Cmd)
	}
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	st := s.ctl.Status()
	resp := map[string]any{
		"frame_id":     st.FrameID,
		"uptime_s":     time.Since(s.startTime).Seconds(),
		"source":       st.Source,
		"w":            st.Width,
		"h":            st.Height,
		"accumulated":  st.Stats.Accumulated,
		"rejected":     st.Stats.Rejected(),
		"reject_ratio": st.Stats.RejectRatio(),
		"mean_history": st.Stats.MeanHistory(),
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// EmitFrame broadcasts a preview frame to every /ws client.
func (s *Server) EmitFrame(f framedrv.Frame) {
	type frame struct {
		T       int64  `json:"t"`
		FrameID uint64 `json:"frame_id"`
		framedrv.Frame
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frameID++
	b, err := json.Marshal(frame{T: time.Now().UnixNano(), FrameID: s.frameID, Frame: f})
	if err != nil {
		log.Error().Err(err).Msg("encode frame")
		return
	}
	s.broadcast(s.clients, b)
}

// PushDiag sends a diagnostic to every /diag client.
func (s *Server) PushDiag(d diag.Diagnostic) {
	b, err := json.Marshal(d)
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.broadcast(s.diagClients, b)
}

func (s *Server) broadcast(set map[*websocket.Conn]bool, b []byte) {
	for c := range set {
		c.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.WriteMessage(websocket.TextMessage, b); err != nil {
			log.Debug().Err(err).Msg("websocket write")
		}
	}
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(200)
			return
		}
		h.ServeHTTP(w, r)
	})
}
