package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/peterkuimelis/warband/internal/config"
	"github.com/peterkuimelis/warband/internal/game"
	wbnet "github.com/peterkuimelis/warband/internal/net"
)

// CardInfo is the JSON representation of a card for the /api/cards endpoint.
type CardInfo struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Faction     string `json:"faction"`
	Kind        string `json:"kind"`
	Cost        int    `json:"cost"`
	Attack      int    `json:"attack,omitempty"`
	Health      int    `json:"health,omitempty"`
	OnPlay      string `json:"onPlay,omitempty"`
	Death       string `json:"death,omitempty"`
}

// Server is the warband web server: card and deck API plus a websocket
// bridge to a TCP game server.
type Server struct {
	files     config.FilesConfig
	staticDir string
	zl        *zap.Logger
	mux       *http.ServeMux
	loads     singleflight.Group
}

// Options configures a Server. Empty file paths use the built-in library and
// deck; an empty StaticDir serves no UI files.
type Options struct {
	Files     config.FilesConfig
	StaticDir string
	Logger    *zap.Logger
}

// NewServer creates a new web server.
func NewServer(opts Options) *Server {
	zl := opts.Logger
	if zl == nil {
		zl = zap.NewNop()
	}
	s := &Server{
		files:     opts.Files,
		staticDir: opts.StaticDir,
		zl:        zl.Named("web"),
		mux:       http.NewServeMux(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	if s.staticDir != "" {
		s.mux.Handle("GET /", http.FileServer(http.Dir(s.staticDir)))
	}

	// API endpoints
	s.mux.HandleFunc("GET /api/cards", s.handleCards)
	s.mux.HandleFunc("GET /api/decks", s.handleDecks)

	// WebSocket proxy
	s.mux.HandleFunc("GET /ws", s.handleWebSocket)
}

// Handler exposes the routes.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// collection reads the card and deck files. Files are re-read on every call
// so edits show up without a restart; concurrent requests share one read.
func (s *Server) collection() (*game.Collection, error) {
	v, err, _ := s.loads.Do("collection", func() (any, error) {
		return s.files.Collection()
	})
	if err != nil {
		return nil, err
	}
	return v.(*game.Collection), nil
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleCards(w http.ResponseWriter, r *http.Request) {
	coll, err := s.collection()
	if err != nil {
		s.zl.Warn("load collection", zap.Error(err))
		http.Error(w, "could not load cards", http.StatusInternalServerError)
		return
	}
	cards := make([]CardInfo, 0, coll.Library.Len())
	for _, c := range coll.Library.Cards() {
		cards = append(cards, CardInfo{
			Name:        c.Name,
			Description: c.Description,
			Faction:     c.Faction.String(),
			Kind:        c.Kind.String(),
			Cost:        c.Cost,
			Attack:      c.Attack,
			Health:      c.Health,
			OnPlay:      c.OnPlay.String(),
			Death:       c.Death.String(),
		})
	}
	writeJSON(w, cards)
}

func (s *Server) handleDecks(w http.ResponseWriter, r *http.Request) {
	coll, err := s.collection()
	if err != nil {
		s.zl.Warn("load collection", zap.Error(err))
		http.Error(w, "could not load decks", http.StatusInternalServerError)
		return
	}
	decks := make([]DeckInfo, 0, len(coll.Decks))
	for i, d := range coll.Decks {
		decks = append(decks, summarizeDeck(i+1, d))
	}
	writeJSON(w, decks)
}

// connectMessage is the first frame a browser sends on /ws.
type connectMessage struct {
	Type       string `json:"type"`
	Addr       string `json:"addr"`
	DeckNumber int    `json:"deck_number"`
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	wsConn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // Allow connections from any origin
	})
	if err != nil {
		s.zl.Debug("websocket accept", zap.Error(err))
		return
	}
	defer wsConn.CloseNow()

	ctx := r.Context()

	_, connectData, err := wsConn.Read(ctx)
	if err != nil {
		s.zl.Debug("websocket read connect", zap.Error(err))
		return
	}
	var connect connectMessage
	if err := json.Unmarshal(connectData, &connect); err != nil || connect.Type != "connect" {
		wsConn.Close(websocket.StatusPolicyViolation, "expected connect message")
		return
	}

	dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	var d net.Dialer
	tcpConn, err := d.DialContext(dialCtx, "tcp", connect.Addr)
	cancel()
	if err != nil {
		errMsg, _ := json.Marshal(map[string]string{
			"type":   "error",
			"result": fmt.Sprintf("Could not connect to game server at %s: %v", connect.Addr, err),
		})
		_ = wsConn.Write(ctx, websocket.MessageText, errMsg)
		wsConn.Close(websocket.StatusNormalClosure, "connection failed")
		return
	}
	defer tcpConn.Close()
	s.zl.Info("proxying", zap.String("addr", connect.Addr), zap.Int("deck", connect.DeckNumber))

	if err := json.NewEncoder(tcpConn).Encode(wbnet.ClientMessage{Type: wbnet.MsgJoin, DeckNumber: connect.DeckNumber}); err != nil {
		s.zl.Debug("tcp write join", zap.Error(err))
		return
	}

	done := make(chan struct{})

	// TCP → WebSocket (server messages to browser)
	go func() {
		defer close(done)
		dec := json.NewDecoder(tcpConn)
		for {
			var msg json.RawMessage
			if err := dec.Decode(&msg); err != nil {
				if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
					s.zl.Debug("tcp read", zap.Error(err))
				}
				return
			}
			if err := wsConn.Write(ctx, websocket.MessageText, msg); err != nil {
				s.zl.Debug("websocket write", zap.Error(err))
				return
			}
		}
	}()

	// WebSocket → TCP (browser responses to server)
	go func() {
		for {
			_, data, err := wsConn.Read(ctx)
			if err != nil {
				tcpConn.Close()
				return
			}
			data = append(data, '\n')
			if _, err := tcpConn.Write(data); err != nil {
				s.zl.Debug("tcp write", zap.Error(err))
				return
			}
		}
	}()

	<-done
	wsConn.Close(websocket.StatusNormalClosure, "game ended")
}

// ListenAndServe starts the HTTP server and shuts it down when ctx ends.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
