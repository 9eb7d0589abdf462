package http

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/mrlokans/cancionero/internal/logging"
	"github.com/mrlokans/cancionero/internal/services"
)

const (
	previewWriteWait  = 10 * time.Second
	previewPongWait   = 60 * time.Second
	previewPingPeriod = (previewPongWait * 9) / 10
	previewMaxMessage = 4096
)

// PreviewRequest is a message from a preview client. Target, when set,
// wins over Shift.
type PreviewRequest struct {
	Shift  int    `json:"shift"`
	Target string `json:"target,omitempty"`
}

// PreviewMessage is sent back for every request.
type PreviewMessage struct {
	Type  string             `json:"type"` // "song" or "error"
	Song  *services.SongView `json:"song,omitempty"`
	Error string             `json:"error,omitempty"`
}

// PreviewController streams a song re-transposed on every client message
// over a websocket.
type PreviewController struct {
	songs         SongViewer
	upgrader      websocket.Upgrader
	defaultLocale string
	log           zerolog.Logger
}

func NewPreviewController(songs SongViewer, defaultLocale string) *PreviewController {
	if defaultLocale == "" {
		defaultLocale = "es"
	}
	return &PreviewController{
		songs: songs,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		defaultLocale: defaultLocale,
		log:           logging.GetLogger("preview"),
	}
}

// Serve handles GET /ws/songs/:key
// The song is sent untransposed on connect. Each PreviewRequest gets a
// PreviewMessage in return.
func (pc *PreviewController) Serve(c *gin.Context) {
	key := c.Param("key")
	locale := c.DefaultQuery("locale", pc.defaultLocale)

	// Fail before the upgrade so unknown songs get a plain 404.
	first, err := pc.songs.View(key, locale, 0)
	if err != nil {
		respondDomainError(c, err, "preview song "+key)
		return
	}

	conn, err := pc.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the error response.
		pc.log.Warn().Err(err).Msg("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	conn.SetReadLimit(previewMaxMessage)
	_ = conn.SetReadDeadline(time.Now().Add(previewPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(previewPongWait))
	})

	pc.log.Debug().Str("key", key).Str("locale", locale).Msg("Preview client connected")

	requests := make(chan PreviewRequest)
	done := make(chan struct{})
	defer close(done)
	go pc.readLoop(conn, requests, done)

	ticker := time.NewTicker(previewPingPeriod)
	defer ticker.Stop()

	if err := pc.write(conn, PreviewMessage{Type: "song", Song: &first}); err != nil {
		return
	}

	for {
		select {
		case req, ok := <-requests:
			if !ok {
				pc.log.Debug().Str("key", key).Msg("Preview client disconnected")
				return
			}
			if err := pc.write(conn, pc.respond(key, locale, req)); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(previewWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.Request.Context().Done():
			return
		}
	}
}

func (pc *PreviewController) respond(key, locale string, req PreviewRequest) PreviewMessage {
	shift := req.Shift
	if req.Target != "" {
		var err error
		shift, err = pc.songs.ShiftTo(key, locale, req.Target)
		if err != nil {
			return PreviewMessage{Type: "error", Error: err.Error()}
		}
	}
	view, err := pc.songs.View(key, locale, shift)
	if err != nil {
		return PreviewMessage{Type: "error", Error: err.Error()}
	}
	return PreviewMessage{Type: "song", Song: &view}
}

// readLoop decodes client messages until the connection closes or done is
// closed. Messages that are not valid JSON are skipped.
func (pc *PreviewController) readLoop(conn *websocket.Conn, out chan<- PreviewRequest, done <-chan struct{}) {
	defer close(out)
	for {
		var req PreviewRequest
		if err := conn.ReadJSON(&req); err != nil {
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
				pc.log.Debug().Err(err).Msg("Malformed preview request")
				continue
			}
			return
		}
		select {
		case out <- req:
		case <-done:
			return
		}
	}
}

func (pc *PreviewController) write(conn *websocket.Conn, msg PreviewMessage) error {
	_ = conn.SetWriteDeadline(time.Now().Add(previewWriteWait))
	if err := conn.WriteJSON(msg); err != nil {
		pc.log.Debug().Err(err).Msg("Preview write failed")
		return err
	}
	return nil
}
