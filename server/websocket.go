package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/xhad/ragmem/internal/logging"
	"github.com/xhad/ragmem/internal/models"
	appErr "github.com/xhad/ragmem/internal/pkg/errors"
)

// Message is the frame exchanged on /ws. Clients send "ask", "upload" or
// "upload-url"; the server answers with "status", "sources", "response" or
// "error".
type Message struct {
	Type    string      `json:"type"`
	Content string      `json:"content"`
	Data    interface{} `json:"data,omitempty"`
}

type source struct {
	Index int     `json:"index"`
	Text  string  `json:"text"`
	Score float32 `json:"score"`
}

// wsConn serialises writes; gorilla connections allow one concurrent writer.
type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *Server) upgrader() websocket.Upgrader {
	allowed, allowAll := originSet(s.config.CORSOrigins)
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if allowAll || origin == "" {
				return true
			}
			_, ok := allowed[origin]
			return ok
		},
	}
}

func (s *Server) handleWebSocket(c *gin.Context) {
	logger := logging.FromContext(c.Request.Context())

	upgrader := s.upgrader()
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	ws := &wsConn{conn: conn}
	defer conn.Close()

	// In-flight messages are cancelled once the client goes away.
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("error reading message", zap.Error(err))
			}
			cancel()
			return
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			s.handleMessage(ctx, ws, msg)
		}()
	}
}

func (s *Server) handleMessage(ctx context.Context, ws *wsConn, msg Message) {
	switch msg.Type {
	case "ask":
		reply, err := s.service.Ask(ctx, msg.Content)
		if err != nil {
			s.sendError(ctx, ws, err)
			return
		}
		sources := make([]source, len(reply.Sources))
		for i, sc := range reply.Sources {
			sources[i] = source{Index: sc.Chunk.Index, Text: sc.Chunk.Text, Score: sc.Score}
		}
		s.send(ctx, ws, Message{Type: "sources", Content: fmt.Sprintf("%d chunks", len(sources)), Data: sources})
		s.send(ctx, ws, Message{Type: "response", Content: reply.Answer})

	case "upload":
		s.send(ctx, ws, Message{Type: "status", Content: "Processing text"})
		result, err := s.service.StoreText(ctx, msg.Content)
		s.sendUploadResult(ctx, ws, result, 0, err)

	case "upload-url":
		if s.fetcher == nil {
			s.send(ctx, ws, Message{Type: "error", Content: "url ingestion is disabled"})
			return
		}
		s.send(ctx, ws, Message{Type: "status", Content: fmt.Sprintf("Processing URL: %s", msg.Content)})
		pages, err := s.fetcher.Scrape(ctx, msg.Content)
		if err != nil {
			s.sendError(ctx, ws, err)
			return
		}
		s.send(ctx, ws, Message{Type: "status", Content: fmt.Sprintf("Scraped %d pages", len(pages))})
		result, err := s.service.StorePages(ctx, pages)
		s.sendUploadResult(ctx, ws, result, len(pages), err)

	default:
		s.send(ctx, ws, Message{Type: "error", Content: fmt.Sprintf("unknown message type: %q", msg.Type)})
	}
}

func (s *Server) sendUploadResult(ctx context.Context, ws *wsConn, result models.IngestResult, pages int, err error) {
	if err != nil && !appErr.IsEmbeddingService(err) {
		s.sendError(ctx, ws, err)
		return
	}
	s.send(ctx, ws, Message{
		Type:    "status",
		Content: storedStatus,
		Data:    newUploadResponse(result, pages),
	})
}

func (s *Server) sendError(ctx context.Context, ws *wsConn, err error) {
	logging.FromContext(ctx).Warn("websocket request failed", zap.Error(err))
	s.send(ctx, ws, Message{Type: "error", Content: err.Error()})
}

func (s *Server) send(ctx context.Context, ws *wsConn, msg Message) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if err := ws.conn.WriteJSON(msg); err != nil {
		logging.FromContext(ctx).Warn("error sending message", zap.Error(err))
	}
}
