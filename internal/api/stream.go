package api

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/terra-clan/cookoff-engine/internal/ranking"
)

const (
	streamWriteWait  = 10 * time.Second
	streamPongWait   = 60 * time.Second
	streamPingPeriod = streamPongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// StreamMessage is pushed to leaderboard stream subscribers
type StreamMessage struct {
	Type        string                     `json:"type"`
	ChallengeID int64                      `json:"challenge_id"`
	Entries     []ranking.LeaderboardEntry `json:"entries,omitempty"`
	Error       string                     `json:"error,omitempty"`
}

// Stream message types
const (
	StreamTypeLeaderboard = "leaderboard"
	StreamTypeError       = "error"
)

// handleLeaderboardStream pushes a challenge's leaderboard over a websocket,
// once on connect and again whenever it changes
func (s *Server) handleLeaderboardStream(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	// resolve the challenge before upgrading so a bad id is a plain 404
	if _, err := s.service.GetChallenge(r.Context(), id); err != nil {
		respondServiceError(w, err, "failed to get challenge", "challenge_id", id)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("failed to upgrade to websocket", "error", err)
		return
	}
	defer conn.Close()

	slog.Info("leaderboard stream connected", "challenge_id", id)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// reader: only control frames are expected; a read error means the peer left
	go func() {
		defer cancel()
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(streamPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(s.streamInterval)
	defer ticker.Stop()
	ping := time.NewTicker(streamPingPeriod)
	defer ping.Stop()

	var last []byte
	push := func() bool {
		entries, err := s.service.Leaderboard(ctx, id)
		if err != nil {
			slog.Error("leaderboard stream refresh failed", "challenge_id", id, "error", err)
			return s.sendStreamMessage(conn, StreamMessage{Type: StreamTypeError, ChallengeID: id, Error: "leaderboard unavailable"})
		}

		payload, err := json.Marshal(StreamMessage{Type: StreamTypeLeaderboard, ChallengeID: id, Entries: entries})
		if err != nil {
			slog.Error("failed to encode leaderboard", "error", err)
			return false
		}
		if bytes.Equal(payload, last) {
			return true
		}
		last = payload
		return s.writeStream(conn, websocket.TextMessage, payload)
	}

	if !push() {
		return
	}

	for {
		select {
		case <-ctx.Done():
			slog.Info("leaderboard stream closed", "challenge_id", id)
			return
		case <-ping.C:
			if !s.writeStream(conn, websocket.PingMessage, nil) {
				return
			}
		case <-ticker.C:
			if !push() {
				return
			}
		}
	}
}

func (s *Server) sendStreamMessage(conn *websocket.Conn, msg StreamMessage) bool {
	payload, err := json.Marshal(msg)
	if err != nil {
		slog.Error("failed to encode stream message", "error", err)
		return false
	}
	return s.writeStream(conn, websocket.TextMessage, payload)
}

func (s *Server) writeStream(conn *websocket.Conn, messageType int, payload []byte) bool {
	_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
	if err := conn.WriteMessage(messageType, payload); err != nil {
		slog.Debug("leaderboard stream write failed", "error", err)
		return false
	}
	return true
}
