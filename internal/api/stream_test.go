package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialStream(t *testing.T, ts *httptest.Server, id int64) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + challengePath(id, "/leaderboard/stream")
	header := http.Header{}
	header.Set("X-API-Key", adminKey)
	return websocket.DefaultDialer.Dial(url, header)
}

func TestLeaderboardStream(t *testing.T) {
	env := newTestEnv(t, WithStreamInterval(20*time.Millisecond))
	id := env.createChallenge("Live", time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC))
	rc := env.recipe("amy", 2)
	rec, _ := env.do(http.MethodPost, challengePath(id, "/submissions"), adminKey, map[string]any{"recipe_id": rc.ID, "author": "amy"})
	require.Equal(t, http.StatusCreated, rec.Code)

	ts := httptest.NewServer(env.srv.Router())
	defer ts.Close()

	conn, _, err := dialStream(t, ts, id)
	require.NoError(t, err)
	defer conn.Close()

	var msg StreamMessage
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, StreamTypeLeaderboard, msg.Type)
	require.Len(t, msg.Entries, 1)
	assert.Equal(t, 2, msg.Entries[0].TotalLikes)

	_, err = env.repo.LikeRecipe(env.ctx, rc.ID)
	require.NoError(t, err)

	// unchanged leaderboards are not re-sent, so the next frame carries the like
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, 3, msg.Entries[0].TotalLikes)
}

func TestLeaderboardStream_UnknownChallenge(t *testing.T) {
	env := newTestEnv(t)
	ts := httptest.NewServer(env.srv.Router())
	defer ts.Close()

	_, resp, err := dialStream(t, ts, 999)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
