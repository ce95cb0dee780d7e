package api_test

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"persona-panel/content"
	"persona-panel/panel"
	"persona-panel/worldinfo"
)

type wsMsg struct {
	Type   string           `json:"type"`
	Notice *panel.Notice    `json:"notice,omitempty"`
	Books  []worldinfo.Book `json:"books,omitempty"`
}

func (env *testEnv) dialWS(t *testing.T, path string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(env.srv.URL, "http") + path
	return websocket.DefaultDialer.Dial(wsURL, nil)
}

func readMsg(t *testing.T, conn *websocket.Conn) wsMsg {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg wsMsg
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestWSNotFound(t *testing.T) {
	env := newTestServer(t)
	_, resp, err := env.dialWS(t, "/api/panels/nonexistent/ws")
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestWSReplaysBacklog(t *testing.T) {
	env := newTestServer(t)
	id := env.open(t)
	resp := env.do(t, http.MethodPost, "/api/panels/"+id+"/snapshot", map[string]string{"yaml": "name: Kay"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	conn, _, err := env.dialWS(t, "/api/panels/"+id+"/ws")
	require.NoError(t, err)
	defer conn.Close()

	msg := readMsg(t, conn)
	assert.Equal(t, "notice", msg.Type)
	require.NotNil(t, msg.Notice)
	assert.Equal(t, content.MsgSnapshotSaved, msg.Notice.ID)
}

func TestWSLiveNotice(t *testing.T) {
	env := newTestServer(t)
	id := env.open(t)

	conn, _, err := env.dialWS(t, "/api/panels/"+id+"/ws")
	require.NoError(t, err)
	defer conn.Close()

	s, _ := env.mgr.Get(id)
	require.Eventually(t, func() bool { return s.Info().Connected }, 2*time.Second, 10*time.Millisecond)

	resp := env.do(t, http.MethodDelete, "/api/panels/"+id+"/history", nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	msg := readMsg(t, conn)
	require.NotNil(t, msg.Notice)
	assert.Equal(t, content.MsgHistoryCleared, msg.Notice.ID)
	assert.Equal(t, panel.LevelInfo, msg.Notice.Level)
}

func TestWSBooksRequest(t *testing.T) {
	env := newTestServer(t)
	id := env.open(t)

	conn, _, err := env.dialWS(t, "/api/panels/"+id+"/ws")
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(wsMsg{Type: "books"}))
	msg := readMsg(t, conn)
	assert.Equal(t, "books", msg.Type)
	assert.Equal(t, []worldinfo.Book{{Name: "Forest Lore"}}, msg.Books)
}

func TestWSClosedOnPanelClose(t *testing.T) {
	env := newTestServer(t)
	id := env.open(t)

	conn, _, err := env.dialWS(t, "/api/panels/"+id+"/ws")
	require.NoError(t, err)
	defer conn.Close()

	s, _ := env.mgr.Get(id)
	require.Eventually(t, func() bool { return s.Info().Connected }, 2*time.Second, 10*time.Millisecond)

	resp := env.do(t, http.MethodDelete, "/api/panels/"+id, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	msg := readMsg(t, conn)
	assert.Equal(t, "closed", msg.Type)
}

func TestWSDisplacedByNewerClient(t *testing.T) {
	env := newTestServer(t)
	id := env.open(t)

	first, _, err := env.dialWS(t, "/api/panels/"+id+"/ws")
	require.NoError(t, err)
	defer first.Close()
	s, _ := env.mgr.Get(id)
	require.Eventually(t, func() bool { return s.Info().Connected }, 2*time.Second, 10*time.Millisecond)

	second, _, err := env.dialWS(t, "/api/panels/"+id+"/ws")
	require.NoError(t, err)
	defer second.Close()

	require.NoError(t, first.SetReadDeadline(time.Now().Add(2*time.Second)))
	start := time.Now()
	var msg wsMsg
	err = first.ReadJSON(&msg)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 1500*time.Millisecond, "first connection should be closed, not time out")
}
