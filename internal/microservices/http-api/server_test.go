package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"canpi-panel/internal/config"
	"canpi-panel/internal/microservices/echo"
	"canpi-panel/internal/panel"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type ServerSuite struct {
	suite.Suite
	upstream *httptest.Server
	srv      *Server
	http     *httptest.Server
}

func (s *ServerSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.upstream = httptest.NewServer(echo.NewRouter())

	static := s.T().TempDir()
	require.NoError(s.T(), os.WriteFile(filepath.Join(static, "top_menu.html"), []byte("<li>menu</li>"), 0o644))

	cfg := &config.Config{
		HostPort:   "127.0.0.1:0",
		CangridURI: "localhost:5550",
		RelayURL:   "ws" + strings.TrimPrefix(s.upstream.URL, "http") + "/echo",
		StaticPath: static,
		RateLimit:  1000,
		RateBurst:  1000,
	}
	s.srv = NewServer(cfg, panel.Hash{
		1: {Title: "Main Line", JSONFile: "main.json"},
		2: {Title: "Goods Yard", JSONFile: "yard.json"},
	})

	r, err := s.srv.Router()
	require.NoError(s.T(), err)
	s.http = httptest.NewServer(r)
}

func (s *ServerSuite) TearDownTest() {
	s.srv.Hub().CloseAll()
	s.http.Close()
	s.upstream.Close()
}

func (s *ServerSuite) get(path string) (int, string) {
	resp, err := http.Get(s.http.URL + path)
	require.NoError(s.T(), err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func (s *ServerSuite) TestLayoutListsPanels() {
	code, body := s.get("/layout")
	s.Equal(http.StatusOK, code)
	s.Contains(body, `<a href="/layout/panel/1">Main Line</a>`)
	s.Contains(body, `<a href="/layout/panel/2">Goods Yard</a>`)
}

func (s *ServerSuite) TestRootRedirects() {
	code, body := s.get("/")
	s.Equal(http.StatusOK, code)
	s.Contains(body, "Layout panels")
}

func (s *ServerSuite) TestPanelSelection() {
	code, body := s.get("/layout/panel/2")
	s.Equal(http.StatusOK, code)
	s.Contains(body, "<title>Goods Yard</title>")
	s.Contains(body, `data-file="yard.json"`)

	idx, def, err := s.srv.State().Current()
	s.NoError(err)
	s.Equal(uint8(2), idx)
	s.Equal("Goods Yard", def.Title)

	code, _ = s.get("/layout/panel/9")
	s.Equal(http.StatusNotFound, code)
	_, _, err = s.srv.State().Current()
	s.Error(err)
}

func (s *ServerSuite) TestHealth() {
	code, body := s.get("/api/health")
	s.Equal(http.StatusOK, code)

	var resp map[string]any
	s.NoError(json.Unmarshal([]byte(body), &resp))
	s.Equal("ok", resp["status"])
	s.Equal(float64(2), resp["panels"])
	s.Equal(float64(0), resp["sessions"])
}

func (s *ServerSuite) TestStaticFiles() {
	code, body := s.get("/static/top_menu.html")
	s.Equal(http.StatusOK, code)
	s.Equal("<li>menu</li>", body)
}

func (s *ServerSuite) TestEchoRoute() {
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(s.http.URL, "http")+"/echo", nil)
	s.Require().NoError(err)
	defer conn.Close()

	s.NoError(conn.WriteMessage(websocket.TextMessage, []byte("ping")))
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	s.NoError(err)
	s.Equal("ping", string(data))
}

func (s *ServerSuite) TestBrowserSessionRelaysUpstream() {
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(s.http.URL, "http")+"/ws", nil)
	s.Require().NoError(err)
	defer conn.Close()

	s.NoError(conn.WriteMessage(websocket.TextMessage, []byte(`{"op":"ASON","event":12}`)))
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	s.NoError(err)
	s.Equal(`{"op":"ASON","event":12}`, string(data))

	s.Eventually(func() bool { return s.srv.Hub().Count() == 1 }, time.Second, 10*time.Millisecond)
}

func TestServerSuite(t *testing.T) {
	suite.Run(t, new(ServerSuite))
}

func TestLoadTemplates_DirectoryOverridesBuiltin(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("custom {{len .panels}}"), 0o644))

	tmpl, err := LoadTemplates(filepath.Join(dir, "*.html"))
	require.NoError(t, err)

	var b strings.Builder
	require.NoError(t, tmpl.ExecuteTemplate(&b, "index.html", gin.H{"panels": []int{1, 2}}))
	assert.Equal(t, "custom 2", b.String())
	assert.NotNil(t, tmpl.Lookup("panel_index.html"))
}

func TestLoadTemplates_BadGlob(t *testing.T) {
	_, err := LoadTemplates(filepath.Join(t.TempDir(), "*.html"))
	assert.Error(t, err)
}

func TestServer_StartStop(t *testing.T) {
	cfg := &config.Config{HostPort: "127.0.0.1:0", RelayURL: "ws://127.0.0.1:1", RateLimit: 10, RateBurst: 20}
	srv := NewServer(cfg, panel.Hash{})
	require.NoError(t, srv.Start())

	resp, err := http.Get("http://" + srv.Addr() + "/api/panels")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"panels":[],"count":0}`, string(body))

	assert.NoError(t, srv.Stop())
}

func TestServer_StartFailsOnBusyPort(t *testing.T) {
	busy := httptest.NewServer(http.NotFoundHandler())
	defer busy.Close()

	cfg := &config.Config{HostPort: strings.TrimPrefix(busy.URL, "http://"), RateLimit: 10, RateBurst: 20}
	srv := NewServer(cfg, nil)

	assert.Error(t, srv.Start())
	assert.NoError(t, srv.Stop())
}
