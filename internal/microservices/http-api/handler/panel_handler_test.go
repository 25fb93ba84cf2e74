package handler

import (
	"encoding/json"
	"html/template"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"canpi-panel/internal/microservices/http-api/dto"
	"canpi-panel/internal/microservices/http-api/service"
	"canpi-panel/internal/panel"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockPanelService mocks the PanelService interface
type MockPanelService struct {
	mock.Mock
}

func (m *MockPanelService) List() []panel.Entry {
	args := m.Called()
	return args.Get(0).([]panel.Entry)
}

func (m *MockPanelService) Count() int {
	return m.Called().Int(0)
}

func (m *MockPanelService) Select(index uint8) (panel.Definition, error) {
	args := m.Called(index)
	return args.Get(0).(panel.Definition), args.Error(1)
}

func (m *MockPanelService) Current() (uint8, panel.Definition, error) {
	args := m.Called()
	return args.Get(0).(uint8), args.Get(1).(panel.Definition), args.Error(2)
}

func (m *MockPanelService) CangridURI() string {
	return m.Called().String(0)
}

const testTemplates = `
{{define "index.html"}}{{range .panels}}[{{.Index}}:{{.Title}}]{{end}}{{end}}
{{define "panel_index.html"}}{{.panel_title}}|{{.panel_file}}{{end}}
`

func setupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.SetHTMLTemplate(template.Must(template.New("test").Parse(testTemplates)))
	return r
}

func setupPanelRouter(svc service.PanelService) *gin.Engine {
	r := setupRouter()
	h := NewPanelHandler(svc)
	h.RegisterPages(r.Group("/layout"))
	h.RegisterRoutes(r.Group("/api/panels"))
	return r
}

func get(r *gin.Engine, path string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest("GET", path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIndex_ListsPanels(t *testing.T) {
	svc := new(MockPanelService)
	svc.On("List").Return([]panel.Entry{
		{Index: 1, Title: "Main Line"},
		{Index: 2, Title: "Goods Yard"},
	})
	svc.On("CangridURI").Return("localhost:5550")

	w := get(setupPanelRouter(svc), "/layout")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[1:Main Line][2:Goods Yard]", w.Body.String())
	svc.AssertExpectations(t)
}

func TestPanel_Success(t *testing.T) {
	svc := new(MockPanelService)
	svc.On("Select", uint8(2)).Return(panel.Definition{Title: "Goods Yard", JSONFile: "panels/yard.json"}, nil)
	svc.On("CangridURI").Return("localhost:5550")

	w := get(setupPanelRouter(svc), "/layout/panel/2")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Goods Yard|panels/yard.json", w.Body.String())
	svc.AssertExpectations(t)
}

func TestPanel_UnknownIndex(t *testing.T) {
	svc := new(MockPanelService)
	svc.On("Select", uint8(7)).Return(panel.Definition{}, service.ErrPanelNotFound)

	w := get(setupPanelRouter(svc), "/layout/panel/7")

	assert.Equal(t, http.StatusNotFound, w.Code)
	svc.AssertExpectations(t)
}

func TestPanel_UnparsableIndexClearsSelection(t *testing.T) {
	svc := new(MockPanelService)
	svc.On("Select", uint8(0)).Return(panel.Definition{}, service.ErrPanelNotFound)

	for _, path := range []string{"/layout/panel/abc", "/layout/panel/256", "/layout/panel/-1"} {
		w := get(setupPanelRouter(svc), path)
		assert.Equal(t, http.StatusNotFound, w.Code, path)
	}
	svc.AssertNumberOfCalls(t, "Select", 3)
}

func TestDiagram_ServesCurrentFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "main.json")
	require.NoError(t, os.WriteFile(file, []byte(`{"cbusstates":[]}`), 0o644))

	svc := new(MockPanelService)
	svc.On("Current").Return(uint8(1), panel.Definition{Title: "Main Line", JSONFile: file}, nil)

	w := get(setupPanelRouter(svc), "/layout/diagram")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"cbusstates":[]}`, w.Body.String())
}

func TestDiagram_NoneSelected(t *testing.T) {
	svc := new(MockPanelService)
	svc.On("Current").Return(uint8(0), panel.Definition{}, service.ErrNoCurrent)

	w := get(setupPanelRouter(svc), "/layout/diagram")

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestList_ReturnsJSON(t *testing.T) {
	svc := new(MockPanelService)
	svc.On("List").Return([]panel.Entry{{Index: 1, Title: "Main Line", File: "a.json"}})

	w := get(setupPanelRouter(svc), "/api/panels")

	assert.Equal(t, http.StatusOK, w.Code)
	var resp dto.PanelListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, dto.PanelDTO{Index: 1, Title: "Main Line", File: "a.json"}, resp.Panels[0])
}

func TestList_EmptyIsArray(t *testing.T) {
	svc := new(MockPanelService)
	svc.On("List").Return([]panel.Entry{})

	w := get(setupPanelRouter(svc), "/api/panels")

	assert.JSONEq(t, `{"panels":[],"count":0}`, w.Body.String())
}

func TestCurrent_Selected(t *testing.T) {
	svc := new(MockPanelService)
	svc.On("Current").Return(uint8(3), panel.Definition{Title: "Shed", JSONFile: "shed.json"}, nil)

	w := get(setupPanelRouter(svc), "/api/panels/current")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"index":3,"title":"Shed","json_file":"shed.json"}`, w.Body.String())
}

func TestCurrent_NoneSelected(t *testing.T) {
	svc := new(MockPanelService)
	svc.On("Current").Return(uint8(0), panel.Definition{}, service.ErrNoCurrent)

	w := get(setupPanelRouter(svc), "/api/panels/current")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"no panel selected"}`, w.Body.String())
}

func TestPanel_WithRealState(t *testing.T) {
	state := service.NewAppState("localhost:5550", panel.Hash{1: {Title: "Main Line", JSONFile: "main.json"}})
	r := setupPanelRouter(state)

	assert.Equal(t, http.StatusOK, get(r, "/layout/panel/1").Code)
	assert.Equal(t, http.StatusOK, get(r, "/api/panels/current").Code)

	assert.Equal(t, http.StatusNotFound, get(r, "/layout/panel/2").Code)
	assert.Equal(t, http.StatusNotFound, get(r, "/api/panels/current").Code)
}
