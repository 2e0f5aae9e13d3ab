package handlers

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/image-resizer/internal/config"
	"github.com/phambaophuc/image-resizer/internal/metrics"
	"github.com/phambaophuc/image-resizer/internal/models"
	"github.com/phambaophuc/image-resizer/internal/services/cache"
	"github.com/phambaophuc/image-resizer/internal/services/preset"
	"github.com/phambaophuc/image-resizer/internal/services/processor"
	"github.com/phambaophuc/image-resizer/internal/services/workspace"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap/zaptest"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()

	cfg := &config.Config{
		Upload: config.UploadConfig{
			MaxFileSize:  1 << 20,
			AllowedTypes: []string{"image/png", "image/jpeg"},
		},
		Export: config.ExportConfig{MaxPixels: 4_000_000},
	}

	catalog, err := preset.NewCatalog(preset.DefaultPresets())
	if err != nil {
		t.Fatalf("NewCatalog() error = %v", err)
	}
	store, err := cache.NewMemoryStore(cache.MemoryOptions{})
	if err != nil {
		t.Fatalf("NewMemoryStore() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })

	proc := processor.NewImageProcessor(processor.Options{
		MaxFileSize:  cfg.Upload.MaxFileSize,
		MaxPixels:    cfg.Export.MaxPixels,
		AllowedTypes: cfg.Upload.AllowedTypes,
	})
	h := NewImageHandler(proc, workspace.New(catalog), store,
		metrics.InitializeMetrics(prometheus.NewRegistry()), zaptest.NewLogger(t), cfg)

	router := gin.New()
	v1 := router.Group("/api/v1")
	v1.GET("/health", h.HealthCheck)
	v1.GET("/state", h.GetState)
	v1.GET("/presets", h.ListPresets)
	v1.POST("/events", h.HandleEvent)
	v1.POST("/image", h.UploadImage)
	v1.PUT("/image", h.DropImage)
	v1.GET("/export", h.Export)
	return router
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}
	return buf.Bytes()
}

func do(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeState(t *testing.T, w *httptest.ResponseRecorder) models.WorkspaceState {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("invalid JSON %s: %v", w.Body.String(), err)
	}
	var state models.WorkspaceState
	if err := json.Unmarshal(env.Data, &state); err != nil {
		t.Fatalf("invalid state %s: %v", env.Data, err)
	}
	return state
}

func decodeEvent(t *testing.T, w *httptest.ResponseRecorder) models.EventResponse {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("invalid JSON %s: %v", w.Body.String(), err)
	}
	var resp models.EventResponse
	if err := json.Unmarshal(env.Data, &resp); err != nil {
		t.Fatalf("invalid event response %s: %v", env.Data, err)
	}
	return resp
}

func uploadRequest(t *testing.T, filename string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(imageParamKey, filename)
	if err != nil {
		t.Fatal(err)
	}
	part.Write(data)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/image", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func eventRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/events", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestUploadImage(t *testing.T) {
	router := setupRouter(t)

	w := do(router, uploadRequest(t, "photo.png", pngBytes(t, 192, 108)))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	state := decodeState(t, w)
	if !state.Loaded || state.ImageID == "" || state.Filename != "photo.png" {
		t.Errorf("state = %+v", state)
	}
	if state.Target.Width != 192 || state.Target.Height != 108 || !state.LockAspectRatio || state.Quality != 90 {
		t.Errorf("state = %+v", state)
	}
}

func TestUploadImage_Failures(t *testing.T) {
	router := setupRouter(t)
	do(router, uploadRequest(t, "good.png", pngBytes(t, 40, 20)))

	tests := []struct {
		name string
		req  *http.Request
		want int
	}{
		{name: "not an image", req: uploadRequest(t, "notes.txt", []byte("definitely not pixels")), want: http.StatusUnsupportedMediaType},
		{name: "truncated", req: uploadRequest(t, "broken.png", pngBytes(t, 40, 20)[:30]), want: http.StatusBadRequest},
		{name: "missing field", req: httptest.NewRequest(http.MethodPost, "/api/v1/image", nil), want: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(router, tt.req)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d (%s)", w.Code, tt.want, w.Body.String())
			}
		})
	}

	state := decodeState(t, do(router, httptest.NewRequest(http.MethodGet, "/api/v1/state", nil)))
	if state.Filename != "good.png" || state.Target.Width != 40 {
		t.Errorf("failed uploads changed the workspace: %+v", state)
	}
}

func TestDropImage(t *testing.T) {
	router := setupRouter(t)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/image", bytes.NewReader(pngBytes(t, 30, 60)))
	req.Header.Set("Content-Type", "image/png")
	req.Header.Set(filenameHeader, "dropped.png")

	w := do(router, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	state := decodeState(t, w)
	if state.Filename != "dropped.png" || state.Target.Width != 30 || state.Target.Height != 60 {
		t.Errorf("state = %+v", state)
	}
}

func TestHandleEvent(t *testing.T) {
	router := setupRouter(t)
	do(router, uploadRequest(t, "a.png", pngBytes(t, 200, 100)))

	tests := []struct {
		name        string
		body        string
		wantChanged bool
		wantWidth   int
		wantHeight  int
	}{
		{name: "width as string", body: `{"type":"width","value":"100"}`, wantChanged: true, wantWidth: 100, wantHeight: 50},
		{name: "height as number", body: `{"type":"height","value":80}`, wantChanged: true, wantWidth: 160, wantHeight: 80},
		{name: "negative ignored", body: `{"type":"width","value":"-5"}`, wantChanged: false, wantWidth: 160, wantHeight: 80},
		{name: "NaN ignored", body: `{"type":"width","value":"NaN"}`, wantChanged: false, wantWidth: 160, wantHeight: 80},
		{name: "unlock", body: `{"type":"lock","enabled":false}`, wantChanged: true, wantWidth: 160, wantHeight: 80},
		{name: "unlocked width", body: `{"type":"width","value":50}`, wantChanged: true, wantWidth: 50, wantHeight: 80},
		{name: "relock derives height", body: `{"type":"lock","enabled":true}`, wantChanged: true, wantWidth: 50, wantHeight: 25},
		{name: "preset by name", body: `{"type":"preset","name":"Instagram Square"}`, wantChanged: true, wantWidth: 1080, wantHeight: 540},
		{name: "preset by value", body: `{"type":"preset","value":"Original"}`, wantChanged: true, wantWidth: 200, wantHeight: 100},
		{name: "unknown preset", body: `{"type":"preset","name":"Poster"}`, wantChanged: false, wantWidth: 200, wantHeight: 100},
		{name: "quality", body: `{"type":"quality","value":"40"}`, wantChanged: true, wantWidth: 200, wantHeight: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(router, eventRequest(tt.body))
			if w.Code != http.StatusOK {
				t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
			}
			resp := decodeEvent(t, w)
			if resp.Changed != tt.wantChanged {
				t.Errorf("changed = %v, want %v", resp.Changed, tt.wantChanged)
			}
			if resp.State.Target.Width != tt.wantWidth || resp.State.Target.Height != tt.wantHeight {
				t.Errorf("target = %v, want %dx%d", resp.State.Target, tt.wantWidth, tt.wantHeight)
			}
		})
	}
}

func TestHandleEvent_BadRequests(t *testing.T) {
	router := setupRouter(t)

	for _, body := range []string{`{"type":"resize","value":1}`, `{"type":"load"}`, `{"value":1}`, `not json`} {
		w := do(router, eventRequest(body))
		if w.Code != http.StatusBadRequest {
			t.Errorf("body %s: status = %d, want 400", body, w.Code)
		}
	}
}

func TestListPresets(t *testing.T) {
	router := setupRouter(t)

	var sizes []models.PresetSize
	readSizes := func() {
		w := do(router, httptest.NewRequest(http.MethodGet, "/api/v1/presets", nil))
		var env envelope
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
			t.Fatal(err)
		}
		sizes = nil
		if err := json.Unmarshal(env.Data, &sizes); err != nil {
			t.Fatal(err)
		}
	}

	readSizes()
	if len(sizes) != len(preset.DefaultPresets()) || sizes[0].Name == "Original" {
		t.Errorf("presets before upload = %+v", sizes)
	}

	do(router, uploadRequest(t, "a.png", pngBytes(t, 64, 32)))
	readSizes()
	if sizes[0].Name != "Original" || sizes[0].Label != "Original (64x32)" {
		t.Errorf("first preset after upload = %+v", sizes[0])
	}
}

func TestExport(t *testing.T) {
	router := setupRouter(t)

	w := do(router, httptest.NewRequest(http.MethodGet, "/api/v1/export", nil))
	if w.Code != http.StatusConflict {
		t.Fatalf("export before upload: status = %d, want 409", w.Code)
	}

	state := decodeState(t, do(router, uploadRequest(t, "a.png", pngBytes(t, 200, 100))))
	do(router, eventRequest(`{"type":"width","value":"60"}`))

	w = do(router, httptest.NewRequest(http.MethodGet, "/api/v1/export?image_id="+state.ImageID, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "resized-image.jpg") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if w.Header().Get("X-Cache") != "MISS" {
		t.Errorf("first export X-Cache = %q", w.Header().Get("X-Cache"))
	}

	out, err := jpeg.Decode(bytes.NewReader(w.Body.Bytes()))
	if err != nil {
		t.Fatalf("export is not a jpeg: %v", err)
	}
	if b := out.Bounds(); b.Dx() != 60 || b.Dy() != 30 {
		t.Errorf("export size = %dx%d, want 60x30", b.Dx(), b.Dy())
	}

	again := do(router, httptest.NewRequest(http.MethodGet, "/api/v1/export", nil))
	if again.Header().Get("X-Cache") != "HIT" || !bytes.Equal(again.Body.Bytes(), w.Body.Bytes()) {
		t.Errorf("second export X-Cache = %q", again.Header().Get("X-Cache"))
	}

	do(router, uploadRequest(t, "b.png", pngBytes(t, 10, 10)))
	stale := do(router, httptest.NewRequest(http.MethodGet, "/api/v1/export?image_id="+state.ImageID, nil))
	if stale.Code != http.StatusConflict {
		t.Errorf("stale export status = %d, want 409", stale.Code)
	}
}

func TestExport_TooLarge(t *testing.T) {
	router := setupRouter(t)
	do(router, uploadRequest(t, "a.png", pngBytes(t, 20, 20)))
	do(router, eventRequest(`{"type":"width","value":"5000"}`))

	w := do(router, httptest.NewRequest(http.MethodGet, "/api/v1/export", nil))
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", w.Code)
	}
}

func TestHealthCheck(t *testing.T) {
	router := setupRouter(t)

	w := do(router, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatal(err)
	}
	var health models.HealthCheck
	if err := json.Unmarshal(env.Data, &health); err != nil {
		t.Fatal(err)
	}
	if health.Status != "healthy" || health.Services["memory"] != "healthy" {
		t.Errorf("health = %+v", health)
	}
	if health.ImageLoaded || health.Presets != len(preset.DefaultPresets()) {
		t.Errorf("health = %+v", health)
	}
}

func TestHugeDimensionsAreRefused(t *testing.T) {
	router := setupRouter(t)
	do(router, uploadRequest(t, "a.png", pngBytes(t, 40, 20)))
	do(router, eventRequest(`{"type":"lock","enabled":false}`))

	for _, body := range []string{
		`{"type":"width","value":"4294967296"}`,
		`{"type":"height","value":"4294967296"}`,
		`{"type":"width","value":9000000000000000000}`,
	} {
		resp := decodeEvent(t, do(router, eventRequest(body)))
		if resp.Changed || resp.State.Target.Width != 40 || resp.State.Target.Height != 20 {
			t.Errorf("%s: changed=%v target=%v", body, resp.Changed, resp.State.Target)
		}
	}

	do(router, eventRequest(`{"type":"width","value":"65535"}`))
	do(router, eventRequest(`{"type":"height","value":"65535"}`))

	w := do(router, httptest.NewRequest(http.MethodGet, "/api/v1/export", nil))
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("export of 65535x65535: status = %d, want 413", w.Code)
	}
}
