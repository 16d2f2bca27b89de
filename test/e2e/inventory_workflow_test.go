package e2e_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/ammerola/inventory-api/internal/di"
	"github.com/ammerola/inventory-api/internal/handlers"
	"github.com/ammerola/inventory-api/internal/handlers/middleware"
	"github.com/ammerola/inventory-api/internal/pkg/logger"
	"github.com/ammerola/inventory-api/test/helpers"
)

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0x42}, 64)...)

type InventoryE2ESuite struct {
	suite.Suite
	container *di.Container
	server    *httptest.Server
	client    *http.Client
}

func (s *InventoryE2ESuite) SetupTest() {
	cfg := helpers.LoadTestConfig(s.T())
	log := helpers.TestLogger()

	container, err := di.BuildContainer(context.Background(), cfg, log)
	s.Require().NoError(err)
	s.container = container

	service := container.NewInventoryService(nil)
	router := handlers.NewRouter(handlers.Routes{
		Inventory: handlers.NewInventoryHandler(service, 1<<20, log),
		Health:    handlers.NewHealthHandler("test", "test", log),
		Export:    handlers.NewExportHandler(service, log),
	}, log)

	handler := middleware.Chain(router,
		middleware.Recovery(log),
		middleware.RequestID,
		middleware.Logger(&logger.Logger{Logger: log}),
		middleware.MaxBodySize(cfg.MaxUploadBytes()),
	)

	s.server = httptest.NewServer(handler)
	s.client = &http.Client{Timeout: 10 * time.Second}
}

func (s *InventoryE2ESuite) TearDownTest() {
	s.server.Close()
	s.NoError(s.container.Cleanup())
}

func (s *InventoryE2ESuite) TestRegisterGetDelete() {
	resp := s.postForm("/register", url.Values{"inventory_name": {"Drill"}})
	s.Equal(http.StatusCreated, resp.StatusCode)

	var created map[string]any
	s.decodeResponse(resp, &created)
	id, _ := created["id"].(string)
	s.Require().NotEmpty(id)
	s.Equal("Drill", created["inventory_name"])
	s.Equal("", created["description"])
	s.Contains(created, "photo")
	s.Nil(created["photo"])

	resp = s.do(http.MethodGet, "/inventory/"+id, nil, "")
	s.Equal(http.StatusOK, resp.StatusCode)

	var fetched map[string]any
	s.decodeResponse(resp, &fetched)
	s.Equal(created, fetched)

	resp = s.do(http.MethodDelete, "/inventory/"+id, nil, "")
	s.Equal(http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = s.do(http.MethodGet, "/inventory/"+id, nil, "")
	s.Equal(http.StatusNotFound, resp.StatusCode)

	var body map[string]string
	s.decodeResponse(resp, &body)
	s.Contains(body["error"], "not found")
}

func (s *InventoryE2ESuite) TestPartialUpdate() {
	resp := s.postForm("/register", url.Values{"inventory_name": {"Lamp"}, "description": {"brass"}})
	s.Require().Equal(http.StatusCreated, resp.StatusCode)

	var created map[string]any
	s.decodeResponse(resp, &created)
	id := created["id"].(string)

	resp = s.do(http.MethodPut, "/inventory/"+id, strings.NewReader(`{"description":"copper"}`), "application/json")
	s.Equal(http.StatusOK, resp.StatusCode)

	var updated map[string]any
	s.decodeResponse(resp, &updated)
	s.Equal("Lamp", updated["inventory_name"])
	s.Equal("copper", updated["description"])

	resp = s.do(http.MethodPut, "/inventory/"+id, strings.NewReader(`{}`), "application/json")
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func (s *InventoryE2ESuite) TestPhotoWorkflow() {
	resp := s.postMultipart(http.MethodPost, "/register", map[string]string{"inventory_name": "Clock"}, "clock.png", pngBytes)
	s.Require().Equal(http.StatusCreated, resp.StatusCode)

	var created map[string]any
	s.decodeResponse(resp, &created)
	id := created["id"].(string)
	s.NotNil(created["photo"])

	resp = s.do(http.MethodGet, "/inventory/"+id+"/photo", nil, "")
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Equal("image/png", resp.Header.Get("Content-Type"))
	got, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	s.NoError(err)
	s.Equal(pngBytes, got)

	replacement := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0x07}, 32)...)
	resp = s.postMultipart(http.MethodPut, "/inventory/"+id+"/photo", nil, "clock.png", replacement)
	s.Equal(http.StatusOK, resp.StatusCode)

	var confirm map[string]string
	s.decodeResponse(resp, &confirm)
	s.Equal(id, confirm["id"])
	s.NotEqual(created["photo"], confirm["photo"])

	resp = s.do(http.MethodGet, "/inventory/"+id+"/photo", nil, "")
	got, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	s.Equal(replacement, got)

	resp = s.postForm("/search", url.Values{"id": {id}, "includePhoto": {"true"}})
	s.Equal(http.StatusOK, resp.StatusCode)

	var found map[string]any
	s.decodeResponse(resp, &found)
	s.Contains(found["description"], "/inventory/"+id+"/photo")
}

func (s *InventoryE2ESuite) TestPhotoMissing() {
	resp := s.postForm("/register", url.Values{"inventory_name": {"Vase"}})
	var created map[string]any
	s.decodeResponse(resp, &created)
	id := created["id"].(string)

	resp = s.do(http.MethodGet, "/inventory/"+id+"/photo", nil, "")
	s.Equal(http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp = s.postMultipart(http.MethodPut, "/inventory/missing/photo", nil, "x.png", pngBytes)
	s.Equal(http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func (s *InventoryE2ESuite) TestConcurrentRegistrations() {
	const n = 10

	var wg sync.WaitGroup
	ids := make(chan string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			resp := s.postForm("/register", url.Values{"inventory_name": {fmt.Sprintf("Item %d", idx)}})
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusCreated {
				return
			}

			var item map[string]any
			if err := json.NewDecoder(resp.Body).Decode(&item); err == nil {
				ids <- item["id"].(string)
			}
		}(i)
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool)
	for id := range ids {
		s.False(seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	s.Len(seen, n)

	resp := s.do(http.MethodGet, "/inventory", nil, "")
	var items []map[string]any
	s.decodeResponse(resp, &items)
	s.Len(items, n)
}

func (s *InventoryE2ESuite) TestOperationalRoutes() {
	resp := s.do(http.MethodGet, "/health", nil, "")
	s.Equal(http.StatusOK, resp.StatusCode)
	var health map[string]any
	s.decodeResponse(resp, &health)
	s.Equal("healthy", health["status"])

	resp = s.do(http.MethodGet, "/ready", nil, "")
	s.Equal(http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = s.do(http.MethodGet, "/export", nil, "")
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Equal("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", resp.Header.Get("Content-Type"))
	resp.Body.Close()

	resp = s.do(http.MethodPatch, "/inventory", nil, "")
	s.Equal(http.StatusMethodNotAllowed, resp.StatusCode)
	var body map[string]string
	s.decodeResponse(resp, &body)
	s.Equal("Method not allowed", body["error"])
}

// Helper methods

func (s *InventoryE2ESuite) do(method, path string, body io.Reader, contentType string) *http.Response {
	req, err := http.NewRequest(method, s.server.URL+path, body)
	s.Require().NoError(err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := s.client.Do(req)
	s.Require().NoError(err)
	return resp
}

func (s *InventoryE2ESuite) postForm(path string, form url.Values) *http.Response {
	return s.do(http.MethodPost, path, strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
}

func (s *InventoryE2ESuite) postMultipart(method, path string, fields map[string]string, filename string, content []byte) *http.Response {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for k, v := range fields {
		s.Require().NoError(writer.WriteField(k, v))
	}
	part, err := writer.CreateFormFile("photo", filename)
	s.Require().NoError(err)
	_, err = part.Write(content)
	s.Require().NoError(err)
	s.Require().NoError(writer.Close())

	return s.do(method, path, body, writer.FormDataContentType())
}

func (s *InventoryE2ESuite) decodeResponse(resp *http.Response, v any) {
	defer resp.Body.Close()
	s.NoError(json.NewDecoder(resp.Body).Decode(v))
}

func TestInventoryE2ESuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping E2E tests in short mode")
	}
	suite.Run(t, new(InventoryE2ESuite))
}
