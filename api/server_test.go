package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"picks-sizing/db/clickhouse"
	"picks-sizing/internal/catalog"
	"picks-sizing/internal/sizing"
	apitypes "picks-sizing/pkg/api"
	sizingerrors "picks-sizing/pkg/errors"
	"picks-sizing/pkg/platform"
)

func testMemory() *catalog.Memory {
	return catalog.NewMemory([]catalog.UnitResourceProfile{
		{ProductType: catalog.ProductEncoderSD, RM: 10, MEM: "4 GB", CPU: 2},
		{ProductType: catalog.ProductEncoderUHD, RM: 10000, MEM: "64 GB", CPU: 12},
	}, []catalog.HardwareModel{
		{Model: "PICKS-100", PM: "10000", PCI: "1", OneU: catalog.FitYes, TwoU: catalog.FitNotApplicable},
		{Model: "PICKS-400", PM: "40000", PCI: "4", OneU: catalog.FitNotApplicable, TwoU: catalog.FitYes},
		{Model: "PICKS-400 G4", PM: "40000", G4PM: "50000", PCI: "4", OneU: catalog.FitNotApplicable, TwoU: catalog.FitYes},
	})
}

type fakeHistory struct {
	mu      sync.Mutex
	entries []clickhouse.Entry
}

func (f *fakeHistory) Record(_ context.Context, e clickhouse.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, e)
	return nil
}

func (f *fakeHistory) Recent(_ context.Context, limit int) ([]clickhouse.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if limit > len(f.entries) {
		limit = len(f.entries)
	}
	return append([]clickhouse.Entry{}, f.entries[:limit]...), nil
}

func (f *fakeHistory) all() []clickhouse.Entry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]clickhouse.Entry{}, f.entries...)
}

type fakeConfigs struct {
	byID map[string]apitypes.Configuration
}

func newFakeConfigs() *fakeConfigs {
	return &fakeConfigs{byID: map[string]apitypes.Configuration{}}
}

func (f *fakeConfigs) CreateConfiguration(_ context.Context, owner string, req apitypes.ConfigurationRequest) (*apitypes.Configuration, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	cfg := apitypes.Configuration{ID: uuid.NewString(), Owner: owner, Hardware: req.Hardware, Application: req.Application, PartCode: req.PartCode}
	f.byID[cfg.ID] = cfg
	return &cfg, nil
}

func (f *fakeConfigs) ListConfigurations(_ context.Context, owner string) ([]apitypes.Configuration, error) {
	out := []apitypes.Configuration{}
	for _, cfg := range f.byID {
		if cfg.Owner == owner {
			out = append(out, cfg)
		}
	}
	return out, nil
}

func (f *fakeConfigs) GetConfiguration(_ context.Context, owner, id string) (*apitypes.Configuration, error) {
	cfg, ok := f.byID[id]
	if !ok || cfg.Owner != owner {
		return nil, sizingerrors.NewNotFoundError("configuration", id)
	}
	return &cfg, nil
}

func (f *fakeConfigs) UpdateConfiguration(ctx context.Context, owner, id string, req apitypes.ConfigurationRequest) (*apitypes.Configuration, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if _, err := f.GetConfiguration(ctx, owner, id); err != nil {
		return nil, err
	}
	cfg := apitypes.Configuration{ID: id, Owner: owner, Hardware: req.Hardware, Application: req.Application, PartCode: req.PartCode}
	f.byID[id] = cfg
	return &cfg, nil
}

func (f *fakeConfigs) DeleteConfiguration(ctx context.Context, owner, id string) error {
	if _, err := f.GetConfiguration(ctx, owner, id); err != nil {
		return err
	}
	delete(f.byID, id)
	return nil
}

type failingCatalog struct{}

func (failingCatalog) Profiles(context.Context, []string) ([]catalog.UnitResourceProfile, error) {
	return nil, errors.New("dial tcp: connection refused")
}

func (failingCatalog) Models(context.Context) ([]catalog.HardwareModel, error) {
	return nil, errors.New("dial tcp: connection refused")
}

func newTestServer(t *testing.T, deps Deps, cfg *Config) *httptest.Server {
	t.Helper()
	logger := zerolog.Nop()
	deps.Logger = &logger
	if deps.Sizing == nil {
		deps.Sizing = sizing.NewService(testMemory(), sizing.WithLogger(logger))
	}
	srv := httptest.NewServer(NewServer(deps, cfg).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	var rd *bytes.Reader
	switch b := body.(type) {
	case nil:
		rd = bytes.NewReader(nil)
	case string:
		rd = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, rd)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, buf.Bytes()
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, Deps{}, nil)

	resp, body := do(t, http.MethodGet, srv.URL+"/api/health", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"status":"healthy"`)

	resp, _ = do(t, http.MethodGet, srv.URL+"/api/health/ready", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCalculate(t *testing.T) {
	history := &fakeHistory{}
	srv := newTestServer(t, Deps{History: history}, nil)

	resp, body := do(t, http.MethodPost, srv.URL+"/api/calculate", `{"sd": 2}`, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var got apitypes.CalculateResponse
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "28.60", got.TotalRM)
	assert.Equal(t, "0.02", got.TotalMemoryBeforeRounding)
	assert.Equal(t, "32.00", got.TotalMemoryAfterRounding)
	assert.Equal(t, "6.00", got.TotalCPU)
	assert.Equal(t, "PICKS-100", got.ModelInfo.ModelName)
	require.NotNil(t, got.ModelInfo.PM)
	assert.Equal(t, "10000", *got.ModelInfo.PM)
	assert.Nil(t, got.ModelInfo.G4Model)

	recorded := history.all()
	require.Len(t, recorded, 1)
	assert.Equal(t, "PICKS-100", recorded[0].Model)
}

func TestCalculateOverflow(t *testing.T) {
	srv := newTestServer(t, Deps{}, nil)

	// 3 UHD channels: 42900 RM, above every base model but within the G4 rating
	resp, body := do(t, http.MethodPost, srv.URL+"/api/calculate", `{"uhd": 3}`, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got apitypes.CalculateResponse
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "42900.00", got.TotalRM)
	assert.Equal(t, sizing.NoMatchingModel, got.ModelInfo.ModelName)
	require.NotNil(t, got.ModelInfo.G4Model)
	assert.Equal(t, "PICKS-400 G4", *got.ModelInfo.G4Model)
	assert.Equal(t, 50000.0, *got.ModelInfo.G4PM)
}

func TestCalculateRejectsBadInput(t *testing.T) {
	srv := newTestServer(t, Deps{}, nil)

	resp, body := do(t, http.MethodPost, srv.URL+"/api/calculate", `{"sd": -1}`, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), `"code":"INVALID_INPUT"`)
	assert.Contains(t, string(body), `"field":"sd"`)

	resp, _ = do(t, http.MethodPost, srv.URL+"/api/calculate", `{"sd": "two"}`, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, http.MethodPost, srv.URL+"/api/calculate", `not json`, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCalculateCatalogUnavailable(t *testing.T) {
	logger := zerolog.Nop()
	srv := newTestServer(t, Deps{Sizing: sizing.NewService(failingCatalog{}, sizing.WithLogger(logger))}, nil)

	resp, body := do(t, http.MethodPost, srv.URL+"/api/calculate", `{"sd": 1}`, nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Contains(t, string(body), "CATALOG_UNAVAILABLE")
}

func TestClosest(t *testing.T) {
	srv := newTestServer(t, Deps{}, nil)

	resp, body := do(t, http.MethodGet, srv.URL+"/api/calculate/models/closest?totalRM=28.6", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"model":{"model":"PICKS-100","pm":"10000","pci":"1","g4Model":null,"g4PM":null}}`, string(body))

	resp, body = do(t, http.MethodGet, srv.URL+"/api/calculate/models/closest?totalRM=45000", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"model":{"model":null,"pm":null,"pci":null,"g4Model":"PICKS-400 G4","g4PM":50000}}`, string(body))

	resp, body = do(t, http.MethodGet, srv.URL+"/api/calculate/models/closest?totalRM=90000", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, string(body), "No suitable model found")

	resp, body = do(t, http.MethodGet, srv.URL+"/api/calculate/models/closest?totalRM=abc", nil, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "Invalid totalRM value")

	resp, _ = do(t, http.MethodGet, srv.URL+"/api/calculate/models/closest", nil, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestExact(t *testing.T) {
	srv := newTestServer(t, Deps{}, nil)

	resp, body := do(t, http.MethodGet, srv.URL+"/api/calculate/models/exact?pm=40000", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"model":"PICKS-400"`)

	resp, body = do(t, http.MethodGet, srv.URL+"/api/calculate/models/exact?pm=28.6", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, string(body), "No model found for the calculated RM")
}

func TestHistory(t *testing.T) {
	srv := newTestServer(t, Deps{}, nil)
	resp, body := do(t, http.MethodGet, srv.URL+"/api/calculate/history", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, string(body), "not enabled")

	history := &fakeHistory{}
	srv = newTestServer(t, Deps{History: history}, nil)
	do(t, http.MethodPost, srv.URL+"/api/calculate", `{"sd": 1}`, nil)
	do(t, http.MethodPost, srv.URL+"/api/calculate", `{"sd": 2}`, nil)

	resp, body = do(t, http.MethodGet, srv.URL+"/api/calculate/history?limit=1", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var entries []clickhouse.Entry
	require.NoError(t, json.Unmarshal(body, &entries))
	assert.Len(t, entries, 1)

	resp, _ = do(t, http.MethodGet, srv.URL+"/api/calculate/history?limit=0", nil, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestModelAdmin(t *testing.T) {
	mem := testMemory()
	srv := newTestServer(t, Deps{Admin: mem}, nil)

	resp, body := do(t, http.MethodPost, srv.URL+"/api/calculate/models", catalog.HardwareModel{
		Model: "PICKS-200", PM: "20000", PCI: "2", OneU: catalog.FitYes, TwoU: catalog.FitYes,
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var created catalog.HardwareModel
	require.NoError(t, json.Unmarshal(body, &created))
	require.NotEmpty(t, created.ID)

	resp, body = do(t, http.MethodGet, srv.URL+"/api/calculate/models", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var models []catalog.HardwareModel
	require.NoError(t, json.Unmarshal(body, &models))
	assert.Len(t, models, 4)

	resp, _ = do(t, http.MethodPost, srv.URL+"/api/calculate/models", catalog.HardwareModel{Model: "X", PM: "lots"}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	created.PM = "25000"
	resp, body = do(t, http.MethodPut, srv.URL+"/api/calculate/models/"+created.ID, created, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"pm":"25000"`)

	resp, _ = do(t, http.MethodGet, srv.URL+"/api/calculate/models/not-a-uuid", nil, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = do(t, http.MethodDelete, srv.URL+"/api/calculate/models/"+created.ID, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "Model deleted successfully")

	resp, _ = do(t, http.MethodGet, srv.URL+"/api/calculate/models/"+created.ID, nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestProfileAdmin(t *testing.T) {
	srv := newTestServer(t, Deps{Admin: testMemory()}, nil)

	resp, body := do(t, http.MethodPost, srv.URL+"/api/calculate/tables",
		`{"Product Type": "Decoder", "RM": 4, "MEM": "2 GB", "CPU": 1}`, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var created catalog.UnitResourceProfile
	require.NoError(t, json.Unmarshal(body, &created))

	resp, body = do(t, http.MethodGet, srv.URL+"/api/calculate/tables", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var profiles []catalog.UnitResourceProfile
	require.NoError(t, json.Unmarshal(body, &profiles))
	assert.Len(t, profiles, 3)

	resp, body = do(t, http.MethodDelete, srv.URL+"/api/calculate/tables/"+created.ID, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "Record deleted successfully")
}

func TestReadOnlyCatalogHasNoAdminRoutes(t *testing.T) {
	srv := newTestServer(t, Deps{}, nil)

	resp, _ := do(t, http.MethodGet, srv.URL+"/api/calculate/models", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = do(t, http.MethodDelete, srv.URL+"/api/calculate/models/"+uuid.NewString(), nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPIKey(t *testing.T) {
	cfg := DefaultConfig()
	cfg.APIKey = "k3y"
	srv := newTestServer(t, Deps{}, cfg)

	resp, _ := do(t, http.MethodGet, srv.URL+"/api/calculate/models", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = do(t, http.MethodGet, srv.URL+"/api/calculate/models", nil, map[string]string{"X-API-Key": "k3y"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t, Deps{}, nil)

	resp, _ := do(t, http.MethodOptions, srv.URL+"/api/calculate", nil, map[string]string{"Origin": "http://ui.local"})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "http://ui.local", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.True(t, strings.Contains(resp.Header.Get("Access-Control-Allow-Headers"), platform.UserHeader))
}

func TestConfigurations(t *testing.T) {
	srv := newTestServer(t, Deps{Configurations: newFakeConfigs()}, nil)
	alice := map[string]string{platform.UserHeader: "alice"}
	bob := map[string]string{platform.UserHeader: "bob"}

	resp, body := do(t, http.MethodGet, srv.URL+"/api/configurations/user", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, string(body), "User authentication missing")

	req := apitypes.ConfigurationRequest{
		Hardware:     "Rack",
		Application:  "Teleport",
		TeleportType: "inport",
		PartCode:     "PC-7",
		Channels:     []json.RawMessage{json.RawMessage(`{"type":"SD"}`)},
	}
	resp, body = do(t, http.MethodPost, srv.URL+"/api/configurations", req, alice)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var created apitypes.ConfigurationResponse
	require.NoError(t, json.Unmarshal(body, &created))
	assert.Equal(t, "Configuration saved successfully", created.Message)
	require.NotEmpty(t, created.ConfigID)

	resp, _ = do(t, http.MethodGet, srv.URL+"/api/configurations/"+created.ConfigID, nil, bob)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = do(t, http.MethodGet, srv.URL+"/api/configurations/user", nil, alice)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []apitypes.Configuration
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Len(t, list, 1)

	req.PartCode = ""
	resp, body = do(t, http.MethodPut, srv.URL+"/api/configurations/"+created.ConfigID, req, alice)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "Part code is required")

	resp, body = do(t, http.MethodDelete, srv.URL+"/api/configurations/"+created.ConfigID, nil, alice)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "Configuration deleted successfully")
}

func TestRequestTimeoutDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RequestTimeout = 0
	srv := newTestServer(t, Deps{}, cfg)

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(srv.URL + "/api/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
