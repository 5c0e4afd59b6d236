package restapi

import (
	"context"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"storage_dapp/internal/domain/entity"
	"storage_dapp/internal/infrastructure/configloader"
	networkdefinition "storage_dapp/internal/infrastructure/network/definition"
	"storage_dapp/internal/infrastructure/ui"
	"storage_dapp/internal/pkg/logger"

	"github.com/gin-gonic/gin"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type mockConnection struct{ mock.Mock }

func (m *mockConnection) Reconnect(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type mockActions struct{ mock.Mock }

func (m *mockActions) Set(ctx context.Context, input string) (*entity.TxRecord, error) {
	args := m.Called(ctx, input)
	record, _ := args.Get(0).(*entity.TxRecord)
	return record, args.Error(1)
}

func (m *mockActions) Get(ctx context.Context) (*big.Int, error) {
	args := m.Called(ctx)
	v, _ := args.Get(0).(*big.Int)
	return v, args.Error(1)
}

func (m *mockActions) Tx(hash string) (entity.TxRecord, bool) {
	args := m.Called(hash)
	return args.Get(0).(entity.TxRecord), args.Bool(1)
}

type testServer struct {
	router     *gin.Engine
	connection *mockConnection
	actions    *mockActions
	view       *ui.State
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	abiFile := filepath.Join(dir, "abi.json")
	require.NoError(t, os.WriteFile(abiFile, []byte(`[]`), 0o644))

	cfg := &configloader.Config{}
	cfg.Server.ABIFile = abiFile

	networks, err := networkdefinition.NewNetworkDefinitionProvider(logger.NewSlogAdapter(), configloader.NetworkConfig{Identifier: "sepolia"})
	require.NoError(t, err)

	s := &testServer{
		connection: &mockConnection{},
		actions:    &mockActions{},
		view:       ui.NewState(configloader.DefaultContractAddress, 10, io.Discard, logger.NewSlogAdapter()),
	}
	h := NewDappHandler(s.connection, s.actions, s.view, networks)
	s.router = SetupRouter(h, cfg, zap.NewNop())
	return s
}

func (s *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestGetState(t *testing.T) {
	s := newTestServer(t)
	s.view.SetNetworkLabel("Sepolia (0xaa36a7)")
	s.view.SetCurrentValue("42")

	w := s.do(http.MethodGet, "/api/v1/state", "")
	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]any)
	assert.Equal(t, "Sepolia (0xaa36a7)", data["networkLabel"])
	assert.Equal(t, "42", data["currentValue"])
	assert.Equal(t, "disconnected", data["state"])
}

func TestSetValue(t *testing.T) {
	s := newTestServer(t)
	record := &entity.TxRecord{Hash: "0xabc", Value: "5", Status: entity.TxConfirmed, BlockNumber: 7}
	s.actions.On("Set", mock.Anything, "5").Return(record, nil).Once()

	w := s.do(http.MethodPost, "/api/v1/set", `{"value":"5"}`)
	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]any)
	assert.Equal(t, "0xabc", data["hash"])
	assert.Equal(t, "confirmed", data["status"])
}

func TestSetValue_ErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"invalid", entity.ErrInvalidValue, http.StatusBadRequest},
		{"not connected", entity.ErrNotConnected, http.StatusServiceUnavailable},
		{"busy", entity.ErrBusy, http.StatusConflict},
		{"rejected", entity.ErrUserRejected, http.StatusForbidden},
		{"contract", entity.ErrContractCall, http.StatusBadGateway},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestServer(t)
			s.actions.On("Set", mock.Anything, "x").Return(nil, tc.err).Once()

			w := s.do(http.MethodPost, "/api/v1/set", `{"value":"x"}`)
			assert.Equal(t, tc.code, w.Code)
			assert.Equal(t, tc.err.Error(), decode(t, w)["error"])
		})
	}
}

func TestSetValue_BadBody(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodPost, "/api/v1/set", `{"value":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	s.actions.AssertNotCalled(t, "Set", mock.Anything, mock.Anything)
}

func TestGetValue(t *testing.T) {
	s := newTestServer(t)
	s.actions.On("Get", mock.Anything).Return(big.NewInt(42), nil).Once()

	w := s.do(http.MethodPost, "/api/v1/get", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "42", decode(t, w)["data"].(map[string]any)["value"])
}

func TestConnect(t *testing.T) {
	s := newTestServer(t)
	s.connection.On("Reconnect", mock.Anything).Return(nil).Once()
	w := s.do(http.MethodPost, "/api/v1/connect", "")
	assert.Equal(t, http.StatusOK, w.Code)

	s.connection.On("Reconnect", mock.Anything).Return(entity.ErrNetworkSwitch).Once()
	w = s.do(http.MethodPost, "/api/v1/connect", "")
	assert.Equal(t, http.StatusPreconditionFailed, w.Code)
}

func TestGetTx(t *testing.T) {
	s := newTestServer(t)
	s.actions.On("Tx", "0xabc").Return(entity.TxRecord{Hash: "0xabc", Status: entity.TxMining}, true).Once()
	s.actions.On("Tx", "0xdef").Return(entity.TxRecord{}, false).Once()

	w := s.do(http.MethodGet, "/api/v1/tx/0xabc", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "mining", decode(t, w)["data"].(map[string]any)["status"])

	w = s.do(http.MethodGet, "/api/v1/tx/0xdef", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNoticesAndNetworks(t *testing.T) {
	s := newTestServer(t)
	s.view.Notify(entity.NoticeWarn, "Enter a number")

	w := s.do(http.MethodGet, "/api/v1/notices", "")
	require.Equal(t, http.StatusOK, w.Code)
	notices := decode(t, w)["data"].([]any)
	require.Len(t, notices, 1)
	assert.Equal(t, "Enter a number", notices[0].(map[string]any)["message"])

	w = s.do(http.MethodGet, "/api/v1/networks", "")
	require.Equal(t, http.StatusOK, w.Code)
	target := decode(t, w)["data"].(map[string]any)["target"].(map[string]any)
	assert.Equal(t, "Sepolia", target["name"])

	w = s.do(http.MethodGet, "/api/v1/networks/holesky", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(17000), decode(t, w)["data"].(map[string]any)["chainId"])

	w = s.do(http.MethodGet, "/api/v1/networks/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthAndABI(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/api/v1/health", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/abi.json", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", w.Body.String())
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}
