package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"eth-wallet-core/internal/handler"
	"eth-wallet-core/internal/handler/response"
	"eth-wallet-core/internal/indexer"
	"eth-wallet-core/internal/server"
	"eth-wallet-core/internal/service/ledger"
	"eth-wallet-core/internal/service/wallet"
	"eth-wallet-core/pkg/errno"
	"eth-wallet-core/pkg/monitor"
	"eth-wallet-core/pkg/wallet/types"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testSeed  = "5eb00bbddcf069084889a8ab9155568165f5c453ccb85e70811aaed6f6da5fc19a5ac40b389cd370d086206dec8aa6c43daea6690f20ad3d8d48b2d2ce9e38e4"
	recipient = "0x3fe0de839ae303070a9a537c5494195e40e1ce71"
)

// fakeIndexer 只实现加载钱包需要的接口
func fakeIndexer(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/addr/{addr}/balance", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"balance":"1000000","confirmedBalance":"1000000"}`))
	})
	mux.HandleFunc("GET /api/v1/addr/{addr}/txsCount", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"count":3}`))
	})
	mux.HandleFunc("GET /api/v1/gasPrice", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"price":"10"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	idx := fakeIndexer(t)
	registry := prometheus.NewRegistry()
	metrics := monitor.NewMetrics(registry)
	api := indexer.NewClient(idx.URL, idx.Client(), zap.NewNop(), indexer.WithMetrics(metrics))

	l, err := ledger.New(ledger.Options{
		Asset:          types.NativeAsset("ETH"),
		Seed:           testSeed,
		DerivationPath: "m/44'/60'/0'/0/0",
		API:            api,
		Metrics:        metrics,
	})
	require.NoError(t, err)
	svc := wallet.NewService(l, wallet.Deps{Metrics: metrics})

	return server.NewHTTPRouter(handler.NewWalletHandler(svc), metrics, registry)
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) (int, response.Response) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp response.Response
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w.Code, resp
}

func TestHealthCheck(t *testing.T) {
	r := setupRouter(t)
	code, resp := doJSON(t, r, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, errno.OK.Code, resp.Code)
}

func TestRefreshAndOverview(t *testing.T) {
	r := setupRouter(t)

	_, resp := doJSON(t, r, http.MethodPost, "/api/v1/wallet/refresh", "")
	require.Equal(t, errno.OK.Code, resp.Code, resp.Message)

	_, resp = doJSON(t, r, http.MethodGet, "/api/v1/wallet", "")
	require.Equal(t, errno.OK.Code, resp.Code)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "0x9858effd232b4033e47d90003d41ec34ecaeda94", data["address"])
	assert.Equal(t, "1000000", data["balance"])
	assert.Equal(t, "790000", data["max_amount"])
	assert.Equal(t, float64(3), data["tx_count"])
}

func TestTransferErrors(t *testing.T) {
	r := setupRouter(t)
	_, resp := doJSON(t, r, http.MethodPost, "/api/v1/wallet/refresh", "")
	require.Equal(t, errno.OK.Code, resp.Code)

	tests := []struct {
		name string
		body string
		code int
		key  string
		want string
	}{
		{"missing fields", `{}`, errno.ErrBind.Code, "", ""},
		{"bad recipient", `{"to":"0x12","amount":"100"}`, errno.ErrBind.Code, "", ""},
		{"fractional amount", `{"to":"` + recipient + `","amount":"1.5"}`, errno.ErrBind.Code, "", ""},
		{"dust", `{"to":"` + recipient + `","amount":"1"}`, errno.ErrInvalidValue.Code, "dust_threshold", "1"},
		{"would empty wallet", `{"to":"` + recipient + `","amount":"900000"}`, errno.ErrInsufficientFunds.Code, "sendable_balance", "790000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, resp := doJSON(t, r, http.MethodPost, "/api/v1/wallet/transfer", tt.body)
			assert.Equal(t, tt.code, resp.Code, resp.Message)
			if tt.key != "" {
				data := resp.Data.(map[string]interface{})
				assert.Equal(t, tt.want, data[tt.key])
			}
		})
	}
}

func TestBuildTransfer(t *testing.T) {
	r := setupRouter(t)
	_, resp := doJSON(t, r, http.MethodPost, "/api/v1/wallet/refresh", "")
	require.Equal(t, errno.OK.Code, resp.Code)

	_, resp = doJSON(t, r, http.MethodPost, "/api/v1/wallet/transfer/build", `{"to":"XE567GMDI1I6D0C818UK1PFR4T4URDRD2SX","amount":"1000"}`)
	require.Equal(t, errno.OK.Code, resp.Code, resp.Message)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, recipient, data["to"])
	assert.Equal(t, float64(3), data["nonce"])
	fee := data["fee"].(map[string]interface{})
	assert.Equal(t, "10", fee["gas_price"])
}

func TestReplaceRejectsMalformedTxID(t *testing.T) {
	r := setupRouter(t)
	_, resp := doJSON(t, r, http.MethodPost, "/api/v1/wallet/replace", `{"tx_id":"0x1234"}`)
	assert.Equal(t, errno.ErrBind.Code, resp.Code)
}

func TestResolveIban(t *testing.T) {
	r := setupRouter(t)

	_, resp := doJSON(t, r, http.MethodGet, "/api/v1/wallet/iban/XE567GMDI1I6D0C818UK1PFR4T4URDRD2SX", "")
	require.Equal(t, errno.OK.Code, resp.Code)
	assert.Equal(t, recipient, resp.Data.(map[string]interface{})["address"])

	_, resp = doJSON(t, r, http.MethodGet, "/api/v1/wallet/iban/XE81ETHXREGGAVOFYORK", "")
	assert.Equal(t, errno.ErrInvalidIban.Code, resp.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	r := setupRouter(t)
	doJSON(t, r, http.MethodGet, "/health", "")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}
