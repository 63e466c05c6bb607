package indexer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"eth-wallet-core/pkg/address"
	"eth-wallet-core/pkg/errno"
	"eth-wallet-core/pkg/fee"
	"eth-wallet-core/pkg/monitor"
	"eth-wallet-core/pkg/wallet/types"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var txIDPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)

// Client 索引服务 REST 客户端，重试策略由注入的 http.Client (Transport) 决定
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger
	metrics    *monitor.Metrics
	fees       FeeSource
}

type Option func(*Client)

// WithFeeSource 报价改走其它来源（如 JSON-RPC 节点）
func WithFeeSource(src FeeSource) Option {
	return func(c *Client) { c.fees = src }
}

func WithMetrics(m *monitor.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

func NewClient(baseURL string, httpClient *http.Client, log *zap.Logger, opts ...Option) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if log == nil {
		log = zap.NewNop()
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		log:        log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type balanceResponse struct {
	Balance          decimal.Decimal `json:"balance"`
	ConfirmedBalance decimal.Decimal `json:"confirmedBalance"`
}

type txsResponse struct {
	Txs   []types.RawTx `json:"txs"`
	Limit int           `json:"limit"`
}

type feeResponse struct {
	Price                decimal.NullDecimal `json:"price"`
	MaxFeePerGas         decimal.NullDecimal `json:"maxFeePerGas"`
	MaxPriorityFeePerGas decimal.NullDecimal `json:"maxPriorityFeePerGas"`
}

func (c *Client) GetBalance(ctx context.Context, addr string, minConf int64) (*Balance, error) {
	if err := validateAddress(addr); err != nil {
		return nil, err
	}
	var resp balanceResponse
	q := url.Values{"confirmations": {fmt.Sprint(minConf)}}
	if err := c.get(ctx, "getBalance", "/api/v1/addr/"+addr+"/balance", q, &resp); err != nil {
		return nil, err
	}
	return &Balance{Balance: resp.Balance.BigInt(), ConfirmedBalance: resp.ConfirmedBalance.BigInt()}, nil
}

func (c *Client) GetTokenBalance(ctx context.Context, token, addr string, minConf int64) (*Balance, error) {
	if err := validateAddress(token); err != nil {
		return nil, err
	}
	if err := validateAddress(addr); err != nil {
		return nil, err
	}
	var resp balanceResponse
	q := url.Values{"confirmations": {fmt.Sprint(minConf)}}
	if err := c.get(ctx, "getTokenBalance", "/api/v1/token/"+token+"/"+addr+"/balance", q, &resp); err != nil {
		return nil, err
	}
	return &Balance{Balance: resp.Balance.BigInt(), ConfirmedBalance: resp.ConfirmedBalance.BigInt()}, nil
}

func (c *Client) GetTxCount(ctx context.Context, addr string) (uint64, error) {
	if err := validateAddress(addr); err != nil {
		return 0, err
	}
	var resp struct {
		Count uint64 `json:"count"`
	}
	if err := c.get(ctx, "getTxCount", "/api/v1/addr/"+addr+"/txsCount", nil, &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

func (c *Client) GetFeeQuote(ctx context.Context, kind fee.Kind) (fee.Model, error) {
	if c.fees != nil {
		return c.fees.GetFeeQuote(ctx, kind)
	}
	var resp feeResponse
	if err := c.get(ctx, "getFeeQuote", "/api/v1/gasPrice", nil, &resp); err != nil {
		return nil, err
	}
	if kind == fee.KindFeeMarket {
		if !resp.MaxFeePerGas.Valid {
			return nil, errno.Transport(fmt.Errorf("fee quote has no maxFeePerGas"))
		}
		return fee.FeeMarket{
			MaxPriorityFeePerGas: resp.MaxPriorityFeePerGas.Decimal.BigInt(),
			MaxFeePerGas:         resp.MaxFeePerGas.Decimal.BigInt(),
		}, nil
	}
	if !resp.Price.Valid {
		return nil, errno.Transport(fmt.Errorf("fee quote has no price"))
	}
	return fee.Legacy{GasPrice: resp.Price.Decimal.BigInt()}, nil
}

func (c *Client) GetTxPage(ctx context.Context, addr, cursor string) (*TxPage, error) {
	if err := validateAddress(addr); err != nil {
		return nil, err
	}
	var resp txsResponse
	if err := c.get(ctx, "getTxPage", "/api/v1/addr/"+addr+"/txs", cursorQuery(cursor), &resp); err != nil {
		return nil, err
	}
	return toPage(resp, func(last types.RawTx) string {
		return fmt.Sprintf("%d:%s:%d", last.BlockNumber, last.ID, last.CallIndex)
	}), nil
}

func (c *Client) GetTokenTxPage(ctx context.Context, token, addr, cursor string) (*TxPage, error) {
	if err := validateAddress(token); err != nil {
		return nil, err
	}
	if err := validateAddress(addr); err != nil {
		return nil, err
	}
	var resp txsResponse
	if err := c.get(ctx, "getTokenTxPage", "/api/v1/token/"+token+"/"+addr+"/txs", cursorQuery(cursor), &resp); err != nil {
		return nil, err
	}
	return toPage(resp, func(last types.RawTx) string {
		return fmt.Sprintf("%d:%s:%d", last.BlockNumber, last.TxID, last.LogIndex)
	}), nil
}

func (c *Client) SubmitRawTransaction(ctx context.Context, rawTx string) (string, error) {
	body, err := json.Marshal(map[string]string{"rawtx": rawTx})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}
	var resp struct {
		TxID string `json:"txId"`
	}
	if err := c.do(ctx, "submitRawTransaction", http.MethodPost, "/api/v1/tx/send", nil, bytes.NewReader(body), &resp); err != nil {
		return "", err
	}
	c.log.Info("raw transaction submitted", zap.String("tx_id", resp.TxID))
	return resp.TxID, nil
}

func (c *Client) GetTransaction(ctx context.Context, txID, addr string) (*types.RawTx, error) {
	if !txIDPattern.MatchString(txID) {
		return nil, &errno.WalletError{Errno: errno.ErrInvalidTxID, Details: txID}
	}
	if addr != "" {
		if err := validateAddress(addr); err != nil {
			return nil, err
		}
	}
	var resp struct {
		Tx *types.RawTx `json:"tx"`
	}
	if err := c.get(ctx, "getTransaction", "/api/v1/tx/"+txID, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Tx == nil {
		return nil, &errno.WalletError{Errno: errno.ErrTxNotFound, Details: txID}
	}
	return resp.Tx, nil
}

func (c *Client) get(ctx context.Context, method, path string, query url.Values, out interface{}) error {
	return c.do(ctx, method, http.MethodGet, path, query, nil, out)
}

// do 发起请求；非 2xx 响应只识别 "Gas limit is too low"，其余一律视为传输错误
func (c *Client) do(ctx context.Context, method, httpMethod, path string, query url.Values, body io.Reader, out interface{}) (err error) {
	start := time.Now()
	defer func() { c.metrics.RecordIndexerCall(method, time.Since(start), err) }()

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, httpMethod, u, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error("indexer request failed", zap.String("method", method), zap.Error(err))
		return errno.Transport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.parseErrorResponse(method, resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errno.Transport(fmt.Errorf("failed to decode %s response: %w", method, err))
	}
	return nil
}

func (c *Client) parseErrorResponse(method string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	msg := strings.TrimSpace(string(raw))
	if strings.Contains(msg, errno.ErrGasLimitTooLow.Message) {
		return errno.ErrGasLimitTooLow
	}
	c.log.Error("indexer returned error",
		zap.String("method", method),
		zap.Int("status", resp.StatusCode),
		zap.String("body", msg),
	)
	return errno.Transport(fmt.Errorf("%s: status %d: %s", method, resp.StatusCode, msg))
}

func toPage(resp txsResponse, cursorOf func(types.RawTx) string) *TxPage {
	page := &TxPage{Txs: resp.Txs}
	if len(resp.Txs) > 0 && len(resp.Txs) >= resp.Limit {
		page.HasMore = true
		page.Cursor = cursorOf(resp.Txs[len(resp.Txs)-1])
	}
	return page
}

func cursorQuery(cursor string) url.Values {
	if cursor == "" {
		return nil
	}
	return url.Values{"cursor": {cursor}}
}

func validateAddress(addr string) error {
	if !address.IsValidAddress(addr) {
		return &errno.WalletError{Errno: errno.ErrInvalidAddress, Details: addr}
	}
	return nil
}
