package handler

import (
	"math/big"

	"eth-wallet-core/internal/handler/request"
	"eth-wallet-core/internal/handler/response"
	"eth-wallet-core/internal/service/wallet"
	"eth-wallet-core/pkg/errno"
	"eth-wallet-core/pkg/validator"
	"eth-wallet-core/pkg/wallet/types"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type WalletHandler struct {
	svc *wallet.Service
}

func NewWalletHandler(svc *wallet.Service) *WalletHandler {
	return &WalletHandler{svc: svc}
}

// Overview GET /api/v1/wallet
func (h *WalletHandler) Overview(c *gin.Context) {
	response.Success(c, h.svc.Overview())
}

// Refresh POST /api/v1/wallet/refresh
func (h *WalletHandler) Refresh(c *gin.Context) {
	o, err := h.svc.Refresh(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, o)
}

// History GET /api/v1/wallet/txs，每次调用返回下一页
func (h *WalletHandler) History(c *gin.Context) {
	page, err := h.svc.History(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, page)
}

// Transaction GET /api/v1/wallet/txs/:txId
func (h *WalletHandler) Transaction(c *gin.Context) {
	tx, err := h.svc.Transaction(c.Request.Context(), c.Param("txId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, tx)
}

// BuildTransfer POST /api/v1/wallet/transfer/build
func (h *WalletHandler) BuildTransfer(c *gin.Context) {
	var req request.TransferRequest
	amount, ok := bindTransfer(c, &req)
	if !ok {
		return
	}
	u, err := h.svc.BuildTransfer(req.To, amount)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, u)
}

// Transfer POST /api/v1/wallet/transfer
func (h *WalletHandler) Transfer(c *gin.Context) {
	var req request.TransferRequest
	amount, ok := bindTransfer(c, &req)
	if !ok {
		return
	}
	res, err := h.svc.Transfer(c.Request.Context(), req.To, amount)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// Replace POST /api/v1/wallet/replace
func (h *WalletHandler) Replace(c *gin.Context) {
	var req request.ReplaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	res, err := h.svc.Replace(c.Request.Context(), req.TxID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// Broadcast POST /api/v1/wallet/broadcast
func (h *WalletHandler) Broadcast(c *gin.Context) {
	var req request.BroadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	res, err := h.svc.Broadcast(c.Request.Context(), &types.SignedTransaction{
		TxHash:   req.TxHash,
		RawTx:    req.RawTx,
		Replaces: req.Replaces,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// ResolveIban GET /api/v1/wallet/iban/:iban
func (h *WalletHandler) ResolveIban(c *gin.Context) {
	addr, err := h.svc.ResolveIban(c.Param("iban"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"address": addr})
}

func bindTransfer(c *gin.Context, req *request.TransferRequest) (*big.Int, bool) {
	if err := c.ShouldBindJSON(req); err != nil {
		response.Error(c, bindError(err))
		return nil, false
	}
	d, err := decimal.NewFromString(req.Amount)
	if err != nil || !d.IsInteger() {
		response.Error(c, &errno.WalletError{Errno: errno.ErrBind, Details: "amount must be an integer in base units"})
		return nil, false
	}
	return d.BigInt(), true
}

func bindError(err error) error {
	return &errno.WalletError{Errno: errno.ErrBind, Details: validator.GetErrorMsg(err)}
}
