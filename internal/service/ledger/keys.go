package ledger

import (
	"crypto/ecdsa"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"eth-wallet-core/pkg/bip32"
	"eth-wallet-core/pkg/errno"
	"eth-wallet-core/pkg/wallet/types"

	"github.com/ethereum/go-ethereum/common/hexutil"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// ParsePrivateKey 十六进制私钥，可带 0x
func ParsePrivateKey(s string) (*ecdsa.PrivateKey, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(s), "0x"))
	if err != nil {
		return nil, errno.ErrInvalidPrivateKey
	}
	key, err := crypto.ToECDSA(raw)
	if err != nil {
		return nil, errno.ErrInvalidPrivateKey
	}
	return key, nil
}

// deriveKey 十六进制种子按路径派生签名私钥
func deriveKey(seedHex, path string) (*ecdsa.PrivateKey, error) {
	seed, err := hex.DecodeString(strings.TrimPrefix(seedHex, "0x"))
	if err != nil {
		return nil, &errno.WalletError{Errno: errno.ErrInvalidSeed, Err: err}
	}
	key, err := bip32.DeriveECDSA(seed, path)
	if err != nil {
		return nil, &errno.WalletError{Errno: errno.ErrInvalidSeed, Err: err}
	}
	return key, nil
}

type publicKeyJSON struct {
	PubKey string `json:"pub_key"`
	Path   string `json:"path"`
}

func encodePublicKey(pub *ecdsa.PublicKey, path string) string {
	b, _ := json.Marshal(publicKeyJSON{
		PubKey: hex.EncodeToString(crypto.FromECDSAPub(pub)[1:]),
		Path:   path,
	})
	return string(b)
}

// parsePublicKey 接受 PublicKey() 导出的 JSON 或十六进制公钥 (64/65 字节)
func parsePublicKey(s string) (*ecdsa.PublicKey, string, error) {
	s = strings.TrimSpace(s)
	var path string
	if strings.HasPrefix(s, "{") {
		var pk publicKeyJSON
		if err := json.Unmarshal([]byte(s), &pk); err != nil {
			return nil, "", &errno.WalletError{Errno: errno.ErrInvalidPublicKey, Err: err}
		}
		s, path = pk.PubKey, pk.Path
	}
	raw, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return nil, "", &errno.WalletError{Errno: errno.ErrInvalidPublicKey, Err: err}
	}
	if len(raw) == 64 {
		raw = append([]byte{0x04}, raw...)
	}
	pub, err := crypto.UnmarshalPubkey(raw)
	if err != nil {
		return nil, "", &errno.WalletError{Errno: errno.ErrInvalidPublicKey, Err: err}
	}
	return pub, path, nil
}

func addressOf(pub *ecdsa.PublicKey) string {
	return strings.ToLower(crypto.PubkeyToAddress(*pub).Hex())
}

func signWith(key *ecdsa.PrivateKey, u *types.UnsignedTransaction) (*ethtypes.Transaction, error) {
	signer := ethtypes.LatestSignerForChainID(big.NewInt(u.ChainID))
	tx, err := ethtypes.SignTx(u.EthTx(), signer, key)
	if err != nil {
		return nil, fmt.Errorf("sign tx: %w", err)
	}
	return tx, nil
}

// SignedTx 已签名交易；Replaces 非空表示 RBF 替换
type SignedTx struct {
	Tx       *ethtypes.Transaction
	Replaces *types.NormalizedTx
}

func (s *SignedTx) Hash() string {
	return s.Tx.Hash().Hex()
}

// Raw 可广播的十六进制编码
func (s *SignedTx) Raw() (string, error) {
	b, err := s.Tx.MarshalBinary()
	if err != nil {
		return "", fmt.Errorf("encode tx: %w", err)
	}
	return hexutil.Encode(b), nil
}

// Envelope 转成可落盘/传输的 JSON 结构
func (s *SignedTx) Envelope() (*types.SignedTransaction, error) {
	raw, err := s.Raw()
	if err != nil {
		return nil, err
	}
	return &types.SignedTransaction{TxHash: s.Hash(), RawTx: raw, Replaces: s.Replaces}, nil
}

// DecodeSigned 从 JSON 结构还原已签名交易
func DecodeSigned(env *types.SignedTransaction) (*SignedTx, error) {
	raw, err := hexutil.Decode(env.RawTx)
	if err != nil {
		return nil, fmt.Errorf("decode raw tx: %w", err)
	}
	tx := new(ethtypes.Transaction)
	if err := tx.UnmarshalBinary(raw); err != nil {
		return nil, fmt.Errorf("decode raw tx: %w", err)
	}
	return &SignedTx{Tx: tx, Replaces: env.Replaces}, nil
}

// PendingTx 待签名交易和签名能力
type PendingTx struct {
	Unsigned *types.UnsignedTransaction
	// AmountDelta 仅替换交易：比原交易多付的手续费上限
	AmountDelta *big.Int

	sign func(*types.UnsignedTransaction) (*ethtypes.Transaction, error)
}

// Sign 钱包签名的交易在钱包锁定时返回 ErrWalletLocked
func (p *PendingTx) Sign() (*SignedTx, error) {
	tx, err := p.sign(p.Unsigned)
	if err != nil {
		return nil, err
	}
	return &SignedTx{Tx: tx, Replaces: p.Unsigned.Replaces}, nil
}
