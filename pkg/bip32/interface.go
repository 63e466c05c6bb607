package bip32

import (
	"crypto/ecdsa"
	"errors"

	"github.com/btcsuite/btcd/btcec/v2"
)

// ExtendedKey 包装了 BIP-32 扩展密钥
type ExtendedKey interface {
	// String 返回 Base58 编码的密钥字符串 (xprv... / xpub...)
	String() string

	ECPubKey() (*btcec.PublicKey, error)
	// ECPrivKey 用于签名
	ECPrivKey() (*btcec.PrivateKey, error)
	// ECDSA 返回 go-ethereum 可直接使用的私钥
	ECDSA() (*ecdsa.PrivateKey, error)
	Derive(index uint32) (ExtendedKey, error)
	IsPrivate() bool
	// Address 返回 EIP-55 格式的以太坊地址
	Address() (string, error)
	Neuter() (ExtendedKey, error)
}

// HDWallet 定义了分层确定性钱包的基本行为
type HDWallet interface {
	MasterKey() ExtendedKey
	// DerivePath 根据路径 (如 "m/44'/60'/0'/0/0") 派生密钥，"m" 表示主密钥
	DerivePath(path string) (ExtendedKey, error)
}

var (
	ErrInvalidSeed = errors.New("无效的种子")
	ErrInvalidPath = errors.New("无效的派生路径")
)
