package bip32

import (
	"crypto/ecdsa"
	"fmt"
	"strconv"
	"strings"

	"eth-wallet-core/pkg/address"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
)

// Keychain 实现了 ExtendedKey 接口，封装了 hdkeychain.ExtendedKey
type Keychain struct {
	key *hdkeychain.ExtendedKey
}

func (k *Keychain) String() string {
	return k.key.String()
}

func (k *Keychain) ECPubKey() (*btcec.PublicKey, error) {
	return k.key.ECPubKey()
}

func (k *Keychain) ECPrivKey() (*btcec.PrivateKey, error) {
	return k.key.ECPrivKey()
}

func (k *Keychain) ECDSA() (*ecdsa.PrivateKey, error) {
	priv, err := k.key.ECPrivKey()
	if err != nil {
		return nil, err
	}
	return priv.ToECDSA(), nil
}

func (k *Keychain) Derive(index uint32) (ExtendedKey, error) {
	childKey, err := k.key.Derive(index)
	if err != nil {
		return nil, fmt.Errorf("派生子密钥失败: %w", err)
	}
	return &Keychain{key: childKey}, nil
}

func (k *Keychain) IsPrivate() bool {
	return k.key.IsPrivate()
}

func (k *Keychain) Address() (string, error) {
	pub, err := k.key.ECPubKey()
	if err != nil {
		return "", err
	}
	return address.NewETHGenerator().PubKeyToAddress(pub.SerializeUncompressed())
}

func (k *Keychain) Neuter() (ExtendedKey, error) {
	neuterKey, err := k.key.Neuter()
	if err != nil {
		return nil, fmt.Errorf("转换公钥失败: %w", err)
	}
	return &Keychain{key: neuterKey}, nil
}

// Wallet 实现 HDWallet 接口
type Wallet struct {
	masterKey *Keychain
}

// NewMasterKeyFromSeed 使用 BIP-39 种子生成主密钥
// 扩展密钥序列化前缀使用主网参数，不影响以太坊地址
func NewMasterKeyFromSeed(seed []byte) (*Wallet, error) {
	if len(seed) < hdkeychain.MinSeedBytes || len(seed) > hdkeychain.MaxSeedBytes {
		return nil, ErrInvalidSeed
	}

	masterKey, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, fmt.Errorf("生成主密钥失败: %w", err)
	}

	return &Wallet{masterKey: &Keychain{key: masterKey}}, nil
}

func (w *Wallet) MasterKey() ExtendedKey {
	return w.masterKey
}

// DerivePath 解析路径并派生密钥
// 支持格式: m/44'/60'/0'/0/0 或 m/44h/60h/0h/0/0
func (w *Wallet) DerivePath(path string) (ExtendedKey, error) {
	path = strings.TrimSpace(path)
	if path == "" || path == "m" {
		return w.masterKey, nil
	}
	if !strings.HasPrefix(path, "m/") {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPath, path)
	}

	var current ExtendedKey = w.masterKey
	for _, segment := range strings.Split(path[2:], "/") {
		hardened := false
		if strings.HasSuffix(segment, "'") || strings.HasSuffix(segment, "h") {
			hardened = true
			segment = segment[:len(segment)-1]
		}

		val, err := strconv.ParseUint(segment, 10, 31)
		if err != nil {
			return nil, fmt.Errorf("%w: 路径段 '%s': %v", ErrInvalidPath, segment, err)
		}
		index := uint32(val)
		if hardened {
			index += hdkeychain.HardenedKeyStart
		}

		current, err = current.Derive(index)
		if err != nil {
			return nil, err
		}
	}

	return current, nil
}

// DeriveECDSA 种子 + 路径 -> 签名私钥
func DeriveECDSA(seed []byte, path string) (*ecdsa.PrivateKey, error) {
	w, err := NewMasterKeyFromSeed(seed)
	if err != nil {
		return nil, err
	}
	key, err := w.DerivePath(path)
	if err != nil {
		return nil, err
	}
	return key.ECDSA()
}
