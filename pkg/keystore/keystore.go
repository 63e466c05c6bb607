// Package keystore 用口令加密保存钱包秘密 (助记词种子、账本快照)，格式参照 Keystore V3。
package keystore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"eth-wallet-core/pkg/safe_random"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"golang.org/x/crypto/scrypt"
)

var ErrMACMismatch = errors.New("invalid password or corrupted data (MAC mismatch)")

type EncryptedKeyJSON struct {
	Crypto  CryptoJSON `json:"crypto"`
	Id      string     `json:"id"`
	Version int        `json:"version"`
	// Kind 内容类型，如 "seed"、"snapshot"
	Kind string `json:"kind,omitempty"`
}

type CryptoJSON struct {
	Cipher       string       `json:"cipher"`
	CipherText   string       `json:"ciphertext"`
	CipherParams CipherParams `json:"cipherparams"`
	KDF          string       `json:"kdf"`
	KDFParams    KDFParams    `json:"kdfparams"`
	MAC          string       `json:"mac"`
}

type CipherParams struct {
	IV string `json:"iv"`
}

type KDFParams struct {
	DKLen int    `json:"dklen"`
	N     int    `json:"n"`
	R     int    `json:"r"`
	P     int    `json:"p"`
	Salt  string `json:"salt"`
}

// Scrypt 成本参数
type Scrypt struct {
	N int
	P int
}

var (
	StandardScrypt = Scrypt{N: 1 << 18, P: 1}
	// LightScrypt 用于频繁写入的快照和测试
	LightScrypt = Scrypt{N: 1 << 12, P: 6}
)

const (
	scryptR     = 8
	scryptDKLen = 32
)

// Encrypt 使用 scrypt 派生密钥，AES-256-GCM 加密；MAC = keccak256(dk[16:32] || ciphertext)
func Encrypt(kind string, plaintext []byte, password string, params Scrypt) (*EncryptedKeyJSON, error) {
	salt, err := safe_random.GenerateRandomBytes(32)
	if err != nil {
		return nil, err
	}
	derivedKey, err := scrypt.Key([]byte(password), salt, params.N, scryptR, params.P, scryptDKLen)
	if err != nil {
		return nil, err
	}

	gcm, err := newGCM(derivedKey)
	if err != nil {
		return nil, err
	}
	nonce, err := safe_random.GenerateRandomBytes(gcm.NonceSize())
	if err != nil {
		return nil, err
	}
	ciphertext := gcm.Seal(nil, nonce, plaintext, nil)

	return &EncryptedKeyJSON{
		Version: 3,
		Id:      uuid.NewString(),
		Kind:    kind,
		Crypto: CryptoJSON{
			Cipher:       "aes-256-gcm",
			CipherText:   hex.EncodeToString(ciphertext),
			CipherParams: CipherParams{IV: hex.EncodeToString(nonce)},
			KDF:          "scrypt",
			KDFParams: KDFParams{
				DKLen: scryptDKLen,
				N:     params.N,
				R:     scryptR,
				P:     params.P,
				Salt:  hex.EncodeToString(salt),
			},
			MAC: hex.EncodeToString(crypto.Keccak256(derivedKey[16:32], ciphertext)),
		},
	}, nil
}

func Decrypt(k *EncryptedKeyJSON, password string) ([]byte, error) {
	if k.Crypto.KDF != "scrypt" {
		return nil, fmt.Errorf("unsupported kdf %q", k.Crypto.KDF)
	}
	salt, err := hex.DecodeString(k.Crypto.KDFParams.Salt)
	if err != nil {
		return nil, fmt.Errorf("invalid salt: %w", err)
	}
	nonce, err := hex.DecodeString(k.Crypto.CipherParams.IV)
	if err != nil {
		return nil, fmt.Errorf("invalid iv: %w", err)
	}
	ciphertext, err := hex.DecodeString(k.Crypto.CipherText)
	if err != nil {
		return nil, fmt.Errorf("invalid ciphertext: %w", err)
	}
	mac, err := hex.DecodeString(k.Crypto.MAC)
	if err != nil {
		return nil, fmt.Errorf("invalid mac: %w", err)
	}

	p := k.Crypto.KDFParams
	derivedKey, err := scrypt.Key([]byte(password), salt, p.N, p.R, p.P, p.DKLen)
	if err != nil {
		return nil, err
	}
	if len(derivedKey) < 32 || subtle.ConstantTimeCompare(mac, crypto.Keccak256(derivedKey[16:32], ciphertext)) != 1 {
		return nil, ErrMACMismatch
	}

	gcm, err := newGCM(derivedKey)
	if err != nil {
		return nil, err
	}
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("decryption failed: %w", err)
	}
	return plaintext, nil
}

// EncryptSeed 十六进制种子
func EncryptSeed(seedHex, password string) (*EncryptedKeyJSON, error) {
	return Encrypt("seed", []byte(seedHex), password, StandardScrypt)
}

func DecryptSeed(k *EncryptedKeyJSON, password string) (string, error) {
	b, err := Decrypt(k, password)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (k *EncryptedKeyJSON) Marshal() ([]byte, error) {
	return json.Marshal(k)
}

func Unmarshal(data []byte) (*EncryptedKeyJSON, error) {
	var k EncryptedKeyJSON
	if err := json.Unmarshal(data, &k); err != nil {
		return nil, fmt.Errorf("decode keystore: %w", err)
	}
	return &k, nil
}

// SaveToFile 权限 0600
func (k *EncryptedKeyJSON) SaveToFile(filename string) error {
	data, err := json.MarshalIndent(k, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0600)
}

func LoadFromFile(filename string) (*EncryptedKeyJSON, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return Unmarshal(data)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
