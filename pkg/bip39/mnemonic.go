package bip39

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/tyler-smith/go-bip39"
)

var ErrInvalidMnemonic = errors.New("无效的助记词")

// MnemonicService 助记词生成与种子派生
type MnemonicService struct{}

func NewMnemonicService() *MnemonicService {
	return &MnemonicService{}
}

// GenerateMnemonic bitSize 为熵的位数，128 对应 12 个单词，256 对应 24 个单词
func (s *MnemonicService) GenerateMnemonic(bitSize int) (string, error) {
	entropy, err := bip39.NewEntropy(bitSize)
	if err != nil {
		return "", fmt.Errorf("生成熵失败: %w", err)
	}

	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("生成助记词失败: %w", err)
	}

	return mnemonic, nil
}

func (s *MnemonicService) ValidateMnemonic(mnemonic string) bool {
	return bip39.IsMnemonicValid(mnemonic)
}

// MnemonicToSeed passphrase 可为空
func (s *MnemonicService) MnemonicToSeed(mnemonic string, passphrase string) []byte {
	return bip39.NewSeed(mnemonic, passphrase)
}

// SeedHex 校验助记词并返回钱包解锁所需的十六进制种子
func (s *MnemonicService) SeedHex(mnemonic string, passphrase string) (string, error) {
	if !s.ValidateMnemonic(mnemonic) {
		return "", ErrInvalidMnemonic
	}
	return hex.EncodeToString(s.MnemonicToSeed(mnemonic, passphrase)), nil
}
