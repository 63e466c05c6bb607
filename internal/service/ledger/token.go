package ledger

import (
	"bytes"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const erc20TransferABI = `[{"constant":false,"inputs":[{"name":"_to","type":"address"},{"name":"_value","type":"uint256"}],"name":"transfer","outputs":[{"name":"","type":"bool"}],"type":"function"}]`

var transferMethod = mustTransferMethod()

func mustTransferMethod() abi.Method {
	parsed, err := abi.JSON(strings.NewReader(erc20TransferABI))
	if err != nil {
		panic(err)
	}
	return parsed.Methods["transfer"]
}

// EncodeTransfer transfer(address,uint256) 调用数据，selector 为 a9059cbb
func EncodeTransfer(to string, amount *big.Int) ([]byte, error) {
	args, err := transferMethod.Inputs.Pack(common.HexToAddress(to), orZero(amount))
	if err != nil {
		return nil, fmt.Errorf("pack transfer: %w", err)
	}
	return append(append([]byte{}, transferMethod.ID...), args...), nil
}

// DecodeTransfer 从已签名交易的 data 中取出收款地址 (小写) 和数量
func DecodeTransfer(data []byte) (string, *big.Int, error) {
	if !IsTransferCall(data) {
		return "", nil, fmt.Errorf("data is not an ERC-20 transfer call")
	}
	out, err := transferMethod.Inputs.Unpack(data[4:])
	if err != nil {
		return "", nil, fmt.Errorf("unpack transfer: %w", err)
	}
	to, ok := out[0].(common.Address)
	if !ok {
		return "", nil, fmt.Errorf("unexpected recipient type %T", out[0])
	}
	value, ok := out[1].(*big.Int)
	if !ok {
		return "", nil, fmt.Errorf("unexpected amount type %T", out[1])
	}
	return strings.ToLower(to.Hex()), value, nil
}

func IsTransferCall(data []byte) bool {
	return len(data) >= 4+64 && bytes.Equal(data[:4], transferMethod.ID)
}
