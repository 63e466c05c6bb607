package types

import (
	"encoding/json"
	"math/big"
	"testing"

	"eth-wallet-core/pkg/fee"

	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEthTxFollowsFeeModel(t *testing.T) {
	u := &UnsignedTransaction{
		ChainID:  1,
		To:       "0x3fe0de839ae303070a9a537c5494195e40e1ce71",
		Value:    big.NewInt(1000),
		Nonce:    7,
		GasLimit: 21000,
		Fee:      fee.Legacy{GasPrice: big.NewInt(20)},
	}
	legacy := u.EthTx()
	assert.Equal(t, uint8(ethtypes.LegacyTxType), legacy.Type())
	assert.Equal(t, int64(20), legacy.GasPrice().Int64())
	assert.Equal(t, uint64(7), legacy.Nonce())

	u.Fee = fee.FeeMarket{MaxPriorityFeePerGas: big.NewInt(2), MaxFeePerGas: big.NewInt(40)}
	dynamic := u.EthTx()
	assert.Equal(t, uint8(ethtypes.DynamicFeeTxType), dynamic.Type())
	assert.Equal(t, int64(2), dynamic.GasTipCap().Int64())
	assert.Equal(t, int64(40), dynamic.GasFeeCap().Int64())
	assert.Equal(t, int64(1), dynamic.ChainId().Int64())
}

func TestUnsignedTransactionJSONCarriesFee(t *testing.T) {
	u := UnsignedTransaction{
		Chain:    "ETH",
		To:       "0x3fe0de839ae303070a9a537c5494195e40e1ce71",
		Value:    big.NewInt(5),
		GasLimit: 21000,
		Fee:      fee.FeeMarket{MaxPriorityFeePerGas: big.NewInt(2), MaxFeePerGas: big.NewInt(40)},
		Data:     []byte{0xa9, 0x05},
	}
	raw, err := json.Marshal(u)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"type":"eip1559"`)
	assert.Contains(t, string(raw), `"data":"0xa905"`)

	var back UnsignedTransaction
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.True(t, fee.Equal(u.Fee, back.Fee))
	assert.Equal(t, u.To, back.To)
	assert.Equal(t, int64(5), back.Value.Int64())
}

func TestRawTxIsToken(t *testing.T) {
	var native, token, null RawTx
	require.NoError(t, json.Unmarshal([]byte(`{"_id":"a","value":"10"}`), &native))
	require.NoError(t, json.Unmarshal([]byte(`{"txId":"b","value":10,"token":{"address":"0x1"}}`), &token))
	require.NoError(t, json.Unmarshal([]byte(`{"txId":"c","token":null}`), &null))

	assert.False(t, native.IsToken())
	assert.True(t, token.IsToken())
	assert.False(t, null.IsToken())
	assert.Equal(t, "10", token.Value.String())
	assert.False(t, native.GasUsed.Valid)
}
