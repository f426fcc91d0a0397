package contracts

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestERC20Token(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()
	fake := backend.deploy(t, usdcAddr, ERC20ABI)
	fake.results["symbol"] = []interface{}{"mUSDC"}
	fake.results["name"] = []interface{}{"Mock USDC"}
	fake.results["decimals"] = []interface{}{uint8(18)}
	fake.results["balanceOf"] = []interface{}{big.NewInt(42)}
	fake.results["allowance"] = []interface{}{big.NewInt(7)}
	signer := newTestSigner(t, backend)

	token, err := NewERC20(usdcAddr, backend, signer)
	require.NoError(t, err)

	info, err := token.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, TokenInfo{Address: usdcAddr, Symbol: "mUSDC", Name: "Mock USDC", Decimals: 18}, info)

	bal, err := token.BalanceOf(ctx, aliceAddr)
	require.NoError(t, err)
	assert.Equal(t, int64(42), bal.Int64())

	allowance, err := token.Allowance(ctx, aliceAddr, payrollAddr)
	require.NoError(t, err)
	assert.Equal(t, int64(7), allowance.Int64())

	tx, err := token.Approve(ctx, payrollAddr, big.NewInt(1000))
	require.NoError(t, err)
	assert.Equal(t, usdcAddr, *tx.To())

	tx, err = token.Transfer(ctx, payrollAddr, big.NewInt(1000))
	require.NoError(t, err)
	assert.Equal(t, token.abi.Methods["transfer"].ID, tx.Data()[:4])
}

func TestERC20Native(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()
	backend.balances[aliceAddr] = big.NewInt(1e18)

	eth, err := NewERC20(common.Address{}, backend, nil)
	require.NoError(t, err)

	info, err := eth.Info(ctx)
	require.NoError(t, err)
	assert.True(t, info.Native)
	assert.Equal(t, "ETH", info.Symbol)
	assert.Equal(t, uint8(18), info.Decimals)

	bal, err := eth.BalanceOf(ctx, aliceAddr)
	require.NoError(t, err)
	assert.Equal(t, "1.0", FormatUnits(bal, 18))

	_, err = eth.Allowance(ctx, aliceAddr, payrollAddr)
	require.ErrorIs(t, err, ErrNativeToken)

	_, err = eth.Approve(ctx, payrollAddr, big.NewInt(1))
	require.ErrorIs(t, err, ErrNativeToken)

	_, err = eth.Transfer(ctx, payrollAddr, big.NewInt(1))
	require.ErrorIs(t, err, ErrNativeToken)
}

func TestUnits(t *testing.T) {
	testCases := []struct {
		text     string
		decimals uint8
		base     string
		format   string
	}{
		{"1", 18, "1000000000000000000", "1.0"},
		{"0.5", 18, "500000000000000000", "0.5"},
		{"1234.56", 6, "1234560000", "1234.56"},
		{".25", 2, "25", "0.25"},
		{"0", 18, "0", "0.0"},
		{"-2.5", 1, "-25", "-2.5"},
	}
	for _, tc := range testCases {
		t.Run(tc.text, func(t *testing.T) {
			n, err := ParseUnits(tc.text, tc.decimals)
			require.NoError(t, err)
			assert.Equal(t, tc.base, n.String())
			assert.Equal(t, tc.format, FormatUnits(n, tc.decimals))
		})
	}

	for _, bad := range []string{"", "abc", "1.2.3", "0.1234567", "."} {
		_, err := ParseUnits(bad, 6)
		assert.Error(t, err, bad)
	}
	assert.Equal(t, "0.000000000000000001", FormatUnits(big.NewInt(1), 18))
}
