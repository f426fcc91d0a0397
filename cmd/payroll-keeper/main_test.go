package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decipherlabs/payroll-keeper/config"
	"github.com/decipherlabs/payroll-keeper/service"
)

const testContract = "0x5FbDB2315678afecb367f032d93F642f64180aa3"

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())
	// Nothing listens here; a command that dials fails loudly.
	t.Setenv("RPC_URL", "http://127.0.0.1:1")

	contractFlag, outputJSON = "", false
	feesTaxPercent, feesRisk = "", ""
	apiTokenTTL = time.Hour

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRunRequiresPrivateKey(t *testing.T) {
	t.Setenv("PRIVATE_KEY", "")
	t.Setenv("PAYROLL_CONTRACT_ADDRESS", testContract)

	_, err := execute(t, "run")
	require.ErrorIs(t, err, config.ErrPrivateKeyNotSet)
}

func TestRunRequiresContractAddress(t *testing.T) {
	t.Setenv("PRIVATE_KEY", "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80")
	t.Setenv("PAYROLL_CONTRACT_ADDRESS", "")

	_, err := execute(t, "run")
	require.ErrorIs(t, err, config.ErrPayrollAddressNotSet)
}

func TestRunRejectsInvalidContractFlag(t *testing.T) {
	t.Setenv("PRIVATE_KEY", "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80")

	_, err := execute(t, "run", "--contract", "0x1234")
	require.ErrorContains(t, err, "invalid contract address")
}

func TestEmployeeAddRequiresPrivateKey(t *testing.T) {
	t.Setenv("PRIVATE_KEY", "")
	t.Setenv("PAYROLL_CONTRACT_ADDRESS", testContract)

	_, err := execute(t, "employee", "add", "0x70997970C51812dc3A010C7d01b50e0d17dc79C8", "--salary", "1000")
	require.ErrorIs(t, err, config.ErrPrivateKeyNotSet)
}

func TestEmployeeSelfServiceRequiresPrivateKey(t *testing.T) {
	t.Setenv("PRIVATE_KEY", "")
	t.Setenv("PAYROLL_CONTRACT_ADDRESS", testContract)

	for _, args := range [][]string{
		{"employee", "claim"},
		{"employee", "release-vested"},
		{"employee", "update-wallet", "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"},
		{"employee", "history"},
		{"employee", "vested"},
	} {
		_, err := execute(t, args...)
		require.ErrorIs(t, err, config.ErrPrivateKeyNotSet, args)
	}
}

func TestEmployeeSelfServiceRejectsInvalidAddress(t *testing.T) {
	t.Setenv("PAYROLL_CONTRACT_ADDRESS", testContract)

	_, err := execute(t, "employee", "update-wallet", "0x1234")
	require.ErrorContains(t, err, "invalid wallet address")

	_, err = execute(t, "employee", "history", "nobody")
	require.ErrorContains(t, err, "invalid employee address")
}

func TestCompanyFundValidatesAmount(t *testing.T) {
	t.Setenv("PRIVATE_KEY", "")
	t.Setenv("PAYROLL_CONTRACT_ADDRESS", testContract)

	_, err := execute(t, "company", "fund", "0")
	require.ErrorContains(t, err, "amount must be greater than zero")

	_, err = execute(t, "company", "fund", "lots")
	require.ErrorContains(t, err, "invalid amount")

	_, err = execute(t, "company", "fund", "100")
	require.ErrorIs(t, err, config.ErrPrivateKeyNotSet)
}

func TestCompanyListRequiresPrivateKeyWithoutOwner(t *testing.T) {
	t.Setenv("PRIVATE_KEY", "")

	_, err := execute(t, "company", "list")
	require.ErrorIs(t, err, config.ErrPrivateKeyNotSet)

	_, err = execute(t, "company", "list", "0x1234")
	require.ErrorContains(t, err, "invalid owner address")
}

func TestAPIToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	out, err := execute(t, "api-token", "--ttl", "30m")
	require.NoError(t, err)

	auth, err := service.NewAuthService("test-secret", time.Hour)
	require.NoError(t, err)
	claims, err := auth.ValidateToken(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "payroll-keeper", claims.Issuer)
	assert.Equal(t, int64(30*60), claims.ExpiresAt-claims.IssuedAt)

	other, err := service.NewAuthService("wrong-secret", time.Hour)
	require.NoError(t, err)
	_, err = other.ValidateToken(strings.TrimSpace(out))
	require.Error(t, err)
}

func TestAPITokenRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := execute(t, "api-token")
	require.ErrorContains(t, err, "jwt_secret is not set")
}

func TestFees(t *testing.T) {
	out, err := execute(t, "fees", "1000", "--tax-percent", "10", "--risk", "conservative")
	require.NoError(t, err)
	assert.Contains(t, out, "Platform fee: 10.0 (100 bps)")
	assert.Contains(t, out, "Tax:          100.0 (1000 bps)")
	assert.Contains(t, out, "Net:          890.0")
	assert.Contains(t, out, "178.0 volatile (20%) / 712.0 stable (80%)")
}

func TestFeesJSON(t *testing.T) {
	out, err := execute(t, "fees", "250.5", "--json")
	require.NoError(t, err)

	var view feesView
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Equal(t, "250.5", view.Gross)
	assert.Equal(t, "2.505", view.Fee)
	assert.Equal(t, "25.05", view.Tax)
	assert.Equal(t, "222.945", view.Net)
	assert.Nil(t, view.Hedge)
}

func TestPercentToBps(t *testing.T) {
	bps, err := percentToBps("7.5")
	require.NoError(t, err)
	assert.Equal(t, uint16(750), bps)

	bps, err = percentToBps("")
	require.NoError(t, err)
	assert.Zero(t, bps)

	_, err = percentToBps("101")
	require.Error(t, err)
	_, err = percentToBps("ten")
	require.Error(t, err)
}

func TestParseSwitch(t *testing.T) {
	for in, want := range map[string]bool{"on": true, "off": false, "true": true, "0": false} {
		got, err := parseSwitch(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := parseSwitch("maybe")
	require.Error(t, err)
}

func TestResolveToken(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := config.ReadConfig("config")
	require.NoError(t, err)
	a := &app{cfg: cfg}

	assert.Equal(t, cfg.Contracts.StableToken, a.resolveToken("mUSDC"))
	assert.Equal(t, cfg.Contracts.VolatileToken, a.resolveToken("mETH"))
	assert.Equal(t, common.HexToAddress(testContract), a.resolveToken(testContract))
}
