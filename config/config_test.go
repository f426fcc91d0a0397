package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func inTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestReadConfigDefaults(t *testing.T) {
	inTempDir(t)

	cfg, err := ReadConfig("config")
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:8545", cfg.RPCURL)
	assert.Equal(t, uint64(500000), cfg.Payment.GasLimit)
	assert.Equal(t, "standard", cfg.Payment.Method)
	assert.Equal(t, 5*time.Minute, cfg.Payment.WaitTimeout)
	assert.Equal(t, uint64(100), cfg.Payment.PlatformFeeBps)
	assert.Equal(t, 30*time.Second, cfg.Scheduler.PollInterval)
	assert.Equal(t, common.HexToAddress("0xE7f1cCB2fA6b47169643e243A546aAD27A6a8Af2"), cfg.Contracts.Factory)
	assert.Empty(t, cfg.Scheduler.Contracts)
	assert.Equal(t, common.Address{}, cfg.PayrollContract)
}

func TestReadConfigEnvironment(t *testing.T) {
	inTempDir(t)
	t.Setenv("RPC_URL", "https://sepolia.base.org")
	t.Setenv("PRIVATE_KEY", "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80")
	t.Setenv("PAYROLL_CONTRACT_ADDRESS", "0x5fbdb2315678afecb367f032d93f642f64180aa3")
	t.Setenv("PAYMENT_GAS_LIMIT", "300000")
	t.Setenv("PAYMENT_METHOD", "hedge")
	t.Setenv("SCHEDULER_CONTRACTS", "0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512,0x5FbDB2315678afecb367f032d93F642f64180aa3")

	cfg, err := ReadConfig("config")
	require.NoError(t, err)

	assert.Equal(t, "https://sepolia.base.org", cfg.RPCURL)
	assert.Equal(t, uint64(300000), cfg.Payment.GasLimit)
	assert.Equal(t, "hedge", cfg.Payment.Method)
	assert.Equal(t, common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3"), cfg.PayrollContract)
	require.NoError(t, cfg.ValidateForRun())

	assert.Equal(t, []common.Address{
		common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3"),
		common.HexToAddress("0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512"),
	}, cfg.ScheduledContracts())
}

func TestReadConfigFile(t *testing.T) {
	dir := inTempDir(t)
	content := `
rpc_url: https://rpc.example.org
payroll_contract_address: "0x5FbDB2315678afecb367f032d93F642f64180aa3"
payment:
  method: force
  wait_timeout: 90s
redis:
  host: localhost
log:
  format: json
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "keeper.yaml"), []byte(content), 0o600))

	cfg, err := ReadConfig("keeper")
	require.NoError(t, err)
	assert.Equal(t, "https://rpc.example.org", cfg.RPCURL)
	assert.Equal(t, "force", cfg.Payment.Method)
	assert.Equal(t, 90*time.Second, cfg.Payment.WaitTimeout)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr())
}

func TestReadConfigInvalid(t *testing.T) {
	t.Run("bad address", func(t *testing.T) {
		inTempDir(t)
		t.Setenv("PAYROLL_CONTRACT_ADDRESS", "0x1234")
		_, err := ReadConfig("config")
		require.ErrorContains(t, err, "invalid address")
	})

	t.Run("bad method", func(t *testing.T) {
		inTempDir(t)
		t.Setenv("PAYMENT_METHOD", "instant")
		_, err := ReadConfig("config")
		require.ErrorContains(t, err, "invalid config")
	})

	t.Run("bad rpc url", func(t *testing.T) {
		inTempDir(t)
		t.Setenv("RPC_URL", "not a url")
		_, err := ReadConfig("config")
		require.Error(t, err)
	})
}

func TestValidateForRun(t *testing.T) {
	cfg := &Config{}
	require.ErrorIs(t, cfg.ValidateForRun(), ErrPrivateKeyNotSet)
	assert.EqualError(t, cfg.ValidateForRun(), "PRIVATE_KEY not set in environment variables")

	cfg.PrivateKey = "0x01"
	require.ErrorIs(t, cfg.ValidateForRun(), ErrPayrollAddressNotSet)
	assert.EqualError(t, cfg.ValidateForRun(), "PAYROLL_CONTRACT_ADDRESS not set in environment variables")

	cfg.PayrollContract = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
	assert.NoError(t, cfg.ValidateForRun())
}
