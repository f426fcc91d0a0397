package contracts

import (
	"context"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	gtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	factoryAddr  = common.HexToAddress("0xE7f1cCB2fA6b47169643e243A546aAD27A6a8Af2")
	deployedAddr = common.HexToAddress("0x9fE46736679d2D9a65F0992F2272dE9f3c7fa6e0")
)

func newTestFactory(t *testing.T, backend *fakeBackend, receipt *gtypes.Receipt) (*Factory, *[]time.Duration) {
	t.Helper()
	signer := newTestSigner(t, backend)
	f, err := NewFactory(factoryAddr, backend, signer, func(ctx context.Context, tx *gtypes.Transaction) (*gtypes.Receipt, error) {
		return receipt, nil
	})
	require.NoError(t, err)

	var slept []time.Duration
	f.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return f, &slept
}

func TestDeployCompanyPayrollExpectedAddress(t *testing.T) {
	backend := newFakeBackend()
	fake := backend.deploy(t, factoryAddr, FactoryABI)
	fake.results["deployCompanyPayroll"] = []interface{}{deployedAddr}
	backend.code[deployedAddr] = []byte{0x01}

	f, slept := newTestFactory(t, backend, &gtypes.Receipt{Status: gtypes.ReceiptStatusSuccessful})

	res, err := f.DeployCompanyPayroll(context.Background(), aliceAddr, common.Address{})
	require.NoError(t, err)
	assert.Equal(t, deployedAddr, res.Address)
	assert.Equal(t, backend.sent[0].Hash(), res.TxHash)
	assert.Equal(t, []time.Duration{2 * time.Second}, *slept)
}

func TestDeployCompanyPayrollFromReceiptLogs(t *testing.T) {
	backend := newFakeBackend()
	fake := backend.deploy(t, factoryAddr, FactoryABI)
	fake.results["deployCompanyPayroll"] = []interface{}{common.HexToAddress("0x00000000000000000000000000000000000000aa")}

	payroll := backend.deploy(t, deployedAddr, PayrollABI)
	payroll.results["getEmployeeList"] = []interface{}{[]common.Address{}}

	receipt := &gtypes.Receipt{
		Status: gtypes.ReceiptStatusSuccessful,
		Logs: []*gtypes.Log{
			{Address: factoryAddr},
			{Address: deployedAddr},
		},
	}
	f, slept := newTestFactory(t, backend, receipt)

	res, err := f.DeployCompanyPayroll(context.Background(), aliceAddr, bobAddr)
	require.NoError(t, err)
	assert.Equal(t, deployedAddr, res.Address)
	assert.Equal(t, []time.Duration{2 * time.Second, 3 * time.Second}, *slept)
}

func TestDeployCompanyPayrollFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("no factory code", func(t *testing.T) {
		backend := newFakeBackend()
		f, _ := newTestFactory(t, backend, nil)
		_, err := f.DeployCompanyPayroll(ctx, aliceAddr, common.Address{})
		require.ErrorContains(t, err, "no contract at factory address")
	})

	t.Run("invalid owner", func(t *testing.T) {
		backend := newFakeBackend()
		backend.deploy(t, factoryAddr, FactoryABI)
		f, _ := newTestFactory(t, backend, nil)
		_, err := f.DeployCompanyPayroll(ctx, common.Address{}, common.Address{})
		require.ErrorIs(t, err, ErrInvalidOwner)
	})

	t.Run("reverted receipt", func(t *testing.T) {
		backend := newFakeBackend()
		backend.deploy(t, factoryAddr, FactoryABI)
		f, _ := newTestFactory(t, backend, &gtypes.Receipt{Status: gtypes.ReceiptStatusFailed})
		_, err := f.DeployCompanyPayroll(ctx, aliceAddr, common.Address{})
		require.ErrorIs(t, err, ErrDeploymentRejected)
	})

	t.Run("address unknown", func(t *testing.T) {
		backend := newFakeBackend()
		backend.deploy(t, factoryAddr, FactoryABI)
		f, _ := newTestFactory(t, backend, &gtypes.Receipt{Status: gtypes.ReceiptStatusSuccessful})
		_, err := f.DeployCompanyPayroll(ctx, aliceAddr, common.Address{})
		require.ErrorIs(t, err, ErrDeployedAddressUnknown)
	})
}

func TestCompanyPayrolls(t *testing.T) {
	backend := newFakeBackend()
	fake := backend.deploy(t, factoryAddr, FactoryABI)
	fake.results["getCompanyPayrolls"] = []interface{}{[]common.Address{deployedAddr, payrollAddr}}

	f, _ := newTestFactory(t, backend, nil)
	list, err := f.CompanyPayrolls(context.Background(), aliceAddr)
	require.NoError(t, err)
	assert.Equal(t, []common.Address{deployedAddr, payrollAddr}, list)
}
