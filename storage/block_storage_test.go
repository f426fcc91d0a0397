package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/decipherlabs/payroll-keeper/internal/types"
)

type mockUploader struct {
	mock.Mock
	body []byte
}

func (m *mockUploader) UploadWithContext(ctx aws.Context, input *s3manager.UploadInput, opts ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error) {
	m.body, _ = io.ReadAll(input.Body)
	args := m.Called(aws.StringValue(input.Bucket), aws.StringValue(input.Key))
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3manager.UploadOutput), args.Error(1)
}

func testRun() *types.PayrollRun {
	run := types.NewPayrollRun(
		common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3"),
		common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"),
		time.Date(2025, 3, 9, 10, 0, 0, 0, time.UTC),
	)
	run.Total = 1
	run.Record(types.EmployeeOutcome{
		Employee: common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8"),
		Outcome:  types.OutcomePaid,
		TxHash:   "0xabc",
	})
	run.Finish(types.RunStatusCompleted, run.StartedAt.Add(time.Minute), nil)
	return run
}

func TestReportKey(t *testing.T) {
	run := testRun()
	assert.Equal(t, "runs/0x5fbdb2315678afecb367f032d93f642f64180aa3/2025/03/"+run.ID.String()+".json.xz", ReportKey(run))
}

func TestBlockStorageUpload(t *testing.T) {
	run := testRun()
	up := new(mockUploader)
	up.On("UploadWithContext", "payroll-reports", ReportKey(run)).Return(&s3manager.UploadOutput{}, nil)

	bs := &BlockStorage{uploader: up, bucket: "payroll-reports"}
	key, err := bs.Upload(context.Background(), run)
	require.NoError(t, err)
	assert.Equal(t, ReportKey(run), key)

	decoded, err := DecodeReport(bytes.NewReader(up.body))
	require.NoError(t, err)
	assert.Equal(t, run.ID, decoded.ID)
	assert.Equal(t, run.Contract, decoded.Contract)
	assert.Equal(t, 1, decoded.Succeeded)
	require.Len(t, decoded.Outcomes, 1)
	assert.Equal(t, "0xabc", decoded.Outcomes[0].TxHash)
}

func TestBlockStorageUploadError(t *testing.T) {
	up := new(mockUploader)
	up.On("UploadWithContext", mock.Anything, mock.Anything).Return(nil, errors.New("access denied"))

	bs := &BlockStorage{uploader: up, bucket: "payroll-reports"}
	_, err := bs.Upload(context.Background(), testRun())
	require.ErrorContains(t, err, "access denied")
}

func TestNewBlockStorageRequiresBucket(t *testing.T) {
	_, err := NewBlockStorage("", "us-east-1", "", "", "")
	require.Error(t, err)
}
