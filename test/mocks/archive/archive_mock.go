package archive

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/decipherlabs/payroll-keeper/internal/types"
)

type MockReportArchive struct {
	mock.Mock
}

func (m *MockReportArchive) Upload(ctx context.Context, run *types.PayrollRun) (string, error) {
	args := m.Called(ctx, run)
	return args.String(0), args.Error(1)
}
