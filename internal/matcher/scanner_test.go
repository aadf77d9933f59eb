package matcher

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telecom-recon/internal/domain"
)

func decPtr(d decimal.Decimal) *decimal.Decimal { return &d }

func TestScannerDivergences(t *testing.T) {
	sale := installedSale(10, "P1", "", "")
	sale.Value = decimal.NewFromInt(80)

	matchingSale := installedSale(20, "P2", "", "")
	matchingSale.Value = decimal.NewFromInt(50)

	records := []*domain.OperatorRecord{
		{ID: 1, Value: decimal.NewFromInt(90), AdjustedValue: decPtr(decimal.NewFromInt(100))},
		{ID: 2, Value: decimal.NewFromInt(50)},
		{ID: 3, Value: decimal.NewFromInt(999)}, // no link, ignored
	}

	reconciled := map[int64]*domain.ReconciliationLink{
		1: {ID: "l1", SaleID: 10, OperatorRecordID: 1, Status: domain.LinkReconciled},
		2: {ID: "l2", SaleID: 20, OperatorRecordID: 2, Status: domain.LinkReconciled},
	}
	salesByID := map[int64]*domain.SaleRecord{10: sale, 20: matchingSale}

	findings, err := NewScanner(1).Divergences(context.Background(), records, reconciled, salesByID)

	require.NoError(t, err)
	require.Len(t, findings, 1, "matching values are not divergent")

	// The adjusted value wins over the reported value
	assert.Equal(t, int64(1), findings[0].Record.ID)
	assert.True(t, findings[0].OperatorValue.Equal(decimal.NewFromInt(100)))
	assert.True(t, findings[0].SaleValue.Equal(decimal.NewFromInt(80)))
	assert.True(t, findings[0].Delta.Equal(decimal.NewFromInt(20)))
}

func TestScannerDivergencesCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	findings, err := NewScanner(1).Divergences(ctx, []*domain.OperatorRecord{{ID: 1}}, nil, nil)

	assert.Nil(t, findings)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScannerGaps(t *testing.T) {
	linked := installedSale(10, "P1", "", "")
	unreported := installedSale(20, "P2", "", "")
	ineligible := &domain.SaleRecord{ID: 30, ExternalStatus: "cancelled"}

	reconciled := map[int64]*domain.ReconciliationLink{
		1: {ID: "l1", SaleID: 10, OperatorRecordID: 1, Status: domain.LinkReconciled},
	}

	findings, err := NewScanner(2).Gaps(context.Background(), []*domain.SaleRecord{linked, unreported, ineligible}, reconciled)

	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, int64(20), findings[0].Sale.ID)
	assert.Equal(t, "no operator record reports this sale", findings[0].Reason)
}

func TestScannerGapsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	findings, err := NewScanner(1).Gaps(ctx, []*domain.SaleRecord{installedSale(1, "", "", "")}, nil)

	assert.Nil(t, findings)
	assert.ErrorIs(t, err, context.Canceled)
}
