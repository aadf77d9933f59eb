package matcher

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telecom-recon/internal/domain"
)

type fakeLoader struct {
	records    []*domain.OperatorRecord
	sales      []*domain.SaleRecord
	reconciled map[int64]*domain.ReconciliationLink

	recordsErr error
	salesErr   error
	linksErr   error
}

func (l *fakeLoader) OperatorRecords(ctx context.Context, batchLabel string) ([]*domain.OperatorRecord, error) {
	return l.records, l.recordsErr
}

func (l *fakeLoader) EligibleSales(ctx context.Context) ([]*domain.SaleRecord, error) {
	return l.sales, l.salesErr
}

func (l *fakeLoader) ReconciledLinks(ctx context.Context) (map[int64]*domain.ReconciliationLink, error) {
	if l.reconciled == nil {
		l.reconciled = map[int64]*domain.ReconciliationLink{}
	}
	return l.reconciled, l.linksErr
}

func TestRunnerBucketsAndSummary(t *testing.T) {
	loader := &fakeLoader{
		records: []*domain.OperatorRecord{
			operatorRecord(1, "P1", "", ""),       // found by protocol
			operatorRecord(2, "", "123", ""),      // ambiguous by document
			operatorRecord(3, "", "555", ""),      // not found
			{ID: 4, BatchLabel: "batch-1"},        // invalid
			operatorRecord(5, "", "555", ""),      // duplicate of record 3
		},
		sales: []*domain.SaleRecord{
			installedSale(10, "P1", "", ""),
			installedSale(20, "", "123", ""),
			installedSale(30, "", "123", ""),
		},
	}

	result, err := NewRunner(loader, 2).Run(context.Background(), "batch-1")

	require.NoError(t, err)
	assert.Equal(t, "batch-1", result.BatchLabel)
	assert.NotEmpty(t, result.RunID)
	assert.False(t, result.GeneratedAt.IsZero())

	assert.Len(t, result.Found, 1)
	assert.Len(t, result.Ambiguous, 1)
	assert.Len(t, result.NotFound, 1)
	assert.Len(t, result.Invalid, 1)
	assert.Len(t, result.Duplicates, 1)
	assert.Empty(t, result.AlreadyConciliated)

	assert.Equal(t, domain.ResultSummary{
		Total:      5,
		Found:      1,
		Ambiguous:  1,
		NotFound:   1,
		Invalid:    1,
		Duplicates: 1,
	}, result.Summary)

	// Duplicate detection crosses chunk boundaries
	assert.Equal(t, 2, result.Duplicates[0].DuplicateOf)
}

func TestRunnerProgress(t *testing.T) {
	var reports [][2]int
	loader := &fakeLoader{}
	for i := 0; i < 5; i++ {
		loader.records = append(loader.records, operatorRecord(int64(i+1), fmt.Sprintf("P%d", i), "", ""))
	}

	_, err := NewRunner(loader, 2).
		WithProgress(func(processed, total int) { reports = append(reports, [2]int{processed, total}) }).
		Run(context.Background(), "batch-1")

	require.NoError(t, err)
	assert.Equal(t, [][2]int{{2, 5}, {4, 5}, {5, 5}}, reports)
}

func TestRunnerCancellationDiscardsPartials(t *testing.T) {
	loader := &fakeLoader{}
	for i := 0; i < 10; i++ {
		loader.records = append(loader.records, operatorRecord(int64(i+1), fmt.Sprintf("P%d", i), "", ""))
	}

	ctx, cancel := context.WithCancel(context.Background())

	runner := NewRunner(loader, 2).WithProgress(func(processed, total int) {
		if processed >= 4 {
			cancel()
		}
	})

	result, err := runner.Run(ctx, "batch-1")

	assert.Nil(t, result, "cancelled run must not return a truncated snapshot")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunnerLoadFailureAborts(t *testing.T) {
	boom := errors.New("store unreachable")

	for _, loader := range []*fakeLoader{
		{recordsErr: boom},
		{salesErr: boom},
		{linksErr: boom},
	} {
		result, err := NewRunner(loader, 0).Run(context.Background(), "batch-1")
		assert.Nil(t, result)
		assert.ErrorIs(t, err, boom)
	}
}

func TestRunnerAlreadyConciliatedExcludedFromFound(t *testing.T) {
	sale := installedSale(10, "P2", "", "")
	loader := &fakeLoader{
		records: []*domain.OperatorRecord{operatorRecord(1, "P2", "", "")},
		sales:   []*domain.SaleRecord{sale},
		reconciled: map[int64]*domain.ReconciliationLink{
			1: {ID: "link-1", SaleID: 10, OperatorRecordID: 1, Status: domain.LinkReconciled},
		},
	}

	result, err := NewRunner(loader, 0).Run(context.Background(), "batch-1")

	require.NoError(t, err)
	assert.Empty(t, result.Found)
	require.Len(t, result.AlreadyConciliated, 1)
	assert.Equal(t, sale, result.AlreadyConciliated[0].LinkedSale)
}
