package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"telecom-recon/internal/domain"
)

func installedSale(id int64, protocol, document, phone string) *domain.SaleRecord {
	return &domain.SaleRecord{
		ID:               id,
		InternalProtocol: protocol,
		Document:         document,
		Phone:            phone,
		ExternalStatus:   "Installed - active",
	}
}

func TestEligible(t *testing.T) {
	assert.True(t, Eligible(&domain.SaleRecord{ExternalStatus: "installed"}))
	assert.True(t, Eligible(&domain.SaleRecord{ExternalStatus: "INSTALLED OK"}))
	assert.True(t, Eligible(&domain.SaleRecord{ExternalStatus: "Installed - pending billing"}))
	assert.False(t, Eligible(&domain.SaleRecord{ExternalStatus: "cancelled"}))
	assert.False(t, Eligible(&domain.SaleRecord{ExternalStatus: "pending installation"}))
	assert.False(t, Eligible(&domain.SaleRecord{ExternalStatus: ""}))
}

func TestIndexLookups(t *testing.T) {
	sales := []*domain.SaleRecord{
		installedSale(1, "P1", "123.456.789-01", "+55 11 99123-4567"),
		installedSale(2, "P2", "123.456.789-01", ""),
		{ID: 3, InternalProtocol: "P3", ExternalStatus: "cancelled"},
	}

	idx := NewIndex(sales)

	assert.Equal(t, 2, idx.EligibleCount())

	// Protocol is matched raw
	assert.Len(t, idx.ByProtocol("P1"), 1)
	assert.Equal(t, int64(1), idx.ByProtocol("P1")[0].ID)
	assert.Empty(t, idx.ByProtocol("P3"), "ineligible sales are not indexed")
	assert.Empty(t, idx.ByProtocol(""))

	// Document lookups normalize the query key
	docMatches := idx.ByDocument("12345678901")
	assert.Len(t, docMatches, 2)
	assert.Equal(t, int64(1), docMatches[0].ID, "insertion order preserved")
	assert.Equal(t, int64(2), docMatches[1].ID)
	assert.Len(t, idx.ByDocument("123.456.789-01"), 2)

	// Phone lookups normalize to the subscriber number
	assert.Len(t, idx.ByPhone("991234567"), 1)
	assert.Len(t, idx.ByPhone("+55 (11) 99123-4567"), 1)
	assert.Empty(t, idx.ByPhone(""))
}

func TestIndexSkipsEmptyKeys(t *testing.T) {
	idx := NewIndex([]*domain.SaleRecord{installedSale(1, "", "", "")})

	assert.Equal(t, 1, idx.EligibleCount())
	assert.Empty(t, idx.ByProtocol(""))
	assert.Empty(t, idx.ByDocument("---"))
	assert.Empty(t, idx.ByPhone("abc"))
}
