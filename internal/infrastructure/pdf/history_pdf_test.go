package pdf

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/history"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

func TestRenderHistory_GeneraPDF(t *testing.T) {
	now := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)
	page := &history.Page{
		Items: []*entity.MovementView{
			{
				MovementEntry: entity.MovementEntry{
					ID: 2, ProductID: 1, Type: entity.MovementTypeOut, Quantity: 3, Delta: -3,
					QuantityBefore: 10, QuantityAfter: 7, ActorName: "Ana", ReferenceNumber: "SO-1", CreatedAt: now,
				},
				ProductSKU: "CAM-M", ProductName: "Camiseta talla M con un nombre bastante largo para truncar",
			},
			{
				MovementEntry: entity.MovementEntry{
					ID: 1, ProductID: 1, Type: entity.MovementTypeIn, Quantity: 10, Delta: 10,
					QuantityBefore: 0, QuantityAfter: 10, ActorName: "Ana", ReferenceNumber: "PO-1", CreatedAt: now.Add(-time.Hour),
				},
				ProductSKU: "CAM-M", ProductName: "Camiseta",
			},
		},
		Pagination: history.NewPagination(1, 20, 2, 2),
		SnapshotID: 2,
	}

	doc, err := NewHistoryPDFGenerator().RenderHistory(context.Background(), page, history.ReportInfo{
		GeneratedBy: "Admin", GeneratedAt: now, Filters: []string{"producto 1"},
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(doc, []byte("%PDF")), "debe ser un documento PDF")
}

func TestRenderHistory_PaginaVacia(t *testing.T) {
	page := &history.Page{Items: []*entity.MovementView{}, Pagination: history.NewPagination(1, 20, 0, 0)}

	doc, err := NewHistoryPDFGenerator().RenderHistory(context.Background(), page, history.ReportInfo{})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(doc, []byte("%PDF")))
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, "+5", signed(5))
	assert.Equal(t, "-3", signed(-3))
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
	assert.Equal(t, "x", nonEmpty("", "x"))
}
