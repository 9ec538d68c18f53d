// Package pdf genera el kardex (tarjeta de existencias) de un producto en PDF.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: SKU + Nombre        │  KARDEX + Bodega + Fecha     │
//	│  ─────────────────────────────────────────────────────────  │
//	│  SALDO INICIAL                                               │
//	│  TABLA: Seq | Fecha | Tipo | Referencia | Entrada | Salida | Saldo │
//	│  ─────────────────────────────────────────────────────────  │
//	│  SALDO FINAL                                                 │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoPDFGenerator implementa inventory.StockCardPDFGenerator usando Maroto v2.
type MarotoPDFGenerator struct {
	now func() time.Time
}

var _ inventory.StockCardPDFGenerator = (*MarotoPDFGenerator)(nil)

// NewMarotoPDFGenerator construye el generador.
func NewMarotoPDFGenerator() *MarotoPDFGenerator { return &MarotoPDFGenerator{now: time.Now} }

// GenerateStockCardPDF genera el PDF del kardex y devuelve sus bytes.
func (g *MarotoPDFGenerator) GenerateStockCardPDF(_ context.Context, card *inventory.StockCard) ([]byte, error) {
	if card == nil || card.Product == nil {
		return nil, fmt.Errorf("pdf: kardex sin producto")
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Kardex "+card.Product.SKU, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(card, g.now()))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(balanceRow("SALDO INICIAL", card.OpeningBalance, card.Product.UnitType))

	m.AddRows(tableHeaderRow())
	for _, r := range tableEntryRows(card.Entries) {
		m.AddRows(r)
	}

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(balanceRow("SALDO FINAL", card.ClosingBalance, card.Product.UnitType))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: producto (izq) y bodega + fecha de emisión (der).
func headerRow(card *inventory.StockCard, at time.Time) core.Row {
	bodega := "Todas las bodegas"
	if card.Warehouse != nil {
		bodega = card.Warehouse.Name
	}
	return row.New(18).Add(
		col.New(7).Add(
			text.New(nonEmpty(card.Product.Name, card.Product.SKU), props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("SKU: "+card.Product.SKU+"   |   Unidad: "+nonEmpty(card.Product.UnitType, "—"), props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("KARDEX DE INVENTARIO", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right,
				Color: colorPrimary, Top: 1,
			}),
			text.New(bodega, props.Text{
				Style: fontstyle.Bold, Size: 11, Align: align.Right, Top: 7,
			}),
			text.New("Emitido: "+at.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

func balanceRow(label string, qty decimal.Decimal, unit string) core.Row {
	return row.New(8).Add(
		col.New(8).Add(text.New(label+":", props.Text{
			Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2, Top: 2,
		})),
		col.New(4).Add(text.New(qty.String()+" "+unit, props.Text{
			Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 1, Top: 2, Color: colorPrimary,
		})),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Seq", 1, align.Center),
		h("Fecha", 2, align.Left),
		h("Tipo", 2, align.Left),
		h("Referencia", 3, align.Left),
		h("Entrada", 1, align.Right),
		h("Salida", 1, align.Right),
		h("Saldo", 2, align.Right),
	)
}

// tableEntryRows: una fila por movimiento; entradas y salidas en columnas separadas.
func tableEntryRows(entries []inventory.StockCardEntry) []core.Row {
	result := make([]core.Row, 0, len(entries))
	for _, e := range entries {
		mv := e.Movement
		in, out := "", ""
		if mv.IsIncrease() {
			in = mv.Quantity.String()
		} else {
			out = mv.Quantity.String()
		}
		kind := string(mv.Kind)
		if mv.ReasonCode != "" {
			kind += " (" + string(mv.ReasonCode) + ")"
		}
		result = append(result, row.New(7).Add(
			col.New(1).Add(text.New(fmt.Sprintf("%d", mv.Seq), props.Text{Size: 7, Align: align.Center, Top: 1})),
			col.New(2).Add(text.New(mv.CreatedAt.Format("02/01/2006 15:04"), props.Text{Size: 7, Top: 1, Left: 1})),
			col.New(2).Add(text.New(kind, props.Text{Size: 7, Top: 1, Left: 1})),
			col.New(3).Add(text.New(truncate(mv.ReferenceID, 36), props.Text{Size: 7, Top: 1, Left: 1, Color: colorGray})),
			col.New(1).Add(text.New(in, props.Text{Size: 7, Align: align.Right, Top: 1, Right: 1})),
			col.New(1).Add(text.New(out, props.Text{Size: 7, Align: align.Right, Top: 1, Right: 1})),
			col.New(2).Add(text.New(e.Balance.String(), props.Text{Style: fontstyle.Bold, Size: 7, Align: align.Right, Top: 1, Right: 1})),
		))
	}
	return result
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
