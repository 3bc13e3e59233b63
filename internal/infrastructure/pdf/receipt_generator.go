// Package pdf genera el recibo de venta en PDF.
//
// Layout (A4):
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Organización + almacén  │  N° Venta + Fecha        │
//	│  CLIENTE / VENDEDOR / MEDIO DE PAGO                         │
//	│  TABLA: Cant | Producto | P.Unit | Desc. | Subtotal         │
//	│  TOTALES: Subtotal / Descuento / Impuesto / TOTAL / Cambio  │
//	│  FOOTER: código de barras con el número de venta            │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
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

	"github.com/jhoicas/Tienda-api/internal/application/sales"
	"github.com/jhoicas/Tienda-api/internal/domain/entity"
	"github.com/jhoicas/Tienda-api/pkg/money"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorRed     = &props.Color{Red: 180, Green: 30, Blue: 30}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// ReceiptGenerator implementa sales.ReceiptPDFGenerator usando Maroto v2.
type ReceiptGenerator struct {
	fmt *money.Formatter
}

// NewReceiptGenerator construye el generador con la moneda y locale de la instalación.
func NewReceiptGenerator(currency, locale string) *ReceiptGenerator {
	return &ReceiptGenerator{fmt: money.NewFormatter(currency, locale)}
}

// GenerateReceiptPDF genera el PDF y devuelve sus bytes.
func (g *ReceiptGenerator) GenerateReceiptPDF(_ context.Context, data sales.ReceiptData) ([]byte, error) {
	if data.Sale == nil || data.Tenant == nil {
		return nil, fmt.Errorf("pdf: venta y organización son obligatorias")
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Recibo "+data.Sale.Number, true).
		WithAuthor(data.Tenant.Name, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(data))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(partiesRow(data))
	if data.Sale.Status == entity.SaleStatusCanceled {
		m.AddRows(canceledRow(data.Sale))
	}
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	m.AddRows(g.detailRows(data.Details)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(g.totalsRow(data.Sale))

	m.AddRows(line.NewRow(3))
	m.AddRows(footerRow(data.Sale))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(data sales.ReceiptData) core.Row {
	warehouse := "-"
	if data.Warehouse != nil {
		warehouse = data.Warehouse.Name
		if data.Warehouse.Address != "" {
			warehouse += " · " + data.Warehouse.Address
		}
	}
	return row.New(18).Add(
		col.New(7).Add(
			text.New(data.Tenant.Name, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New(warehouse, props.Text{Size: 9, Top: 9, Color: colorGray}),
		),
		col.New(5).Add(
			text.New("RECIBO DE VENTA", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New(data.Sale.Number, props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7,
			}),
			text.New("Fecha: "+data.Sale.CreatedAt.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

func partiesRow(data sales.ReceiptData) core.Row {
	return row.New(10).Add(
		col.New(12).Add(
			text.New(fmt.Sprintf("Cliente: %s   |   Vendedor: %s   |   Pago: %s",
				nonEmpty(data.Sale.CustomerName, "Consumidor final"),
				nonEmpty(data.Seller, "-"),
				data.Sale.PaymentMethod,
			), props.Text{Size: 8, Top: 3, Color: colorGray}),
		),
	)
}

func canceledRow(sale *entity.Sale) core.Row {
	return row.New(8).Add(col.New(12).Add(
		text.New("ANULADA: "+nonEmpty(sale.CancelReason, "sin motivo"), props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Center, Color: colorRed, Top: 1,
		}),
	))
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Cant.", 1, align.Center),
		h("Producto", 5, align.Left),
		h("Precio Unit.", 2, align.Right),
		h("Desc.", 1, align.Right),
		h("Subtotal", 3, align.Right),
	)
}

func (g *ReceiptGenerator) detailRows(details []*entity.SaleDetail) []core.Row {
	rows := make([]core.Row, 0, len(details))
	for _, d := range details {
		rows = append(rows, row.New(7).Add(
			col.New(1).Add(text.New(g.fmt.Quantity(d.Quantity), props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(5).Add(text.New(nonEmpty(d.ProductName, d.ProductID), props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(2).Add(text.New(g.fmt.Format(d.UnitPrice), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(1).Add(text.New(g.fmt.Format(d.Discount), props.Text{Size: 7, Align: align.Right, Top: 1})),
			col.New(3).Add(text.New(g.fmt.Format(d.Subtotal), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
		))
	}
	return rows
}

func (g *ReceiptGenerator) totalsRow(sale *entity.Sale) core.Row {
	label := func(s string, top float64) core.Component {
		return text.New(s, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2, Top: top})
	}
	value := func(s string, top float64) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1, Top: top})
	}
	return row.New(34).Add(
		col.New(5),
		col.New(3).Add(
			label("Subtotal:", 0),
			label("Descuento:", 5),
			label("Impuesto:", 10),
			text.New("TOTAL:", props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 2, Top: 15}),
			label("Recibido:", 22),
			label("Cambio:", 27),
		),
		col.New(4).Add(
			value(g.fmt.Format(sale.Subtotal), 0),
			value(g.fmt.Format(sale.Discount), 5),
			value(g.fmt.Format(sale.Tax), 10),
			text.New(g.fmt.Format(sale.Total), props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 1, Top: 15}),
			value(g.fmt.Format(sale.AmountPaid), 22),
			value(g.fmt.Format(sale.Change), 27),
		),
	)
}

func footerRow(sale *entity.Sale) core.Row {
	return row.New(16).Add(
		col.New(3),
		col.New(6).Add(code.NewBar(sale.Number, props.Barcode{Percent: 80, Center: true})),
		col.New(3),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
