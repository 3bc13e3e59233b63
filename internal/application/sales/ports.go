package sales

import (
	"context"

	"github.com/jhoicas/Tienda-api/internal/domain/entity"
	"github.com/jhoicas/Tienda-api/internal/domain/event"
	"github.com/jhoicas/Tienda-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD con repositorios atados a ella.
type TxRunner interface {
	Run(ctx context.Context, fn func(repos repository.Repositories) error) error
}

// LimitChecker valida topes del plan (ventas por mes).
type LimitChecker interface {
	CheckLimit(ctx context.Context, tenantID, resource string) error
}

// EventPublisher publica eventos de venta hacia otros sistemas (Kafka o log).
type EventPublisher interface {
	Publish(ctx context.Context, ev event.SaleEvent) error
}

// ReceiptData todo lo necesario para el recibo de una venta.
type ReceiptData struct {
	Sale      *entity.Sale
	Details   []*entity.SaleDetail
	Tenant    *entity.Tenant
	Warehouse *entity.Warehouse
	Seller    string
}

// ReceiptPDFGenerator genera el PDF del recibo de venta.
type ReceiptPDFGenerator interface {
	GenerateReceiptPDF(ctx context.Context, data ReceiptData) ([]byte, error)
}

// ReceiptArchive guarda el PDF en almacenamiento externo y devuelve su URL.
type ReceiptArchive interface {
	PutReceipt(ctx context.Context, key string, pdf []byte) (string, error)
}
