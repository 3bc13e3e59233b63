package sales

import (
	"context"
	"fmt"

	"github.com/jhoicas/Tienda-api/internal/domain"
	"github.com/jhoicas/Tienda-api/internal/domain/repository"
	"github.com/jhoicas/Tienda-api/pkg/logger"
)

// ReceiptUseCase genera el recibo PDF de una venta y, si hay almacenamiento configurado, lo archiva.
type ReceiptUseCase struct {
	saleRepo      repository.SaleRepository
	tenantRepo    repository.TenantRepository
	warehouseRepo repository.WarehouseRepository
	profileRepo   repository.ProfileRepository
	generator     ReceiptPDFGenerator
	archive       ReceiptArchive
	log           *logger.Logger
}

// NewReceiptUseCase construye el caso de uso. archive puede ser nil.
func NewReceiptUseCase(
	saleRepo repository.SaleRepository,
	tenantRepo repository.TenantRepository,
	warehouseRepo repository.WarehouseRepository,
	profileRepo repository.ProfileRepository,
	generator ReceiptPDFGenerator,
	archive ReceiptArchive,
	log *logger.Logger,
) *ReceiptUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &ReceiptUseCase{
		saleRepo:      saleRepo,
		tenantRepo:    tenantRepo,
		warehouseRepo: warehouseRepo,
		profileRepo:   profileRepo,
		generator:     generator,
		archive:       archive,
		log:           log.Component("receipts"),
	}
}

// Receipt devuelve los bytes del PDF, el nombre de archivo sugerido y la URL de archivo
// (vacía si no hay almacenamiento). Un fallo al archivar no impide devolver el PDF.
func (uc *ReceiptUseCase) Receipt(ctx context.Context, tenantID, saleID string) (pdf []byte, filename, url string, err error) {
	sale, err := uc.saleRepo.GetByID(ctx, tenantID, saleID)
	if err != nil {
		return nil, "", "", fmt.Errorf("recibo: obtener venta: %w", err)
	}
	if sale == nil {
		return nil, "", "", domain.ErrNotFound
	}
	details, err := uc.saleRepo.ListDetails(ctx, sale.ID)
	if err != nil {
		return nil, "", "", fmt.Errorf("recibo: obtener líneas: %w", err)
	}
	tenant, err := uc.tenantRepo.GetByID(ctx, tenantID)
	if err != nil || tenant == nil {
		return nil, "", "", fmt.Errorf("recibo: obtener organización: %w", firstErr(err, domain.ErrNotFound))
	}
	wh, err := uc.warehouseRepo.GetByID(ctx, tenantID, sale.WarehouseID)
	if err != nil {
		return nil, "", "", fmt.Errorf("recibo: obtener almacén: %w", err)
	}

	seller := ""
	if p, err := uc.profileRepo.GetByID(ctx, sale.UserID); err == nil && p != nil {
		seller = p.FullName
		if seller == "" {
			seller = p.Email
		}
	}

	pdf, err = uc.generator.GenerateReceiptPDF(ctx, ReceiptData{
		Sale:      sale,
		Details:   details,
		Tenant:    tenant,
		Warehouse: wh,
		Seller:    seller,
	})
	if err != nil {
		return nil, "", "", fmt.Errorf("recibo: generar PDF: %w", err)
	}
	filename = fmt.Sprintf("recibo-%s.pdf", sale.Number)

	if uc.archive != nil {
		key := fmt.Sprintf("receipts/%s/%s.pdf", tenantID, sale.Number)
		url, err = uc.archive.PutReceipt(ctx, key, pdf)
		if err != nil {
			uc.log.Warn().Err(err).Str("sale_id", sale.ID).Msg("no se pudo archivar el recibo")
			url = ""
		}
	}
	return pdf, filename, url, nil
}

func firstErr(errs ...error) error {
	for _, e := range errs {
		if e != nil {
			return e
		}
	}
	return nil
}
