// Package analytics contiene los casos de uso de reportes de ventas e inventario.
package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/Tienda-api/internal/application/dto"
	"github.com/jhoicas/Tienda-api/internal/domain"
	"github.com/jhoicas/Tienda-api/internal/domain/repository"
)

const (
	defaultTopN          = 10
	maxTopN              = 100
	defaultNonSelling    = 50
	maxNonSelling        = 500
	defaultNonSellingDay = 30
)

var hundred = decimal.NewFromInt(100)

// UseCase reportes de solo lectura sobre AnalyticsRepository.
// Los períodos y la serie diaria se cortan a medianoche en loc.
type UseCase struct {
	repo repository.AnalyticsRepository
	loc  *time.Location
	now  func() time.Time
}

// NewUseCase construye el caso de uso; loc nil usa la zona local del proceso.
func NewUseCase(repo repository.AnalyticsRepository, loc *time.Location) *UseCase {
	if loc == nil {
		loc = time.Local
	}
	return &UseCase{repo: repo, loc: loc, now: time.Now}
}

// Dashboard KPIs del período contra el período anterior de igual duración.
//
// Cuatro consultas en paralelo:
//  1. SalesSummary(período)
//  2. SalesSummary(período anterior)
//  3. InventoryValue
//  4. LowStockCount
func (uc *UseCase) Dashboard(ctx context.Context, tenantID string, p dto.PeriodRequest) (*dto.DashboardResponse, error) {
	from, to, err := uc.period(p)
	if err != nil {
		return nil, err
	}
	prevFrom := from.Add(-to.Sub(from))

	var (
		cur, prev repository.SalesSummary
		invValue  decimal.Decimal
		lowStock  int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if cur, err = uc.repo.SalesSummary(gctx, tenantID, from, to); err != nil {
			return fmt.Errorf("dashboard: período actual: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if prev, err = uc.repo.SalesSummary(gctx, tenantID, prevFrom, from); err != nil {
			return fmt.Errorf("dashboard: período anterior: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if invValue, err = uc.repo.InventoryValue(gctx, tenantID); err != nil {
			return fmt.Errorf("dashboard: valor de inventario: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if lowStock, err = uc.repo.LowStockCount(gctx, tenantID); err != nil {
			return fmt.Errorf("dashboard: stock bajo: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	curTicket := averageTicket(cur)
	prevTicket := averageTicket(prev)
	return &dto.DashboardResponse{
		From:               from,
		To:                 to.Add(-time.Nanosecond),
		Revenue:            cur.Revenue.Round(2),
		SaleCount:          cur.SaleCount,
		AverageTicket:      curTicket,
		UnitsSold:          cur.UnitsSold,
		RevenueChange:      PercentChange(prev.Revenue, cur.Revenue),
		SaleCountChange:    PercentChange(decimal.NewFromInt(int64(prev.SaleCount)), decimal.NewFromInt(int64(cur.SaleCount))),
		AverageTicketDelta: PercentChange(prevTicket, curTicket),
		InventoryValue:     invValue.Round(2),
		LowStockCount:      lowStock,
	}, nil
}

// SalesByDay serie diaria con los días sin ventas en cero.
func (uc *UseCase) SalesByDay(ctx context.Context, tenantID string, p dto.PeriodRequest) ([]dto.DaySalesDTO, error) {
	from, to, err := uc.period(p)
	if err != nil {
		return nil, err
	}
	rows, err := uc.repo.SalesByDay(ctx, tenantID, from, to)
	if err != nil {
		return nil, err
	}
	byDay := make(map[string]repository.DaySales, len(rows))
	for _, r := range rows {
		byDay[r.Day.In(from.Location()).Format(dateLayout)] = r
	}
	out := make([]dto.DaySalesDTO, 0, int(to.Sub(from).Hours()/24)+1)
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		key := d.Format(dateLayout)
		r := byDay[key]
		out = append(out, dto.DaySalesDTO{
			Date:      key,
			Label:     dayLabel(d),
			Revenue:   r.Revenue.Round(2),
			SaleCount: r.SaleCount,
		})
	}
	return out, nil
}

// TopProducts productos con más ingresos. limit se acota a [1, 100].
func (uc *UseCase) TopProducts(ctx context.Context, tenantID string, p dto.PeriodRequest, limit int) ([]dto.TopProductDTO, error) {
	from, to, err := uc.period(p)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultTopN
	}
	if limit > maxTopN {
		limit = maxTopN
	}
	rows, err := uc.repo.TopProducts(ctx, tenantID, from, to, limit)
	if err != nil {
		return nil, err
	}
	out := make([]dto.TopProductDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, dto.TopProductDTO{
			ProductID:   r.ProductID,
			ProductName: r.ProductName,
			SKU:         r.SKU,
			UnitsSold:   r.UnitsSold,
			Revenue:     r.Revenue.Round(2),
		})
	}
	return out, nil
}

func (uc *UseCase) SalesByCategory(ctx context.Context, tenantID string, p dto.PeriodRequest) ([]dto.GroupSalesDTO, error) {
	return uc.groups(ctx, tenantID, p, uc.repo.SalesByCategory)
}

func (uc *UseCase) SalesByWarehouse(ctx context.Context, tenantID string, p dto.PeriodRequest) ([]dto.GroupSalesDTO, error) {
	return uc.groups(ctx, tenantID, p, uc.repo.SalesByWarehouse)
}

func (uc *UseCase) SalesByPaymentMethod(ctx context.Context, tenantID string, p dto.PeriodRequest) ([]dto.GroupSalesDTO, error) {
	return uc.groups(ctx, tenantID, p, uc.repo.SalesByPaymentMethod)
}

type groupQuery func(ctx context.Context, tenantID string, from, to time.Time) ([]repository.GroupSales, error)

// groups agrega la participación porcentual de cada grupo sobre el total del período.
func (uc *UseCase) groups(ctx context.Context, tenantID string, p dto.PeriodRequest, q groupQuery) ([]dto.GroupSalesDTO, error) {
	from, to, err := uc.period(p)
	if err != nil {
		return nil, err
	}
	rows, err := q(ctx, tenantID, from, to)
	if err != nil {
		return nil, err
	}
	total := decimal.Zero
	for _, r := range rows {
		total = total.Add(r.Revenue)
	}
	out := make([]dto.GroupSalesDTO, 0, len(rows))
	for _, r := range rows {
		share := decimal.Zero
		if total.IsPositive() {
			share = r.Revenue.Div(total).Mul(hundred).Round(2)
		}
		out = append(out, dto.GroupSalesDTO{
			Key:       r.Key,
			Label:     r.Label,
			SaleCount: r.SaleCount,
			Revenue:   r.Revenue.Round(2),
			Share:     share,
		})
	}
	return out, nil
}

// NonSellingProducts productos activos sin ventas completadas en los últimos `days` días.
// limit se acota a [1, 500].
func (uc *UseCase) NonSellingProducts(ctx context.Context, tenantID string, days, limit int) ([]dto.NonSellingProductDTO, error) {
	if days <= 0 {
		days = defaultNonSellingDay
	}
	switch {
	case limit <= 0:
		limit = defaultNonSelling
	case limit > maxNonSelling:
		limit = maxNonSelling
	}
	now := uc.now()
	rows, err := uc.repo.NonSellingProducts(ctx, tenantID, now.AddDate(0, 0, -days), limit)
	if err != nil {
		return nil, err
	}
	out := make([]dto.NonSellingProductDTO, 0, len(rows))
	for _, r := range rows {
		item := dto.NonSellingProductDTO{
			ProductID:  r.ProductID,
			Name:       r.Name,
			SKU:        r.SKU,
			Stock:      r.Stock,
			StockValue: r.Stock.Mul(r.Cost).Round(2),
			LastSaleAt: r.LastSaleAt,
		}
		if r.LastSaleAt != nil {
			d := int(now.Sub(*r.LastSaleAt).Hours() / 24)
			item.DaysWithoutSale = &d
		}
		out = append(out, item)
	}
	return out, nil
}

// PercentChange variación porcentual de prev a cur: 0 si ambos son cero, 100 si prev es cero.
func PercentChange(prev, cur decimal.Decimal) decimal.Decimal {
	if prev.IsZero() {
		if cur.IsZero() {
			return decimal.Zero
		}
		return hundred
	}
	return cur.Sub(prev).Div(prev.Abs()).Mul(hundred).Round(2)
}

func averageTicket(s repository.SalesSummary) decimal.Decimal {
	if s.SaleCount == 0 {
		return decimal.Zero
	}
	return s.Revenue.Div(decimal.NewFromInt(int64(s.SaleCount))).Round(2)
}

const dateLayout = "2006-01-02"

// period convierte el rango inclusivo de la petición en [from, to) a medianoche local.
// Sin fechas: desde el día 1 del mes en curso hasta hoy.
func (uc *UseCase) period(p dto.PeriodRequest) (from, to time.Time, err error) {
	loc := uc.loc
	now := uc.now().In(loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)

	if p.To == "" {
		to = today.AddDate(0, 0, 1)
	} else {
		end, err := time.ParseInLocation(dateLayout, p.To, loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: to inválido", domain.ErrInvalidInput)
		}
		to = end.AddDate(0, 0, 1)
	}
	if p.From == "" {
		from = time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, loc)
	} else {
		if from, err = time.ParseInLocation(dateLayout, p.From, loc); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: from inválido", domain.ErrInvalidInput)
		}
	}
	if !from.Before(to) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: from no puede ser posterior a to", domain.ErrInvalidInput)
	}
	if to.Sub(from) > 366*24*time.Hour {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: el período no puede superar un año", domain.ErrInvalidInput)
	}
	return from, to, nil
}

// dayLabel etiqueta corta para gráficos, ej: "Lun 05 Feb".
func dayLabel(t time.Time) string {
	days := [...]string{"Dom", "Lun", "Mar", "Mié", "Jue", "Vie", "Sáb"}
	months := [...]string{"Ene", "Feb", "Mar", "Abr", "May", "Jun", "Jul", "Ago", "Sep", "Oct", "Nov", "Dic"}
	return fmt.Sprintf("%s %02d %s", days[t.Weekday()], t.Day(), months[t.Month()-1])
}
