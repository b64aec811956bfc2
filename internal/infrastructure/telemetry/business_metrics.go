package telemetry

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// ErrMeterNil is returned when BusinessMetrics is built without a meter.
var ErrMeterNil = errors.New("telemetry: meter is nil")

// OrderType labels order counters.
type OrderType string

const (
	OrderTypeSales    OrderType = "sales"
	OrderTypePurchase OrderType = "purchase"
)

// BusinessMetricsConfig configures BusinessMetrics.
type BusinessMetricsConfig struct {
	Meter  metric.Meter
	Logger *zap.Logger
}

// BusinessMetrics counts the back-office workflows: orders, stock movements,
// receptions and invoicing.
type BusinessMetrics struct {
	ordersCreated     *Counter
	orderAmount       *AmountCounter
	orderTransitions  *Counter
	ledgerEntries     *Counter
	receptions        *Counter
	receptionLines    *Histogram
	documentSyncs     *Counter
	invoicesIssued    *Counter
	invoicedAmountTTC *AmountCounter
	logger            *zap.Logger
}

// NewBusinessMetrics registers every instrument on cfg.Meter.
func NewBusinessMetrics(cfg BusinessMetricsConfig) (*BusinessMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	bm := &BusinessMetrics{logger: logger}
	m := cfg.Meter

	var err error
	if bm.ordersCreated, err = NewCounter(m, "backoffice_orders_created_total", "Orders created", "{order}"); err != nil {
		return nil, err
	}
	if bm.orderAmount, err = NewAmountCounter(m, "backoffice_order_amount_ttc_total", "Gross amount of created orders", "EUR"); err != nil {
		return nil, err
	}
	if bm.orderTransitions, err = NewCounter(m, "backoffice_order_transitions_total", "Order status transitions", "{transition}"); err != nil {
		return nil, err
	}
	if bm.ledgerEntries, err = NewCounter(m, "backoffice_stock_movements_total", "Stock ledger entries appended", "{movement}"); err != nil {
		return nil, err
	}
	if bm.receptions, err = NewCounter(m, "backoffice_receptions_total", "Purchase order receptions", "{reception}"); err != nil {
		return nil, err
	}
	if bm.receptionLines, err = NewHistogram(m, "backoffice_reception_lines", "Lines per reception", "{line}", LineCountBuckets); err != nil {
		return nil, err
	}
	if bm.documentSyncs, err = NewCounter(m, "backoffice_document_syncs_total", "Invoice to order syncs", "{sync}"); err != nil {
		return nil, err
	}
	if bm.invoicesIssued, err = NewCounter(m, "backoffice_invoices_issued_total", "Invoices issued through the provider", "{invoice}"); err != nil {
		return nil, err
	}
	if bm.invoicedAmountTTC, err = NewAmountCounter(m, "backoffice_invoiced_amount_ttc_total", "Gross amount invoiced", "EUR"); err != nil {
		return nil, err
	}
	return bm, nil
}

// RecordOrderWithAmount counts a new order and its gross amount.
func (bm *BusinessMetrics) RecordOrderWithAmount(ctx context.Context, orderType OrderType, amount decimal.Decimal) {
	attr := AttrOrderType.String(string(orderType))
	bm.ordersCreated.Inc(ctx, attr)
	bm.orderAmount.Add(ctx, amount.InexactFloat64(), attr)
}

// RecordOrderTransition counts a status change.
func (bm *BusinessMetrics) RecordOrderTransition(ctx context.Context, from, to string) {
	bm.orderTransitions.Inc(ctx, AttrFromStatus.String(from), AttrToStatus.String(to))
}

// RecordLedgerEntry counts one appended stock movement.
func (bm *BusinessMetrics) RecordLedgerEntry(ctx context.Context, movementType, referenceType string) {
	bm.ledgerEntries.Inc(ctx, AttrMovementType.String(movementType), AttrReferenceType.String(referenceType))
}

// RecordReception counts a reception and how many lines it touched.
func (bm *BusinessMetrics) RecordReception(ctx context.Context, lines int, complete bool) {
	attr := AttrComplete.Bool(complete)
	bm.receptions.Inc(ctx, attr)
	bm.receptionLines.Record(ctx, float64(lines), attr)
}

// RecordDocumentSync counts a sync attempt by outcome.
func (bm *BusinessMetrics) RecordDocumentSync(ctx context.Context, ok bool) {
	bm.documentSyncs.Inc(ctx, resultAttr(ok))
}

// RecordInvoiceIssued counts an issued invoice and its gross total.
func (bm *BusinessMetrics) RecordInvoiceIssued(ctx context.Context, total decimal.Decimal) {
	bm.invoicesIssued.Inc(ctx)
	bm.invoicedAmountTTC.Add(ctx, total.InexactFloat64())
}

func resultAttr(ok bool) attribute.KeyValue {
	if ok {
		return AttrResult.String("ok")
	}
	return AttrResult.String("rejected")
}

// String is used in debug logs.
func (t OrderType) String() string { return string(t) }
