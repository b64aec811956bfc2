package finance

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/verone/backoffice/internal/domain/shared"
	"github.com/verone/backoffice/internal/domain/shared/valueobject"
	"github.com/verone/backoffice/internal/domain/trade"
)

// OrderSyncPlan is everything a document pushes onto its linked order
type OrderSyncPlan struct {
	DocumentID      uuid.UUID
	OrderID         uuid.UUID
	Items           []trade.SalesOrderItem
	Fees            trade.Fees
	Totals          trade.Totals
	BillingAddress  valueobject.Address
	ShippingAddress valueobject.Address
	Contacts        trade.Contacts
}

// EnsureLinked returns INVOICE_NOT_LINKED when the document has no order
func (d *FinancialDocument) EnsureLinked() error {
	if d.SalesOrderID == nil || *d.SalesOrderID == uuid.Nil {
		return shared.NewDomainError(CodeInvoiceNotLinked,
			fmt.Sprintf("Document %s is not linked to a sales order", d.DocumentNumber))
	}
	return nil
}

// PlanOrderSync checks, in order, that the document is linked, that it is
// still editable and that the order accepts changes, then builds the plan.
func PlanOrderSync(doc *FinancialDocument, order *trade.SalesOrder) (*OrderSyncPlan, error) {
	if err := doc.EnsureLinked(); err != nil {
		return nil, err
	}
	if err := doc.EnsureEditable(); err != nil {
		return nil, err
	}
	if order.ID != *doc.SalesOrderID {
		return nil, shared.NewDomainError("ORDER_MISMATCH",
			fmt.Sprintf("Document %s is linked to another order", doc.DocumentNumber))
	}
	if !order.IsModifiable() {
		return nil, shared.NewDomainError(trade.CodeOrderNotModifiable,
			fmt.Sprintf("Order %s is %s and can no longer be modified", order.OrderNumber, order.Status))
	}

	now := time.Now().UTC()
	products := doc.ProductItems()
	items := make([]trade.SalesOrderItem, len(products))
	for i, p := range products {
		if p.ProductID == nil || *p.ProductID == uuid.Nil {
			return nil, shared.NewDomainError("INVALID_PRODUCT",
				fmt.Sprintf("Line %d (%s) has no product and cannot become an order line", i+1, p.Description))
		}
		item := trade.SalesOrderItem{
			ID:                 uuid.New(),
			OrderID:            order.ID,
			ProductID:          *p.ProductID,
			Description:        p.Description,
			Quantity:           p.Quantity,
			UnitPriceHT:        p.UnitPriceHT,
			DiscountPercentage: p.DiscountPercentage,
			TaxRate:            p.TVARate.Div(hundred),
			Position:           i,
			CreatedAt:          now,
		}
		item.AmountHT = p.TotalHT()
		items[i] = item
	}

	return &OrderSyncPlan{
		DocumentID:      doc.ID,
		OrderID:         order.ID,
		Items:           items,
		Fees:            doc.Fees(),
		Totals:          doc.ComputeTotals(),
		BillingAddress:  doc.BillingAddress,
		ShippingAddress: doc.ShippingAddress,
		Contacts:        doc.Contacts,
	}, nil
}

// Apply writes the plan onto order. Lines are replaced wholesale.
func (p *OrderSyncPlan) Apply(order *trade.SalesOrder, actor shared.Actor) error {
	if err := actor.Require(); err != nil {
		return err
	}
	if err := order.SetFees(p.Fees); err != nil {
		return err
	}
	if err := order.ReplaceItems(p.Items); err != nil {
		return err
	}
	order.SetAddresses(p.BillingAddress, p.ShippingAddress)
	order.SetContacts(p.Contacts)
	order.Totals = p.Totals
	order.IncrementVersion()
	order.AddDomainEvent(trade.NewSalesOrderSyncedEvent(order, p.DocumentID, actor))
	return nil
}
