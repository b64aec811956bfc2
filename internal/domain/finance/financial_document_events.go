package finance

import (
	"github.com/verone/backoffice/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeFinancialDocument = "FinancialDocument"

// Event type constants
const (
	EventTypeDocumentWorkflowChanged = "FinancialDocumentWorkflowChanged"
)

// DocumentWorkflowChangedEvent is raised when a document moves through its workflow
type DocumentWorkflowChangedEvent struct {
	shared.BaseDomainEvent
	DocumentNumber string         `json:"document_number"`
	From           WorkflowStatus `json:"from"`
	To             WorkflowStatus `json:"to"`
}

// NewDocumentWorkflowChangedEvent creates a new DocumentWorkflowChangedEvent
func NewDocumentWorkflowChangedEvent(doc *FinancialDocument, from WorkflowStatus, actor shared.Actor) *DocumentWorkflowChangedEvent {
	return &DocumentWorkflowChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDocumentWorkflowChanged, AggregateTypeFinancialDocument, doc.ID, actor),
		DocumentNumber:  doc.DocumentNumber,
		From:            from,
		To:              doc.WorkflowStatus,
	}
}
