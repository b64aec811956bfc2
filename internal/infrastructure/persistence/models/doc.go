// Package models contains the GORM persistence models behind the back-office
// repositories. Domain aggregates stay free of ORM tags; each model converts
// to and from its aggregate with ToDomain and FromDomain.
//
//   - base.go: identity, timestamps and version columns
//   - trade.go: sales_orders, sales_order_items, purchase_orders, purchase_order_items
//   - inventory.go: stock_movements
//   - finance.go: financial_documents, financial_document_items
package models
