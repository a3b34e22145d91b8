package model

// Platform identifies one of the two remote systems a token authenticates against.
type Platform string

const (
	PlatformSource Platform = "source" // e-invoicing platform the documents come from
	PlatformLedger Platform = "ledger" // accounting platform the records go to
)

// DocType is the dedup namespace a document mapping is recorded under.
// A single sales document may legitimately appear under both DocTypeSale
// and DocTypeCash, since the cash stream posts a separate receipt entity.
type DocType string

const (
	DocTypeSale     DocType = "sale"
	DocTypePurchase DocType = "purchase"
	DocTypeCash     DocType = "cash"
)

// LedgerEntityType names the kind of record created on the ledger side.
type LedgerEntityType string

const (
	EntityInvoice  LedgerEntityType = "Invoice"
	EntityBill     LedgerEntityType = "Bill"
	EntityReceipt  LedgerEntityType = "SalesReceipt"
	EntityVendor   LedgerEntityType = "Vendor"
	EntityCustomer LedgerEntityType = "Customer"
)

// MasterKind distinguishes the two counter-party mapping families.
type MasterKind string

const (
	MasterVendor   MasterKind = "vendor"
	MasterCustomer MasterKind = "customer"
)

// Payment method type codes as reported by the e-invoicing platform.
const (
	PaymentMethodCash = 0
	PaymentMethodCard = 1
)
