package payments

import "encoding/json"

// Payment intent states reported by the gateway.
const (
	IntentStatusSucceeded            = "succeeded"
	IntentStatusProcessing           = "processing"
	IntentStatusRequiresAction       = "requires_action"
	IntentStatusRequiresPaymentsetup = "requires_payment_method"
	IntentStatusCanceled             = "canceled"
)

// Webhook event types consumed by the reconciliation handler.
const (
	EventPaymentIntentSucceeded  = "payment_intent.succeeded"
	EventPaymentIntentFailed     = "payment_intent.payment_failed"
	EventInvoicePaymentSucceeded = "invoice.payment_succeeded"
	EventInvoicePaymentFailed    = "invoice.payment_failed"
	EventSubscriptionDeleted     = "customer.subscription.deleted"
	EventSubscriptionUpdated     = "customer.subscription.updated"
)

// Billing intervals supported by the gateway for recurring prices.
const (
	IntervalMonth   = "month"
	IntervalQuarter = "quarter"
	IntervalYear    = "year"
)

// Customer is a vaulted payer record on the gateway side.
type Customer struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// PaymentIntent is a single card charge attempt. ClientSecret is handed to the
// browser so the donor can confirm/authenticate the payment client-side.
type PaymentIntent struct {
	ID              string            `json:"id"`
	Amount          int64             `json:"amount"` // minor units
	Currency        string            `json:"currency"`
	Status          string            `json:"status"`
	ClientSecret    string            `json:"client_secret"`
	CustomerID      string            `json:"customer"`
	PaymentMethodID string            `json:"payment_method"`
	Metadata        map[string]string `json:"metadata"`
}

// Subscription is a recurring billing agreement with a dynamically priced item.
type Subscription struct {
	ID                 string            `json:"id"`
	CustomerID         string            `json:"customer"`
	Status             string            `json:"status"`
	Amount             int64             `json:"amount"` // minor units per cycle
	Currency           string            `json:"currency"`
	Interval           string            `json:"interval"`
	CurrentPeriodEnd   int64             `json:"current_period_end"` // unix seconds
	CancelAtPeriodEnd  bool              `json:"cancel_at_period_end"`
	LatestInvoice      *Invoice          `json:"latest_invoice,omitempty"`
	Metadata           map[string]string `json:"metadata"`
}

// Invoice is one billing cycle of a subscription. PaymentIntent carries the
// charge backing the invoice when the gateway expands it.
type Invoice struct {
	ID             string         `json:"id"`
	SubscriptionID string         `json:"subscription"`
	AmountPaid     int64          `json:"amount_paid"`
	Currency       string         `json:"currency"`
	Status         string         `json:"status"`
	PaymentIntent  *PaymentIntent `json:"payment_intent,omitempty"`
}

// Event is a signed webhook notification from the gateway. Data holds the raw
// JSON of the affected object (intent, invoice or subscription).
type Event struct {
	ID   string          `json:"id"`
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// CustomerParams creates a gateway customer.
type CustomerParams struct {
	Email string
	Name  string
}

// PaymentIntentParams creates a payment intent. When Confirm is set and a
// payment method is attached, the gateway attempts the charge immediately.
type PaymentIntentParams struct {
	Amount          int64
	Currency        string
	CustomerID      string
	PaymentMethodID string
	Confirm         bool
	Metadata        map[string]string
}

// SubscriptionParams creates a subscription with an inline recurring price.
type SubscriptionParams struct {
	CustomerID      string
	PaymentMethodID string
	Amount          int64
	Currency        string
	Interval        string
	Metadata        map[string]string
}
