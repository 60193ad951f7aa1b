package payment

import "context"

// ChargeStatus is the gateway's verdict on a charge attempt.
type ChargeStatus string

const (
	StatusSucceeded      ChargeStatus = "succeeded"
	StatusRequiresAction ChargeStatus = "requires_action"
	StatusFailed         ChargeStatus = "failed"
)

// ChargeRequest is a synchronous authorize-and-capture request. AmountCents is
// always minor currency units.
type ChargeRequest struct {
	AmountCents      int64             `json:"amount_cents"`
	Currency         string            `json:"currency"`
	PaymentMethodRef string            `json:"payment_method_ref"`
	Metadata         map[string]string `json:"metadata,omitempty"`
}

// ChargeResult is the typed outcome of a charge. Declines are data, not
// errors: the workflow branches on Status, and the error return of
// AuthorizeAndCharge is reserved for transport failures.
type ChargeResult struct {
	Status      ChargeStatus `json:"status"`
	Reference   string       `json:"reference"`
	RedirectURL string       `json:"redirect_url,omitempty"`
	Reason      string       `json:"reason,omitempty"`
}

// CheckoutRequest asks the gateway for a hosted checkout session; the caller
// is redirected to the gateway and comes back via SuccessURL or CancelURL.
type CheckoutRequest struct {
	AmountCents int64             `json:"amount_cents"`
	Currency    string            `json:"currency"`
	SuccessURL  string            `json:"success_url"`
	CancelURL   string            `json:"cancel_url"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// SessionStatus of a hosted checkout session on the gateway side.
type SessionStatus string

const (
	SessionOpen     SessionStatus = "open"
	SessionComplete SessionStatus = "complete"
	SessionExpired  SessionStatus = "expired"
)

type CheckoutSession struct {
	Reference   string        `json:"reference"`
	RedirectURL string        `json:"redirect_url"`
	Status      SessionStatus `json:"status"`
	PaymentRef  string        `json:"payment_ref,omitempty"`
}

// Gateway is the external payment processor contract consumed by the
// reservation workflow. Implementations must be safe for concurrent use.
type Gateway interface {
	AuthorizeAndCharge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	RetrieveSession(ctx context.Context, reference string) (*CheckoutSession, error)
}
