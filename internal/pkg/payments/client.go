// Package payments provides a narrow client for the external card billing
// gateway. The gateway vaults cards, executes charges and runs subscription
// billing cycles; this package only creates intents/subscriptions and verifies
// the signed events the gateway sends back.
package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/cenkalti/backoff/v5"

	"github.com/fundfox/FundFox/internal/pkg/env"
)

// Client is the narrow gateway surface the platform depends on.
type Client interface {
	// CreateCustomer vaults a new payer record and returns its gateway id.
	CreateCustomer(context.Context, CustomerParams) (Customer, error)

	// CreatePaymentIntent requests a one-time charge. With Confirm set the
	// gateway attempts the charge immediately and the returned status reflects
	// the outcome.
	CreatePaymentIntent(context.Context, PaymentIntentParams) (PaymentIntent, error)

	// GetPaymentIntent fetches the current state of an intent.
	GetPaymentIntent(context.Context, string) (PaymentIntent, error)

	// CreateSubscription starts a recurring billing agreement with an inline
	// price. The first invoice (and its payment intent) is expanded in the
	// response.
	CreateSubscription(context.Context, SubscriptionParams) (Subscription, error)

	// GetSubscription fetches a subscription including its metadata linkage.
	GetSubscription(context.Context, string) (Subscription, error)

	// CancelSubscription stops future billing cycles.
	CancelSubscription(context.Context, string) (Subscription, error)
}

// APIError is an error response from the gateway. Its message is safe to pass
// through to the caller on 400-class responses.
type APIError struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gateway error: %s - (%s) %s", e.Code, e.Type, e.Message)
}

// IsGatewayError reports whether err originated from a gateway API response
// and returns it for message pass-through.
func IsGatewayError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

type clientOption struct {
	secretKey  string
	baseURL    string
	apiVersion string
	doRetry    bool
	httpClient *http.Client
}

// ClientOption defines a function type for configuring client options.
type ClientOption func(*clientOption)

// WithSecretKey returns a ClientOption that sets the secret key for authentication.
func WithSecretKey(key string) ClientOption {
	return func(opt *clientOption) {
		opt.secretKey = key
	}
}

// WithBaseURL returns a ClientOption that overrides the gateway base URL.
func WithBaseURL(url string) ClientOption {
	return func(opt *clientOption) {
		opt.baseURL = url
	}
}

// WithRetry returns a ClientOption that enables backoff retries for
// retryable gateway failures.
func WithRetry() ClientOption {
	return func(opt *clientOption) {
		opt.doRetry = true
	}
}

// WithHTTPClient returns a ClientOption that sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(opt *clientOption) {
		opt.httpClient = c
	}
}

type gatewayClient struct {
	opts   clientOption
	client *http.Client
}

// NewClient creates a gateway client. A secret key must be provided via
// WithSecretKey, otherwise an error is returned.
func NewClient(options ...ClientOption) (Client, error) {
	clientOptions := clientOption{
		baseURL:    "https://api.cardstream.io/v1",
		apiVersion: "2024-06-20",
	}

	for _, option := range options {
		option(&clientOptions)
	}

	if clientOptions.secretKey == "" {
		return nil, errors.New("missing gateway secret key")
	}
	if clientOptions.baseURL == "" {
		return nil, errors.New("missing gateway base URL")
	}

	httpClient := clientOptions.httpClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &gatewayClient{
		opts:   clientOptions,
		client: httpClient,
	}, nil
}

// NewClientFromEnv creates a client from process environment. A missing
// secret key is reported here so misconfiguration surfaces at startup rather
// than on the first donation.
func NewClientFromEnv() (Client, error) {
	opts := []ClientOption{
		WithSecretKey(env.GetEnv("PAYMENT_SECRET_KEY", "")),
		WithRetry(),
	}
	if base := env.GetEnv("PAYMENT_API_BASE_URL", ""); base != "" {
		opts = append(opts, WithBaseURL(base))
	}
	return NewClient(opts...)
}

type retryable interface {
	CanRetry() bool
}

type retryableError struct {
	Err      error
	canRetry bool
}

func (e retryableError) Error() string {
	return e.Err.Error()
}

func (e retryableError) Unwrap() error {
	return e.Err
}

func (e retryableError) CanRetry() bool {
	return e.canRetry
}

func (c *gatewayClient) makeRequest(ctx context.Context, method, endpoint string, form url.Values) (json.RawMessage, error) {
	var reqBody io.Reader
	if form != nil {
		reqBody = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, c.opts.baseURL+endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.opts.secretKey)
	req.Header.Set("Cardstream-Version", c.opts.apiVersion)
	req.Header.Set("Accept", "application/json")
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, retryableError{Err: fmt.Errorf("failed to make request: %w", err), canRetry: true}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		var wrapper struct {
			Error APIError `json:"error"`
		}
		if err := json.Unmarshal(respBody, &wrapper); err == nil && wrapper.Error.Message != "" {
			apiErr := wrapper.Error
			apiErr.Status = resp.StatusCode
			// 5xx and 429 are worth retrying, 4xx are not
			if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
				return nil, retryableError{Err: &apiErr, canRetry: true}
			}
			return nil, &apiErr
		}
		return nil, fmt.Errorf("HTTP error: %d (raw response: %s)", resp.StatusCode, string(respBody))
	}

	return respBody, nil
}

// do runs a request, retrying retryable failures with exponential backoff when
// the client was configured with WithRetry.
func (c *gatewayClient) do(ctx context.Context, method, endpoint string, form url.Values) (json.RawMessage, error) {
	raw, err := c.makeRequest(ctx, method, endpoint, form)
	if err == nil || !c.opts.doRetry {
		return raw, err
	}

	re, ok := err.(retryable)
	if !ok {
		var r retryable
		if errors.As(err, &r) {
			re, ok = r, true
		}
	}
	if !ok || !re.CanRetry() {
		return nil, err
	}

	operation := func() (json.RawMessage, error) {
		return c.makeRequest(ctx, method, endpoint, form)
	}
	return backoff.Retry(ctx, operation, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(4))
}

func (c *gatewayClient) CreateCustomer(ctx context.Context, params CustomerParams) (Customer, error) {
	form := url.Values{}
	if params.Email != "" {
		form.Set("email", params.Email)
	}
	if params.Name != "" {
		form.Set("name", params.Name)
	}

	raw, err := c.do(ctx, http.MethodPost, "/customers", form)
	if err != nil {
		return Customer{}, err
	}

	var customer Customer
	if err := json.Unmarshal(raw, &customer); err != nil {
		return Customer{}, fmt.Errorf("failed to unmarshal customer: %w", err)
	}
	return customer, nil
}

func (c *gatewayClient) CreatePaymentIntent(ctx context.Context, params PaymentIntentParams) (PaymentIntent, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(params.Amount, 10))
	form.Set("currency", params.Currency)
	if params.CustomerID != "" {
		form.Set("customer", params.CustomerID)
	}
	if params.PaymentMethodID != "" {
		form.Set("payment_method", params.PaymentMethodID)
	}
	if params.Confirm {
		form.Set("confirm", "true")
	}
	encodeMetadata(form, params.Metadata)

	raw, err := c.do(ctx, http.MethodPost, "/payment_intents", form)
	if err != nil {
		return PaymentIntent{}, err
	}

	var intent PaymentIntent
	if err := json.Unmarshal(raw, &intent); err != nil {
		return PaymentIntent{}, fmt.Errorf("failed to unmarshal payment intent: %w", err)
	}
	return intent, nil
}

func (c *gatewayClient) GetPaymentIntent(ctx context.Context, id string) (PaymentIntent, error) {
	endpoint := fmt.Sprintf("/payment_intents/%s", url.PathEscape(id))

	raw, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return PaymentIntent{}, err
	}

	var intent PaymentIntent
	if err := json.Unmarshal(raw, &intent); err != nil {
		return PaymentIntent{}, fmt.Errorf("failed to unmarshal payment intent: %w", err)
	}
	return intent, nil
}

func (c *gatewayClient) CreateSubscription(ctx context.Context, params SubscriptionParams) (Subscription, error) {
	form := url.Values{}
	form.Set("customer", params.CustomerID)
	form.Set("amount", strconv.FormatInt(params.Amount, 10))
	form.Set("currency", params.Currency)
	form.Set("interval", params.Interval)
	if params.PaymentMethodID != "" {
		form.Set("default_payment_method", params.PaymentMethodID)
	}
	form.Set("expand[]", "latest_invoice.payment_intent")
	encodeMetadata(form, params.Metadata)

	raw, err := c.do(ctx, http.MethodPost, "/subscriptions", form)
	if err != nil {
		return Subscription{}, err
	}

	var sub Subscription
	if err := json.Unmarshal(raw, &sub); err != nil {
		return Subscription{}, fmt.Errorf("failed to unmarshal subscription: %w", err)
	}
	return sub, nil
}

func (c *gatewayClient) GetSubscription(ctx context.Context, id string) (Subscription, error) {
	endpoint := fmt.Sprintf("/subscriptions/%s", url.PathEscape(id))

	raw, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Subscription{}, err
	}

	var sub Subscription
	if err := json.Unmarshal(raw, &sub); err != nil {
		return Subscription{}, fmt.Errorf("failed to unmarshal subscription: %w", err)
	}
	return sub, nil
}

func (c *gatewayClient) CancelSubscription(ctx context.Context, id string) (Subscription, error) {
	endpoint := fmt.Sprintf("/subscriptions/%s", url.PathEscape(id))

	raw, err := c.do(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return Subscription{}, err
	}

	var sub Subscription
	if err := json.Unmarshal(raw, &sub); err != nil {
		return Subscription{}, fmt.Errorf("failed to unmarshal subscription: %w", err)
	}
	return sub, nil
}

func encodeMetadata(form url.Values, metadata map[string]string) {
	for k, v := range metadata {
		form.Set(fmt.Sprintf("metadata[%s]", k), v)
	}
}
