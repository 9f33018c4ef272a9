package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const mercadoPagoBaseURL = "https://api.mercadopago.com"

// MercadoPagoClient issues PIX charge requests against the Mercado Pago API.
// Construct one per credential: the production token and the admin-editable
// test token are independent and must never share a client.
type MercadoPagoClient struct {
	httpClient  *http.Client
	accessToken string
	baseURL     string
	notifyURL   string
}

// NewMercadoPagoClient builds a client for the given bearer credential.
// notifyURL is the webhook endpoint registered with each charge; it may be
// empty for the admin test path.
func NewMercadoPagoClient(accessToken, notifyURL string) *MercadoPagoClient {
	return &MercadoPagoClient{
		httpClient:  &http.Client{Timeout: 15 * time.Second},
		accessToken: accessToken,
		baseURL:     mercadoPagoBaseURL,
		notifyURL:   notifyURL,
	}
}

// PixChargeRequest carries everything needed to create a PIX charge.
type PixChargeRequest struct {
	ParticipationID string
	Amount          float64
	Description     string
	PayerEmail      string
	PayerName       string
	PayerDocument   string // digits only, validated by the caller
}

// PixCharge is the provider's answer to a created charge.
type PixCharge struct {
	PaymentID     string
	Status        string
	QRCodeBase64  string
	CopyPasteCode string
	ExpiresAt     string
}

// PaymentStatus is the authoritative provider-side state of a charge.
type PaymentStatus struct {
	PaymentID         string
	Status            string
	ExternalReference string
}

type mpPaymentRequest struct {
	TransactionAmount float64 `json:"transaction_amount"`
	Description       string  `json:"description"`
	PaymentMethodID   string  `json:"payment_method_id"`
	ExternalReference string  `json:"external_reference"`
	NotificationURL   string  `json:"notification_url,omitempty"`
	Payer             mpPayer `json:"payer"`
}

type mpPayer struct {
	Email          string           `json:"email"`
	FirstName      string           `json:"first_name,omitempty"`
	Identification mpIdentification `json:"identification"`
}

type mpIdentification struct {
	Type   string `json:"type"`
	Number string `json:"number"`
}

type mpPaymentResponse struct {
	ID                 json.Number `json:"id"`
	Status             string      `json:"status"`
	ExternalReference  string      `json:"external_reference"`
	DateOfExpiration   string      `json:"date_of_expiration"`
	PointOfInteraction struct {
		TransactionData struct {
			QRCode       string `json:"qr_code"`
			QRCodeBase64 string `json:"qr_code_base64"`
		} `json:"transaction_data"`
	} `json:"point_of_interaction"`
}

// CreatePixCharge creates a PIX charge carrying the participation id as the
// provider-side external reference. A fresh idempotency key is generated per
// invocation, so callers must not retry blindly for the same intent.
func (c *MercadoPagoClient) CreatePixCharge(ctx context.Context, req PixChargeRequest) (*PixCharge, error) {
	if req.Amount <= 0 {
		return nil, newPaymentError(ErrKindValidation, "amount must be positive", nil)
	}

	body := mpPaymentRequest{
		TransactionAmount: req.Amount,
		Description:       req.Description,
		PaymentMethodID:   "pix",
		ExternalReference: req.ParticipationID,
		NotificationURL:   c.notifyURL,
		Payer: mpPayer{
			Email:     req.PayerEmail,
			FirstName: req.PayerName,
			Identification: mpIdentification{
				Type:   "CPF",
				Number: req.PayerDocument,
			},
		},
	}

	respBody, err := c.doRequest(ctx, http.MethodPost, "/v1/payments", body)
	if err != nil {
		return nil, err
	}

	var resp mpPaymentResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, newPaymentError(ErrKindGatewayUnavailable, "unreadable provider response", err)
	}

	return &PixCharge{
		PaymentID:     resp.ID.String(),
		Status:        resp.Status,
		QRCodeBase64:  resp.PointOfInteraction.TransactionData.QRCodeBase64,
		CopyPasteCode: resp.PointOfInteraction.TransactionData.QRCode,
		ExpiresAt:     resp.DateOfExpiration,
	}, nil
}

// FetchPayment reads the authoritative status of a charge.
func (c *MercadoPagoClient) FetchPayment(ctx context.Context, paymentID string) (*PaymentStatus, error) {
	if paymentID == "" {
		return nil, newPaymentError(ErrKindValidation, "payment id is required", nil)
	}

	respBody, err := c.doRequest(ctx, http.MethodGet, "/v1/payments/"+paymentID, nil)
	if err != nil {
		return nil, err
	}

	var resp mpPaymentResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, newPaymentError(ErrKindGatewayUnavailable, "unreadable provider response", err)
	}

	return &PaymentStatus{
		PaymentID:         resp.ID.String(),
		Status:            resp.Status,
		ExternalReference: resp.ExternalReference,
	}, nil
}

func (c *MercadoPagoClient) doRequest(ctx context.Context, method, path string, body any) ([]byte, error) {
	if c.accessToken == "" {
		return nil, newPaymentError(ErrKindConfiguration, "mercado pago access token not configured", nil)
	}

	var reqBody io.Reader
	if body != nil {
		jsonBytes, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(jsonBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")
	if method == http.MethodPost {
		req.Header.Set("X-Idempotency-Key", uuid.NewString())
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, newPaymentError(ErrKindGatewayUnavailable, "provider request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newPaymentError(ErrKindGatewayUnavailable, "reading provider response", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, newPaymentError(ErrKindNotFound, "charge not found at provider", nil)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, newPaymentError(ErrKindConfiguration, "provider rejected credentials", nil)
	case resp.StatusCode >= 500:
		return nil, newPaymentError(ErrKindGatewayUnavailable,
			fmt.Sprintf("provider error: status %d", resp.StatusCode), nil)
	case resp.StatusCode >= 400:
		return nil, newPaymentError(ErrKindValidation,
			fmt.Sprintf("provider rejected request: status %d, body %s", resp.StatusCode, truncate(respBody, 512)), nil)
	}

	return respBody, nil
}

func truncate(b []byte, max int) string {
	if len(b) <= max {
		return string(b)
	}
	return string(b[:max])
}
