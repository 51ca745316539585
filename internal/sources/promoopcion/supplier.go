// Package promoopcion provides a client for the PromoOpción product feed.
//
// The feed is a single POST that returns the whole catalog; credentials travel
// in the request body rather than in a header.
package promoopcion

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/agentstation/storesync/internal/transport"
	"github.com/agentstation/storesync/pkg/errors"
	"github.com/agentstation/storesync/pkg/logging"
	"github.com/agentstation/storesync/pkg/sources"
)

// DefaultURL is the base URL of the PromoOpción API.
const DefaultURL = "https://promocionalesenlinea.net/api"

// DefaultTimeout bounds one feed download. The full catalog is large and the
// endpoint is slow.
const DefaultTimeout = 2 * time.Minute

const (
	serviceName      = "promoopcion"
	allProductsPath  = "all-products"
	unknownAPIError  = "unknown API error"
	credentialsLabel = "credentials"
)

// Request and response structures for the all-products endpoint.
type allProductsRequest struct {
	User     string `json:"user"`
	Password string `json:"password"`
}

type allProductsResponse struct {
	Success  bool            `json:"success"`
	Response json.RawMessage `json:"response"`
	// The API spells its error field this way.
	Message json.RawMessage `json:"respusta"`
}

// Supplier implements sources.Supplier against the PromoOpción API.
type Supplier struct {
	transport *transport.Client
	user      string
	password  string
}

var _ sources.Supplier = (*Supplier)(nil)

// Option configures a Supplier.
type Option func(*settings)

type settings struct {
	baseURL string
	timeout time.Duration
	client  *http.Client
}

// WithBaseURL overrides the API base URL.
func WithBaseURL(url string) Option {
	return func(s *settings) {
		if url != "" {
			s.baseURL = url
		}
	}
}

// WithTimeout sets the feed download timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithHTTPClient replaces the HTTP client used for the feed.
func WithHTTPClient(hc *http.Client) Option {
	return func(s *settings) {
		s.client = hc
	}
}

// New creates a Supplier. Both credentials are required.
func New(user, password string, opts ...Option) (*Supplier, error) {
	if user == "" || password == "" {
		return nil, errors.NewConfigError(serviceName, "user and password are required", nil)
	}

	s := &settings{baseURL: DefaultURL, timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(s)
	}

	topts := []transport.Option{transport.WithTimeout(s.timeout)}
	if s.client != nil {
		topts = append(topts, transport.WithHTTPClient(s.client))
	}

	return &Supplier{
		transport: transport.New(serviceName, s.baseURL, &transport.NoAuth{}, topts...),
		user:      user,
		password:  password,
	}, nil
}

// ListProducts downloads the full supplier feed.
func (s *Supplier) ListProducts(ctx context.Context) (sources.SupplierSnapshot, error) {
	logger := logging.FromContext(ctx)
	start := time.Now()

	var resp allProductsResponse
	body := allProductsRequest{User: s.user, Password: s.password}
	if _, err := s.transport.JSON(ctx, http.MethodPost, allProductsPath, nil, body, &resp); err != nil {
		if errors.IsUnauthorized(err) {
			return sources.SupplierSnapshot{}, errors.NewAuthenticationError(serviceName, credentialsLabel, "credentials rejected", err)
		}
		return sources.SupplierSnapshot{}, err
	}

	if !resp.Success {
		return sources.SupplierSnapshot{}, errors.NewFetchError(sources.SupplierID.String(), "API returned an error: "+resp.errorMessage(), nil)
	}

	snap, err := resp.snapshot()
	if err != nil {
		return sources.SupplierSnapshot{}, err
	}

	logger.Info().
		Int("records", len(snap.Records)).
		Bool("complete", snap.Complete).
		Dur("duration", time.Since(start)).
		Msg("Fetched supplier feed")

	return snap, nil
}

// snapshot decodes the product list. A success response without a product
// list is treated as partial so that it never drives deletions.
func (r *allProductsResponse) snapshot() (sources.SupplierSnapshot, error) {
	if isAbsent(r.Response) {
		return sources.SupplierSnapshot{Records: []sources.SupplierRecord{}, Complete: false}, nil
	}

	var records []sources.SupplierRecord
	if err := json.Unmarshal(r.Response, &records); err != nil {
		return sources.SupplierSnapshot{}, errors.WrapParse("json", serviceName+" product list", err)
	}
	if records == nil {
		records = []sources.SupplierRecord{}
	}
	return sources.SupplierSnapshot{Records: records, Complete: true}, nil
}

// errorMessage extracts the API's error text from whichever field carries it.
func (r *allProductsResponse) errorMessage() string {
	for _, raw := range []json.RawMessage{r.Message, r.Response} {
		var msg string
		if !isAbsent(raw) && json.Unmarshal(raw, &msg) == nil && msg != "" {
			return msg
		}
	}
	return unknownAPIError
}

func isAbsent(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}
