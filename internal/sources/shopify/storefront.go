// Package shopify provides a sources.Storefront backed by the Shopify Admin
// REST API.
//
// Each storesync product is one single-variant Shopify product. Pass-through
// attributes are stored as product metafields in the storesync namespace.
// Products with several SKU-bearing variants, created outside storesync, are
// addressed per variant through sources.VariantRef.
package shopify

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/agentstation/storesync/internal/transport"
	"github.com/agentstation/storesync/pkg/constants"
	"github.com/agentstation/storesync/pkg/errors"
	"github.com/agentstation/storesync/pkg/logging"
	"github.com/agentstation/storesync/pkg/sources"
)

// DefaultAPIVersion is the Admin API version used when none is configured.
const DefaultAPIVersion = "2024-04"

// AccessTokenHeader carries the Admin API access token.
const AccessTokenHeader = "X-Shopify-Access-Token"

const (
	serviceName = "shopify"

	// readRetries bounds the retries of a throttled listing request.
	readRetries = 3

	// defaultReadRate paces listing requests below the REST bucket leak rate.
	defaultReadRate = 2.0
)

// Storefront implements sources.Storefront for one Shopify shop.
type Storefront struct {
	transport *transport.Client
	vendor    string
	reads     *rate.Limiter
	sleep     func(context.Context, time.Duration) error
}

var _ sources.Storefront = (*Storefront)(nil)

// Option configures a Storefront.
type Option func(*settings)

type settings struct {
	version  string
	vendor   string
	timeout  time.Duration
	client   *http.Client
	readRate float64
}

// WithAPIVersion sets the Admin API version, e.g. "2024-04".
func WithAPIVersion(version string) Option {
	return func(s *settings) {
		if version != "" {
			s.version = version
		}
	}
}

// WithVendor sets the vendor written on created products.
func WithVendor(vendor string) Option {
	return func(s *settings) {
		s.vendor = vendor
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(s *settings) {
		s.client = hc
	}
}

// WithReadRate paces listing requests. Zero or less disables pacing.
func WithReadRate(rps float64) Option {
	return func(s *settings) {
		s.readRate = rps
	}
}

// New creates a Storefront for shop, given as a myshopify.com domain or a
// full base URL, authenticated with an Admin API access token.
func New(shop, token string, opts ...Option) (*Storefront, error) {
	if shop == "" || token == "" {
		return nil, errors.NewConfigError(serviceName, "shop and access token are required", nil)
	}

	s := &settings{
		version:  DefaultAPIVersion,
		vendor:   constants.DefaultVendor,
		timeout:  constants.DefaultHTTPTimeout,
		readRate: defaultReadRate,
	}
	for _, opt := range opts {
		opt(s)
	}

	topts := []transport.Option{transport.WithAPIKey(token), transport.WithTimeout(s.timeout)}
	if s.client != nil {
		topts = append(topts, transport.WithHTTPClient(s.client))
	}

	limit := rate.Inf
	if s.readRate > 0 {
		limit = rate.Limit(s.readRate)
	}

	return &Storefront{
		transport: transport.New(serviceName, adminURL(shop, s.version), &transport.HeaderAuth{Header: AccessTokenHeader}, topts...),
		vendor:    s.vendor,
		reads:     rate.NewLimiter(limit, 1),
		sleep:     sleepContext,
	}, nil
}

// adminURL builds the Admin API root for shop.
func adminURL(shop, version string) string {
	base := strings.TrimRight(shop, "/")
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}
	return base + "/admin/api/" + version
}

// ListProducts returns every product in the shop with its storesync
// metafields, following Link pagination.
func (s *Storefront) ListProducts(ctx context.Context) ([]sources.StorefrontRecord, error) {
	logger := logging.FromContext(ctx)

	query := url.Values{}
	query.Set("limit", strconv.Itoa(constants.StorefrontPageSize))
	query.Set("fields", "id,title,body_html,status,variants,images")

	var records []sources.StorefrontRecord
	next := "products.json"
	for page := 1; next != ""; page++ {
		var resp productsResponse
		header, err := s.get(ctx, next, query, &resp)
		if err != nil {
			return nil, s.readError(err)
		}

		for _, p := range resp.Products {
			attrs, err := s.metafields(ctx, p.ID.String())
			if err != nil {
				return nil, s.readError(err)
			}
			records = append(records, p.record(attrs))
		}

		logger.Debug().Int("page", page).Int("products", len(resp.Products)).Msg("Listed storefront page")

		// The next link carries its own query.
		next, query = transport.NextLink(header), nil
	}

	if records == nil {
		records = []sources.StorefrontRecord{}
	}
	logger.Info().Int("products", len(records)).Msg("Listed storefront products")
	return records, nil
}

// metafields returns the storesync attributes of one product.
func (s *Storefront) metafields(ctx context.Context, productID string) (map[string]string, error) {
	query := url.Values{}
	query.Set("namespace", constants.MetafieldNamespace)

	var resp metafieldsResponse
	if _, err := s.get(ctx, "products/"+productID+"/metafields.json", query, &resp); err != nil {
		return nil, err
	}

	attrs := make(map[string]string, len(resp.Metafields))
	for _, m := range resp.Metafields {
		if m.Namespace == constants.MetafieldNamespace {
			attrs[m.Key] = m.Value
		}
	}
	return attrs, nil
}

// get performs a paced GET, waiting out throttling responses a bounded number
// of times. Writes are paced and retried by the executor instead.
func (s *Storefront) get(ctx context.Context, path string, query url.Values, target any) (http.Header, error) {
	for retry := 0; ; retry++ {
		if err := s.reads.Wait(ctx); err != nil {
			return nil, err
		}

		header, err := s.transport.JSON(ctx, http.MethodGet, path, query, nil, target)
		if err == nil || !errors.IsRateLimited(err) || retry >= readRetries {
			return header, err
		}

		wait := errors.RetryAfter(err)
		if wait <= 0 {
			wait = constants.RetryBackoff
		}
		logging.FromContext(ctx).Debug().Str("path", path).Dur("retry_after", wait).Msg("Storefront listing throttled")
		if err := s.sleep(ctx, wait); err != nil {
			return nil, err
		}
	}
}

// readError reports rejected credentials as an authentication error.
func (s *Storefront) readError(err error) error {
	if errors.IsUnauthorized(err) {
		return errors.NewAuthenticationError(serviceName, transport.Method(&transport.HeaderAuth{Header: AccessTokenHeader}), "access token rejected", err)
	}
	return err
}

// CreateProduct creates a single-variant product and returns its ID.
func (s *Storefront) CreateProduct(ctx context.Context, p sources.Payload) (string, error) {
	if p.SKU == "" {
		return "", errors.NewValidationError("sku", p.SKU, "cannot create a product without a SKU")
	}

	var resp productResponse
	if _, err := s.transport.JSON(ctx, http.MethodPost, "products.json", nil, createRequest(p, s.vendor), &resp); err != nil {
		return "", err
	}
	if resp.Product.ID == "" {
		return "", errors.NewParseError("json", "shopify create response", "missing product id", nil)
	}
	return resp.Product.ID.String(), nil
}

// UpdateProduct applies the non-nil fields of p. The price lives on the
// variant; every other field lives on the product. A variant reference
// accepts only the price, since product fields are shared with sibling
// variants; any other field is rejected before anything is written.
func (s *Storefront) UpdateProduct(ctx context.Context, id string, p sources.Payload) error {
	productID, variantID := sources.ParseRef(id)
	if variantID != "" && p.WritesProductFields() {
		return errors.NewValidationError("id", id, "only the price of a shared product variant can be updated")
	}
	if variantID == "" {
		variantID = p.VariantID
	}

	if p.Price != nil {
		if variantID == "" {
			return errors.NewValidationError("variant_id", id, "price update needs the variant id")
		}
		req := variantRequest{Variant: variantWrite{
			ID:    variantID,
			Price: p.Price.StringFixed(constants.DefaultCurrencyScale),
		}}
		if _, err := s.transport.JSON(ctx, http.MethodPut, "variants/"+variantID+".json", nil, req, nil); err != nil {
			return err
		}
	}

	req, ok := updateRequest(productID, p)
	if !ok {
		return nil
	}
	_, err := s.transport.JSON(ctx, http.MethodPut, "products/"+productID+".json", nil, req, nil)
	return err
}

// DeleteProduct deletes a product, or one variant when id is a variant reference.
func (s *Storefront) DeleteProduct(ctx context.Context, id string) error {
	productID, variantID := sources.ParseRef(id)
	path := "products/" + productID + ".json"
	if variantID != "" {
		path = "products/" + productID + "/variants/" + variantID + ".json"
	}
	_, err := s.transport.JSON(ctx, http.MethodDelete, path, nil, nil, nil)
	return err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
