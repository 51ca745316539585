package shopify

import (
	"encoding/json"
	"maps"
	"slices"
	"strings"

	"github.com/agentstation/storesync/pkg/constants"
	"github.com/agentstation/storesync/pkg/convert"
	"github.com/agentstation/storesync/pkg/sources"
)

// Product status values written by storesync.
const (
	statusActive = sources.StatusActive
	statusDraft  = sources.StatusDraft
)

const (
	metafieldType      = "single_line_text_field"
	inventoryManagedBy = "shopify"
	defaultProductType = "General"
)

// Attribute keys that also drive product-level Shopify fields.
const (
	attrColor       = convert.AttrColor
	attrCategory    = convert.AttrCategory
	attrSubcategory = convert.AttrSubcategory
)

// Response structures for the Admin REST API.
type productsResponse struct {
	Products []product `json:"products"`
}

type productResponse struct {
	Product product `json:"product"`
}

type metafieldsResponse struct {
	Metafields []metafield `json:"metafields"`
}

type product struct {
	ID       json.Number `json:"id"`
	Title    string      `json:"title"`
	BodyHTML string      `json:"body_html"`
	Status   string      `json:"status"`
	Variants []variant   `json:"variants"`
	Images   []image     `json:"images"`
}

type variant struct {
	ID    json.Number    `json:"id"`
	SKU   string         `json:"sku"`
	Price sources.Amount `json:"price"`
}

type image struct {
	Src string `json:"src"`
}

type metafield struct {
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
	Value     string `json:"value"`
	Type      string `json:"type,omitempty"`
}

// record converts a listed product into a storefront record.
func (p product) record(attrs map[string]string) sources.StorefrontRecord {
	rec := sources.StorefrontRecord{
		ID:         p.ID.String(),
		Title:      p.Title,
		BodyHTML:   p.BodyHTML,
		Status:     p.Status,
		Variants:   make([]sources.StorefrontVariant, 0, len(p.Variants)),
		Metafields: attrs,
	}
	for _, v := range p.Variants {
		if strings.TrimSpace(v.SKU) == "" {
			continue
		}
		rec.Variants = append(rec.Variants, sources.StorefrontVariant{
			ID:    v.ID.String(),
			SKU:   v.SKU,
			Price: v.Price,
		})
	}
	for _, img := range p.Images {
		rec.Images = append(rec.Images, img.Src)
	}
	return rec
}

// Request structures. Fields left nil are omitted so that an update only
// touches what changed.
type productRequest struct {
	Product productWrite `json:"product"`
}

type productWrite struct {
	ID          string         `json:"id,omitempty"`
	Title       *string        `json:"title,omitempty"`
	BodyHTML    *string        `json:"body_html,omitempty"`
	Vendor      string         `json:"vendor,omitempty"`
	ProductType string         `json:"product_type,omitempty"`
	Tags        string         `json:"tags,omitempty"`
	Status      string         `json:"status,omitempty"`
	Variants    []variantWrite `json:"variants,omitempty"`
	Images      *[]image       `json:"images,omitempty"`
	Metafields  []metafield    `json:"metafields,omitempty"`
}

type variantRequest struct {
	Variant variantWrite `json:"variant"`
}

type variantWrite struct {
	ID                  string `json:"id,omitempty"`
	SKU                 string `json:"sku,omitempty"`
	Price               string `json:"price,omitempty"`
	Option1             string `json:"option1,omitempty"`
	InventoryManagement string `json:"inventory_management,omitempty"`
}

// createRequest builds a single-variant product from a full payload.
func createRequest(p sources.Payload, vendor string) productRequest {
	w := productWrite{
		Title:       p.Title,
		BodyHTML:    p.Description,
		Vendor:      vendor,
		ProductType: defaultProductType,
		Status:      status(p.Active),
		Metafields:  metafields(p.Attributes),
		Images:      images(p.Images),
	}
	if sub := p.Attributes[attrSubcategory]; sub != "" {
		w.ProductType = sub
	}
	w.Tags = tags(p.Attributes)

	v := variantWrite{
		SKU:                 string(p.SKU),
		Option1:             p.Attributes[attrColor],
		InventoryManagement: inventoryManagedBy,
	}
	if p.Price != nil {
		v.Price = p.Price.StringFixed(constants.DefaultCurrencyScale)
	}
	w.Variants = []variantWrite{v}

	return productRequest{Product: w}
}

// updateRequest builds the product-level part of an update. ok is false when
// the payload changes no product-level field.
func updateRequest(productID string, p sources.Payload) (req productRequest, ok bool) {
	w := productWrite{
		ID:         productID,
		Title:      p.Title,
		BodyHTML:   p.Description,
		Metafields: metafields(p.Attributes),
	}
	if p.Active != nil {
		w.Status = status(p.Active)
	}
	if p.Images != nil {
		w.Images = images(p.Images)
	}
	if p.Attributes != nil {
		w.Tags = tags(p.Attributes)
		w.ProductType = p.Attributes[attrSubcategory]
	}
	ok = w.Title != nil || w.BodyHTML != nil || w.Status != "" || w.Images != nil || p.Attributes != nil
	return productRequest{Product: w}, ok
}

func status(active *bool) string {
	if active != nil && *active {
		return statusActive
	}
	return statusDraft
}

func images(srcs []string) *[]image {
	out := make([]image, 0, len(srcs))
	for _, src := range srcs {
		out = append(out, image{Src: src})
	}
	return &out
}

func metafields(attrs map[string]string) []metafield {
	if len(attrs) == 0 {
		return nil
	}
	out := make([]metafield, 0, len(attrs))
	for _, key := range slices.Sorted(maps.Keys(attrs)) {
		out = append(out, metafield{
			Namespace: constants.MetafieldNamespace,
			Key:       key,
			Value:     attrs[key],
			Type:      metafieldType,
		})
	}
	return out
}

func tags(attrs map[string]string) string {
	var out []string
	for _, key := range []string{attrCategory, attrSubcategory} {
		if v := attrs[key]; v != "" && !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return strings.Join(out, ", ")
}
