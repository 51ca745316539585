// Package pricing computes storefront prices from supplier costs.
//
// The rule is fixed: final = cost × (1 − discount) × (1 + margin), computed in
// exact decimal arithmetic and rounded half-up to the currency scale. A price
// that is not strictly positive is a configuration error, never clamped.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/agentstation/storesync/pkg/catalogs"
	"github.com/agentstation/storesync/pkg/constants"
	"github.com/agentstation/storesync/pkg/errors"
)

const component = "pricing"

var one = decimal.NewFromInt(1)

// Rule is a markup rule applied to every supplier cost.
type Rule struct {
	DiscountRate decimal.Decimal `json:"discount_rate" yaml:"discount_rate"` // 0 ≤ d < 1
	MarginRate   decimal.Decimal `json:"margin_rate" yaml:"margin_rate"`     // m ≥ 0
	Scale        int32           `json:"scale" yaml:"scale"`                 // decimal places of the minimum currency unit
}

// NewRule builds a rule at the default currency scale.
func NewRule(discount, margin decimal.Decimal) Rule {
	return Rule{DiscountRate: discount, MarginRate: margin, Scale: constants.DefaultCurrencyScale}
}

// ParseRule builds a rule from decimal strings, as read from configuration.
func ParseRule(discount, margin string, scale int32) (Rule, error) {
	d, err := decimal.NewFromString(discount)
	if err != nil {
		return Rule{}, errors.NewConfigError(component, fmt.Sprintf("discount_rate %q is not a number", discount), err)
	}
	m, err := decimal.NewFromString(margin)
	if err != nil {
		return Rule{}, errors.NewConfigError(component, fmt.Sprintf("margin_rate %q is not a number", margin), err)
	}
	r := Rule{DiscountRate: d, MarginRate: m, Scale: scale}
	return r, r.Validate()
}

// Validate checks the rule ranges. A failing rule is fatal for the run.
func (r Rule) Validate() error {
	if r.DiscountRate.IsNegative() || r.DiscountRate.GreaterThanOrEqual(one) {
		return errors.NewConfigError(component, fmt.Sprintf("discount_rate %s must be in [0, 1)", r.DiscountRate), nil)
	}
	if r.MarginRate.IsNegative() {
		return errors.NewConfigError(component, fmt.Sprintf("margin_rate %s must be non-negative", r.MarginRate), nil)
	}
	// A finer price would be rounded by the storefront and never match again.
	if r.Scale < 0 || r.Scale > constants.MaxCurrencyScale {
		return errors.NewConfigError(component,
			fmt.Sprintf("scale %d must be in [0, %d]", r.Scale, constants.MaxCurrencyScale), nil)
	}
	return nil
}

// Multiplier returns (1 − discount) × (1 + margin).
func (r Rule) Multiplier() decimal.Decimal {
	return one.Sub(r.DiscountRate).Mul(one.Add(r.MarginRate))
}

// String returns a compact description of the rule.
func (r Rule) String() string {
	return fmt.Sprintf("cost × (1 − %s) × (1 + %s), %d places", r.DiscountRate, r.MarginRate, r.Scale)
}

// Compute applies the rule to a cost.
func (r Rule) Compute(cost decimal.Decimal) (decimal.Decimal, error) {
	if err := r.Validate(); err != nil {
		return decimal.Decimal{}, err
	}
	if !cost.IsPositive() {
		return decimal.Decimal{}, errors.NewConfigError(component, fmt.Sprintf("supplier cost %s must be positive", cost), nil)
	}

	// Round is half away from zero, which is half-up for the positive
	// values reaching this point.
	final := cost.Mul(r.Multiplier()).Round(r.Scale)
	if !final.IsPositive() {
		return decimal.Decimal{}, errors.NewConfigError(component,
			fmt.Sprintf("cost %s prices to %s, which is not positive", cost, final.StringFixed(r.Scale)), nil)
	}
	return final, nil
}

// Price returns a copy of p with FinalPrice set from its supplier cost.
func Price(p catalogs.Product, r Rule) (catalogs.Product, error) {
	if p.SupplierCost == nil {
		return p, errors.NewConfigError(component, fmt.Sprintf("product %s has no usable supplier cost", p.SKU), nil)
	}
	final, err := r.Compute(*p.SupplierCost)
	if err != nil {
		return p, fmt.Errorf("product %s: %w", p.SKU, err)
	}
	out := p.Copy()
	out.FinalPrice = final
	return out, nil
}

// Rejection is a product that could not be priced.
type Rejection struct {
	Index int // position in the input slice
	SKU   catalogs.SKU
	Err   error
}

// PriceAll prices every active product. Inactive products pass through
// unpriced because they are never created or updated with a price. A product
// that fails to price is rejected without affecting the rest.
func PriceAll(products []catalogs.Product, r Rule) (priced []catalogs.Product, rejected []Rejection) {
	priced = make([]catalogs.Product, 0, len(products))
	for i, p := range products {
		if !p.Active {
			priced = append(priced, p)
			continue
		}
		out, err := Price(p, r)
		if err != nil {
			rejected = append(rejected, Rejection{Index: i, SKU: p.SKU, Err: err})
			continue
		}
		priced = append(priced, out)
	}
	return priced, rejected
}
