package catalogs

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// SKU is the canonical stock keeping unit shared by the supplier feed and the
// storefront. It is the only key used to match the two sides.
type SKU string

var skuCaser = cases.Upper(language.Und)

// NewSKU canonicalizes a raw SKU: NFKC normalization, surrounding white space
// trimmed, upper-cased. Inner white space is kept. Both normalizers must build
// keys through this function.
func NewSKU(raw string) SKU {
	s := norm.NFKC.String(raw)
	s = strings.TrimSpace(s)
	return SKU(skuCaser.String(s))
}

// String returns the SKU as a string.
func (s SKU) String() string {
	return string(s)
}

// IsZero reports whether the SKU is empty.
func (s SKU) IsZero() bool {
	return s == ""
}
