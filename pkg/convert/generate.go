// Package convert normalizes raw supplier and storefront records into
// catalogs.Product values keyed by canonical SKU. It is the only place that
// knows the wire shape of either side; everything downstream works on
// normalized products.
//
// Malformed records never abort a run. They are dropped and returned as
// skips so the run report can list them.
package convert
