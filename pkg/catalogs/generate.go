//go:generate gomarkdoc -e -f github -o README.md . --repository.url https://github.com/agentstation/storesync --repository.default-branch master --repository.path /pkg/catalogs

// Package catalogs defines the normalized product shared by both sides of a
// reconciliation and the canonical SKU that keys it.
package catalogs
