package transport

import (
	"encoding/json"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/agentstation/storesync/pkg/errors"
	"github.com/agentstation/storesync/pkg/logging"
)

// maxErrorBody bounds the response text kept in an APIError.
const maxErrorBody = 512

// DecodeResponse checks the status and decodes a JSON response into target.
// A nil target discards the body.
func DecodeResponse(service string, resp *http.Response, target any) error {
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logging.Warn().Err(err).Str("service", service).Msg("Failed to close response body")
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.NewTransientError("read response body", err)
	}

	if err := CheckResponse(service, resp, body); err != nil {
		return err
	}

	if target == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, target); err != nil {
		return errors.WrapParse("json", service+" response", err)
	}
	return nil
}

// CheckResponse converts a non-2xx response into an APIError carrying the
// server's Retry-After hint.
func CheckResponse(service string, resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	message := strings.TrimSpace(string(body))
	if len(message) > maxErrorBody {
		message = message[:maxErrorBody] + "…"
	}
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}

	apiErr := errors.NewAPIError(service, resp.StatusCode, message)
	if resp.Request != nil && resp.Request.URL != nil {
		apiErr.Endpoint = resp.Request.Method + " " + resp.Request.URL.Path
	}
	apiErr.RetryAfter = ParseRetryAfter(resp.Header.Get("Retry-After"), time.Now())
	return apiErr
}

// ParseRetryAfter reads a Retry-After value given in seconds (fractions
// allowed, as Shopify sends them) or as an HTTP date.
func ParseRetryAfter(value string, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if secs, err := strconv.ParseFloat(value, 64); err == nil {
		if secs <= 0 {
			return 0
		}
		return time.Duration(secs * float64(time.Second))
	}
	if at, err := http.ParseTime(value); err == nil && at.After(now) {
		return at.Sub(now)
	}
	return 0
}

var linkNext = regexp.MustCompile(`<([^>]+)>\s*;\s*rel="?next"?`)

// NextLink returns the URL of the next page from a Link header, or "".
func NextLink(header http.Header) string {
	for _, link := range header.Values("Link") {
		if m := linkNext.FindStringSubmatch(link); m != nil {
			return m[1]
		}
	}
	return ""
}
