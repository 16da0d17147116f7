package paypal

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultVerifyURL is PayPal's live IPN postback endpoint.
const DefaultVerifyURL = "https://ipnpb.paypal.com/cgi-bin/webscr"

// Verifier asks PayPal whether a notification body is genuine.
type Verifier interface {
	Verify(ctx context.Context, raw []byte) (bool, error)
}

type HTTPVerifier struct {
	url  string
	http *http.Client
}

func NewHTTPVerifier(verifyURL string, timeout time.Duration) *HTTPVerifier {
	if strings.TrimSpace(verifyURL) == "" {
		verifyURL = DefaultVerifyURL
	}
	return &HTTPVerifier{url: verifyURL, http: &http.Client{Timeout: timeout}}
}

// Verify posts the body back, prefixed with cmd=_notify-validate, and
// expects the literal answer VERIFIED.
func (v *HTTPVerifier) Verify(ctx context.Context, raw []byte) (bool, error) {
	body := make([]byte, 0, len(raw)+24)
	body = append(body, "cmd=_notify-validate&"...)
	body = append(body, raw...)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.url, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("build verify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", "eopbot-ipn-verifier")

	resp, err := v.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("verify ipn: %w", err)
	}
	defer resp.Body.Close()

	answer, err := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
	if err != nil {
		return false, fmt.Errorf("read verify response: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		return false, fmt.Errorf("verify ipn: http %d", resp.StatusCode)
	}
	return string(bytes.TrimSpace(answer)) == "VERIFIED", nil
}
