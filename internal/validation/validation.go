// Package validation provides webhook signatures: signing outgoing deliveries and verifying them.
package validation

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/google/go-github/v84/github"
)

// SignaturePrefix precedes the hex digest in the X-Hub-Signature-256 header.
const SignaturePrefix = "sha256="

// SignatureHeader is the lower-cased X-Hub-Signature-256 header name.
var SignatureHeader = strings.ToLower(github.SHA256SignatureHeader)

// WebhookSecret represents a secret used to sign and validate webhook signatures.
type WebhookSecret string

// NewWebhookSecret returns a WebhookSecret for secret, or nil when secret is empty.
func NewWebhookSecret(secret string) *WebhookSecret {
	if secret == "" {
		return nil
	}
	s := WebhookSecret(secret)
	return &s
}

// Sign returns the X-Hub-Signature-256 header value for body.
func (s *WebhookSecret) Sign(body []byte) string {
	mac := hmac.New(sha256.New, []byte(*s))
	_, _ = mac.Write(body)
	return SignaturePrefix + hex.EncodeToString(mac.Sum(nil))
}

// ValidateSignature validates the HMAC-SHA256 signature of a webhook request using the provided body and lower-cased headers.
func (s *WebhookSecret) ValidateSignature(body []byte, headers map[string]string) error {
	if s == nil {
		return errors.New("missing webhook secret")
	}
	signature, found := headers[SignatureHeader]
	if !found {
		return errors.New("missing HMAC-SHA256 signature")
	}

	if contentType := headers["content-type"]; contentType != "application/json" {
		return fmt.Errorf("unsupported content type: %s", contentType)
	}

	return github.ValidateSignature(signature, body, []byte(*s))
}
