package logic

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"github.com/go-fed/httpsig"
	"net/http"
	"silo_bridge/shared"
	"strings"
)

type IHttpSigChecker interface {
	Check(r *http.Request, body []byte) (string, error)
}

type httpSigChecker struct {
	cfg    *shared.Config
	logger shared.ILogger
}

func NewHttpSigChecker(cfg *shared.Config, logger shared.ILogger) IHttpSigChecker {
	return &httpSigChecker{cfg, logger}
}

// Check verifies the HMAC signature and body digest of a callback from the delivery service.
// A non-empty message means the request must be rejected; an error means we could not tell.
func (chk *httpSigChecker) Check(r *http.Request, body []byte) (string, error) {

	if chk.cfg.Secrets.DeliveryHookSecret == "" {
		return "Callbacks are not configured", nil
	}
	if r.Header.Get("Signature") == "" {
		return "Missing 'Signature' header", nil
	}

	verifier, err := httpsig.NewVerifier(r)
	if err != nil {
		return fmt.Sprintf("Invalid 'Signature' header: %v", err), nil
	}
	if verifier.KeyId() != chk.cfg.Secrets.DeliveryHookKeyId {
		return fmt.Sprintf("Unknown keyId: %s", verifier.KeyId()), nil
	}
	if err = verifier.Verify([]byte(chk.cfg.Secrets.DeliveryHookSecret), httpsig.HMAC_SHA256); err != nil {
		return fmt.Sprintf("Incorrect signature: %v", err), nil
	}

	// The signature covers the Digest header; this ties it to the body
	digest := r.Header.Get("Digest")
	prefix := string(httpsig.DigestSha256) + "="
	if !strings.HasPrefix(digest, prefix) {
		return "Missing or unsupported 'Digest' header", nil
	}
	sum := sha256.Sum256(body)
	expected := base64.StdEncoding.EncodeToString(sum[:])
	if subtle.ConstantTimeCompare([]byte(digest[len(prefix):]), []byte(expected)) != 1 {
		return "Digest does not match body", nil
	}
	return "", nil
}
