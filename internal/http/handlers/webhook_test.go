package handlers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartsalon/salon-booking-bot/internal/whatsapp"
	"github.com/smartsalon/salon-booking-bot/pkg/logging"
)

type stubService struct {
	handled []whatsapp.Message
	err     error
}

func (s *stubService) HandleMessage(ctx context.Context, msg whatsapp.Message) error {
	s.handled = append(s.handled, msg)
	return s.err
}

const inboundBody = `{
  "object": "whatsapp_business_account",
  "entry": [{
    "changes": [{
      "field": "messages",
      "value": {
        "messages": [{
          "from": "919876543210",
          "id": "wamid.abc",
          "timestamp": "1756550400",
          "type": "text",
          "text": {"body": "hi"}
        }]
      }
    }]
  }]
}`

func TestVerifyAcceptsMatchingToken(t *testing.T) {
	h := NewWebhookHandler("verify_me", "", &stubService{}, nil, logging.Default())

	req := httptest.NewRequest(http.MethodGet,
		"/webhook?hub.mode=subscribe&hub.verify_token=verify_me&hub.challenge=12345", nil)
	rec := httptest.NewRecorder()
	h.Verify(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "12345", rec.Body.String())
}

func TestVerifyRejectsWrongToken(t *testing.T) {
	h := NewWebhookHandler("verify_me", "", &stubService{}, nil, logging.Default())

	req := httptest.NewRequest(http.MethodGet,
		"/webhook?hub.mode=subscribe&hub.verify_token=nope&hub.challenge=12345", nil)
	rec := httptest.NewRecorder()
	h.Verify(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestReceiveDispatchesMessages(t *testing.T) {
	svc := &stubService{}
	h := NewWebhookHandler("verify_me", "", svc, nil, logging.Default())

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(inboundBody))
	rec := httptest.NewRecorder()
	h.Receive(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, svc.handled, 1)
	assert.Equal(t, "919876543210", svc.handled[0].From)
	assert.Equal(t, "hi", svc.handled[0].Text)
}

func TestReceiveStillAcksWhenHandlingFails(t *testing.T) {
	svc := &stubService{err: errors.New("db down")}
	h := NewWebhookHandler("verify_me", "", svc, nil, logging.Default())

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(inboundBody))
	rec := httptest.NewRecorder()
	h.Receive(rec, req)

	// Meta must not retry handled deliveries.
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReceiveRejectsBadJSON(t *testing.T) {
	h := NewWebhookHandler("verify_me", "", &stubService{}, nil, logging.Default())

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader("not json"))
	rec := httptest.NewRecorder()
	h.Receive(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReceiveEnforcesSignatureWhenConfigured(t *testing.T) {
	svc := &stubService{}
	h := NewWebhookHandler("verify_me", "app_secret", svc, nil, logging.Default())

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(inboundBody))
	rec := httptest.NewRecorder()
	h.Receive(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, svc.handled)

	mac := hmac.New(sha256.New, []byte("app_secret"))
	mac.Write([]byte(inboundBody))
	sig := "sha256=" + hex.EncodeToString(mac.Sum(nil))

	req = httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(inboundBody))
	req.Header.Set("X-Hub-Signature-256", sig)
	rec = httptest.NewRecorder()
	h.Receive(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, svc.handled, 1)
}
