package server

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"testing"

	"github.com/kringlelabs/kringle/pkg/facts"
	"github.com/kringlelabs/kringle/pkg/persona"
	"github.com/kringlelabs/kringle/pkg/providers/mock"
	"github.com/kringlelabs/kringle/pkg/turn"
)

func computeSignature(authToken, requestURL string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	base := requestURL
	for _, k := range keys {
		base += k + params[k]
	}
	mac := hmac.New(sha1.New, []byte(authToken))
	_, _ = mac.Write([]byte(base))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func smsRequest(t *testing.T, authToken string, params map[string]string, sign bool) *http.Request {
	t.Helper()
	form := url.Values{}
	for k, v := range params {
		form.Set(k, v)
	}
	req := httptest.NewRequest(http.MethodPost, "http://kringle.test/webhooks/twilio/sms", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if sign {
		req.Header.Set("X-Twilio-Signature", computeSignature(authToken, "http://kringle.test/webhooks/twilio/sms", params))
	} else {
		req.Header.Set("X-Twilio-Signature", "invalid")
	}
	return req
}

func TestTwilioSMSTurn(t *testing.T) {
	model := mock.NewChatModel(mock.LLMConfig{
		ResponseText: `A drum! Ho ho ho! {"gift":{"item":"drum"}}`,
	})
	srv := newTestServer(model, nil, nil, Config{
		TwilioSMSEnabled: true,
		TwilioAuthToken:  "token123",
	})

	params := map[string]string{"From": "+15551234567", "Body": "I want a drum"}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, smsRequest(t, "token123", params, true))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<Message>A drum! Ho ho ho!</Message>") {
		t.Fatalf("expected TwiML message, got %s", body)
	}
	gifts := srv.orch.Store().Gifts("sms:+15551234567")
	if len(gifts) != 1 || gifts[0].Item != "drum" {
		t.Fatalf("gift should be keyed by the sender's number, got %v", gifts)
	}
}

func TestTwilioSMSRejectsBadSignature(t *testing.T) {
	srv := newTestServer(mock.NewChatModel(mock.LLMConfig{}), nil, nil, Config{
		TwilioSMSEnabled: true,
		TwilioAuthToken:  "token123",
	})

	params := map[string]string{"From": "+15551234567", "Body": "hi"}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, smsRequest(t, "token123", params, false))

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for a bad signature, got %d", rec.Code)
	}
}

func TestTwilioSMSRejectionLogsReason(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	orch := turn.NewOrchestrator(facts.NewStore(), mock.NewChatModel(mock.LLMConfig{}), persona.Santa(), log)
	srv := New(Config{TwilioSMSEnabled: true, TwilioAuthToken: "token123"}, orch, nil, nil, log)

	params := map[string]string{"From": "+15551234567", "Body": "hi"}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, smsRequest(t, "token123", params, false))

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if !strings.Contains(buf.String(), "webhook_invalid_signature") {
		t.Fatalf("rejection should log its reason code:\n%s", buf.String())
	}
}

func TestTwilioSMSDisabledRouteAbsent(t *testing.T) {
	srv := newTestServer(mock.NewChatModel(mock.LLMConfig{}), nil, nil, Config{})
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, smsRequest(t, "token123", map[string]string{}, true))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("disabled webhook must not be routed, got %d", rec.Code)
	}
}
