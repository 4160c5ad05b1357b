package server

import (
	"encoding/xml"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	twilioclient "github.com/twilio/twilio-go/client"

	"github.com/kringlelabs/kringle/pkg/errorsx"
	"github.com/kringlelabs/kringle/pkg/turn"
)

type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Message string   `xml:"Message"`
}

// handleTwilioSMS lets children text the persona. The webhook signature
// is validated against the configured auth token; the reply rides back
// as TwiML on the webhook response itself.
func (s *Server) handleTwilioSMS(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form body", http.StatusBadRequest)
		return
	}
	if !s.validTwilioSignature(r) {
		s.log.Warn("rejected twilio webhook",
			slog.String("reason", string(errorsx.ReasonTransportInvalidSignature)),
			slog.String("remote", r.RemoteAddr))
		http.Error(w, "invalid signature", http.StatusForbidden)
		return
	}

	from := r.PostFormValue("From")
	body := r.PostFormValue("Body")
	result := s.orch.HandleTurn(r.Context(), turn.Request{
		ChildID:   childIDFromPhone(from),
		Utterance: body,
		TraceID:   uuid.NewString(),
	})

	out, err := xml.Marshal(twimlResponse{Message: result.Reply})
	if err != nil {
		http.Error(w, "twiml encode", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/xml")
	_, _ = w.Write([]byte(xml.Header))
	_, _ = w.Write(out)
}

func (s *Server) validTwilioSignature(r *http.Request) bool {
	if s.cfg.TwilioAuthToken == "" {
		return false
	}
	params := make(map[string]string, len(r.PostForm))
	for key := range r.PostForm {
		params[key] = r.PostForm.Get(key)
	}
	validator := twilioclient.NewRequestValidator(s.cfg.TwilioAuthToken)
	return validator.Validate(s.webhookURL(r), params, r.Header.Get("X-Twilio-Signature"))
}

func (s *Server) webhookURL(r *http.Request) string {
	if s.cfg.TwilioPublicURL != "" {
		return s.cfg.TwilioPublicURL + r.URL.Path
	}
	scheme := "https"
	if r.TLS == nil {
		scheme = "http"
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}
