// Package server is the thin route layer over the turn orchestrator:
// JSON turns, voice turns, a websocket chat session, and a Twilio SMS
// webhook. Capability failures surface here as transport errors; the
// orchestrator itself always answers.
package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kringlelabs/kringle/pkg/adapters/stt"
	"github.com/kringlelabs/kringle/pkg/adapters/tts"
	"github.com/kringlelabs/kringle/pkg/logging"
	"github.com/kringlelabs/kringle/pkg/turn"
)

// maxAudioUpload caps voice-turn uploads at 10 MiB.
const maxAudioUpload = 10 << 20

type Config struct {
	Addr         string
	SpeakReplies bool

	TwilioSMSEnabled bool
	TwilioAuthToken  string
	TwilioPublicURL  string
	TwilioSMSPath    string
}

type Server struct {
	cfg         Config
	orch        *turn.Orchestrator
	synthesizer tts.Synthesizer
	transcriber stt.Transcriber
	log         *slog.Logger
	httpServer  *http.Server
}

func New(cfg Config, orch *turn.Orchestrator, synthesizer tts.Synthesizer, transcriber stt.Transcriber, log *slog.Logger) *Server {
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.TwilioSMSPath == "" {
		cfg.TwilioSMSPath = "/webhooks/twilio/sms"
	}
	return &Server{
		cfg:         cfg,
		orch:        orch,
		synthesizer: synthesizer,
		transcriber: transcriber,
		log:         logging.NewComponentLogger(log, "server"),
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/api/turn", s.handleTurn)
	mux.HandleFunc("/api/voice-turn", s.handleVoiceTurn)
	mux.HandleFunc("/ws", s.handleWebsocket)
	if s.cfg.TwilioSMSEnabled {
		mux.HandleFunc(s.cfg.TwilioSMSPath, s.handleTwilioSMS)
	}
	return mux
}

// ListenAndServe blocks until ctx is cancelled, then drains with a
// short grace period.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", slog.String("addr", s.cfg.Addr))
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

type turnRequest struct {
	ChildID   string `json:"child_id"`
	NameHint  string `json:"name_hint"`
	Utterance string `json:"utterance"`
	Speak     *bool  `json:"speak"`
}

type turnResponse struct {
	Reply       string `json:"reply"`
	AudioB64    string `json:"audio_b64,omitempty"`
	ContentType string `json:"content_type,omitempty"`
}

func (s *Server) handleTurn(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req turnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	traceID := uuid.NewString()

	result := s.orch.HandleTurn(r.Context(), turn.Request{
		ChildID:   req.ChildID,
		NameHint:  req.NameHint,
		Utterance: req.Utterance,
		TraceID:   traceID,
	})

	resp := turnResponse{Reply: result.Reply}
	speak := s.cfg.SpeakReplies
	if req.Speak != nil {
		speak = *req.Speak
	}
	if speak && s.synthesizer != nil {
		audio, err := s.synthesizer.Synthesize(r.Context(), result.Reply)
		if err != nil {
			// The reply still goes out; audio is best-effort.
			s.log.Warn("synthesis failed",
				slog.String("trace_id", traceID),
				slog.String("error", err.Error()))
		} else {
			resp.AudioB64 = base64.StdEncoding.EncodeToString(audio)
			resp.ContentType = s.synthesizer.ContentType()
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

type voiceTurnResponse struct {
	Transcript  string `json:"transcript"`
	Reply       string `json:"reply"`
	AudioB64    string `json:"audio_b64,omitempty"`
	ContentType string `json:"content_type,omitempty"`
}

func (s *Server) handleVoiceTurn(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.transcriber == nil {
		http.Error(w, "transcription not configured", http.StatusNotImplemented)
		return
	}
	if err := r.ParseMultipartForm(maxAudioUpload); err != nil {
		http.Error(w, "invalid multipart body", http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("audio")
	if err != nil {
		http.Error(w, "audio file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()
	audio, err := io.ReadAll(io.LimitReader(file, maxAudioUpload))
	if err != nil {
		http.Error(w, "read audio", http.StatusBadRequest)
		return
	}
	traceID := uuid.NewString()

	transcript, err := s.transcriber.Transcribe(r.Context(), audio, header.Header.Get("Content-Type"))
	if err != nil {
		s.log.Error("transcription failed",
			slog.String("trace_id", traceID),
			slog.String("error", err.Error()))
		http.Error(w, "transcription failed", http.StatusBadGateway)
		return
	}

	result := s.orch.HandleTurn(r.Context(), turn.Request{
		ChildID:   r.FormValue("child_id"),
		NameHint:  r.FormValue("name_hint"),
		Utterance: transcript,
		TraceID:   traceID,
	})

	resp := voiceTurnResponse{Transcript: transcript, Reply: result.Reply}
	if s.synthesizer != nil {
		if audioOut, synthErr := s.synthesizer.Synthesize(r.Context(), result.Reply); synthErr != nil {
			s.log.Warn("synthesis failed",
				slog.String("trace_id", traceID),
				slog.String("error", synthErr.Error()))
		} else {
			resp.AudioB64 = base64.StdEncoding.EncodeToString(audioOut)
			resp.ContentType = s.synthesizer.ContentType()
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func childIDFromPhone(from string) string {
	return "sms:" + strings.TrimSpace(from)
}
