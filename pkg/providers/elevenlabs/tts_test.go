package elevenlabs

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kringlelabs/kringle/pkg/resilience"
)

func TestSynthesizePostsTextAndReturnsAudio(t *testing.T) {
	var gotPath, gotKey string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("xi-api-key")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte("fake-mp3-bytes"))
	}))
	defer srv.Close()

	s := New(Config{APIKey: "xi-test", VoiceID: "santa-voice", BaseURL: srv.URL})
	audio, err := s.Synthesize(context.Background(), "Ho ho ho!")
	if err != nil {
		t.Fatalf("synthesize error: %v", err)
	}
	if string(audio) != "fake-mp3-bytes" {
		t.Fatalf("unexpected audio: %q", audio)
	}
	if !strings.HasSuffix(gotPath, "/v1/text-to-speech/santa-voice") {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotKey != "xi-test" {
		t.Fatalf("missing api key header")
	}
	if gotBody["text"] != "Ho ho ho!" {
		t.Fatalf("text not posted, got %v", gotBody)
	}
}

func TestSynthesizeRateLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	s := New(Config{APIKey: "xi-test", VoiceID: "v", BaseURL: srv.URL})
	_, err := s.Synthesize(context.Background(), "hi")
	if !resilience.IsRateLimit(err) {
		t.Fatalf("expected rate limit error, got %v", err)
	}
}

func TestSynthesizeRequiresConfig(t *testing.T) {
	s := New(Config{})
	if _, err := s.Synthesize(context.Background(), "hi"); err == nil {
		t.Fatalf("expected config error")
	}
}

func TestContentTypeByOutputFormat(t *testing.T) {
	if got := New(Config{OutputFormat: "mp3_44100_128"}).ContentType(); got != "audio/mpeg" {
		t.Fatalf("mp3 format should map to audio/mpeg, got %q", got)
	}
	if got := New(Config{OutputFormat: "pcm_16000"}).ContentType(); got != "audio/pcm" {
		t.Fatalf("pcm format should map to audio/pcm, got %q", got)
	}
}
