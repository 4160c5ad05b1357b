// Command send_turn posts one utterance to a running relay and prints
// the reply. Smoke-test helper, not part of the served binary.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

type turnRequest struct {
	ChildID   string `json:"child_id,omitempty"`
	NameHint  string `json:"name_hint,omitempty"`
	Utterance string `json:"utterance"`
	Speak     *bool  `json:"speak,omitempty"`
}

type turnResponse struct {
	Reply       string `json:"reply"`
	AudioB64    string `json:"audio_b64,omitempty"`
	ContentType string `json:"content_type,omitempty"`
}

func main() {
	addr := flag.String("addr", "http://localhost:8080", "")
	childID := flag.String("child", "", "")
	nameHint := flag.String("name", "", "")
	speak := flag.Bool("speak", false, "")
	flag.Parse()

	utterance := strings.Join(flag.Args(), " ")
	if utterance == "" {
		fmt.Println("usage: send_turn [-addr=http://localhost:8080] [-child=amy] [-speak] <utterance>")
		os.Exit(1)
	}

	req := turnRequest{ChildID: *childID, NameHint: *nameHint, Utterance: utterance}
	if *speak {
		req.Speak = speak
	}
	body, err := json.Marshal(req)
	if err != nil {
		fmt.Println("encode error:", err)
		os.Exit(1)
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Post(strings.TrimRight(*addr, "/")+"/api/turn", "application/json", bytes.NewReader(body))
	if err != nil {
		fmt.Println("request error:", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		fmt.Printf("http %d: %s\n", resp.StatusCode, strings.TrimSpace(string(raw)))
		os.Exit(1)
	}

	var out turnResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		fmt.Println("decode error:", err)
		os.Exit(1)
	}
	fmt.Println(out.Reply)
	if out.AudioB64 != "" {
		fmt.Printf("(audio: %s, %d base64 bytes)\n", out.ContentType, len(out.AudioB64))
	}
}
