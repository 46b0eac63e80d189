package instrument

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()

	var m map[string]any
	if err := json.Unmarshal(buf.Bytes(), &m); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	return m
}

func TestHandlerMasksConfiguredFields(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := slog.New(newHandler(buf, "passcode", nil, []string{"Code", "otp"}, slog.LevelInfo))

	logger.Info("issued", "code", "123456", "identifier", "user@example.com",
		"payload", map[string]any{"otp": "654321", "channel": "email"})

	line := decodeLine(t, buf)
	if line["code"] != "***" {
		t.Fatalf("code not masked: %v", line["code"])
	}
	if line["identifier"] != "user@example.com" {
		t.Fatalf("identifier changed: %v", line["identifier"])
	}
	payload, ok := line["payload"].(map[string]any)
	if !ok || payload["otp"] != "***" || payload["channel"] != "email" {
		t.Fatalf("nested payload not masked correctly: %v", line["payload"])
	}
	if line["service"] != "passcode" {
		t.Fatalf("service attr = %v", line["service"])
	}
	if _, ok := line["severity"]; !ok {
		t.Fatalf("missing severity key: %v", line)
	}
}

func TestHandlerAddsCorrelationID(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := slog.New(newHandler(buf, "passcode", nil, nil, slog.LevelInfo)).With("module", "passcode")

	ctx := SetCorrelationID(context.Background(), "cid-1")
	logger.InfoContext(ctx, "verified")

	line := decodeLine(t, buf)
	if line["_cID"] != "cid-1" {
		t.Fatalf("_cID = %v", line["_cID"])
	}
	if line["module"] != "passcode" {
		t.Fatalf("module = %v", line["module"])
	}
}

func TestHandlerLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := slog.New(newHandler(buf, "passcode", nil, nil, parseLevel("warn")))

	logger.Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("info line written at warn level: %s", buf.String())
	}

	if parseLevel("nonsense") != slog.LevelInfo {
		t.Fatalf("unknown level should fall back to info")
	}
}

func TestCorrelationIDRoundTrip(t *testing.T) {
	if got := GetCorrelationID(context.Background()); got != "" {
		t.Fatalf("empty context returned %q", got)
	}
	ctx := SetCorrelationID(context.Background(), "abc")
	if got := GetCorrelationID(ctx); got != "abc" {
		t.Fatalf("GetCorrelationID() = %q", got)
	}
}

func TestHandlerAlwaysRedactsSecrets(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := slog.New(newHandler(buf, "passcode", nil, nil, slog.LevelInfo)).
		With("proof_token", "eyJhbGciOi")

	logger.Info("stored",
		"digest", "ab12",
		"body", `{"identifier":"+15550100","code":"000111"}`,
		slog.Group("req", slog.String("passcode", "999999"), slog.String("channel", "sms")),
	)

	line := decodeLine(t, buf)
	if line["digest"] != redacted || line["proof_token"] != redacted {
		t.Fatalf("secret attrs leaked: %v", line)
	}
	if body, _ := line["body"].(string); body != `{"code":"***","identifier":"+15550100"}` {
		t.Fatalf("json body = %q", body)
	}
	req, _ := line["req"].(map[string]any)
	if req["passcode"] != redacted || req["channel"] != "sms" {
		t.Fatalf("group = %v", line["req"])
	}
}
