package logger

import "testing"

func TestSanitizeKVsRedactsAndHashes(t *testing.T) {
	kv := sanitizeKVs([]interface{}{
		"api_key", "sk-live-123",
		"session_id", "c5c1d2b0",
		"turn_id", 7,
	})
	if len(kv) != 6 {
		t.Fatalf("len=%d", len(kv))
	}
	if kv[1] != "[REDACTED]" {
		t.Fatalf("api_key not redacted: %v", kv[1])
	}
	hashed, _ := kv[3].(string)
	if hashed == "c5c1d2b0" || len(hashed) != len("hash:")+12 {
		t.Fatalf("session_id not hashed: %v", kv[3])
	}
	if kv[5] != 7 {
		t.Fatalf("turn_id changed: %v", kv[5])
	}
}

func TestSanitizeKVsOddLength(t *testing.T) {
	kv := sanitizeKVs([]interface{}{"component", "coach", "dangling"})
	if len(kv) != 3 || kv[2] != "dangling" {
		t.Fatalf("unexpected kv: %#v", kv)
	}
}

func TestNopLoggerIsUsable(t *testing.T) {
	log := Nop().With("component", "test")
	log.Info("hello", "k", "v")
	log.Sync()
}

func TestSanitizeKVsSummarizesSpokenText(t *testing.T) {
	kv := sanitizeKVs([]interface{}{"text", "I led the migration to Go", "event", "speech"})
	if kv[1] != "[25 chars, 6 words]" {
		t.Fatalf("text not summarized: %v", kv[1])
	}
	if kv[3] != "speech" {
		t.Fatalf("event changed: %v", kv[3])
	}
}
