package ingestion

import (
	"reflect"
	"strings"
	"testing"
)

func TestProcessWhatsAppTextEndToEnd(t *testing.T) {
	content := "[01.02.23, 10:00:00] Alice: Hi!\n[01.02.23, 10:00:05] Bob: Hello"

	result := Process(content, "chat.txt")
	if !result.Success {
		t.Fatalf("expected success, got error %q", result.Error)
	}
	if result.MessageCount != 2 {
		t.Fatalf("expected 2 messages, got %d", result.MessageCount)
	}
	// Alice and Bob tie at one message each, so the first-encountered
	// sender wins and only "Hi!" feeds the pattern analyzer.
	if result.Patterns.AvgMessageLength != 3 {
		t.Fatalf("expected avg length 3, got %v", result.Patterns.AvgMessageLength)
	}
	if !reflect.DeepEqual(result.Patterns.CommonStarters, []string{"hi"}) {
		t.Fatalf("unexpected starters: %v", result.Patterns.CommonStarters)
	}
	if result.Patterns.PunctuationStyle["exclamation"] != 1 {
		t.Fatalf("expected exclamation fraction 1, got %v", result.Patterns.PunctuationStyle["exclamation"])
	}
}

func TestRunExposesIntermediateExtraction(t *testing.T) {
	content := "[01.02.23, 10:00:00] Alice: Hi!\n[01.02.23, 10:00:05] Bob: Hello"

	extraction := Run(content, "chat.txt")
	if extraction.Format != FormatWhatsAppText {
		t.Fatalf("expected whatsapp-text, got %q", extraction.Format)
	}
	if extraction.DominantSender != "Alice" {
		t.Fatalf("expected Alice, got %q", extraction.DominantSender)
	}
	if !reflect.DeepEqual(extraction.Retained, []string{"Hi!"}) {
		t.Fatalf("unexpected retained contents: %v", extraction.Retained)
	}
	if len(extraction.Messages) != 2 {
		t.Fatalf("expected both extracted messages, got %d", len(extraction.Messages))
	}
}

func TestProcessWhatsAppJSONEndToEnd(t *testing.T) {
	content := `{"messages":[
		{"sender_name":"Alice","content":"Hi!"},
		{"sender_name":"Alice","content":"ok?"}
	]}`

	result := Process(content, "export.json")
	if !result.Success {
		t.Fatalf("expected success, got error %q", result.Error)
	}
	if result.MessageCount != 2 {
		t.Fatalf("expected 2 messages, got %d", result.MessageCount)
	}
	if result.Patterns.AvgMessageLength != 3 {
		t.Fatalf("expected avg length 3, got %v", result.Patterns.AvgMessageLength)
	}
	if result.Patterns.PunctuationStyle["question"] != 0.5 {
		t.Fatalf("expected question fraction 0.5, got %v", result.Patterns.PunctuationStyle["question"])
	}
	if result.Patterns.PunctuationStyle["exclamation"] != 0.5 {
		t.Fatalf("expected exclamation fraction 0.5, got %v", result.Patterns.PunctuationStyle["exclamation"])
	}
}

func TestProcessEmptyFile(t *testing.T) {
	result := Process("   ", "chat.txt")
	if result.Success {
		t.Fatal("expected failure")
	}
	if result.Error != "File is empty." {
		t.Fatalf("unexpected error: %q", result.Error)
	}
}

func TestProcessInvalidJSON(t *testing.T) {
	result := Process("{not valid", "export.json")
	if result.Success {
		t.Fatal("expected failure")
	}
	if result.Error != "Invalid JSON format or corrupted file." {
		t.Fatalf("unexpected error: %q", result.Error)
	}
	if result.MessageCount != 0 {
		t.Fatalf("expected zero message count on failure, got %d", result.MessageCount)
	}
}

func TestProcessUnknownJSON(t *testing.T) {
	result := Process(`{"settings":{"theme":"dark"}}`, "export.json")
	if result.Success {
		t.Fatal("expected failure")
	}
	if result.Error != "Unknown JSON format. Please check if this is a supported chat export." {
		t.Fatalf("unexpected error: %q", result.Error)
	}
}

func TestProcessEmptyMessagesArray(t *testing.T) {
	result := Process(`{"messages":[]}`, "export.json")
	if result.Success {
		t.Fatal("expected failure")
	}
	if result.Error != "No messages found in WhatsApp JSON file." {
		t.Fatalf("unexpected error: %q", result.Error)
	}
}

func TestProcessGenericCSVShortColumns(t *testing.T) {
	result := Process("id,value\n1,short", "data.csv")
	if result.Success {
		t.Fatal("expected failure")
	}
	if result.Error != "No valid text content found in CSV." {
		t.Fatalf("unexpected error: %q", result.Error)
	}
}

func TestProcessTelegramEndToEnd(t *testing.T) {
	content := `{"messages":[
		{"from":"Dana","text":"So that went well..."},
		{"from":"Dana","text":"So anyway"},
		{"from":"Erik","text":"ha"}
	]}`

	result := Process(content, "result.json")
	if !result.Success {
		t.Fatalf("expected success, got error %q", result.Error)
	}
	if result.MessageCount != 3 {
		t.Fatalf("expected 3 messages, got %d", result.MessageCount)
	}
	if result.Patterns.CommonStarters[0] != "so" {
		t.Fatalf("expected dominant sender's starters, got %v", result.Patterns.CommonStarters)
	}
	if result.Patterns.PunctuationStyle["ellipsis"] != 0.5 {
		t.Fatalf("expected ellipsis fraction 0.5, got %v", result.Patterns.PunctuationStyle["ellipsis"])
	}
}

func TestProcessFailureResultShape(t *testing.T) {
	result := Process("", "chat.txt")

	if result.Patterns.CommonStarters == nil || result.Patterns.PunctuationStyle == nil {
		t.Fatal("failure results must carry empty, non-nil pattern collections")
	}
	if strings.TrimSpace(result.Error) == "" {
		t.Fatal("failure results must carry an error message")
	}
}
