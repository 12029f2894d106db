package ingestion

import "testing"

func TestWhatsAppTextExtractorTrimsFields(t *testing.T) {
	payload := Payload{Text: "[01.02.23, 10:00:00] Alice : Hi there \n[01.02.23, 10:00:05] Bob: Hello"}

	messages, err := whatsAppTextExtractor{}.Extract(payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if messages[0].Sender != "Alice" {
		t.Fatalf("expected trimmed sender Alice, got %q", messages[0].Sender)
	}
	if messages[0].Content != "Hi there" {
		t.Fatalf("expected trimmed content, got %q", messages[0].Content)
	}
}

func TestWhatsAppTextExtractorIgnoresNonMatchingLines(t *testing.T) {
	payload := Payload{Text: "Chat history export\n[01.02.23, 10:00:00] Alice: Hi\nmedia omitted"}

	messages, err := whatsAppTextExtractor{}.Extract(payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(messages))
	}
}

func TestWhatsAppTextExtractorNoMatches(t *testing.T) {
	_, err := whatsAppTextExtractor{}.Extract(Payload{Text: "just some text"})
	if KindOf(err) != KindNoMessagesFound {
		t.Fatalf("expected KindNoMessagesFound, got %v", err)
	}
	if err.Error() != "No messages found in the file. Please check the format." {
		t.Fatalf("unexpected error message: %q", err.Error())
	}
}

func TestWhatsAppJSONExtractorContentFallsBackToText(t *testing.T) {
	doc := map[string]any{"messages": []any{
		map[string]any{"sender_name": "Alice", "content": "primary"},
		map[string]any{"sender_name": "Bob", "text": "fallback"},
		map[string]any{"sender_name": "Eve", "content": "", "text": "used instead"},
	}}

	messages, err := whatsAppJSONExtractor{}.Extract(Payload{JSON: doc})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(messages))
	}
	if messages[1].Content != "fallback" {
		t.Fatalf("expected text fallback, got %q", messages[1].Content)
	}
	if messages[2].Content != "used instead" {
		t.Fatalf("expected empty content to fall back to text, got %q", messages[2].Content)
	}
}

func TestWhatsAppJSONExtractorSkipsInvalidEntries(t *testing.T) {
	doc := map[string]any{"messages": []any{
		map[string]any{"sender_name": "", "content": "no sender"},
		map[string]any{"content": "missing sender"},
		map[string]any{"sender_name": "Alice"},
		"not an object",
		map[string]any{"sender_name": "Bob", "content": "kept"},
	}}

	messages, err := whatsAppJSONExtractor{}.Extract(Payload{JSON: doc})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(messages) != 1 || messages[0].Sender != "Bob" {
		t.Fatalf("expected only Bob's message, got %+v", messages)
	}
}

func TestWhatsAppJSONExtractorEmptyMessages(t *testing.T) {
	doc := map[string]any{"messages": []any{}}

	_, err := whatsAppJSONExtractor{}.Extract(Payload{JSON: doc})
	if KindOf(err) != KindNoMessagesFound {
		t.Fatalf("expected KindNoMessagesFound, got %v", err)
	}
	if err.Error() != "No messages found in WhatsApp JSON file." {
		t.Fatalf("unexpected error message: %q", err.Error())
	}
}

func TestWhatsAppJSONExtractorAllEntriesInvalid(t *testing.T) {
	doc := map[string]any{"messages": []any{
		map[string]any{"sender_name": "Alice"},
	}}

	_, err := whatsAppJSONExtractor{}.Extract(Payload{JSON: doc})
	if err == nil || err.Error() != "No valid messages found in WhatsApp JSON." {
		t.Fatalf("expected no-valid-messages error, got %v", err)
	}
}
