package ingestion

import "testing"

func TestTelegramExtractorPlainText(t *testing.T) {
	doc := map[string]any{"messages": []any{
		map[string]any{"from": "Alice", "text": "hello"},
		map[string]any{"from": "Bob", "text": "world"},
	}}

	messages, err := telegramExtractor{}.Extract(Payload{JSON: doc})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if messages[0].Sender != "Alice" || messages[0].Content != "hello" {
		t.Fatalf("unexpected first message: %+v", messages[0])
	}
}

func TestTelegramExtractorConcatenatesRichTextParts(t *testing.T) {
	doc := map[string]any{"messages": []any{
		map[string]any{"from": "Alice", "text": []any{
			map[string]any{"type": "plain", "text": "check "},
			map[string]any{"type": "link", "text": "https://example.com"},
			"stray string part",
		}},
	}}

	messages, err := telegramExtractor{}.Extract(Payload{JSON: doc})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if messages[0].Content != "check https://example.com" {
		t.Fatalf("expected concatenated parts, got %q", messages[0].Content)
	}
}

func TestTelegramExtractorMessageFallback(t *testing.T) {
	doc := map[string]any{"messages": []any{
		map[string]any{"from": "Alice", "message": "fallback body"},
	}}

	messages, err := telegramExtractor{}.Extract(Payload{JSON: doc})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if messages[0].Content != "fallback body" {
		t.Fatalf("expected message fallback, got %q", messages[0].Content)
	}
}

func TestTelegramExtractorEmptyTextStringDropsEntry(t *testing.T) {
	// An empty text string wins over the message fallback and drops the
	// entry, so service notices are not ingested as the sender's prose.
	doc := map[string]any{"messages": []any{
		map[string]any{"from": "Alice", "text": "", "message": "ignored"},
	}}

	_, err := telegramExtractor{}.Extract(Payload{JSON: doc})
	if err == nil || err.Error() != "No valid messages found in Telegram JSON." {
		t.Fatalf("expected no-valid-messages error, got %v", err)
	}
}

func TestTelegramExtractorEmptyMessages(t *testing.T) {
	_, err := telegramExtractor{}.Extract(Payload{JSON: map[string]any{"messages": []any{}}})
	if KindOf(err) != KindNoMessagesFound {
		t.Fatalf("expected KindNoMessagesFound, got %v", err)
	}
	if err.Error() != "No messages found in Telegram JSON file." {
		t.Fatalf("unexpected error message: %q", err.Error())
	}
}
