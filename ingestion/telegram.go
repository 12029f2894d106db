package ingestion

import "strings"

// telegramExtractor iterates data.messages keeping entries with a "from"
// sender and a resolvable text. The text field is either a plain string or a
// list of rich-text parts whose "text" fields are concatenated without a
// separator; "message" is the fallback. Entries whose resolved content trims
// to empty are dropped.
type telegramExtractor struct{}

func (telegramExtractor) Extract(payload Payload) ([]Message, error) {
	entries := messagesList(payload.JSON)
	if len(entries) == 0 {
		return nil, newError(KindNoMessagesFound, "No messages found in Telegram JSON file.")
	}

	messages := make([]Message, 0, len(entries))
	for _, raw := range entries {
		msg, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		sender, ok := stringField(msg, "from")
		if !ok || sender == "" {
			continue
		}

		content := resolveTelegramText(msg)
		content = strings.TrimSpace(content)
		if content == "" {
			continue
		}
		messages = append(messages, Message{Sender: sender, Content: content})
	}

	if len(messages) == 0 {
		return nil, newError(KindNoMessagesFound, "No valid messages found in Telegram JSON.")
	}
	return messages, nil
}

func resolveTelegramText(msg map[string]any) string {
	switch text := msg["text"].(type) {
	case string:
		return text
	case []any:
		var builder strings.Builder
		for _, rawPart := range text {
			part, ok := rawPart.(map[string]any)
			if !ok {
				continue
			}
			if partText, ok := stringField(part, "text"); ok {
				builder.WriteString(partText)
			}
		}
		return builder.String()
	}

	fallback, _ := stringField(msg, "message")
	return fallback
}
