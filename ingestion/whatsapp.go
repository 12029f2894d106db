package ingestion

import "strings"

// whatsAppTextExtractor scans plain-text exports for bracket-timestamped
// lines. Groups: timestamp, sender, content; sender and content are trimmed.
type whatsAppTextExtractor struct{}

func (whatsAppTextExtractor) Extract(payload Payload) ([]Message, error) {
	matches := whatsAppLinePattern.FindAllStringSubmatch(payload.Text, -1)

	messages := make([]Message, 0, len(matches))
	for _, match := range matches {
		messages = append(messages, Message{
			Sender:  strings.TrimSpace(match[2]),
			Content: strings.TrimSpace(match[3]),
		})
	}

	if len(messages) == 0 {
		return nil, newError(KindNoMessagesFound, "No messages found in the file. Please check the format.")
	}
	return messages, nil
}

// whatsAppJSONExtractor iterates data.messages keeping entries that carry a
// sender_name and a non-empty content or text field.
type whatsAppJSONExtractor struct{}

func (whatsAppJSONExtractor) Extract(payload Payload) ([]Message, error) {
	entries := messagesList(payload.JSON)
	if len(entries) == 0 {
		return nil, newError(KindNoMessagesFound, "No messages found in WhatsApp JSON file.")
	}

	messages := make([]Message, 0, len(entries))
	for _, raw := range entries {
		msg, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		sender, ok := stringField(msg, "sender_name")
		if !ok || sender == "" {
			continue
		}
		content, hasContent := stringField(msg, "content")
		text, hasText := stringField(msg, "text")
		if (!hasContent || content == "") && (!hasText || text == "") {
			continue
		}
		if !hasContent || content == "" {
			content = text
		}
		messages = append(messages, Message{Sender: sender, Content: content})
	}

	if len(messages) == 0 {
		return nil, newError(KindNoMessagesFound, "No valid messages found in WhatsApp JSON.")
	}
	return messages, nil
}

func messagesList(doc any) []any {
	obj, ok := doc.(map[string]any)
	if !ok {
		return nil
	}
	list, _ := obj["messages"].([]any)
	return list
}
