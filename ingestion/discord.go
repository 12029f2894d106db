package ingestion

// discordExtractor iterates data.messages keeping entries with both an
// Author.Name and a Content string.
type discordExtractor struct{}

func (discordExtractor) Extract(payload Payload) ([]Message, error) {
	entries := messagesList(payload.JSON)
	if len(entries) == 0 {
		return nil, newError(KindNoMessagesFound, "No messages found in Discord JSON file.")
	}

	messages := make([]Message, 0, len(entries))
	for _, raw := range entries {
		msg, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		author, ok := msg["Author"].(map[string]any)
		if !ok {
			continue
		}
		sender, ok := stringField(author, "Name")
		if !ok || sender == "" {
			continue
		}
		content, ok := stringField(msg, "Content")
		if !ok || content == "" {
			continue
		}
		messages = append(messages, Message{Sender: sender, Content: content})
	}

	if len(messages) == 0 {
		return nil, newError(KindNoMessagesFound, "No valid messages found in Discord JSON.")
	}
	return messages, nil
}
