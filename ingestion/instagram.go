package ingestion

// instagramExtractor accepts a single conversation object or a list of
// conversations and flattens every conversation's messages, keeping entries
// with both a sender_name and a content string.
type instagramExtractor struct{}

func (instagramExtractor) Extract(payload Payload) ([]Message, error) {
	conversations, ok := payload.JSON.([]any)
	if !ok {
		conversations = []any{payload.JSON}
	}

	messages := make([]Message, 0)
	for _, rawConversation := range conversations {
		conversation, ok := rawConversation.(map[string]any)
		if !ok {
			continue
		}
		entries, _ := conversation["messages"].([]any)
		for _, raw := range entries {
			msg, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			sender, ok := stringField(msg, "sender_name")
			if !ok || sender == "" {
				continue
			}
			content, ok := stringField(msg, "content")
			if !ok || content == "" {
				continue
			}
			messages = append(messages, Message{Sender: sender, Content: content})
		}
	}

	if len(messages) == 0 {
		return nil, newError(KindNoMessagesFound, "No messages found in Instagram JSON file.")
	}
	return messages, nil
}
