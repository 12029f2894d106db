package ingestion

// Message is one extracted (sender, content) pair. Formats without a sender
// concept leave Sender empty; those messages bypass dominant-sender filtering.
type Message struct {
	Sender  string
	Content string
}

// Payload carries the raw export into an extractor. JSON holds the decoded
// document for JSON formats and is nil otherwise.
type Payload struct {
	Text     string
	JSON     any
	Filename string
}

// MessageExtractor produces the ordered message list for one export format.
// Implementations return a *Error of KindNoMessagesFound when the list would
// be empty, with a format-specific human-readable message.
type MessageExtractor interface {
	Extract(payload Payload) ([]Message, error)
}

// extractorFor maps a detected format to its extraction routine.
func extractorFor(format ExportFormat) (MessageExtractor, bool) {
	switch format {
	case FormatWhatsAppText:
		return whatsAppTextExtractor{}, true
	case FormatWhatsAppJSON:
		return whatsAppJSONExtractor{}, true
	case FormatInstagramJSON:
		return instagramExtractor{}, true
	case FormatTelegramJSON:
		return telegramExtractor{}, true
	case FormatTwitterJSON:
		return twitterExtractor{}, true
	case FormatDiscordJSON:
		return discordExtractor{}, true
	case FormatSMSCSV:
		return smsCSVExtractor{}, true
	case FormatEmailCSV:
		return emailCSVExtractor{}, true
	case FormatGenericCSV:
		return genericCSVExtractor{}, true
	default:
		return nil, false
	}
}

// stringField reads a string-valued key from a decoded JSON object.
func stringField(obj map[string]any, key string) (string, bool) {
	raw, ok := obj[key]
	if !ok {
		return "", false
	}
	value, ok := raw.(string)
	return value, ok
}
