// Package ingestion turns raw chat-export uploads into per-sender messages and
// aggregate writing-pattern statistics, and persists the outcome for training.
package ingestion

import (
	"encoding/json"
	"path/filepath"
	"regexp"
	"strings"
)

// ExportFormat enumerates supported chat-export payload formats.
type ExportFormat string

const (
	// FormatUnknown represents an unsupported or undetected format.
	FormatUnknown ExportFormat = ""
	// FormatWhatsAppText represents WhatsApp plain-text exports.
	FormatWhatsAppText ExportFormat = "whatsapp-text"
	// FormatWhatsAppJSON represents WhatsApp JSON exports.
	FormatWhatsAppJSON ExportFormat = "whatsapp-json"
	// FormatInstagramJSON represents Instagram conversation dumps.
	FormatInstagramJSON ExportFormat = "instagram-json"
	// FormatTelegramJSON represents Telegram JSON exports.
	FormatTelegramJSON ExportFormat = "telegram-json"
	// FormatTwitterJSON represents Twitter/X archive dumps.
	FormatTwitterJSON ExportFormat = "twitter-json"
	// FormatDiscordJSON represents Discord channel exports.
	FormatDiscordJSON ExportFormat = "discord-json"
	// FormatSMSCSV represents CSV exports with sender/message columns.
	FormatSMSCSV ExportFormat = "sms-csv"
	// FormatEmailCSV represents CSV exports with subject/from columns.
	FormatEmailCSV ExportFormat = "email-csv"
	// FormatGenericCSV represents any other delimited text export.
	FormatGenericCSV ExportFormat = "generic-csv"
)

// whatsAppLinePattern matches lines like "[01.02.23, 10:00:05] Sender: message".
var whatsAppLinePattern = regexp.MustCompile(`\[(\d{2}\.\d{2}\.\d{2},\s\d{2}:\d{2}:\d{2})\]\s([^:]+):\s(.+)`)

// DetectFormat classifies raw export content and returns the decoded JSON
// document when the content is JSON, so extractors do not parse twice. The
// filename is a hint only; classification is driven by the content itself.
// Unparseable content with a "{" prefix or a .json filename is reported via
// KindInvalidJSON; a bare "[" prefix falls back to the text formats, since
// WhatsApp text exports also open with a bracket.
func DetectFormat(content, filename string) (ExportFormat, any, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return FormatUnknown, nil, newError(KindEmptyInput, "File is empty.")
	}

	if looksLikeJSON(trimmed, filename) {
		var doc any
		if err := json.Unmarshal([]byte(trimmed), &doc); err == nil {
			format := classifyJSON(doc)
			if format == FormatUnknown {
				return FormatUnknown, nil, newError(KindUnrecognizedFormat, "Unknown JSON format. Please check if this is a supported chat export.")
			}
			return format, doc, nil
		}
		// A "[" prefix alone is ambiguous: WhatsApp text exports open with
		// a bracket-timestamp line. Only a "{" prefix or a .json filename
		// makes unparseable content a hard failure; otherwise the text
		// formats below get their turn.
		if strings.HasPrefix(trimmed, "{") || hasJSONExt(filename) {
			return FormatUnknown, nil, newError(KindInvalidJSON, "Invalid JSON format or corrupted file.")
		}
	}

	if whatsAppLinePattern.MatchString(content) {
		return FormatWhatsAppText, nil, nil
	}

	return classifyCSV(content), nil, nil
}

func looksLikeJSON(trimmed, filename string) bool {
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		return true
	}
	return hasJSONExt(filename)
}

func hasJSONExt(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".json")
}

// classifyJSON validates the decoded document against each known export shape
// in a fixed priority order: WhatsApp, Instagram, Telegram, Twitter, Discord.
// Ambiguous payloads exposing several shapes resolve to the earliest match. A
// messages array that validates no richer shape (including an empty one) is
// treated as WhatsApp JSON so its extractor reports the missing messages.
func classifyJSON(doc any) ExportFormat {
	obj, isObject := doc.(map[string]any)
	list, isList := doc.([]any)

	var messages []any
	hasMessages := false
	if isObject {
		if raw, ok := obj["messages"]; ok {
			if messages, ok = raw.([]any); ok {
				hasMessages = true
			}
		}
	}

	if hasMessages && anyMessageMatches(messages, isWhatsAppMessage) {
		return FormatWhatsAppJSON
	}

	if isObject {
		if _, ok := obj["inbox_data"]; ok {
			return FormatInstagramJSON
		}
	}
	if isList && len(list) > 0 {
		if first, ok := list[0].(map[string]any); ok {
			if _, ok := first["participants"]; ok {
				return FormatInstagramJSON
			}
		}
	}

	if isObject {
		if _, ok := obj["chats"]; ok {
			return FormatTelegramJSON
		}
	}
	if hasMessages && anyMessageMatches(messages, isTelegramMessage) {
		return FormatTelegramJSON
	}

	if isObject {
		if _, ok := obj["tweet"]; ok {
			return FormatTwitterJSON
		}
		if _, ok := obj["account"]; ok {
			return FormatTwitterJSON
		}
	}

	if hasMessages {
		if _, ok := obj["channel"]; ok {
			return FormatDiscordJSON
		}
		return FormatWhatsAppJSON
	}

	return FormatUnknown
}

func anyMessageMatches(messages []any, match func(map[string]any) bool) bool {
	for _, raw := range messages {
		msg, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if match(msg) {
			return true
		}
	}
	return false
}

func isWhatsAppMessage(msg map[string]any) bool {
	if _, ok := msg["sender_name"]; !ok {
		return false
	}
	if _, ok := msg["content"]; ok {
		return true
	}
	_, ok := msg["text"]
	return ok
}

func isTelegramMessage(msg map[string]any) bool {
	if _, ok := msg["sender_name"]; ok {
		return false
	}
	if _, ok := msg["from"]; !ok {
		return false
	}
	if _, ok := msg["text"]; ok {
		return true
	}
	_, ok := msg["message"]
	return ok
}

// classifyCSV picks a CSV sub-kind from the lowercased header line.
func classifyCSV(content string) ExportFormat {
	header := ""
	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) != "" {
			header = strings.ToLower(line)
			break
		}
	}

	switch {
	case strings.Contains(header, "message") && strings.Contains(header, "sender"):
		return FormatSMSCSV
	case strings.Contains(header, "subject") && strings.Contains(header, "from"):
		return FormatEmailCSV
	default:
		return FormatGenericCSV
	}
}
