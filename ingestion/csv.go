package ingestion

import (
	"strings"
	"unicode/utf8"
)

// The CSV extractors deliberately split rows on bare commas instead of using
// encoding/csv: quoted fields containing commas are split apart, matching the
// behavior existing exports were processed with. None of these formats carry
// a sender column the pipeline trusts, so every extracted string flows to the
// pattern analyzer unfiltered.

// smsCSVExtractor takes the last column of each data row as the message body.
type smsCSVExtractor struct{}

func (smsCSVExtractor) Extract(payload Payload) ([]Message, error) {
	messages := make([]Message, 0)
	for _, columns := range csvRows(payload.Text) {
		if len(columns) < 2 {
			continue
		}
		text := cleanCSVValue(columns[len(columns)-1])
		if text == "" {
			continue
		}
		messages = append(messages, Message{Content: text})
	}

	if len(messages) == 0 {
		return nil, newError(KindNoMessagesFound, "No valid SMS messages found in CSV.")
	}
	return messages, nil
}

// emailCSVExtractor joins the subject (column 1) and body (column 2) of each
// data row with a single space.
type emailCSVExtractor struct{}

func (emailCSVExtractor) Extract(payload Payload) ([]Message, error) {
	messages := make([]Message, 0)
	for _, columns := range csvRows(payload.Text) {
		if len(columns) < 3 {
			continue
		}
		subject := cleanCSVValue(columns[1])
		body := cleanCSVValue(columns[2])
		combined := strings.TrimSpace(subject + " " + body)
		if combined == "" {
			continue
		}
		messages = append(messages, Message{Content: combined})
	}

	if len(messages) == 0 {
		return nil, newError(KindNoMessagesFound, "No valid emails found in CSV.")
	}
	return messages, nil
}

// genericCSVExtractor joins every column longer than ten characters, treating
// short columns as ids or timestamps rather than prose.
type genericCSVExtractor struct{}

func (genericCSVExtractor) Extract(payload Payload) ([]Message, error) {
	messages := make([]Message, 0)
	for _, columns := range csvRows(payload.Text) {
		meaningful := make([]string, 0, len(columns))
		for _, column := range columns {
			value := cleanCSVValue(column)
			if utf8.RuneCountInString(value) > 10 {
				meaningful = append(meaningful, value)
			}
		}
		if len(meaningful) == 0 {
			continue
		}
		messages = append(messages, Message{Content: strings.Join(meaningful, " ")})
	}

	if len(messages) == 0 {
		return nil, newError(KindNoMessagesFound, "No valid text content found in CSV.")
	}
	return messages, nil
}

// csvRows returns the comma-split data rows, skipping blank lines and the
// header.
func csvRows(content string) [][]string {
	lines := make([]string, 0)
	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) < 2 {
		return nil
	}

	rows := make([][]string, 0, len(lines)-1)
	for _, line := range lines[1:] {
		rows = append(rows, strings.Split(line, ","))
	}
	return rows
}

func cleanCSVValue(value string) string {
	return strings.TrimSpace(strings.ReplaceAll(value, `"`, ""))
}
