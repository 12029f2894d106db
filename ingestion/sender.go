package ingestion

// SelectDominantSender picks the sender with the most messages and returns
// that sender's message contents in original order. The dominant sender is
// the export's "main user": the person whose writing the Echo is trained on.
//
// Ties are broken in favor of the first-encountered sender, which keeps the
// selection deterministic regardless of map iteration order. Messages with an
// empty sender (formats without a sender concept) pass through unfiltered,
// and an all-empty-sender input returns every content string.
func SelectDominantSender(messages []Message) (string, []string) {
	counts := make(map[string]int)
	order := make([]string, 0)

	for _, msg := range messages {
		if msg.Sender == "" {
			continue
		}
		if _, seen := counts[msg.Sender]; !seen {
			order = append(order, msg.Sender)
		}
		counts[msg.Sender]++
	}

	if len(order) == 0 {
		contents := make([]string, 0, len(messages))
		for _, msg := range messages {
			contents = append(contents, msg.Content)
		}
		return "", contents
	}

	dominant := order[0]
	for _, sender := range order[1:] {
		if counts[sender] > counts[dominant] {
			dominant = sender
		}
	}

	contents := make([]string, 0, counts[dominant])
	for _, msg := range messages {
		if msg.Sender == dominant {
			contents = append(contents, msg.Content)
		}
	}
	return dominant, contents
}
