package ingestion

import "strings"

// twitterExtractor normalizes an archive to a flat tweet list: a single
// tweet-shaped object, a bare array, or data.tweets. Retweets and replies
// (text starting "RT @" or "@") are excluded, and no sender is retained —
// an archive belongs to a single implicit author.
type twitterExtractor struct{}

func (twitterExtractor) Extract(payload Payload) ([]Message, error) {
	tweets := normalizeTweets(payload.JSON)

	messages := make([]Message, 0, len(tweets))
	for _, raw := range tweets {
		tweet, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if inner, ok := tweet["tweet"].(map[string]any); ok {
			tweet = inner
		}

		text, ok := stringField(tweet, "full_text")
		if !ok || text == "" {
			if text, ok = stringField(tweet, "text"); !ok || text == "" {
				continue
			}
		}
		if strings.HasPrefix(text, "RT @") || strings.HasPrefix(text, "@") {
			continue
		}
		messages = append(messages, Message{Content: text})
	}

	if len(messages) == 0 {
		return nil, newError(KindNoMessagesFound, "No tweets found in Twitter JSON file.")
	}
	return messages, nil
}

func normalizeTweets(doc any) []any {
	switch v := doc.(type) {
	case []any:
		return v
	case map[string]any:
		if _, ok := v["tweet"]; ok {
			return []any{v}
		}
		if tweets, ok := v["tweets"].([]any); ok {
			return tweets
		}
	}
	return nil
}
