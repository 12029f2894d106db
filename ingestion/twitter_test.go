package ingestion

import "testing"

func TestTwitterExtractorArchiveWrapperShapes(t *testing.T) {
	cases := map[string]any{
		"bare list": []any{
			map[string]any{"full_text": "original thought"},
		},
		"single wrapped tweet": map[string]any{
			"tweet": map[string]any{"full_text": "original thought"},
		},
		"tweets list": map[string]any{
			"tweets": []any{
				map[string]any{"tweet": map[string]any{"full_text": "original thought"}},
			},
		},
	}

	for name, doc := range cases {
		messages, err := twitterExtractor{}.Extract(Payload{JSON: doc})
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", name, err)
		}
		if len(messages) != 1 || messages[0].Content != "original thought" {
			t.Fatalf("%s: unexpected messages: %+v", name, messages)
		}
	}
}

func TestTwitterExtractorExcludesRetweetsAndReplies(t *testing.T) {
	doc := []any{
		map[string]any{"full_text": "RT @someone: boosted"},
		map[string]any{"full_text": "@someone replying"},
		map[string]any{"full_text": "kept tweet"},
	}

	messages, err := twitterExtractor{}.Extract(Payload{JSON: doc})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(messages) != 1 || messages[0].Content != "kept tweet" {
		t.Fatalf("expected only the original tweet, got %+v", messages)
	}
}

func TestTwitterExtractorTextFallback(t *testing.T) {
	doc := []any{
		map[string]any{"text": "legacy field"},
	}

	messages, err := twitterExtractor{}.Extract(Payload{JSON: doc})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if messages[0].Content != "legacy field" {
		t.Fatalf("expected text fallback, got %q", messages[0].Content)
	}
}

func TestTwitterExtractorLeavesSenderEmpty(t *testing.T) {
	doc := []any{map[string]any{"full_text": "hello"}}

	messages, err := twitterExtractor{}.Extract(Payload{JSON: doc})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if messages[0].Sender != "" {
		t.Fatalf("expected empty sender, got %q", messages[0].Sender)
	}
}

func TestTwitterExtractorNoTweets(t *testing.T) {
	doc := []any{
		map[string]any{"full_text": "@only reply"},
	}

	_, err := twitterExtractor{}.Extract(Payload{JSON: doc})
	if KindOf(err) != KindNoMessagesFound {
		t.Fatalf("expected KindNoMessagesFound, got %v", err)
	}
	if err.Error() != "No tweets found in Twitter JSON file." {
		t.Fatalf("unexpected error message: %q", err.Error())
	}
}
