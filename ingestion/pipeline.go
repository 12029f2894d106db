package ingestion

// Extraction is the intermediate product of one pipeline run, kept so callers
// that persist messages do not have to re-extract.
type Extraction struct {
	Format         ExportFormat
	Messages       []Message
	DominantSender string
	Retained       []string
	Result         ProcessingResult
}

// Process runs the full pipeline over one upload: sniff the format, extract
// messages, filter to the dominant sender and analyze writing patterns. It
// never returns a Go error; every failure is collapsed into a
// ProcessingResult with Success set to false.
func Process(content, filename string) ProcessingResult {
	return Run(content, filename).Result
}

// Run is Process with the intermediate extraction exposed.
func Run(content, filename string) Extraction {
	format, doc, err := DetectFormat(content, filename)
	if err != nil {
		return Extraction{Format: format, Result: failureResult(err)}
	}

	extractor, ok := extractorFor(format)
	if !ok {
		return Extraction{
			Format: format,
			Result: failureResult(newError(KindUnrecognizedFormat, "Unsupported export format.")),
		}
	}

	messages, err := extractor.Extract(Payload{Text: content, JSON: doc, Filename: filename})
	if err != nil {
		return Extraction{Format: format, Result: failureResult(err)}
	}

	dominant, retained := SelectDominantSender(messages)
	patterns := AnalyzeWritingPatterns(retained)

	return Extraction{
		Format:         format,
		Messages:       messages,
		DominantSender: dominant,
		Retained:       retained,
		Result:         successResult(len(messages), patterns),
	}
}
