package knowledge

import "strings"

// DefaultChunkRunes is the target chunk size used by ingestion. Sized
// well below typical embedding-model input limits.
const DefaultChunkRunes = 1200

// Chunk splits text into pieces of at most maxRunes runes, preferring
// paragraph boundaries. A paragraph longer than maxRunes is split
// mid-paragraph. Empty input yields no chunks.
func Chunk(text string, maxRunes int) []string {
	if maxRunes <= 0 {
		maxRunes = DefaultChunkRunes
	}

	var chunks []string
	var current strings.Builder
	currentLen := 0

	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			chunks = append(chunks, s)
		}
		current.Reset()
		currentLen = 0
	}

	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		runes := []rune(para)
		if len(runes) > maxRunes {
			flush()
			for start := 0; start < len(runes); start += maxRunes {
				end := start + maxRunes
				if end > len(runes) {
					end = len(runes)
				}
				if s := strings.TrimSpace(string(runes[start:end])); s != "" {
					chunks = append(chunks, s)
				}
			}
			continue
		}

		if currentLen > 0 && currentLen+len(runes)+2 > maxRunes {
			flush()
		}
		if currentLen > 0 {
			current.WriteString("\n\n")
			currentLen += 2
		}
		current.WriteString(para)
		currentLen += len(runes)
	}
	flush()

	return chunks
}
