// Package sanitize turns raw model output into an AnswerResult with exactly
// two links, synthesising a fallback answer when the output is unusable.
package sanitize

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/povarna/generative-ai-agents/rag-agent/internal/models"
)

// Output is either Parsed or Malformed.
type Output interface {
	isOutput()
}

type Parsed struct {
	Answer string
	Links  []models.Link
}

type Malformed struct {
	Raw    string
	Reason string
}

func (Parsed) isOutput()    {}
func (Malformed) isOutput() {}

var codeFencePattern = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")

type rawAnswer struct {
	Answer string          `json:"answer"`
	Links  json.RawMessage `json:"links"`
}

type rawLink struct {
	URL  string `json:"url"`
	Text string `json:"text"`
}

// Parse extracts the first JSON object with a non-empty answer from raw.
// The whole text is tried first, then every balanced {...} in order, so
// prose or code fences around the object are tolerated.
func Parse(raw string) Output {
	text := strings.TrimSpace(raw)
	if text == "" {
		return Malformed{Raw: raw, Reason: "empty output"}
	}

	if m := codeFencePattern.FindStringSubmatch(text); m != nil {
		text = m[1]
	}

	if parsed, ok := decode(text); ok {
		return parsed
	}

	for start := strings.IndexByte(text, '{'); start >= 0; {
		if end := matchingBrace(text, start); end > start {
			if parsed, ok := decode(text[start : end+1]); ok {
				return parsed
			}
		}
		next := strings.IndexByte(text[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}

	return Malformed{Raw: raw, Reason: "no JSON object with a non-empty answer"}
}

func decode(candidate string) (Parsed, bool) {
	var ra rawAnswer
	if err := json.Unmarshal([]byte(candidate), &ra); err != nil {
		return Parsed{}, false
	}
	if strings.TrimSpace(ra.Answer) == "" {
		return Parsed{}, false
	}

	return Parsed{Answer: ra.Answer, Links: decodeLinks(ra.Links)}, true
}

// decodeLinks accepts an array of links, a lone link object or a bare URL
// string. Any other shape yields no links.
func decodeLinks(raw json.RawMessage) []models.Link {
	raw = bytes.TrimSpace(raw)
	links := []models.Link{}
	if len(raw) == 0 {
		return links
	}

	if raw[0] != '[' {
		if link, ok := decodeLink(raw); ok {
			links = append(links, link)
		}
		return links
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return links
	}
	for _, item := range items {
		link, ok := decodeLink(item)
		if !ok {
			continue
		}
		links = append(links, link)
	}
	return links
}

// decodeLink accepts {"url","text"} objects and bare URL strings.
func decodeLink(item json.RawMessage) (models.Link, bool) {
	item = bytes.TrimSpace(item)
	if len(item) == 0 {
		return models.Link{}, false
	}

	var rl rawLink
	if item[0] == '"' {
		if err := json.Unmarshal(item, &rl.URL); err != nil {
			return models.Link{}, false
		}
	} else if err := json.Unmarshal(item, &rl); err != nil {
		return models.Link{}, false
	}

	rl.URL = strings.TrimSpace(rl.URL)
	if rl.URL == "" {
		return models.Link{}, false
	}
	return models.Link{URL: rl.URL, Text: strings.TrimSpace(rl.Text)}, true
}

// matchingBrace returns the index of the brace closing the one at start, or
// -1. Braces inside JSON strings are ignored.
func matchingBrace(text string, start int) int {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
