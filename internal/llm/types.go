package llm

type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

type PartType string

const (
	PartText  PartType = "text"
	PartImage PartType = "image"
)

// Image is either an external reference (URL set) or an inline base64
// payload (MediaType and Data set). Never both.
type Image struct {
	URL       string
	MediaType string
	Data      string
}

func (i Image) Inline() bool {
	return i.URL == ""
}

// DataURI renders an inline image the way OpenAI-style image_url parts expect.
func (i Image) DataURI() string {
	return "data:" + i.MediaType + ";base64," + i.Data
}

type Part struct {
	Type  PartType
	Text  string
	Image *Image
}

type Message struct {
	Role  Role
	Parts []Part
}

type Request struct {
	Messages    []Message
	MaxTokens   int
	Temperature float64
}

type Response struct {
	Content    string
	StopReason string
}

func TextPart(text string) Part {
	return Part{Type: PartText, Text: text}
}

func ImagePart(image Image) Part {
	return Part{Type: PartImage, Image: &image}
}

// SystemText joins the text of all system messages.
func SystemText(messages []Message) string {
	var text string
	for _, m := range messages {
		if m.Role != RoleSystem {
			continue
		}
		for _, p := range m.Parts {
			if p.Type != PartText {
				continue
			}
			if text != "" {
				text += "\n\n"
			}
			text += p.Text
		}
	}
	return text
}
