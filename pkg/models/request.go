package models

// ContentType selects the source of generated text.
type ContentType int

const (
	TypeWords      ContentType = 1
	TypeSentence   ContentType = 2
	TypeParagraphs ContentType = 3
)

// Valid reports whether t is one of the known content types.
func (t ContentType) Valid() bool {
	return t >= TypeWords && t <= TypeParagraphs
}

// GenerationRequest asks for typing-practice text.
// Count is the number of words (type 1), the sentence length (type 2),
// and is ignored for agent paragraphs (type 3).
type GenerationRequest struct {
	Type  int `json:"type"`
	Count int `json:"count"`
}

// GenerationResponse carries the generated text and how long it took.
type GenerationResponse struct {
	Type      int     `json:"type"`
	Count     int     `json:"count"`
	Text      string  `json:"text"`
	ElapsedMs float64 `json:"taken"`
}
