package models

// Store type tags.
const (
	ItemTypeWord     = "1"
	ItemTypeSentence = "2"
)

// TextItem is a raw row of the text table as returned by a store scan.
type TextItem struct {
	ID      string `json:"id" yaml:"id" dynamodbav:"id,omitempty"`
	Type    string `json:"type" yaml:"type" dynamodbav:"type,omitempty"`
	Content string `json:"content" yaml:"content" dynamodbav:"content"`
	Length  int    `json:"length,omitempty" yaml:"length,omitempty" dynamodbav:"length,omitempty"`
}

// WordRecord is a single entry of the word pool.
type WordRecord struct {
	Content string `json:"content"`
}

// SentenceRecord is a sentence bucketed by length.
type SentenceRecord struct {
	Content string `json:"content"`
	Length  int    `json:"length"`
}

// BedrockResult holds up to three paragraphs produced by one agent session.
type BedrockResult struct {
	SessionID string `json:"sessionId"`
	Para1     string `json:"para1"`
	Para2     string `json:"para2"`
	Para3     string `json:"para3"`
}

// Paragraphs returns the non-empty paragraphs in order.
func (r BedrockResult) Paragraphs() []string {
	out := make([]string, 0, 3)
	for _, p := range []string{r.Para1, r.Para2, r.Para3} {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
