package mode

import "fmt"

// Mode is the retrieval strategy: a single semantic pass or hybrid fusion.
type Mode string

// Retrieval mode constants.
const (
	// Semantic runs one KNN pass over the target vector field.
	Semantic Mode = "semantic"
	// Hybrid fuses KNN and BM25 results via Reciprocal Rank Fusion.
	Hybrid Mode = "hybrid"
)

// Field is the embedding space a semantic pass searches against.
type Field string

// Target field constants.
const (
	Content   Field = "content"
	Title     Field = "title"
	Headnotes Field = "headnotes"
)

// ParseField resolves the wire-level search_field value into a (Field, Mode)
// pair. The value "hybrid" selects hybrid mode over the content field; an
// empty value falls back to the content field in semantic mode.
func ParseField(s string) (Field, Mode, error) {
	switch s {
	case "", string(Content):
		return Content, Semantic, nil
	case string(Title):
		return Title, Semantic, nil
	case string(Headnotes):
		return Headnotes, Semantic, nil
	case string(Hybrid):
		return Content, Hybrid, nil
	default:
		return "", "", fmt.Errorf("unsupported search field %q", s)
	}
}

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Semantic || m == Hybrid
}

// IsValid checks if the field is one of the supported values.
func (f Field) IsValid() bool {
	return f == Content || f == Title || f == Headnotes
}
