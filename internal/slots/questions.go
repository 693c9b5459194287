package slots

import (
	"fmt"
	"strings"
)

// Question asks for one missing field.
type Question struct {
	Field  Field
	Prompt string
}

// QuestionsFor returns one question per empty required field in the order
// name, price, category, description. The image is never included.
func (e *Extractor) QuestionsFor(d Draft) []Question {
	missing := d.Missing()
	questions := make([]Question, 0, len(missing))
	for _, f := range missing {
		questions = append(questions, Question{Field: f, Prompt: e.prompt(f)})
	}
	return questions
}

// ImageQuestion is the optional photo prompt asked once the required
// questions are answered.
func (e *Extractor) ImageQuestion() Question {
	return Question{
		Field:  FieldImage,
		Prompt: "Would you like to add a photo? Say take a photo, or say skip.",
	}
}

func (e *Extractor) prompt(f Field) string {
	switch f {
	case FieldName:
		return "What is the name of the product?"
	case FieldPrice:
		return "What price would you like to set for it?"
	case FieldCategory:
		return fmt.Sprintf("Which category does it belong to? The options are %s.", spokenList(e.categories))
	case FieldDescription:
		return "Please describe the product, or say skip."
	}
	return fmt.Sprintf("What is the %s?", f)
}

func spokenList(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	}
	return strings.Join(items[:len(items)-1], ", ") + " or " + items[len(items)-1]
}
