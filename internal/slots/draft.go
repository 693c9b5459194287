// Package slots extracts product fields from free-form speech and plans the
// questions needed to complete a listing draft.
package slots

import "strings"

// Field names one slot of the product draft.
type Field string

const (
	FieldName        Field = "name"
	FieldPrice       Field = "price"
	FieldCategory    Field = "category"
	FieldDescription Field = "description"
	FieldImage       Field = "image"
)

// RequiredFields is the fixed question order. Image is solicited separately.
var RequiredFields = []Field{FieldName, FieldPrice, FieldCategory, FieldDescription}

// ParseField maps a wire or spoken field name to a Field.
func ParseField(name string) (Field, bool) {
	switch Field(strings.ToLower(strings.TrimSpace(name))) {
	case FieldName, "title":
		return FieldName, true
	case FieldPrice:
		return FieldPrice, true
	case FieldCategory:
		return FieldCategory, true
	case FieldDescription:
		return FieldDescription, true
	case FieldImage, "photo":
		return FieldImage, true
	}
	return "", false
}

// Draft is a product listing under construction. Empty strings are unset.
type Draft struct {
	Name        string `json:"name,omitempty"`
	Price       string `json:"price,omitempty"`
	Category    string `json:"category,omitempty"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
}

// Get returns the value of f.
func (d Draft) Get(f Field) string {
	switch f {
	case FieldName:
		return d.Name
	case FieldPrice:
		return d.Price
	case FieldCategory:
		return d.Category
	case FieldDescription:
		return d.Description
	case FieldImage:
		return d.Image
	}
	return ""
}

// Set writes value into f and reports whether f is a known field.
func (d *Draft) Set(f Field, value string) bool {
	switch f {
	case FieldName:
		d.Name = value
	case FieldPrice:
		d.Price = value
	case FieldCategory:
		d.Category = value
	case FieldDescription:
		d.Description = value
	case FieldImage:
		d.Image = value
	default:
		return false
	}
	return true
}

// Missing lists the empty required fields in question order.
func (d Draft) Missing() []Field {
	var missing []Field
	for _, f := range RequiredFields {
		if strings.TrimSpace(d.Get(f)) == "" {
			missing = append(missing, f)
		}
	}
	return missing
}

// Complete reports whether every required field is set.
func (d Draft) Complete() bool {
	return len(d.Missing()) == 0
}

// Empty reports whether no field is set, image included.
func (d Draft) Empty() bool {
	return d == Draft{}
}

// Filled lists the non-empty fields in declaration order.
func (d Draft) Filled() []Field {
	var out []Field
	for _, f := range append(RequiredFields[:len(RequiredFields):len(RequiredFields)], FieldImage) {
		if d.Get(f) != "" {
			out = append(out, f)
		}
	}
	return out
}
