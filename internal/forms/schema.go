// Package forms validates dynamic application-form submissions against the
// per-product schema built in the admin form builder. The schema is data
// (a JSON array on the product); this package only interprets it.
package forms

import "encoding/json"

type FieldType string

const (
	TypeText     FieldType = "text"
	TypeTextarea FieldType = "textarea"
	TypeEmail    FieldType = "email"
	TypePhone    FieldType = "phone"
	TypeNumber   FieldType = "number"
	TypeDate     FieldType = "date"
	TypeDropdown FieldType = "dropdown"
	TypeCheckbox FieldType = "checkbox"
	TypeFile     FieldType = "file"
	TypeAadhar   FieldType = "aadhar"
	TypePAN      FieldType = "pan"
	TypePincode  FieldType = "pincode"
)

type Field struct {
	Name     string    `json:"name"`
	Label    string    `json:"label"`
	Type     FieldType `json:"type"`
	Required bool      `json:"required"`
	Options  []string  `json:"options,omitempty"`
	MaxLen   int       `json:"max_len,omitempty"`
}

type Schema []Field

// ParseSchema decodes a product's form_schema column. An empty or null
// document is a valid schema with no fields.
func ParseSchema(raw []byte) (Schema, error) {
	if len(raw) == 0 {
		return Schema{}, nil
	}
	var s Schema
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	return s, nil
}

func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// FileFields returns the names of fields that expect an uploaded file.
func (s Schema) FileFields() []string {
	var out []string
	for _, f := range s {
		if f.Type == TypeFile {
			out = append(out, f.Name)
		}
	}
	return out
}
