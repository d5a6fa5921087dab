package forms

import (
	"fmt"
	"net/mail"
	"regexp"
	"strconv"
	"strings"
	"time"
)

type FieldErrors map[string]string

var (
	phoneRe   = regexp.MustCompile(`^[6-9][0-9]{9}$`)
	aadharRe  = regexp.MustCompile(`^[0-9]{12}$`)
	panRe     = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]$`)
	pincodeRe = regexp.MustCompile(`^[1-9][0-9]{5}$`)
)

// Validate checks a submission payload against the schema. Returns a non-nil,
// non-empty map when the submission is rejected. Unknown keys are rejected so
// a client cannot smuggle data past the schema.
func Validate(schema Schema, data map[string]string) FieldErrors {
	errs := FieldErrors{}

	for key := range data {
		if _, ok := schema.Field(key); !ok {
			errs[key] = "Unknown field."
		}
	}

	for _, f := range schema {
		val := strings.TrimSpace(data[f.Name])

		if val == "" {
			if f.Required {
				errs[f.Name] = "This field is required."
			}
			continue
		}

		if f.MaxLen > 0 && len(val) > f.MaxLen {
			errs[f.Name] = fmt.Sprintf("Must be at most %d characters.", f.MaxLen)
			continue
		}

		if msg := checkType(f, val); msg != "" {
			errs[f.Name] = msg
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

func checkType(f Field, val string) string {
	switch f.Type {
	case TypeText, TypeTextarea, TypeFile:
		// file values are storage URLs injected by the upload handler
		return ""
	case TypeEmail:
		if _, err := mail.ParseAddress(val); err != nil {
			return "Enter a valid email address."
		}
	case TypePhone:
		if !phoneRe.MatchString(val) {
			return "Enter a valid 10-digit mobile number."
		}
	case TypeNumber:
		if _, err := strconv.ParseFloat(val, 64); err != nil {
			return "Enter a valid number."
		}
	case TypeDate:
		if _, err := time.Parse("2006-01-02", val); err != nil {
			return "Enter a valid date (YYYY-MM-DD)."
		}
	case TypeDropdown:
		for _, opt := range f.Options {
			if val == opt {
				return ""
			}
		}
		return "Choose one of the listed options."
	case TypeCheckbox:
		if val != "true" && val != "false" {
			return "Invalid value."
		}
	case TypeAadhar:
		if !aadharRe.MatchString(val) {
			return "Enter a valid 12-digit Aadhar number."
		}
	case TypePAN:
		if !panRe.MatchString(strings.ToUpper(val)) {
			return "Enter a valid PAN (e.g. ABCDE1234F)."
		}
	case TypePincode:
		if !pincodeRe.MatchString(val) {
			return "Enter a valid 6-digit pincode."
		}
	default:
		return "Unsupported field type."
	}
	return ""
}
