package admin

import (
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"shopcatalog/internal/domain"
)

const msgInvalidChoice = "Select a valid choice. That choice is not one of the available choices."

func textField(name, label, value string, required bool) FormField {
	return FormField{Name: name, Label: label, Type: "text", Required: required, Value: value}
}

func textarea(name, label, value string) FormField {
	return FormField{Name: name, Label: label, Type: "textarea", Value: value}
}

func checkbox(name, label string, on bool) FormField {
	f := FormField{Name: name, Label: label, Type: "checkbox"}
	if on {
		f.Value = "on"
	}
	return f
}

func selectField(name, label, value string, required bool, opts []Option) FormField {
	return FormField{Name: name, Label: label, Type: "select", Required: required, Value: value, Options: opts}
}

// Fill overlays posted values on fields so a rejected form keeps what the
// user typed. Unticked checkboxes are absent from the post.
func Fill(fields []FormField, form url.Values) []FormField {
	out := make([]FormField, len(fields))
	for i, f := range fields {
		if f.Type == "checkbox" {
			f.Value = ""
			if form.Get(f.Name) != "" {
				f.Value = "on"
			}
		} else if vs, ok := form[f.Name]; ok {
			f.Value = strings.Join(vs, "")
		}
		out[i] = f
	}
	return out
}

func checked(form url.Values, name string) *bool {
	on := form.Get(name) != ""
	return &on
}

func optionalID(form url.Values, name string) *string {
	s := strings.TrimSpace(form.Get(name))
	if s == "" {
		return nil
	}
	return &s
}

func ptrValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// formDecimal parses a decimal form value; a bad one is reported on field.
func formDecimal(form url.Values, field string, v *domain.ValidationError) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(form.Get(field)))
	if err != nil {
		v.Add(field, "Enter a number.")
	}
	return d
}

func formInt(form url.Values, field string, v *domain.ValidationError) int {
	raw := strings.TrimSpace(form.Get(field))
	if raw == "" {
		v.Add(field, "This field is required.")
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		v.Add(field, "Enter a whole number.")
	}
	return n
}

// merge adds err's messages to v for fields v has not already rejected.
// Errors other than validation failures are returned unchanged.
func merge(v *domain.ValidationError, err error) error {
	if err == nil {
		return v.Err()
	}
	fv, ok := domain.AsValidation(err)
	if !ok {
		return err
	}
	for field, msgs := range fv.Fields {
		if _, seen := v.Fields[field]; seen {
			continue
		}
		for _, m := range msgs {
			v.Add(field, m)
		}
	}
	return v.Err()
}

// choiceErr turns a missing referenced object into a form error on field.
func choiceErr(err error, field string) error {
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NewFieldError(field, msgInvalidChoice)
	}
	return err
}
