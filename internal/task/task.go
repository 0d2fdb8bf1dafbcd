package task

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Field names as they appear on the wire and in SetField.
const (
	FieldTitle        = "title"
	FieldDescription  = "description"
	FieldStartingDate = "startingDate"
	FieldEndingDate   = "endingDate"
)

// Fields lists the draft fields in form order.
var Fields = []string{FieldTitle, FieldDescription, FieldStartingDate, FieldEndingDate}

var fieldLabels = map[string]string{
	FieldTitle:        "Title",
	FieldDescription:  "Description",
	FieldStartingDate: "Starting Date",
	FieldEndingDate:   "Ending Date",
}

// Label returns the human-readable name of a field.
func Label(field string) string {
	if label, ok := fieldLabels[field]; ok {
		return label
	}
	return field
}

// Task is a record created by the server.
type Task struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	StartingDate Date   `json:"startingDate"`
	EndingDate   Date   `json:"endingDate"`

	// Extra holds server-assigned fields, kept verbatim.
	Extra map[string]json.RawMessage `json:"-"`
}

// wireTask avoids recursion into Task's own (Un)MarshalJSON.
type wireTask struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	StartingDate Date   `json:"startingDate"`
	EndingDate   Date   `json:"endingDate"`
}

// ID returns the server-assigned id, or "" if the server sent none.
func (t *Task) ID() string {
	raw, ok := t.Extra["id"]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}

// UnmarshalJSON decodes the known fields and keeps everything else in Extra.
// A known field of the wrong shape is an error; see DecodeLenient for the
// forgiving variant.
func (t *Task) UnmarshalJSON(data []byte) error {
	decoded, problems, err := DecodeLenient(data)
	if err != nil {
		return err
	}
	if len(problems) > 0 {
		return problems[0]
	}
	*t = decoded
	return nil
}

// DecodeLenient decodes one record field by field. A known field that does
// not decode is left unset and its raw value is kept in Extra, so it is
// written back out unchanged; the returned problems name each such field.
// The error is non-nil only when data is not a JSON object.
func DecodeLenient(data []byte) (Task, []error, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Task{}, nil, err
	}

	var (
		t        Task
		problems []error
	)
	extra := make(map[string]json.RawMessage)
	decoders := map[string]func([]byte) error{
		FieldTitle:        func(v []byte) error { return json.Unmarshal(v, &t.Title) },
		FieldDescription:  func(v []byte) error { return json.Unmarshal(v, &t.Description) },
		FieldStartingDate: t.StartingDate.UnmarshalJSON,
		FieldEndingDate:   t.EndingDate.UnmarshalJSON,
	}
	for _, field := range Fields {
		value, ok := raw[field]
		if !ok {
			continue
		}
		if err := decoders[field](value); err != nil {
			problems = append(problems, fmt.Errorf("%s: %w", field, err))
			extra[field] = value
		}
	}
	for key, value := range raw {
		if _, known := decoders[key]; !known {
			extra[key] = value
		}
	}
	if len(extra) == 0 {
		extra = nil
	}
	t.Extra = extra
	return t, problems, nil
}

// MarshalJSON writes the known fields plus Extra. A known field left unset
// because its raw value could not be decoded is written from Extra.
func (t Task) MarshalJSON() ([]byte, error) {
	if len(t.Extra) == 0 {
		return json.Marshal(wireTask{
			Title:        t.Title,
			Description:  t.Description,
			StartingDate: t.StartingDate,
			EndingDate:   t.EndingDate,
		})
	}

	out := make(map[string]any, len(t.Extra)+4)
	for key, value := range t.Extra {
		out[key] = value
	}
	known := []struct {
		field string
		value any
		unset bool
	}{
		{FieldTitle, t.Title, t.Title == ""},
		{FieldDescription, t.Description, t.Description == ""},
		{FieldStartingDate, t.StartingDate, t.StartingDate.IsZero()},
		{FieldEndingDate, t.EndingDate, t.EndingDate.IsZero()},
	}
	for _, k := range known {
		if _, kept := t.Extra[k.field]; kept && k.unset {
			continue
		}
		out[k.field] = k.value
	}
	return json.Marshal(out)
}

// Draft is the in-progress, not yet submitted task.
type Draft struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	StartingDate Date   `json:"startingDate"`
	EndingDate   Date   `json:"endingDate"`
}

// IsEmpty reports whether no field has been filled in.
func (d Draft) IsEmpty() bool {
	return d == Draft{}
}

// Missing returns the names of empty fields in form order. Text counts as
// filled in as soon as it has any character, spaces included.
func (d Draft) Missing() []string {
	var missing []string
	if d.Title == "" {
		missing = append(missing, FieldTitle)
	}
	if d.Description == "" {
		missing = append(missing, FieldDescription)
	}
	if d.StartingDate.IsZero() {
		missing = append(missing, FieldStartingDate)
	}
	if d.EndingDate.IsZero() {
		missing = append(missing, FieldEndingDate)
	}
	return missing
}

// Hint returns the helper text for field, or "" if the field is filled in.
func (d Draft) Hint(field string) string {
	for _, name := range d.Missing() {
		if name == field {
			return fmt.Sprintf("%s is required", Label(field))
		}
	}
	return ""
}

// Hints returns the helper text of every empty field, in form order.
func (d Draft) Hints() []string {
	missing := d.Missing()
	hints := make([]string, 0, len(missing))
	for _, field := range missing {
		hints = append(hints, fmt.Sprintf("%s is required", Label(field)))
	}
	return hints
}

// Value returns a field's value as display text.
func (d Draft) Value(field string) string {
	switch field {
	case FieldTitle:
		return d.Title
	case FieldDescription:
		return d.Description
	case FieldStartingDate:
		return d.StartingDate.String()
	case FieldEndingDate:
		return d.EndingDate.String()
	}
	return ""
}
