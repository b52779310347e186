package admin

import (
	"context"
	"fmt"
	"net/url"
)

// Row is one line of a list or inline table. A row with a Form is edited
// in place.
type Row struct {
	ID        string
	Cells     []string
	EditURL   string
	DeleteURL string
	Form      *InlineForm
}

type Option struct {
	Value string
	Label string
}

// FormField is an input of an add, change or inline form. Type is text,
// textarea, number, url, checkbox or select.
type FormField struct {
	Name     string
	Label    string
	Type     string
	Required bool
	Value    string
	Options  []Option
}

type InlineForm struct {
	Action string
	Fields []FormField
	Submit string
}

type Inline struct {
	Title   string
	Columns []string
	Rows    []Row
	Form    *InlineForm
}

type Field struct {
	Label string
	Value string
}

// Page is the change view of one object. Fields are shown read-only next
// to the model's form.
type Page struct {
	Title   string
	Fields  []Field
	Inlines []Inline
}

// ModelAdmin describes how one model is listed, shown, added, changed and
// deleted.
type ModelAdmin struct {
	Slug          string
	Verbose       string
	VerbosePlural string
	Columns       []string
	List          func(ctx context.Context) ([]Row, error)
	Change        func(ctx context.Context, id string) (Page, error)
	Delete        func(ctx context.Context, id string) error
	// Form returns the fields of the add form (id "") or the change form
	// filled with the stored values.
	Form func(ctx context.Context, id string) ([]FormField, error)
	// Save validates a posted form and creates (id "") or updates the
	// object. It returns the object's id.
	Save func(ctx context.Context, id string, form url.Values) (string, error)
}

type Site struct {
	models []*ModelAdmin
	bySlug map[string]*ModelAdmin
}

func (s *Site) Register(m *ModelAdmin) {
	if s.bySlug == nil {
		s.bySlug = map[string]*ModelAdmin{}
	}
	if _, dup := s.bySlug[m.Slug]; dup {
		panic(fmt.Sprintf("admin: model %q registered twice", m.Slug))
	}
	s.models = append(s.models, m)
	s.bySlug[m.Slug] = m
}

// Models returns the registered models in registration order.
func (s *Site) Models() []*ModelAdmin { return s.models }

func (s *Site) Get(slug string) (*ModelAdmin, bool) {
	m, ok := s.bySlug[slug]
	return m, ok
}

// EditLink is the change page URL of an object, or "" for an unsaved one.
func EditLink(model, id string) string {
	if id == "" {
		return ""
	}
	return "/admin/" + model + "/" + url.PathEscape(id)
}

func deleteLink(model, id string) string {
	if id == "" {
		return ""
	}
	return EditLink(model, id) + "/delete"
}
