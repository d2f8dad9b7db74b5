// Package views renders the embedded HTML templates for the web surface.
package views

import (
	"embed"
	"html/template"
	"io"
	"log"

	"github.com/ashen-heron/trackd/internal/forms"
	"github.com/ashen-heron/trackd/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

// Renderer holds the parsed template set.
type Renderer struct {
	templates *template.Template
}

// New parses the embedded templates. Parse failures are unrecoverable init
// errors: the server cannot function without its views.
func New() *Renderer {
	return &Renderer{
		templates: template.Must(template.ParseFS(templateFS, "templates/*.html")),
	}
}

// Render executes the named page template. The response status is decided
// by the handler before calling Render.
func (r *Renderer) Render(w io.Writer, name string, data any) {
	if err := r.templates.ExecuteTemplate(w, name, data); err != nil {
		log.Printf("render %s: %v", name, err)
	}
}

// LoginData backs the login page.
type LoginData struct {
	User      *models.User // always nil; present for the shared layout
	CSRFField template.HTML
	Error     string
}

// ProjectListData backs the project list page.
type ProjectListData struct {
	User      *models.User
	Projects  []*models.Project
	CSRFField template.HTML
}

// ProjectDetailData backs the project detail page.
type ProjectDetailData struct {
	User      *models.User
	Project   *models.Project
	Tickets   []*models.Ticket
	CSRFField template.HTML
}

// ProjectFormData backs the project create/edit page.
type ProjectFormData struct {
	User      *models.User
	Title     string // page heading, e.g. "Create project"
	Form      *forms.ProjectForm
	Errors    forms.Errors
	Action    string
	CSRFField template.HTML
}

// TicketFormData backs the ticket create/edit page.
type TicketFormData struct {
	User      *models.User
	Title     string
	Project   *models.Project
	Form      *forms.TicketForm
	Errors    forms.Errors
	Users     []*models.User // assignee choices, labeled by email
	Action    string
	CSRFField template.HTML
}

// MyTicketsData backs the my-tickets page.
type MyTicketsData struct {
	User      *models.User
	Tickets   []*models.Ticket
	CSRFField template.HTML
}

// Selected reports whether the user id is among the form's assignees.
// Used by the ticket form template to re-check choices on re-render.
func (d TicketFormData) Selected(id string) bool {
	for _, aid := range d.Form.AssigneeIDs {
		if aid == id {
			return true
		}
	}
	return false
}
