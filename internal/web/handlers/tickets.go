package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/csrf"

	"github.com/ashen-heron/trackd/internal/forms"
	"github.com/ashen-heron/trackd/internal/models"
	"github.com/ashen-heron/trackd/internal/storage"
	"github.com/ashen-heron/trackd/internal/web/views"
)

// MyTickets renders the tickets assigned to the current user, most recently
// modified first. Anonymous visitors see an empty list.
func (h *Handler) MyTickets(w http.ResponseWriter, r *http.Request) {
	user := GetUser(r)

	var tickets []*models.Ticket
	if user != nil {
		var err error
		tickets, err = h.storage.Tickets().ListAssignedTo(r.Context(), user.ID)
		if err != nil {
			log.Printf("list tickets assigned to %s: %v", user.ID, err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
	}

	h.views.Render(w, "my_tickets.html", views.MyTicketsData{
		User:      user,
		Tickets:   tickets,
		CSRFField: csrf.TemplateField(r),
	})
}

// CreateTicket renders the create form on GET and processes it on POST.
// The new ticket is bound to the project named by the path.
func (h *Handler) CreateTicket(w http.ResponseWriter, r *http.Request) {
	user := MustUser(r)

	project := h.loadProject(w, r)
	if project == nil {
		return
	}

	action := "/projects/" + project.ID + "/tickets/new"
	form := forms.NewTicketForm(user, project, nil)
	h.processTicketForm(w, r, "Create ticket", action, project, form)
}

// UpdateTicket renders the edit form on GET and processes it on POST. A
// ticket cannot be moved to another project: when the stored ticket belongs
// elsewhere the form re-renders with a project error and nothing changes.
func (h *Handler) UpdateTicket(w http.ResponseWriter, r *http.Request) {
	user := MustUser(r)

	project := h.loadProject(w, r)
	if project == nil {
		return
	}

	ticket := h.loadTicket(w, r)
	if ticket == nil {
		return
	}

	action := "/projects/" + project.ID + "/tickets/" + ticket.ID + "/edit"
	form := forms.NewTicketForm(user, project, ticket)
	h.processTicketForm(w, r, "Edit "+ticket.Title, action, project, form)
}

// DeleteTicket removes a ticket and redirects back to its project.
func (h *Handler) DeleteTicket(w http.ResponseWriter, r *http.Request) {
	MustUser(r)

	projectID := MustParam(r, "projectID")
	ticketID := MustParam(r, "ticketID")

	if err := h.storage.Tickets().Delete(r.Context(), ticketID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		log.Printf("delete ticket %s: %v", ticketID, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/projects/"+projectID+"/", http.StatusFound)
}

// processTicketForm runs the shared form flow for ticket creates and edits.
func (h *Handler) processTicketForm(w http.ResponseWriter, r *http.Request, title, action string, project *models.Project, form *forms.TicketForm) {
	ctx := r.Context()

	if r.Method == http.MethodGet {
		h.renderTicketForm(w, r, title, action, project, form, nil)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	form.Bind(r.PostForm)

	errs, err := form.Validate(ctx, h.storage.Users())
	if err != nil {
		log.Printf("validate ticket form: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if errs.Has() {
		h.renderTicketForm(w, r, title, action, project, form, errs)
		return
	}

	if _, err := form.Save(ctx, h.storage.Tickets()); err != nil {
		log.Printf("save ticket: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/projects/"+project.ID+"/", http.StatusFound)
}

func (h *Handler) renderTicketForm(w http.ResponseWriter, r *http.Request, title, action string, project *models.Project, form *forms.TicketForm, errs forms.Errors) {
	users, err := h.storage.Users().List(r.Context())
	if err != nil {
		log.Printf("list users for assignee choices: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.views.Render(w, "ticket_form.html", views.TicketFormData{
		User:      GetUser(r),
		Title:     title,
		Project:   project,
		Form:      form,
		Errors:    errs,
		Users:     users,
		Action:    action,
		CSRFField: csrf.TemplateField(r),
	})
}

// loadTicket fetches the ticket named by the path, writing a 404 and
// returning nil when it does not exist.
func (h *Handler) loadTicket(w http.ResponseWriter, r *http.Request) *models.Ticket {
	ticketID := MustParam(r, "ticketID")

	ticket, err := h.storage.Tickets().GetByID(r.Context(), ticketID)
	if err != nil {
		log.Printf("get ticket %s: %v", ticketID, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return nil
	}
	if ticket == nil {
		http.NotFound(w, r)
		return nil
	}
	return ticket
}
