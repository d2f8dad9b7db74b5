package handlers

import (
	"log"
	"net/http"

	"github.com/gorilla/csrf"

	"github.com/ashen-heron/trackd/internal/forms"
	"github.com/ashen-heron/trackd/internal/models"
	"github.com/ashen-heron/trackd/internal/web/views"
)

// ListProjects renders all projects. For an authenticated user, projects
// containing tickets assigned to them come first; both groups keep their
// original relative order.
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	projects, err := h.storage.Projects().List(ctx)
	if err != nil {
		log.Printf("list projects: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	user := GetUser(r)
	if user != nil {
		assigned, err := h.storage.Tickets().AssignedProjectIDs(ctx, user.ID)
		if err != nil {
			log.Printf("assigned project ids for %s: %v", user.ID, err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		projects = prioritizeAssigned(projects, assigned)
	}

	h.views.Render(w, "project_list.html", views.ProjectListData{
		User:      user,
		Projects:  projects,
		CSRFField: csrf.TemplateField(r),
	})
}

// prioritizeAssigned stable-partitions projects: those whose id is in the
// assigned set first, the rest after, each group in original order.
func prioritizeAssigned(projects []*models.Project, assigned map[string]bool) []*models.Project {
	forUser := make([]*models.Project, 0, len(projects))
	rest := make([]*models.Project, 0, len(projects))
	for _, p := range projects {
		if assigned[p.ID] {
			forUser = append(forUser, p)
		} else {
			rest = append(rest, p)
		}
	}
	return append(forUser, rest...)
}

// ShowProject renders a project and its tickets.
func (h *Handler) ShowProject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	project := h.loadProject(w, r)
	if project == nil {
		return
	}

	tickets, err := h.storage.Tickets().ListByProject(ctx, project.ID)
	if err != nil {
		log.Printf("list tickets for project %s: %v", project.ID, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.views.Render(w, "project_detail.html", views.ProjectDetailData{
		User:      GetUser(r),
		Project:   project,
		Tickets:   tickets,
		CSRFField: csrf.TemplateField(r),
	})
}

// CreateProject renders the create form on GET and processes it on POST.
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	user := MustUser(r)
	form := forms.NewProjectForm(user, nil)

	if r.Method == http.MethodGet {
		h.renderProjectForm(w, r, "Create project", "/projects/new", form, nil)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	form.Bind(r.PostForm)

	if errs := form.Validate(); errs.Has() {
		h.renderProjectForm(w, r, "Create project", "/projects/new", form, errs)
		return
	}

	if _, err := form.Save(r.Context(), h.storage.Projects()); err != nil {
		log.Printf("create project: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/projects/", http.StatusFound)
}

// UpdateProject renders the edit form on GET and processes it on POST.
// Ownership is re-stamped to the acting user on success.
func (h *Handler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	user := MustUser(r)

	project := h.loadProject(w, r)
	if project == nil {
		return
	}

	action := "/projects/" + project.ID + "/edit"
	title := "Edit " + project.Title
	form := forms.NewProjectForm(user, project)

	if r.Method == http.MethodGet {
		h.renderProjectForm(w, r, title, action, form, nil)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	form.Bind(r.PostForm)

	if errs := form.Validate(); errs.Has() {
		h.renderProjectForm(w, r, title, action, form, errs)
		return
	}

	if _, err := form.Save(r.Context(), h.storage.Projects()); err != nil {
		log.Printf("update project %s: %v", project.ID, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/projects/", http.StatusFound)
}

// loadProject fetches the project named by the path, writing a 404 and
// returning nil when it does not exist.
func (h *Handler) loadProject(w http.ResponseWriter, r *http.Request) *models.Project {
	projectID := MustParam(r, "projectID")

	project, err := h.storage.Projects().GetByID(r.Context(), projectID)
	if err != nil {
		log.Printf("get project %s: %v", projectID, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return nil
	}
	if project == nil {
		http.NotFound(w, r)
		return nil
	}
	return project
}

func (h *Handler) renderProjectForm(w http.ResponseWriter, r *http.Request, title, action string, form *forms.ProjectForm, errs forms.Errors) {
	h.views.Render(w, "project_form.html", views.ProjectFormData{
		User:      GetUser(r),
		Title:     title,
		Form:      form,
		Errors:    errs,
		Action:    action,
		CSRFField: csrf.TemplateField(r),
	})
}
