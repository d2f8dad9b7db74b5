package forms

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ashen-heron/trackd/internal/models"
	"github.com/ashen-heron/trackd/internal/storage"
)

// ProjectForm validates project create/update input.
//
// Ownership is attributed to the last editor: Save overwrites created_by
// with the acting user on updates as well as creates.
type ProjectForm struct {
	Title string `validate:"required,max=200"`

	user     *models.User
	existing *models.Project
}

// NewProjectForm creates a form for the acting user. existing is nil for
// creates and the stored project for updates.
func NewProjectForm(user *models.User, existing *models.Project) *ProjectForm {
	f := &ProjectForm{user: user, existing: existing}
	if existing != nil {
		f.Title = existing.Title
	}
	return f
}

// Bind populates the form from submitted values.
func (f *ProjectForm) Bind(values url.Values) {
	f.Title = strings.TrimSpace(values.Get("title"))
}

// Validate returns field-keyed errors; empty means valid.
func (f *ProjectForm) Validate() Errors {
	errs := Errors{}
	checkStruct(f, errs)
	return errs
}

// Save persists the project, stamping created_by with the acting user.
// Call only after Validate reports no errors.
func (f *ProjectForm) Save(ctx context.Context, projects storage.ProjectRepository) (*models.Project, error) {
	now := time.Now()

	if f.existing != nil {
		f.existing.Title = f.Title
		f.existing.CreatedBy = f.user.ID
		f.existing.UpdatedAt = now
		if err := projects.Update(ctx, f.existing); err != nil {
			return nil, err
		}
		return f.existing, nil
	}

	project := models.NewProject(f.Title, f.user.ID)
	project.ID = uuid.New().String()
	if err := projects.Create(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}
