package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hirestack/ats-api/internal/models"
	appErrors "github.com/hirestack/ats-api/pkg/errors"
	"github.com/hirestack/ats-api/pkg/mailer"
)

type templateRepository interface {
	FindByID(ctx context.Context, id string) (*models.EmailTemplate, error)
	List(ctx context.Context, filter models.TemplateFilter) ([]models.EmailTemplate, int, error)
	Create(ctx context.Context, tpl *models.EmailTemplate) error
	Update(ctx context.Context, tpl *models.EmailTemplate) error
	Delete(ctx context.Context, id string) error
}

// TemplateRequest creates or updates an email template.
type TemplateRequest struct {
	Name      string   `json:"name" validate:"required"`
	Subject   string   `json:"subject" validate:"required"`
	Body      string   `json:"body" validate:"required"`
	Category  string   `json:"category"`
	Variables []string `json:"variables"`
}

// SendTemplateRequest dispatches a rendered template to a recipient.
type SendTemplateRequest struct {
	To        string            `json:"to" validate:"required,email"`
	Variables map[string]string `json:"variables"`
}

// TemplateService manages reusable email templates.
type TemplateService struct {
	repo      templateRepository
	mail      mailer.Mailer
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTemplateService constructs a TemplateService.
func NewTemplateService(repo templateRepository, mail mailer.Mailer, validate *validator.Validate, logger *zap.Logger) *TemplateService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if mail == nil {
		mail = mailer.Nop{}
	}
	return &TemplateService{repo: repo, mail: mail, validator: validate, logger: logger}
}

// List returns paginated templates.
func (s *TemplateService) List(ctx context.Context, filter models.TemplateFilter) ([]models.EmailTemplate, *models.Pagination, error) {
	templates, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list templates")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	return templates, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Get returns a template by ID.
func (s *TemplateService) Get(ctx context.Context, id string) (*models.EmailTemplate, error) {
	tpl, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "template not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load template")
	}
	return tpl, nil
}

// Create stores a new template.
func (s *TemplateService) Create(ctx context.Context, req TemplateRequest, actorID string) (*models.EmailTemplate, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid template payload")
	}

	tpl := &models.EmailTemplate{
		Name:      req.Name,
		Subject:   req.Subject,
		Body:      req.Body,
		Category:  req.Category,
		Variables: req.Variables,
		CreatedBy: actorID,
	}
	if err := s.repo.Create(ctx, tpl); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create template")
	}
	return tpl, nil
}

// Update modifies a template.
func (s *TemplateService) Update(ctx context.Context, id string, req TemplateRequest) (*models.EmailTemplate, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid template payload")
	}

	tpl, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	tpl.Name = req.Name
	tpl.Subject = req.Subject
	tpl.Body = req.Body
	tpl.Category = req.Category
	tpl.Variables = req.Variables

	if err := s.repo.Update(ctx, tpl); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update template")
	}
	return tpl, nil
}

// Delete removes a template.
func (s *TemplateService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete template")
	}
	return nil
}

// Preview renders the template with the provided variables. Unresolved
// placeholders come out as empty strings.
func (s *TemplateService) Preview(ctx context.Context, id string, vars map[string]string) (subject, body string, err error) {
	tpl, err := s.Get(ctx, id)
	if err != nil {
		return "", "", err
	}
	return mailer.RenderTemplate(tpl.Subject, vars), mailer.RenderTemplate(tpl.Body, vars), nil
}

// Send renders the template and dispatches it. The delivery outcome is
// returned in the receipt; transport failures never surface as errors.
func (s *TemplateService) Send(ctx context.Context, id string, req SendTemplateRequest) (*mailer.Receipt, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid send payload")
	}

	tpl, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	receipt := s.mail.SendTemplate(req.To, tpl.Subject, tpl.Body, req.Variables)
	return &receipt, nil
}
