package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirestack/ats-api/internal/models"
	appErrors "github.com/hirestack/ats-api/pkg/errors"
	"github.com/hirestack/ats-api/pkg/mailer"
)

type templateRepoStub struct {
	items map[string]*models.EmailTemplate
}

func (s *templateRepoStub) FindByID(ctx context.Context, id string) (*models.EmailTemplate, error) {
	if tpl, ok := s.items[id]; ok {
		cp := *tpl
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (s *templateRepoStub) List(ctx context.Context, filter models.TemplateFilter) ([]models.EmailTemplate, int, error) {
	return nil, 0, nil
}

func (s *templateRepoStub) Create(ctx context.Context, tpl *models.EmailTemplate) error {
	tpl.ID = "template-new"
	return nil
}

func (s *templateRepoStub) Update(ctx context.Context, tpl *models.EmailTemplate) error {
	s.items[tpl.ID] = tpl
	return nil
}

func (s *templateRepoStub) Delete(ctx context.Context, id string) error { return nil }

func newTemplateFixture() (*TemplateService, *recordingMailer) {
	repo := &templateRepoStub{items: map[string]*models.EmailTemplate{
		"template-1": {
			ID:      "template-1",
			Name:    "Offer",
			Subject: "Offer for {{position}}",
			Body:    "<p>Dear {{name}}, we would like to offer you the {{position}} role.</p>",
		},
	}}
	mail := &recordingMailer{receipt: mailer.Receipt{Success: true, MessageID: "msg-1"}}
	return NewTemplateService(repo, mail, nil, nil), mail
}

func TestTemplatePreviewRendersVariables(t *testing.T) {
	svc, _ := newTemplateFixture()

	subject, body, err := svc.Preview(context.Background(), "template-1", map[string]string{
		"name":     "Dana",
		"position": "Backend Engineer",
	})
	require.NoError(t, err)
	assert.Equal(t, "Offer for Backend Engineer", subject)
	assert.Contains(t, body, "Dear Dana")
}

func TestTemplatePreviewUnresolvedVariablesEmpty(t *testing.T) {
	svc, _ := newTemplateFixture()

	subject, _, err := svc.Preview(context.Background(), "template-1", nil)
	require.NoError(t, err)
	assert.Equal(t, "Offer for ", subject)
}

func TestTemplateSendRendersAndDispatches(t *testing.T) {
	svc, mail := newTemplateFixture()

	receipt, err := svc.Send(context.Background(), "template-1", SendTemplateRequest{
		To:        "dana@example.com",
		Variables: map[string]string{"name": "Dana", "position": "Backend Engineer"},
	})
	require.NoError(t, err)
	assert.True(t, receipt.Success)
	require.Len(t, mail.sent, 1)
	assert.Equal(t, "dana@example.com", mail.sent[0].To)
	assert.Equal(t, "Offer for Backend Engineer", mail.sent[0].Subject)
}

func TestTemplateSendFailureSurfacesInReceipt(t *testing.T) {
	svc, mail := newTemplateFixture()
	mail.receipt = mailer.Receipt{Success: false, Warning: "email delivery failed: relay down"}

	receipt, err := svc.Send(context.Background(), "template-1", SendTemplateRequest{To: "dana@example.com"})
	require.NoError(t, err)
	assert.False(t, receipt.Success)
}

func TestTemplateSendUnknownTemplate(t *testing.T) {
	svc, _ := newTemplateFixture()

	_, err := svc.Send(context.Background(), "missing", SendTemplateRequest{To: "dana@example.com"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
