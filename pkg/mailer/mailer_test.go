package mailer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderTemplateSubstitutesVars(t *testing.T) {
	body := "Hi {{name}}, your task {{title}} is due {{ due }}."
	out := RenderTemplate(body, map[string]string{
		"name":  "Dana",
		"title": "Screen applicants",
		"due":   "2025-06-02",
	})
	assert.Equal(t, "Hi Dana, your task Screen applicants is due 2025-06-02.", out)
}

func TestRenderTemplateUnknownVarsRenderEmpty(t *testing.T) {
	out := RenderTemplate("Hello {{name}}{{missing}}!", map[string]string{"name": "Dana"})
	assert.Equal(t, "Hello Dana!", out)
}

func TestRenderTemplateNoPlaceholders(t *testing.T) {
	assert.Equal(t, "plain text", RenderTemplate("plain text", nil))
}

func TestNopAlwaysSucceeds(t *testing.T) {
	receipt := Nop{}.Send(Message{To: "dana@example.com"})
	assert.True(t, receipt.Success)
	assert.Equal(t, "nop", receipt.MessageID)

	receipt = Nop{}.SendTemplate("dana@example.com", "s", "b", nil)
	assert.True(t, receipt.Success)
}
