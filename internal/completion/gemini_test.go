package completion

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/api/googleapi"

	"mockery-backend/internal/models"
)

func TestGeminiError(t *testing.T) {
	wrapped := fmt.Errorf("send: %w", &googleapi.Error{Code: 429, Message: "quota exceeded"})
	e := geminiError(wrapped)
	assert.Equal(t, KindStatus, e.Kind)
	assert.Equal(t, 429, e.StatusCode)
	assert.Equal(t, "quota exceeded", e.Message)
	assert.ErrorIs(t, e, ErrRequestFailed)

	e = geminiError(errors.New("connection reset"))
	assert.Equal(t, KindTransport, e.Kind)
}

func TestGeminiRole(t *testing.T) {
	assert.Equal(t, "model", geminiRole(models.RoleAssistant))
	assert.Equal(t, "user", geminiRole(models.RoleUser))
	assert.Equal(t, "user", geminiRole("system"))
}

func TestGeminiSessionNeedsMessages(t *testing.T) {
	g := &GeminiClient{model: DefaultGeminiModel}
	_, _, err := g.session(Request{})
	assert.Error(t, err)
}
