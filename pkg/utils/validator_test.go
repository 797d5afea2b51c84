package utils

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"project-hub-backend/pkg/models"
)

func TestValidateStruct(t *testing.T) {
	assert.NoError(t, ValidateStruct(&models.ProjectCreateRequest{Title: "Site", Description: "d"}))

	err := ValidateStruct(&models.ProjectCreateRequest{Status: "DONE", GitHubRepo: "not a url"})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "is required", verr.Fields["title"])
	assert.Equal(t, "is required", verr.Fields["description"])
	assert.Contains(t, verr.Fields["status"], "PLANNING")
	assert.Equal(t, "must be a valid URL", verr.Fields["github_repo"])
}

func TestValidateAppearance(t *testing.T) {
	assert.NoError(t, ValidateStruct(&models.AppearanceSettings{Theme: "dark", CodeTheme: "dracula"}))
	err := ValidateStruct(&models.AppearanceSettings{Theme: "neon", CodeTheme: "dracula"})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "theme")
}
