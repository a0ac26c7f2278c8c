package github_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/isometry/gh-webhook-stub/internal/controllers/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigResolver_Checkout(t *testing.T) {
	checkout := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(checkout, ".github"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(checkout, ".github", "config.yml"), []byte(testConfig), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(checkout, ".github", "empty.yml"), nil, 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(checkout, ".github", "list.yml"), []byte("- a\n- b\n"), 0o600))

	resolver := github.NewConfigResolver(nil, "octo/hello", github.WithCheckout(checkout))

	testCases := []struct {
		Name        string
		ConfigName  string
		Ref         string
		Expected    map[string]any
		ExpectError bool
	}{
		{
			Name:     "default_name",
			Expected: expectedConfig,
		},
		{
			Name:       "missing_file",
			ConfigName: "bot.yml",
			Expected:   map[string]any{},
		},
		{
			Name:       "empty_file",
			ConfigName: "empty.yml",
			Expected:   map[string]any{},
		},
		{
			Name:        "not_a_mapping",
			ConfigName:  "list.yml",
			ExpectError: true,
		},
		{
			Name:        "explicit_ref_uses_the_api",
			Ref:         "main",
			ExpectError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			config, err := resolver.GetConfig(context.Background(), tc.ConfigName, tc.Ref)
			if tc.ExpectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.Expected, config)
		})
	}
}

func TestCheckoutFromEnv(t *testing.T) {
	t.Setenv("GITHUB_ACTIONS", "")
	t.Setenv("GITHUB_WORKSPACE", "/work")
	assert.Empty(t, github.CheckoutFromEnv())

	t.Setenv("GITHUB_ACTIONS", "true")
	assert.Equal(t, "/work", github.CheckoutFromEnv())

	t.Setenv("GITHUB_WORKSPACE", "")
	assert.Equal(t, ".", github.CheckoutFromEnv())
}

func TestSplitRepository(t *testing.T) {
	testCases := []struct {
		Name          string
		Input         string
		ExpectedOwner string
		ExpectedRepo  string
		ExpectError   bool
	}{
		{Name: "valid", Input: "octo/hello", ExpectedOwner: "octo", ExpectedRepo: "hello"},
		{Name: "no_slash", Input: "octo", ExpectError: true},
		{Name: "empty_owner", Input: "/hello", ExpectError: true},
		{Name: "nested", Input: "octo/hello/world", ExpectError: true},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			owner, repo, err := github.SplitRepository(tc.Input)
			if tc.ExpectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.ExpectedOwner, owner)
			assert.Equal(t, tc.ExpectedRepo, repo)
		})
	}
}
