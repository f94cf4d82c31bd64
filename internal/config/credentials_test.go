package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearCredentialEnv(t *testing.T) {
	t.Helper()

	for _, key := range []string{
		"BB_USER_ID", "BB_APP_PASS", "BB_ACCESS_TOKEN", "BB_WORKSPACE",
		"DD_API_KEY", "DD_APP_KEY", "DD_SITE",
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestResolveBitbucketCredentialsFromEnv(t *testing.T) {
	clearCredentialEnv(t)
	t.Setenv("BB_USER_ID", "robot")
	t.Setenv("BB_APP_PASS", "s3cret")
	t.Setenv("BB_WORKSPACE", "acme")

	creds, err := ResolveBitbucketCredentials("")
	require.NoError(t, err)

	assert.Equal(t, "robot", creds.Username)
	assert.Equal(t, "s3cret", creds.AppPassword)
	assert.Equal(t, "acme", creds.Workspace)
	assert.Equal(t, CredentialSourceEnv, creds.Source)
}

func TestResolveBitbucketCredentialsTokenWins(t *testing.T) {
	clearCredentialEnv(t)
	t.Setenv("BB_ACCESS_TOKEN", "tok")
	t.Setenv("BB_USER_ID", "robot")
	t.Setenv("BB_APP_PASS", "s3cret")
	t.Setenv("BB_WORKSPACE", "acme")

	creds, err := ResolveBitbucketCredentials("")
	require.NoError(t, err)

	assert.Equal(t, "tok", creds.AccessToken)
	assert.Empty(t, creds.Username)
	assert.Empty(t, creds.AppPassword)
}

func TestResolveBitbucketCredentialsFlagWorkspaceWins(t *testing.T) {
	clearCredentialEnv(t)
	t.Setenv("BB_ACCESS_TOKEN", "tok")
	t.Setenv("BB_WORKSPACE", "from-env")

	creds, err := ResolveBitbucketCredentials("from-flag")
	require.NoError(t, err)

	assert.Equal(t, "from-flag", creds.Workspace)
}

func TestResolveBitbucketCredentialsMissing(t *testing.T) {
	clearCredentialEnv(t)

	_, err := ResolveBitbucketCredentials("acme")
	assert.ErrorIs(t, err, ErrBitbucketCredentialsNotFound)
}

func TestResolveBitbucketCredentialsNoWorkspace(t *testing.T) {
	clearCredentialEnv(t)
	t.Setenv("BB_ACCESS_TOKEN", "tok")

	_, err := ResolveBitbucketCredentials("")
	assert.ErrorIs(t, err, ErrWorkspaceNotSet)
}

func TestResolveDatadogCredentials(t *testing.T) {
	clearCredentialEnv(t)
	t.Setenv("DD_API_KEY", "api")
	t.Setenv("DD_APP_KEY", "app")

	creds, err := ResolveDatadogCredentials()
	require.NoError(t, err)

	assert.Equal(t, "api", creds.APIKey)
	assert.Equal(t, "app", creds.AppKey)
	assert.Equal(t, DefaultDatadogSite, creds.Site)
	assert.Equal(t, CredentialSourceEnv, creds.Source)
}

func TestResolveDatadogCredentialsSiteOverride(t *testing.T) {
	clearCredentialEnv(t)
	t.Setenv("DD_API_KEY", "api")
	t.Setenv("DD_APP_KEY", "app")
	t.Setenv("DD_SITE", "datadoghq.eu")

	creds, err := ResolveDatadogCredentials()
	require.NoError(t, err)
	assert.Equal(t, "datadoghq.eu", creds.Site)
}

func TestResolveDatadogCredentialsMissing(t *testing.T) {
	clearCredentialEnv(t)

	_, err := ResolveDatadogCredentials()
	assert.ErrorIs(t, err, ErrDatadogCredentialsNotFound)
}

func TestLoadCredentialsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.ini")
	content := `[bitbucket]
username = robot
app_password = s3cret
workspace = acme

[datadog]
api_key = api
app_key = app
site = datadoghq.eu
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	file, err := loadCredentialsFile(path)
	require.NoError(t, err)

	assert.Equal(t, "robot", file.Bitbucket.Username)
	assert.Equal(t, "s3cret", file.Bitbucket.AppPassword)
	assert.Equal(t, "acme", file.Bitbucket.Workspace)
	assert.Equal(t, "api", file.Datadog.APIKey)
	assert.Equal(t, "app", file.Datadog.AppKey)
	assert.Equal(t, "datadoghq.eu", file.Datadog.Site)
}

func TestLoadCredentialsFileMissing(t *testing.T) {
	_, err := loadCredentialsFile(filepath.Join(t.TempDir(), "nope.ini"))
	assert.Error(t, err)
}
