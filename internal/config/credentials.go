// Package config resolves API credentials for the external services
// buildsweep talks to.
//
// Credentials are looked up from multiple sources in priority order:
//
//  1. Explicit command-line flags
//  2. Environment variables (BB_USER_ID, BB_APP_PASS, BB_ACCESS_TOKEN,
//     BB_WORKSPACE, DD_API_KEY, DD_APP_KEY, DD_SITE)
//  3. The credentials file <config-dir>/buildsweep/credentials.ini
//
// The resolved source is recorded so commands can report where a secret
// came from without printing it.
package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/inovacc/buildsweep/internal/application"
	"gopkg.in/ini.v1"
)

// Sentinel errors for credential resolution
var (
	// ErrBitbucketCredentialsNotFound indicates no usable Bitbucket credentials were found
	ErrBitbucketCredentialsNotFound = errors.New("bitbucket credentials not found")
	// ErrDatadogCredentialsNotFound indicates no usable Datadog credentials were found
	ErrDatadogCredentialsNotFound = errors.New("datadog credentials not found")
	// ErrWorkspaceNotSet indicates the Bitbucket workspace could not be resolved
	ErrWorkspaceNotSet = errors.New("bitbucket workspace not set")
)

// CredentialSource indicates where credentials were found
type CredentialSource string

const (
	CredentialSourceFlag CredentialSource = "flag"
	CredentialSourceEnv  CredentialSource = "env"
	CredentialSourceFile CredentialSource = "file"
	CredentialSourceNone CredentialSource = "none"
)

// BitbucketCredentials holds resolved Bitbucket Cloud authentication material.
// Either AccessToken (bearer auth) or Username+AppPassword (basic auth) is set.
type BitbucketCredentials struct {
	Username    string
	AppPassword string
	AccessToken string
	Workspace   string
	Source      CredentialSource
}

// DatadogCredentials holds resolved Datadog API keys.
type DatadogCredentials struct {
	APIKey string
	AppKey string
	Site   string
	Source CredentialSource
}

// credentialsFile mirrors the credentials.ini layout.
type credentialsFile struct {
	Bitbucket bitbucketSection `ini:"bitbucket"`
	Datadog   datadogSection   `ini:"datadog"`
}

type bitbucketSection struct {
	Username    string `ini:"username"`
	AppPassword string `ini:"app_password"`
	AccessToken string `ini:"access_token"`
	Workspace   string `ini:"workspace"`
}

type datadogSection struct {
	APIKey string `ini:"api_key"`
	AppKey string `ini:"app_key"`
	Site   string `ini:"site"`
}

// DefaultDatadogSite is used when no site is configured anywhere.
const DefaultDatadogSite = "datadoghq.com"

// ResolveBitbucketCredentials finds Bitbucket credentials and the target
// workspace. flagWorkspace takes priority over the environment and the
// credentials file; auth material is taken from the environment first,
// then from the credentials file.
func ResolveBitbucketCredentials(flagWorkspace string) (*BitbucketCredentials, error) {
	creds := &BitbucketCredentials{Source: CredentialSourceNone}

	if token := os.Getenv("BB_ACCESS_TOKEN"); token != "" {
		creds.AccessToken = token
		creds.Source = CredentialSourceEnv
	} else if user, pass := os.Getenv("BB_USER_ID"), os.Getenv("BB_APP_PASS"); user != "" && pass != "" {
		creds.Username = user
		creds.AppPassword = pass
		creds.Source = CredentialSourceEnv
	}

	file, fileErr := loadCredentialsFile(credentialsFilePath())

	if creds.Source == CredentialSourceNone && fileErr == nil {
		switch {
		case file.Bitbucket.AccessToken != "":
			creds.AccessToken = file.Bitbucket.AccessToken
			creds.Source = CredentialSourceFile
		case file.Bitbucket.Username != "" && file.Bitbucket.AppPassword != "":
			creds.Username = file.Bitbucket.Username
			creds.AppPassword = file.Bitbucket.AppPassword
			creds.Source = CredentialSourceFile
		}
	}

	if creds.Source == CredentialSourceNone {
		return nil, ErrBitbucketCredentialsNotFound
	}

	switch {
	case flagWorkspace != "":
		creds.Workspace = flagWorkspace
	case os.Getenv("BB_WORKSPACE") != "":
		creds.Workspace = os.Getenv("BB_WORKSPACE")
	case fileErr == nil && file.Bitbucket.Workspace != "":
		creds.Workspace = file.Bitbucket.Workspace
	default:
		return nil, ErrWorkspaceNotSet
	}

	return creds, nil
}

// ResolveDatadogCredentials finds the Datadog API and application keys.
func ResolveDatadogCredentials() (*DatadogCredentials, error) {
	creds := &DatadogCredentials{
		Site:   DefaultDatadogSite,
		Source: CredentialSourceNone,
	}

	if apiKey, appKey := os.Getenv("DD_API_KEY"), os.Getenv("DD_APP_KEY"); apiKey != "" && appKey != "" {
		creds.APIKey = apiKey
		creds.AppKey = appKey
		creds.Source = CredentialSourceEnv
	}

	file, fileErr := loadCredentialsFile(credentialsFilePath())

	if creds.Source == CredentialSourceNone && fileErr == nil &&
		file.Datadog.APIKey != "" && file.Datadog.AppKey != "" {
		creds.APIKey = file.Datadog.APIKey
		creds.AppKey = file.Datadog.AppKey
		creds.Source = CredentialSourceFile
	}

	if creds.Source == CredentialSourceNone {
		return nil, ErrDatadogCredentialsNotFound
	}

	if site := os.Getenv("DD_SITE"); site != "" {
		creds.Site = site
	} else if fileErr == nil && file.Datadog.Site != "" {
		creds.Site = file.Datadog.Site
	}

	return creds, nil
}

// credentialsFilePath returns the expected credentials.ini location.
func credentialsFilePath() string {
	dir, err := application.GetApplicationDirectory()
	if err != nil {
		return ""
	}

	return filepath.Join(dir, "credentials.ini")
}

func loadCredentialsFile(path string) (*credentialsFile, error) {
	if path == "" {
		return nil, os.ErrNotExist
	}

	cfg, err := ini.Load(path)
	if err != nil {
		return nil, err
	}

	file := &credentialsFile{}

	if err := cfg.Section("bitbucket").MapTo(&file.Bitbucket); err != nil {
		return nil, err
	}

	if err := cfg.Section("datadog").MapTo(&file.Datadog); err != nil {
		return nil, err
	}

	return file, nil
}
