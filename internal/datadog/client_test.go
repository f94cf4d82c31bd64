package datadog

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func definitionJSON(service, linkType, linkURL string) string {
	return fmt.Sprintf(`{"attributes":{"schema":{"dd-service":%q,"links":[{"name":"source","type":%q,"url":%q}]}}}`,
		service, linkType, linkURL)
}

func TestListRepositories(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v2/services/definitions", r.URL.Path)
		assert.Equal(t, "v2.1", r.URL.Query().Get("schema_version"))
		assert.Equal(t, "api-key", r.Header.Get("DD-API-KEY"))
		assert.Equal(t, "app-key", r.Header.Get("DD-APPLICATION-KEY"))

		switch r.URL.Query().Get("page[number]") {
		case "0":
			fmt.Fprintf(w, `{"data":[%s,%s]}`,
				definitionJSON("billing", "repo", "https://bitbucket.org/acme/billing-svc"),
				definitionJSON("search", "repo", "https://bitbucket.org/acme/search-svc"))
		case "1":
			// duplicate slug plus the catalog placeholder
			fmt.Fprintf(w, `{"data":[%s,%s]}`,
				definitionJSON("billing-worker", "repo", "https://bitbucket.org/acme/billing-svc"),
				definitionJSON("template", "repo", "https://bitbucket.org/acme/workspace"))
		default:
			fmt.Fprint(w, `{"data":[]}`)
		}
	}))
	t.Cleanup(srv.Close)

	client := NewClient("api-key", "app-key", ClientOptions{BaseURL: srv.URL})

	slugs, err := client.ListRepositories(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"billing-svc", "search-svc"}, slugs)
}

func TestListDefinitionsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"errors":["Forbidden"]}`)
	}))
	t.Cleanup(srv.Close)

	client := NewClient("api-key", "app-key", ClientOptions{BaseURL: srv.URL})

	_, err := client.ListDefinitions(context.Background(), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Forbidden")
}

func TestRepoSlug(t *testing.T) {
	tests := []struct {
		name     string
		def      Definition
		expected string
		ok       bool
	}{
		{
			name: "repo link preferred over later links",
			def: makeDefinition(
				Link{Type: "repo", URL: "https://bitbucket.org/acme/billing-svc"},
				Link{Type: "doc", URL: "https://wiki.example.com/billing"},
			),
			expected: "billing-svc",
			ok:       true,
		},
		{
			name: "falls back to last link",
			def: makeDefinition(
				Link{Type: "doc", URL: "https://wiki.example.com/billing"},
				Link{Type: "other", URL: "https://bitbucket.org/acme/search-svc"},
			),
			expected: "search-svc",
			ok:       true,
		},
		{
			name: "workspace placeholder dropped",
			def:  makeDefinition(Link{Type: "repo", URL: "https://bitbucket.org/acme/workspace"}),
			ok:   false,
		},
		{
			name: "no links",
			def:  Definition{},
			ok:   false,
		},
		{
			name: "url without repo path",
			def:  makeDefinition(Link{Type: "repo", URL: "https://bitbucket.org/acme"}),
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slug, ok := repoSlug(tt.def)
			assert.Equal(t, tt.ok, ok)

			if tt.ok {
				assert.Equal(t, tt.expected, slug)
			}
		})
	}
}

func makeDefinition(links ...Link) Definition {
	var def Definition
	def.Attributes.Schema.Links = links

	return def
}
