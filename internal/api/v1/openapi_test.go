package apiv1

import (
	"context"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The served document must stay loadable and internally consistent, the
// swagger UI and any generated clients depend on it.
func TestOpenAPISpecIsValid(t *testing.T) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromFile("../../../public/docs/v1/openapi.yml")
	require.NoError(t, err)

	require.NoError(t, doc.Validate(context.Background()))

	assert.Equal(t, "FundFox API", doc.Info.Title)
}

func TestOpenAPISpecCoversRegisteredRoutes(t *testing.T) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromFile("../../../public/docs/v1/openapi.yml")
	require.NoError(t, err)

	for _, path := range []string{
		"/ping",
		"/campaigns",
		"/campaigns/{uuid}",
		"/donations",
		"/donations/recurring/{subscription}/cancel",
		"/payments/intent",
		"/notifications/unread",
	} {
		assert.NotNil(t, doc.Paths.Find(path), "path %s missing from document", path)
	}
}
