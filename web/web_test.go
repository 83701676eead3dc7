package web

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShellEscapesPageJSON(t *testing.T) {
	var sb strings.Builder
	err := Templates().ExecuteTemplate(&sb, "app.html", map[string]string{
		"Title":    "Dashboard",
		"PageJSON": `{"component":"Dashboard","props":{"x":"<script>"}}`,
	})
	require.NoError(t, err)

	out := sb.String()
	assert.Contains(t, out, "<title>Dashboard - Back Office</title>")
	assert.Contains(t, out, `data-page="{&#34;component&#34;:&#34;Dashboard&#34;`)
	assert.NotContains(t, out, "<script>\"")
	assert.NotContains(t, out, `"x":"<script>"`)
}
