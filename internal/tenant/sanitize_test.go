package tenant

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "acme", "acme"},
		{"uppercase", "ACME", "acme"},
		{"spaces to underscore", "Acme Corp", "acme_corp"},
		{"whitespace run collapses", "Acme   Corp!", "acme_corp"},
		{"punctuation stripped", "My.Org", "myorg"},
		{"underscore preserved", "UNDER_score", "under_score"},
		{"tabs and newlines", "a\tb\nc", "a_b_c"},
		{"digits kept", "Org 42", "org_42"},
		{"unicode stripped", "Büro Ä1", "bro_1"},
		{"all stripped", "!!!", ""},
		{"empty", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Sanitize(tc.in))
		})
	}
}

func TestSanitizeIdempotent(t *testing.T) {
	inputs := []string{"Acme   Corp!", "My.Org", "UNDER_score", "a b c", "", "已有中文 name"}
	for _, in := range inputs {
		once := Sanitize(in)
		assert.Equal(t, once, Sanitize(once), "Sanitize must be idempotent for %q", in)
	}
}

func TestSanitizeCaseAndWhitespaceInsensitive(t *testing.T) {
	assert.Equal(t, Sanitize("Acme Corp"), Sanitize("ACME    CORP"))
	assert.Equal(t, Sanitize("acme corp"), Sanitize("Acme\tCorp"))
}

func TestNamespaceFor(t *testing.T) {
	assert.Equal(t, "tenant_acme_corp", NamespaceFor("acme_corp"))
	assert.Equal(t, "tenant_", NamespaceFor(""))
}
