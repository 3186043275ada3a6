package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		options []NamePolicyOption
		wantErr bool
	}{
		{"ok empty", nil, false},
		{"ok dns", []NamePolicyOption{WithPermittedDNSDomains("example.com", "*.example.com")}, false},
		{"ok idna", []NamePolicyOption{WithPermittedDNSDomains("*.bücher.example")}, false},
		{"ok cn", []NamePolicyOption{WithPermittedCommonNames("Test RA"), WithExcludedCommonNames("root")}, false},
		{"fail empty dns", []NamePolicyOption{WithPermittedDNSDomains(" ")}, true},
		{"fail empty label", []NamePolicyOption{WithExcludedDNSDomains("example..com")}, true},
		{"fail leading period", []NamePolicyOption{WithPermittedDNSDomains(".example.com")}, true},
		{"fail inner wildcard", []NamePolicyOption{WithPermittedDNSDomains("www.*.example.com")}, true},
		{"fail partial wildcard", []NamePolicyOption{WithPermittedDNSDomains("*example.com")}, true},
		{"fail wildcard cn", []NamePolicyOption{WithPermittedCommonNames("*")}, true},
		{"fail empty cn", []NamePolicyOption{WithExcludedCommonNames("")}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := New(tt.options...)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, e)
				return
			}
			assert.NoError(t, err)
			assert.NotNil(t, e)
		})
	}
}

func TestNew_removesDuplicates(t *testing.T) {
	e, err := New(WithPermittedDNSDomains("example.com", "EXAMPLE.com", "*.example.com"))
	require.NoError(t, err)
	assert.Equal(t, []string{"example.com", ".example.com"}, e.permittedDNSDomains)
	assert.Equal(t, 2, e.totalNumberOfConstraints)
}

func TestNamePolicyEngine_AreNamesAllowed(t *testing.T) {
	tests := []struct {
		name       string
		options    []NamePolicyOption
		commonName string
		dnsNames   []string
		wantReason NamePolicyReason
		wantType   NameType
	}{
		{"ok no constraints", nil, "anything goes", []string{"foo.bar"}, 0, ""},
		{"ok permitted dns", []NamePolicyOption{WithPermittedDNSDomains("*.example.com")}, "", []string{"www.example.com", "API.example.com"}, 0, ""},
		{"ok exact dns", []NamePolicyOption{WithPermittedDNSDomains("example.com")}, "", []string{"example.com"}, 0, ""},
		{"ok idna", []NamePolicyOption{WithPermittedDNSDomains("*.bücher.example")}, "", []string{"www.xn--bcher-kva.example"}, 0, ""},
		{"ok cn not verified", []NamePolicyOption{WithPermittedDNSDomains("*.example.com")}, "Not a domain", nil, 0, ""},
		{"ok cn permitted", []NamePolicyOption{WithSubjectCommonNameVerification(), WithPermittedCommonNames("Test RA")}, "test ra", nil, 0, ""},
		{"ok cn as dns", []NamePolicyOption{WithSubjectCommonNameVerification(), WithPermittedDNSDomains("*.example.com")}, "www.example.com", nil, 0, ""},
		{"ok excluded only", []NamePolicyOption{WithExcludedDNSDomains("*.internal")}, "", []string{"www.example.com"}, 0, ""},
		{"ok literal wildcard", []NamePolicyOption{WithAllowLiteralWildcardNames(), WithPermittedDNSDomains("*.example.com")}, "", []string{"*.example.com"}, 0, ""},
		{"fail literal wildcard", []NamePolicyOption{WithPermittedDNSDomains("*.example.com")}, "", []string{"*.example.com"}, NotAllowed, DNSNameType},
		{"fail not permitted", []NamePolicyOption{WithPermittedDNSDomains("*.example.com")}, "", []string{"www.example.org"}, NotAllowed, DNSNameType},
		{"fail two labels deep", []NamePolicyOption{WithPermittedDNSDomains("*.example.com")}, "", []string{"a.b.example.com"}, NotAllowed, DNSNameType},
		{"fail excluded", []NamePolicyOption{WithExcludedDNSDomains("*.internal")}, "", []string{"db.internal"}, NotAllowed, DNSNameType},
		{"fail dns without dns constraints", []NamePolicyOption{WithPermittedCommonNames("Test RA")}, "", []string{"www.example.com"}, NotAllowed, DNSNameType},
		{"fail unparsable dns", []NamePolicyOption{WithPermittedDNSDomains("*.example.com")}, "", []string{"www example.com"}, CannotParseDomain, DNSNameType},
		{"fail cn not permitted", []NamePolicyOption{WithSubjectCommonNameVerification(), WithPermittedCommonNames("Test RA")}, "Other RA", nil, NotAllowed, CNNameType},
		{"fail cn excluded", []NamePolicyOption{WithSubjectCommonNameVerification(), WithExcludedCommonNames("root"), WithPermittedDNSDomains("*.example.com")}, "ROOT", nil, NotAllowed, CNNameType},
		{"fail cn as dns", []NamePolicyOption{WithSubjectCommonNameVerification(), WithPermittedDNSDomains("*.example.com")}, "www.example.org", nil, NotAllowed, CNNameType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := New(tt.options...)
			require.NoError(t, err)
			err = e.AreNamesAllowed(tt.commonName, tt.dnsNames)
			if tt.wantReason == 0 {
				assert.NoError(t, err)
				return
			}
			var pe *NamePolicyError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.wantReason, pe.Reason)
			assert.Equal(t, tt.wantType, pe.NameType)
			assert.NotEmpty(t, pe.Detail())
		})
	}
}

func TestNamePolicyEngine_IsDNSAllowed(t *testing.T) {
	var nilEngine *NamePolicyEngine
	assert.NoError(t, nilEngine.IsDNSAllowed("example.com"))
	assert.True(t, nilEngine.IsEmpty())

	e, err := New(WithPermittedDNSDomains("*.example.com"))
	require.NoError(t, err)
	assert.False(t, e.IsEmpty())
	assert.NoError(t, e.IsDNSAllowed("www.example.com"))
	assert.Error(t, e.IsDNSAllowed("example.com"))
}

func TestNamePolicyError_Error(t *testing.T) {
	tests := []struct {
		err  *NamePolicyError
		want string
	}{
		{&NamePolicyError{Reason: NotAllowed, NameType: DNSNameType, Name: "a.b"}, `dns name "a.b" not allowed`},
		{&NamePolicyError{Reason: CannotParseDomain, NameType: CNNameType, Name: "a b"}, `cannot parse cn domain "a b"`},
		{&NamePolicyError{Reason: CannotMatchNameToConstraint, NameType: DNSNameType, Name: "x"}, `error matching dns name "x" to constraint`},
		{&NamePolicyError{Reason: 42, detail: "oops"}, "unknown error reason (42): oops"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.err.Error())
	}
}
