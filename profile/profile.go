// Package profile implements JSON configured CMP profiles. A Profile is the
// cmp.ConfigurationContext used to validate the messages of one RA or
// client population.
package profile

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/czertainly/cmp-validator/cmp"
	"github.com/czertainly/cmp-validator/policy"
)

// Policy holds the name constraints applied to certificate requests.
type Policy struct {
	AllowedCommonNames []string `json:"allowedCommonNames,omitempty"`
	DeniedCommonNames  []string `json:"deniedCommonNames,omitempty"`
	AllowedDNSDomains  []string `json:"allowedDNSDomains,omitempty"`
	DeniedDNSDomains   []string `json:"deniedDNSDomains,omitempty"`
	AllowWildcardNames bool     `json:"allowWildcardNames,omitempty"`
}

func (p *Policy) engine() (*policy.NamePolicyEngine, error) {
	if p == nil {
		return nil, nil
	}
	opts := []policy.NamePolicyOption{policy.WithSubjectCommonNameVerification()}
	if p.AllowWildcardNames {
		opts = append(opts, policy.WithAllowLiteralWildcardNames())
	}
	if len(p.AllowedCommonNames) > 0 {
		opts = append(opts, policy.WithPermittedCommonNames(p.AllowedCommonNames...))
	}
	if len(p.DeniedCommonNames) > 0 {
		opts = append(opts, policy.WithExcludedCommonNames(p.DeniedCommonNames...))
	}
	if len(p.AllowedDNSDomains) > 0 {
		opts = append(opts, policy.WithPermittedDNSDomains(p.AllowedDNSDomains...))
	}
	if len(p.DeniedDNSDomains) > 0 {
		opts = append(opts, policy.WithExcludedDNSDomains(p.DeniedDNSDomains...))
	}
	return policy.New(opts...)
}

// Options is the JSON representation of a profile.
type Options struct {
	Name              string   `json:"name"`
	ProtectionMethod  string   `json:"protectionMethod"`
	SharedSecret      string   `json:"sharedSecret,omitempty"`
	SharedSecretFile  string   `json:"sharedSecretFile,omitempty"`
	MaxIterationCount int      `json:"maxIterationCount,omitempty"`
	Policy            *Policy  `json:"policy,omitempty"`
	AllowedKeyTypes   []string `json:"allowedKeyTypes,omitempty"`
	MinRSAKeySize     int      `json:"minRSAKeySize,omitempty"`
}

// Validate checks the options without reading any file.
func (o *Options) Validate() error {
	switch {
	case o == nil:
		return errors.New("profile cannot be empty")
	case o.Name == "":
		return errors.New("profile name cannot be empty")
	case o.ProtectionMethod == "":
		return errors.Errorf("profile %s: protectionMethod cannot be empty", o.Name)
	case o.SharedSecret != "" && o.SharedSecretFile != "":
		return errors.Errorf("profile %s: sharedSecret and sharedSecretFile are mutually exclusive", o.Name)
	case o.MaxIterationCount < 0:
		return errors.Errorf("profile %s: maxIterationCount cannot be negative", o.Name)
	case o.MinRSAKeySize < 0:
		return errors.Errorf("profile %s: minRSAKeySize cannot be negative", o.Name)
	}
	if _, err := cmp.ParseProtectionMethod(o.ProtectionMethod); err != nil {
		return errors.Wrapf(err, "profile %s", o.Name)
	}
	for _, kt := range o.AllowedKeyTypes {
		if _, ok := keyTypes[strings.ToUpper(kt)]; !ok {
			return errors.Errorf("profile %s: unsupported key type '%s'", o.Name, kt)
		}
	}
	return nil
}

// Profile is an initialized profile. It implements cmp.ConfigurationContext
// and cmp.IterationLimiter.
type Profile struct {
	name          string
	method        cmp.ProtectionMethod
	secret        []byte
	maxIterations int
	keyTypes      map[string]struct{}
	minRSAKeySize int
	engine        *policy.NamePolicyEngine
	now           func() time.Time
}

// New initializes a profile from its options.
func New(o *Options) (*Profile, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	method, err := cmp.ParseProtectionMethod(o.ProtectionMethod)
	if err != nil {
		return nil, err
	}

	p := &Profile{
		name:          o.Name,
		method:        method,
		maxIterations: o.MaxIterationCount,
		minRSAKeySize: o.MinRSAKeySize,
		now:           time.Now,
	}

	switch {
	case o.SharedSecretFile != "":
		b, err := os.ReadFile(o.SharedSecretFile)
		if err != nil {
			return nil, errors.Wrapf(err, "profile %s: error reading sharedSecretFile", o.Name)
		}
		p.secret = bytes.TrimRight(b, "\r\n")
	case o.SharedSecret != "":
		p.secret = []byte(o.SharedSecret)
	}
	if method == cmp.ProtectionMethodMAC && len(p.secret) == 0 {
		return nil, errors.Errorf("profile %s: mac protection requires a shared secret", o.Name)
	}

	if len(o.AllowedKeyTypes) > 0 {
		p.keyTypes = make(map[string]struct{}, len(o.AllowedKeyTypes))
		for _, kt := range o.AllowedKeyTypes {
			p.keyTypes[keyTypes[strings.ToUpper(kt)]] = struct{}{}
		}
	}

	if p.engine, err = o.Policy.engine(); err != nil {
		return nil, errors.Wrapf(err, "profile %s: invalid policy", o.Name)
	}
	return p, nil
}

// LoadFile reads and initializes the profile in the given JSON file.
func LoadFile(filename string) (*Profile, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading %s", filename)
	}
	o := new(Options)
	if err := json.Unmarshal(b, o); err != nil {
		return nil, errors.Wrapf(err, "error parsing %s", filename)
	}
	p, err := New(o)
	if err != nil {
		return nil, errors.Wrapf(err, "error loading %s", filename)
	}
	return p, nil
}

// Name implements cmp.ConfigurationContext.
func (p *Profile) Name() string {
	return p.name
}

// ProtectionMethod implements cmp.ConfigurationContext.
func (p *Profile) ProtectionMethod() cmp.ProtectionMethod {
	return p.method
}

// SharedSecret implements cmp.ConfigurationContext.
func (p *Profile) SharedSecret() []byte {
	return p.secret
}

// MaxIterationCount implements cmp.IterationLimiter. Zero selects
// cmp.DefaultMaxIterationCount.
func (p *Profile) MaxIterationCount() int {
	return p.maxIterations
}
