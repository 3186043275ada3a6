package policy

import (
	"fmt"
	"strings"

	"golang.org/x/net/idna"
)

type NamePolicyOption func(e *NamePolicyEngine) error

// WithSubjectCommonNameVerification enables the checks of the subject
// common name.
func WithSubjectCommonNameVerification() NamePolicyOption {
	return func(e *NamePolicyEngine) error {
		e.verifySubjectCommonName = true
		return nil
	}
}

// WithAllowLiteralWildcardNames accepts names like *.example.com when a
// constraint permits them.
func WithAllowLiteralWildcardNames() NamePolicyOption {
	return func(e *NamePolicyEngine) error {
		e.allowLiteralWildcardNames = true
		return nil
	}
}

func WithPermittedCommonNames(commonNames ...string) NamePolicyOption {
	return func(e *NamePolicyEngine) error {
		normalized, err := normalizeAll(commonNames, normalizeAndValidateCommonName)
		if err != nil {
			return fmt.Errorf("cannot parse permitted common name constraint %w", err)
		}
		e.permittedCommonNames = normalized
		return nil
	}
}

func WithExcludedCommonNames(commonNames ...string) NamePolicyOption {
	return func(e *NamePolicyEngine) error {
		normalized, err := normalizeAll(commonNames, normalizeAndValidateCommonName)
		if err != nil {
			return fmt.Errorf("cannot parse excluded common name constraint %w", err)
		}
		e.excludedCommonNames = normalized
		return nil
	}
}

func WithPermittedDNSDomains(domains ...string) NamePolicyOption {
	return func(e *NamePolicyEngine) error {
		normalized, err := normalizeAll(domains, normalizeAndValidateDNSDomainConstraint)
		if err != nil {
			return fmt.Errorf("cannot parse permitted domain constraint %w", err)
		}
		e.permittedDNSDomains = normalized
		return nil
	}
}

func WithExcludedDNSDomains(domains ...string) NamePolicyOption {
	return func(e *NamePolicyEngine) error {
		normalized, err := normalizeAll(domains, normalizeAndValidateDNSDomainConstraint)
		if err != nil {
			return fmt.Errorf("cannot parse excluded domain constraint %w", err)
		}
		e.excludedDNSDomains = normalized
		return nil
	}
}

func normalizeAll(constraints []string, fn func(string) (string, error)) ([]string, error) {
	normalized := make([]string, len(constraints))
	for i, c := range constraints {
		n, err := fn(c)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", c, err)
		}
		normalized[i] = n
	}
	return normalized, nil
}

func normalizeAndValidateCommonName(constraint string) (string, error) {
	normalizedConstraint := strings.ToLower(strings.TrimSpace(constraint))
	if normalizedConstraint == "" {
		return "", fmt.Errorf("constraint %q can not be empty or white space string", constraint)
	}
	if normalizedConstraint == "*" {
		return "", fmt.Errorf("wildcard constraint %q is not supported", constraint)
	}
	return normalizedConstraint, nil
}

func normalizeAndValidateDNSDomainConstraint(constraint string) (string, error) {
	normalizedConstraint := strings.ToLower(strings.TrimSpace(constraint))
	if normalizedConstraint == "" {
		return "", fmt.Errorf("constraint %q can not be empty or white space string", constraint)
	}
	if strings.Contains(normalizedConstraint, "..") {
		return "", fmt.Errorf("domain constraint %q cannot have empty labels", constraint)
	}
	if strings.HasPrefix(normalizedConstraint, ".") {
		return "", fmt.Errorf("domain constraint %q with wildcard should start with *", constraint)
	}
	if strings.LastIndex(normalizedConstraint, "*") > 0 {
		return "", fmt.Errorf("domain constraint %q can only have wildcard as starting character", constraint)
	}
	if len(normalizedConstraint) >= 2 && normalizedConstraint[0] == '*' && normalizedConstraint[1] != '.' {
		return "", fmt.Errorf("wildcard character in domain constraint %q can only be used to match (full) labels", constraint)
	}
	// *.example.com is stored as .example.com
	normalizedConstraint = strings.TrimPrefix(normalizedConstraint, "*")
	normalizedConstraint, err := idna.Lookup.ToASCII(normalizedConstraint)
	if err != nil {
		return "", fmt.Errorf("domain constraint %q can not be converted to ASCII: %w", constraint, err)
	}
	if _, ok := domainToReverseLabels(strings.TrimPrefix(normalizedConstraint, ".")); !ok {
		return "", fmt.Errorf("cannot parse domain constraint %q", constraint)
	}
	return normalizedConstraint, nil
}
