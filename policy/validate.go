// Copyright 2011 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// The code in this file is an adapted version of the code in
// https://cs.opensource.google/go/go/+/refs/tags/go1.17.5:src/crypto/x509/verify.go
package policy

import (
	"fmt"
	"strings"

	"golang.org/x/net/idna"
)

// validateDNSNames verifies that all DNS names are allowed.
func (e *NamePolicyEngine) validateDNSNames(dnsNames []string) error {
	for _, dns := range dnsNames {
		// DNS names must be explicitly permitted when other names are.
		if e.numberOfDNSDomainConstraints == 0 && e.totalNumberOfPermittedConstraints > 0 {
			return &NamePolicyError{
				Reason:   NotAllowed,
				NameType: DNSNameType,
				Name:     dns,
				detail:   fmt.Sprintf("dns %q is not explicitly permitted by any constraint", dns),
			}
		}
		parsedDNS, err := parseDNSName(dns)
		if err != nil {
			return &NamePolicyError{
				Reason:   CannotParseDomain,
				NameType: DNSNameType,
				Name:     dns,
				detail:   err.Error(),
			}
		}
		if err := checkNameConstraints(DNSNameType, dns, parsedDNS, e.matchDomainConstraint,
			e.permittedDNSDomains, e.excludedDNSDomains); err != nil {
			return err
		}
	}
	return nil
}

func parseDNSName(dns string) (string, error) {
	wildcard := strings.HasPrefix(dns, "*.")
	parsed, err := idna.Lookup.ToASCII(strings.TrimPrefix(dns, "*"))
	if err != nil {
		return "", fmt.Errorf("dns %q cannot be converted to ASCII", dns)
	}
	if wildcard {
		parsed = "*" + parsed
	}
	if _, ok := domainToReverseLabels(parsed); !ok {
		return "", fmt.Errorf("cannot parse dns %q", dns)
	}
	return parsed, nil
}

// validateCommonName verifies that the subject common name is allowed. A
// common name not matched by a common name constraint is checked as a DNS
// name.
func (e *NamePolicyEngine) validateCommonName(commonName string) error {
	if commonName == "" {
		return nil
	}

	if e.numberOfCommonNameConstraints > 0 {
		err := checkNameConstraints(CNNameType, commonName, commonName, matchCommonNameConstraint,
			e.permittedCommonNames, e.excludedCommonNames)
		if err == nil {
			return nil
		}
		if pe, ok := err.(*NamePolicyError); ok && len(e.excludedCommonNames) > 0 && pe.Reason == NotAllowed &&
			containsFold(e.excludedCommonNames, commonName) {
			return err
		}
	}

	err := e.validateDNSNames([]string{commonName})
	if pe, ok := err.(*NamePolicyError); ok {
		pe.NameType = CNNameType
	}
	return err
}

func containsFold(items []string, s string) bool {
	for _, item := range items {
		if strings.EqualFold(item, s) {
			return true
		}
	}
	return false
}

// checkNameConstraints checks that a name, of type nameType is permitted.
// parsedName is the parsed form of name, suitable for passing to match.
func checkNameConstraints[T any](
	nameType NameType,
	name string,
	parsedName T,
	match func(parsedName T, constraint string) (bool, error),
	permitted, excluded []string) error {
	for _, constraint := range excluded {
		matched, err := match(parsedName, constraint)
		if err != nil {
			return &NamePolicyError{
				Reason:   CannotMatchNameToConstraint,
				NameType: nameType,
				Name:     name,
				detail:   err.Error(),
			}
		}
		if matched {
			return &NamePolicyError{
				Reason:   NotAllowed,
				NameType: nameType,
				Name:     name,
				detail:   fmt.Sprintf("%s %q is excluded by constraint %q", nameType, name, constraint),
			}
		}
	}

	if len(permitted) == 0 {
		return nil
	}
	for _, constraint := range permitted {
		matched, err := match(parsedName, constraint)
		if err != nil {
			return &NamePolicyError{
				Reason:   CannotMatchNameToConstraint,
				NameType: nameType,
				Name:     name,
				detail:   err.Error(),
			}
		}
		if matched {
			return nil
		}
	}

	return &NamePolicyError{
		Reason:   NotAllowed,
		NameType: nameType,
		Name:     name,
		detail:   fmt.Sprintf("%s %q is not permitted by any constraint", nameType, name),
	}
}

// domainToReverseLabels converts a textual domain name like foo.example.com to
// the list of labels in reverse order, e.g. ["com", "example", "foo"].
func domainToReverseLabels(domain string) (reverseLabels []string, ok bool) {
	for len(domain) > 0 {
		if i := strings.LastIndexByte(domain, '.'); i == -1 {
			reverseLabels = append(reverseLabels, domain)
			domain = ""
		} else {
			reverseLabels = append(reverseLabels, domain[i+1:])
			domain = domain[:i]
		}
	}

	if len(reverseLabels) > 0 && reverseLabels[0] == "" {
		// An empty label at the end indicates an absolute value.
		return nil, false
	}

	for _, label := range reverseLabels {
		if label == "" {
			return nil, false
		}
		for _, c := range label {
			if c < 33 || c > 126 {
				return nil, false
			}
		}
	}

	return reverseLabels, true
}

// matchDomainConstraint matches a domain against the given constraint. A
// constraint starting with a period requires exactly one more label.
func (e *NamePolicyEngine) matchDomainConstraint(domain, constraint string) (bool, error) {
	if domain == "" {
		return false, nil
	}

	// Block wildcard domains that don't start with exactly "*."
	if domain[0] == '*' && (len(domain) < 2 || domain[1] != '.') {
		return false, nil
	}
	if strings.HasPrefix(domain, "*.") && !e.allowLiteralWildcardNames {
		return false, nil
	}
	if strings.LastIndex(domain, "*") > 0 {
		return false, nil
	}

	domainLabels, ok := domainToReverseLabels(domain)
	if !ok {
		return false, fmt.Errorf("cannot parse domain %q", domain)
	}

	mustHaveSubdomains := false
	if constraint[0] == '.' {
		mustHaveSubdomains = true
		constraint = constraint[1:]
	}

	constraintLabels, ok := domainToReverseLabels(constraint)
	if !ok {
		return false, fmt.Errorf("cannot parse domain constraint %q", constraint)
	}

	expectedNumberOfLabels := len(constraintLabels)
	if mustHaveSubdomains {
		expectedNumberOfLabels++
	}
	if len(domainLabels) != expectedNumberOfLabels {
		return false, nil
	}

	for i, constraintLabel := range constraintLabels {
		if !strings.EqualFold(constraintLabel, domainLabels[i]) {
			return false, nil
		}
	}

	return true, nil
}

// matchCommonNameConstraint performs a string literal equality check against constraint.
func matchCommonNameConstraint(commonName, constraint string) (bool, error) {
	return strings.EqualFold(commonName, constraint), nil
}
