package policy

import (
	"fmt"
)

// NamePolicyReason classifies a NamePolicyError.
type NamePolicyReason int

const (
	// NotAllowed results when a constraint doesn't permit the name.
	NotAllowed NamePolicyReason = iota + 1
	// CannotParseDomain is returned when the domain of a DNS name or common
	// name cannot be parsed.
	CannotParseDomain
	// CannotMatchNameToConstraint is returned when an error happens while
	// matching a name.
	CannotMatchNameToConstraint
)

// NameType is the kind of name being checked.
type NameType string

const (
	CNNameType  NameType = "cn"
	DNSNameType NameType = "dns"
)

// NamePolicyError is returned when a name is rejected.
type NamePolicyError struct {
	Reason   NamePolicyReason
	NameType NameType
	Name     string
	detail   string
}

func (e *NamePolicyError) Error() string {
	switch e.Reason {
	case NotAllowed:
		return fmt.Sprintf("%s name %q not allowed", e.NameType, e.Name)
	case CannotParseDomain:
		return fmt.Sprintf("cannot parse %s domain %q", e.NameType, e.Name)
	case CannotMatchNameToConstraint:
		return fmt.Sprintf("error matching %s name %q to constraint", e.NameType, e.Name)
	default:
		return fmt.Sprintf("unknown error reason (%d): %s", e.Reason, e.detail)
	}
}

// Detail returns a description of the failed check.
func (e *NamePolicyError) Detail() string {
	return e.detail
}

// NamePolicyEngine checks the subject common name and the DNS names of a
// certificate request against permitted and excluded constraints.
type NamePolicyEngine struct {
	verifySubjectCommonName   bool
	allowLiteralWildcardNames bool

	permittedCommonNames []string
	excludedCommonNames  []string
	permittedDNSDomains  []string
	excludedDNSDomains   []string

	numberOfCommonNameConstraints     int
	numberOfDNSDomainConstraints      int
	totalNumberOfPermittedConstraints int
	totalNumberOfConstraints          int
}

// New creates a new NamePolicyEngine with the given options.
func New(opts ...NamePolicyOption) (*NamePolicyEngine, error) {
	e := &NamePolicyEngine{}
	for _, option := range opts {
		if err := option(e); err != nil {
			return nil, err
		}
	}

	e.permittedCommonNames = removeDuplicates(e.permittedCommonNames)
	e.permittedDNSDomains = removeDuplicates(e.permittedDNSDomains)
	e.excludedCommonNames = removeDuplicates(e.excludedCommonNames)
	e.excludedDNSDomains = removeDuplicates(e.excludedDNSDomains)

	e.numberOfCommonNameConstraints = len(e.permittedCommonNames) + len(e.excludedCommonNames)
	e.numberOfDNSDomainConstraints = len(e.permittedDNSDomains) + len(e.excludedDNSDomains)
	e.totalNumberOfPermittedConstraints = len(e.permittedCommonNames) + len(e.permittedDNSDomains)
	e.totalNumberOfConstraints = e.numberOfCommonNameConstraints + e.numberOfDNSDomainConstraints

	return e, nil
}

// removeDuplicates returns a new slice of strings with
// duplicate values removed. It retains the order of elements
// in the source slice.
func removeDuplicates(items []string) (ret []string) {
	if len(items) <= 1 {
		return items
	}

	keys := make(map[string]struct{}, len(items))

	ret = make([]string, 0, len(items))
	for _, item := range items {
		if _, ok := keys[item]; ok {
			continue
		}

		keys[item] = struct{}{}
		ret = append(ret, item)
	}

	return
}

// IsEmpty reports whether the engine has no constraints.
func (e *NamePolicyEngine) IsEmpty() bool {
	return e == nil || e.totalNumberOfConstraints == 0
}

// AreNamesAllowed verifies the DNS names and, when common name verification
// is enabled, the common name of a requested certificate.
func (e *NamePolicyEngine) AreNamesAllowed(commonName string, dnsNames []string) error {
	if e.IsEmpty() {
		return nil
	}
	if err := e.validateDNSNames(dnsNames); err != nil {
		return err
	}
	if e.verifySubjectCommonName {
		return e.validateCommonName(commonName)
	}
	return nil
}

// IsDNSAllowed verifies a single DNS domain is allowed.
func (e *NamePolicyEngine) IsDNSAllowed(dns string) error {
	if e.IsEmpty() {
		return nil
	}
	return e.validateDNSNames([]string{dns})
}
