// Package cmp decodes and validates Certificate Management Protocol messages
// (RFC 4210) and the CRMF certificate requests they carry (RFC 4211).
//
// Validation is split in stages that can be run on their own:
// ValidateHeader, ValidateProtection, ValidateBody and ValidatePOP. Validate
// runs header, protection and body in that order. Every stage is a pure
// function of the message and the ConfigurationContext supplied by the
// caller, so independent messages can be validated concurrently.
//
// Failures are reported as *Error values carrying the RFC 4210
// PKIFailureInfo bit and the transaction id of the message, ready to be
// turned into an error or rejection response by the caller.
package cmp
