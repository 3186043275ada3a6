package cmp

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/x509/pkix"
	"encoding/asn1"

	// Register the digests used by the supported algorithms.
	_ "crypto/sha1"
	_ "crypto/sha256"
	_ "crypto/sha512"

	"github.com/pkg/errors"
)

// Protection and key derivation OIDs.
var (
	oidPasswordBasedMAC = asn1.ObjectIdentifier{1, 2, 840, 113533, 7, 66, 13}
	oidPBMAC1           = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 5, 14}
	oidPBKDF2           = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 5, 12}
)

// Digest OIDs.
var (
	oidSHA1   = asn1.ObjectIdentifier{1, 3, 14, 3, 2, 26}
	oidSHA224 = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 4}
	oidSHA256 = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 1}
	oidSHA384 = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 2}
	oidSHA512 = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 3}
)

// HMAC OIDs, both the PKIX (RFC 4210) and the PKCS#5 (RFC 8018) arcs.
var (
	oidHMACSHA1       = asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 8, 1, 2}
	oidHMACWithSHA1   = asn1.ObjectIdentifier{1, 2, 840, 113549, 2, 7}
	oidHMACWithSHA224 = asn1.ObjectIdentifier{1, 2, 840, 113549, 2, 8}
	oidHMACWithSHA256 = asn1.ObjectIdentifier{1, 2, 840, 113549, 2, 9}
	oidHMACWithSHA384 = asn1.ObjectIdentifier{1, 2, 840, 113549, 2, 10}
	oidHMACWithSHA512 = asn1.ObjectIdentifier{1, 2, 840, 113549, 2, 11}
)

// Signature OIDs.
var (
	oidSHA1WithRSA      = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 5}
	oidSHA224WithRSA    = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 14}
	oidSHA256WithRSA    = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 11}
	oidSHA384WithRSA    = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 12}
	oidSHA512WithRSA    = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 13}
	oidRSASSAPSS        = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 10}
	oidMGF1             = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 8}
	oidECDSAWithSHA1    = asn1.ObjectIdentifier{1, 2, 840, 10045, 4, 1}
	oidECDSAWithSHA224  = asn1.ObjectIdentifier{1, 2, 840, 10045, 4, 3, 1}
	oidECDSAWithSHA256  = asn1.ObjectIdentifier{1, 2, 840, 10045, 4, 3, 2}
	oidECDSAWithSHA384  = asn1.ObjectIdentifier{1, 2, 840, 10045, 4, 3, 3}
	oidECDSAWithSHA512  = asn1.ObjectIdentifier{1, 2, 840, 10045, 4, 3, 4}
	oidSignatureEd25519 = asn1.ObjectIdentifier{1, 3, 101, 112}
)

// errUnsupportedAlgorithm is returned when an algorithm identifier is not
// known.
var errUnsupportedAlgorithm = errors.New("unsupported algorithm")

// errKeyMismatch is returned when the public key does not fit the signature
// algorithm.
var errKeyMismatch = errors.New("public key does not match the signature algorithm")

var digestAlgorithms = []struct {
	oid  asn1.ObjectIdentifier
	hash crypto.Hash
}{
	{oidSHA1, crypto.SHA1},
	{oidSHA224, crypto.SHA224},
	{oidSHA256, crypto.SHA256},
	{oidSHA384, crypto.SHA384},
	{oidSHA512, crypto.SHA512},
}

var hmacAlgorithms = []struct {
	oid  asn1.ObjectIdentifier
	hash crypto.Hash
}{
	{oidHMACSHA1, crypto.SHA1},
	{oidHMACWithSHA1, crypto.SHA1},
	{oidHMACWithSHA224, crypto.SHA224},
	{oidHMACWithSHA256, crypto.SHA256},
	{oidHMACWithSHA384, crypto.SHA384},
	{oidHMACWithSHA512, crypto.SHA512},
}

type keyType int

const (
	keyTypeRSA keyType = iota
	keyTypeRSAPSS
	keyTypeECDSA
	keyTypeEd25519
)

var signatureAlgorithms = []struct {
	oid     asn1.ObjectIdentifier
	keyType keyType
	hash    crypto.Hash
}{
	{oidSHA1WithRSA, keyTypeRSA, crypto.SHA1},
	{oidSHA224WithRSA, keyTypeRSA, crypto.SHA224},
	{oidSHA256WithRSA, keyTypeRSA, crypto.SHA256},
	{oidSHA384WithRSA, keyTypeRSA, crypto.SHA384},
	{oidSHA512WithRSA, keyTypeRSA, crypto.SHA512},
	{oidRSASSAPSS, keyTypeRSAPSS, 0},
	{oidECDSAWithSHA1, keyTypeECDSA, crypto.SHA1},
	{oidECDSAWithSHA224, keyTypeECDSA, crypto.SHA224},
	{oidECDSAWithSHA256, keyTypeECDSA, crypto.SHA256},
	{oidECDSAWithSHA384, keyTypeECDSA, crypto.SHA384},
	{oidECDSAWithSHA512, keyTypeECDSA, crypto.SHA512},
	{oidSignatureEd25519, keyTypeEd25519, 0},
}

func digestForOID(oid asn1.ObjectIdentifier) (crypto.Hash, error) {
	for _, d := range digestAlgorithms {
		if d.oid.Equal(oid) {
			return d.hash, nil
		}
	}
	return 0, errors.Wrapf(errUnsupportedAlgorithm, "digest %s", oid)
}

func hmacForOID(oid asn1.ObjectIdentifier) (crypto.Hash, error) {
	for _, d := range hmacAlgorithms {
		if d.oid.Equal(oid) {
			return d.hash, nil
		}
	}
	return 0, errors.Wrapf(errUnsupportedAlgorithm, "mac %s", oid)
}

type pssParameters struct {
	Hash         pkix.AlgorithmIdentifier `asn1:"explicit,optional,tag:0"`
	MGF          pkix.AlgorithmIdentifier `asn1:"explicit,optional,tag:1"`
	SaltLength   int                      `asn1:"explicit,optional,tag:2,default:20"`
	TrailerField int                      `asn1:"explicit,optional,tag:3,default:1"`
}

// parsePSSParameters decodes RSASSA-PSS-params. The mask generation function
// must be MGF1 over the message digest and the salt length must be positive,
// rsa.VerifyPSS reads zero and negative lengths as auto-detection.
func parsePSSParameters(alg pkix.AlgorithmIdentifier) (crypto.Hash, *rsa.PSSOptions, error) {
	params := pssParameters{SaltLength: 20, TrailerField: 1}
	if len(alg.Parameters.FullBytes) > 0 {
		if rest, err := asn1.Unmarshal(alg.Parameters.FullBytes, &params); err != nil || len(rest) > 0 {
			return 0, nil, errors.Wrap(errUnsupportedAlgorithm, "invalid RSASSA-PSS parameters")
		}
	}
	h := crypto.SHA1
	if len(params.Hash.Algorithm) > 0 {
		var err error
		if h, err = digestForOID(params.Hash.Algorithm); err != nil {
			return 0, nil, err
		}
	}

	mgfHash := crypto.SHA1
	if len(params.MGF.Algorithm) > 0 {
		if !params.MGF.Algorithm.Equal(oidMGF1) {
			return 0, nil, errors.Wrapf(errUnsupportedAlgorithm, "mask generation function %s", params.MGF.Algorithm)
		}
		var mgfDigest pkix.AlgorithmIdentifier
		if rest, err := asn1.Unmarshal(params.MGF.Parameters.FullBytes, &mgfDigest); err != nil || len(rest) > 0 {
			return 0, nil, errors.Wrap(errUnsupportedAlgorithm, "invalid MGF1 parameters")
		}
		var err error
		if mgfHash, err = digestForOID(mgfDigest.Algorithm); err != nil {
			return 0, nil, err
		}
	}
	if mgfHash != h {
		return 0, nil, errors.Wrapf(errUnsupportedAlgorithm, "MGF1 digest %v does not match digest %v", mgfHash, h)
	}
	if params.SaltLength <= 0 {
		return 0, nil, errors.Wrapf(errUnsupportedAlgorithm, "salt length %d", params.SaltLength)
	}
	if params.TrailerField != 1 {
		return 0, nil, errors.Wrapf(errUnsupportedAlgorithm, "trailer field %d", params.TrailerField)
	}
	return h, &rsa.PSSOptions{SaltLength: params.SaltLength, Hash: h}, nil
}

// verifySignature verifies signature over signed with pub using the given
// signature algorithm. Unknown algorithms return errUnsupportedAlgorithm.
func verifySignature(pub crypto.PublicKey, alg pkix.AlgorithmIdentifier, signed, signature []byte) error {
	found := -1
	for i, s := range signatureAlgorithms {
		if s.oid.Equal(alg.Algorithm) {
			found = i
			break
		}
	}
	if found < 0 {
		return errors.Wrapf(errUnsupportedAlgorithm, "signature %s", alg.Algorithm)
	}
	sa := signatureAlgorithms[found]

	h := sa.hash
	var pssOpts *rsa.PSSOptions
	if sa.keyType == keyTypeRSAPSS {
		var err error
		if h, pssOpts, err = parsePSSParameters(alg); err != nil {
			return err
		}
	}

	var digest []byte
	if h != 0 {
		if !h.Available() {
			return errors.Wrapf(errUnsupportedAlgorithm, "hash %v", h)
		}
		hh := h.New()
		hh.Write(signed)
		digest = hh.Sum(nil)
	}

	switch sa.keyType {
	case keyTypeRSA, keyTypeRSAPSS:
		key, ok := pub.(*rsa.PublicKey)
		if !ok {
			return errors.Wrapf(errKeyMismatch, "RSA key expected, got %T", pub)
		}
		if pssOpts != nil {
			return errors.Wrap(rsa.VerifyPSS(key, h, digest, signature, pssOpts), "RSASSA-PSS verification failed")
		}
		return errors.Wrap(rsa.VerifyPKCS1v15(key, h, digest, signature), "RSA verification failed")
	case keyTypeECDSA:
		key, ok := pub.(*ecdsa.PublicKey)
		if !ok {
			return errors.Wrapf(errKeyMismatch, "ECDSA key expected, got %T", pub)
		}
		if !ecdsa.VerifyASN1(key, digest, signature) {
			return errors.New("ECDSA verification failed")
		}
		return nil
	case keyTypeEd25519:
		key, ok := pub.(ed25519.PublicKey)
		if !ok {
			return errors.Wrapf(errKeyMismatch, "Ed25519 key expected, got %T", pub)
		}
		if !ed25519.Verify(key, signed, signature) {
			return errors.New("Ed25519 verification failed")
		}
		return nil
	default:
		return errors.Wrapf(errUnsupportedAlgorithm, "signature %s", alg.Algorithm)
	}
}
