package cmptest

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/hmac"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509/pkix"
	"encoding/asn1"

	// Register the digests used by the builders.
	_ "crypto/sha1"
	_ "crypto/sha256"
	_ "crypto/sha512"

	"github.com/pkg/errors"
	"golang.org/x/crypto/pbkdf2"
)

// Algorithm OIDs used by the builders.
var (
	OIDPasswordBasedMAC = asn1.ObjectIdentifier{1, 2, 840, 113533, 7, 66, 13}
	OIDPBMAC1           = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 5, 14}
	OIDPBKDF2           = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 5, 12}
	OIDSHA1             = asn1.ObjectIdentifier{1, 3, 14, 3, 2, 26}
	OIDSHA256           = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 1}
	OIDSHA512           = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 3}
	OIDMD5              = asn1.ObjectIdentifier{1, 2, 840, 113549, 2, 5}
	OIDHMACSHA1         = asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 8, 1, 2}
	OIDHMACWithSHA256   = asn1.ObjectIdentifier{1, 2, 840, 113549, 2, 9}
	OIDHMACWithSHA512   = asn1.ObjectIdentifier{1, 2, 840, 113549, 2, 11}
	OIDSHA256WithRSA    = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 11}
	OIDRSASSAPSS        = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 10}
	OIDECDSAWithSHA256  = asn1.ObjectIdentifier{1, 2, 840, 10045, 4, 3, 2}
	OIDEd25519          = asn1.ObjectIdentifier{1, 3, 101, 112}
	OIDMGF1             = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 8}
)

// PBMAlgorithm returns a PasswordBasedMac protectionAlg.
func PBMAlgorithm(salt []byte, owf asn1.ObjectIdentifier, iterationCount int, mac asn1.ObjectIdentifier) *pkix.AlgorithmIdentifier {
	params := struct {
		Salt           []byte
		OWF            pkix.AlgorithmIdentifier
		IterationCount int
		MAC            pkix.AlgorithmIdentifier
	}{salt, pkix.AlgorithmIdentifier{Algorithm: owf}, iterationCount, pkix.AlgorithmIdentifier{Algorithm: mac}}
	return &pkix.AlgorithmIdentifier{
		Algorithm:  OIDPasswordBasedMAC,
		Parameters: asn1.RawValue{FullBytes: must(asn1.Marshal(params))},
	}
}

// PBMKey derives the RFC 4210 appendix D.2 key: owf applied iterationCount
// times to secret||salt.
func PBMKey(owf crypto.Hash, secret, salt []byte, iterationCount int) []byte {
	key := append(append([]byte{}, secret...), salt...)
	for i := 0; i < iterationCount; i++ {
		h := owf.New()
		h.Write(key)
		key = h.Sum(nil)
	}
	return key
}

// HMAC returns the HMAC of data keyed with key.
func HMAC(h crypto.Hash, key, data []byte) []byte {
	m := hmac.New(h.New, key)
	m.Write(data)
	return m.Sum(nil)
}

// PBMAC1Algorithm returns a PBMAC1 protectionAlg using PBKDF2. keyLength
// is omitted when zero.
func PBMAC1Algorithm(salt []byte, iterationCount, keyLength int, prf, mac asn1.ObjectIdentifier) *pkix.AlgorithmIdentifier {
	kdf := struct {
		Salt           []byte
		IterationCount int
		KeyLength      int `asn1:"optional"`
		PRF            pkix.AlgorithmIdentifier
	}{salt, iterationCount, keyLength, pkix.AlgorithmIdentifier{Algorithm: prf, Parameters: asn1.NullRawValue}}
	params := struct {
		KeyDerivationFunc pkix.AlgorithmIdentifier
		MessageAuthScheme pkix.AlgorithmIdentifier
	}{
		pkix.AlgorithmIdentifier{Algorithm: OIDPBKDF2, Parameters: asn1.RawValue{FullBytes: must(asn1.Marshal(kdf))}},
		pkix.AlgorithmIdentifier{Algorithm: mac, Parameters: asn1.NullRawValue},
	}
	return &pkix.AlgorithmIdentifier{
		Algorithm:  OIDPBMAC1,
		Parameters: asn1.RawValue{FullBytes: must(asn1.Marshal(params))},
	}
}

// PBKDF2Key derives a PBMAC1 key.
func PBKDF2Key(prf crypto.Hash, secret, salt []byte, iterationCount, keyLength int) []byte {
	return pbkdf2.Key(secret, salt, iterationCount, keyLength, prf.New)
}

// SignatureAlgorithm returns the algorithm Sign uses for pub.
func SignatureAlgorithm(pub crypto.PublicKey) (pkix.AlgorithmIdentifier, error) {
	switch pub.(type) {
	case *rsa.PublicKey:
		return pkix.AlgorithmIdentifier{Algorithm: OIDSHA256WithRSA, Parameters: asn1.NullRawValue}, nil
	case *ecdsa.PublicKey:
		return pkix.AlgorithmIdentifier{Algorithm: OIDECDSAWithSHA256}, nil
	case ed25519.PublicKey:
		return pkix.AlgorithmIdentifier{Algorithm: OIDEd25519}, nil
	default:
		return pkix.AlgorithmIdentifier{}, errors.Errorf("unsupported public key %T", pub)
	}
}

// Sign signs data with signer returning the AlgorithmIdentifier and the
// signature. RSA and ECDSA keys use SHA-256.
func Sign(signer crypto.Signer, data []byte) (pkix.AlgorithmIdentifier, []byte, error) {
	alg, err := SignatureAlgorithm(signer.Public())
	if err != nil {
		return alg, nil, err
	}
	var sig []byte
	if _, ok := signer.Public().(ed25519.PublicKey); ok {
		sig, err = signer.Sign(rand.Reader, data, crypto.Hash(0))
	} else {
		sig, err = signer.Sign(rand.Reader, sha256Sum(data), crypto.SHA256)
	}
	return alg, sig, err
}

// SignPSS signs data with RSASSA-PSS, SHA-256 and a 32 bytes salt.
func SignPSS(signer crypto.Signer, data []byte) (pkix.AlgorithmIdentifier, []byte, error) {
	sig, err := SignPSSSalt(signer, data, 32)
	return PSSAlgorithm(OIDSHA256, OIDSHA256, 32), sig, err
}

// SignPSSSalt signs data with RSASSA-PSS and SHA-256 using a salt of
// saltLength bytes.
func SignPSSSalt(signer crypto.Signer, data []byte, saltLength int) ([]byte, error) {
	return signer.Sign(rand.Reader, sha256Sum(data), &rsa.PSSOptions{SaltLength: saltLength, Hash: crypto.SHA256})
}

// PSSAlgorithm returns an RSASSA-PSS algorithm identifier declaring the given
// digest, MGF1 digest and salt length.
func PSSAlgorithm(hash, mgfHash asn1.ObjectIdentifier, saltLength int) pkix.AlgorithmIdentifier {
	mgfParams := pkix.AlgorithmIdentifier{Algorithm: mgfHash, Parameters: asn1.NullRawValue}
	params := struct {
		Hash       pkix.AlgorithmIdentifier `asn1:"explicit,tag:0"`
		MGF        pkix.AlgorithmIdentifier `asn1:"explicit,tag:1"`
		SaltLength int                      `asn1:"explicit,tag:2"`
	}{
		Hash:       pkix.AlgorithmIdentifier{Algorithm: hash, Parameters: asn1.NullRawValue},
		MGF:        pkix.AlgorithmIdentifier{Algorithm: OIDMGF1, Parameters: asn1.RawValue{FullBytes: must(asn1.Marshal(mgfParams))}},
		SaltLength: saltLength,
	}
	return pkix.AlgorithmIdentifier{
		Algorithm:  OIDRSASSAPSS,
		Parameters: asn1.RawValue{FullBytes: must(asn1.Marshal(params))},
	}
}

func sha256Sum(data []byte) []byte {
	h := crypto.SHA256.New()
	h.Write(data)
	return h.Sum(nil)
}
