package cmp

import (
	"crypto"
	"crypto/hmac"
	"crypto/x509/pkix"
	"encoding/asn1"
	"math/big"

	"github.com/czertainly/cmp-validator/internal/cast"
	"github.com/pkg/errors"
	"golang.org/x/crypto/pbkdf2"
)

// pbmParameter is the RFC 4210 section 5.1.3.1 PBMParameter.
type pbmParameter struct {
	Salt           []byte
	OWF            pkix.AlgorithmIdentifier
	IterationCount *big.Int
	MAC            pkix.AlgorithmIdentifier
}

// validatePasswordBasedMAC verifies a PasswordBasedMac protection. The key
// is the owf applied iterationCount times to secret||salt (RFC 4210
// appendix D.2).
func validatePasswordBasedMAC(msg *PKIMessage, cfg ConfigurationContext) error {
	tid := msg.TransactionID()
	if err := requireMAC(msg, cfg); err != nil {
		return err
	}

	var params pbmParameter
	if err := unmarshalExact(msg.Header.ProtectionAlg.Parameters.FullBytes, &params, ""); err != nil {
		return WrapError(KindBadDataFormat, tid, err, "invalid PBMParameter")
	}
	n, err := cast.SafeBigInt(params.IterationCount)
	if err != nil {
		return WrapError(KindBadDataFormat, tid, err, "invalid PBM iteration count")
	}
	if err := checkIterationCount(msg, cfg, n); err != nil {
		return err
	}
	owf, err := digestForOID(params.OWF.Algorithm)
	if err != nil {
		return WrapError(KindBadAlg, tid, err, "unsupported PBM owf")
	}
	mac, err := hmacForOID(params.MAC.Algorithm)
	if err != nil {
		return WrapError(KindBadAlg, tid, err, "unsupported PBM mac")
	}

	key := pbmKey(owf, cfg.SharedSecret(), params.Salt, n)
	return verifyMAC(msg, mac, key)
}

func pbmKey(owf crypto.Hash, secret, salt []byte, iterationCount int) []byte {
	h := owf.New()
	h.Write(secret)
	h.Write(salt)
	key := h.Sum(nil)
	for i := 1; i < iterationCount; i++ {
		h.Reset()
		h.Write(key)
		key = h.Sum(nil)
	}
	return key
}

// pbmac1Params is the RFC 8018 PBMAC1-params.
type pbmac1Params struct {
	KeyDerivationFunc pkix.AlgorithmIdentifier
	MessageAuthScheme pkix.AlgorithmIdentifier
}

// pbkdf2Params is the RFC 8018 PBKDF2-params. Salt is a CHOICE of which
// only the specified OCTET STRING is supported.
type pbkdf2Params struct {
	Salt           asn1.RawValue
	IterationCount *big.Int
	KeyLength      int                      `asn1:"optional"`
	PRF            pkix.AlgorithmIdentifier `asn1:"optional"`
}

const maxPBMAC1KeyLength = 128

// validatePBMAC1 verifies a PBMAC1 protection (RFC 8018 section 7.1,
// profiled by RFC 9481 section 6.1.1).
func validatePBMAC1(msg *PKIMessage, cfg ConfigurationContext) error {
	tid := msg.TransactionID()
	if err := requireMAC(msg, cfg); err != nil {
		return err
	}

	var params pbmac1Params
	if err := unmarshalExact(msg.Header.ProtectionAlg.Parameters.FullBytes, &params, ""); err != nil {
		return WrapError(KindBadDataFormat, tid, err, "invalid PBMAC1 parameters")
	}
	if !params.KeyDerivationFunc.Algorithm.Equal(oidPBKDF2) {
		return NewError(KindBadAlg, tid, "unsupported PBMAC1 key derivation function %s", params.KeyDerivationFunc.Algorithm)
	}
	mac, err := hmacForOID(params.MessageAuthScheme.Algorithm)
	if err != nil {
		return WrapError(KindBadAlg, tid, err, "unsupported PBMAC1 message authentication scheme")
	}

	var kdf pbkdf2Params
	if err := unmarshalExact(params.KeyDerivationFunc.Parameters.FullBytes, &kdf, ""); err != nil {
		return WrapError(KindBadDataFormat, tid, err, "invalid PBKDF2 parameters")
	}
	if kdf.Salt.Class != asn1.ClassUniversal || kdf.Salt.Tag != asn1.TagOctetString {
		return NewError(KindNotImplemented, tid, "PBKDF2 salt from another source is not implemented")
	}
	n, err := cast.SafeBigInt(kdf.IterationCount)
	if err != nil {
		return WrapError(KindBadDataFormat, tid, err, "invalid PBKDF2 iteration count")
	}
	if err := checkIterationCount(msg, cfg, n); err != nil {
		return err
	}
	prf := crypto.SHA1
	if len(kdf.PRF.Algorithm) > 0 {
		if prf, err = hmacForOID(kdf.PRF.Algorithm); err != nil {
			return WrapError(KindBadAlg, tid, err, "unsupported PBKDF2 prf")
		}
	}
	keyLength := kdf.KeyLength
	if keyLength == 0 {
		keyLength = mac.Size()
	}
	if keyLength < 1 || keyLength > maxPBMAC1KeyLength {
		return NewError(KindBadDataFormat, tid, "PBKDF2 key length %d out of range [1, %d]", keyLength, maxPBMAC1KeyLength)
	}

	key := pbkdf2.Key(cfg.SharedSecret(), kdf.Salt.Bytes, n, keyLength, prf.New)
	return verifyMAC(msg, mac, key)
}

// verifyMAC compares, in constant time, the protection of msg with the
// HMAC of its protected part.
func verifyMAC(msg *PKIMessage, h crypto.Hash, key []byte) error {
	tid := msg.TransactionID()
	data, err := protectedPart(msg)
	if err != nil {
		return WrapError(KindBadDataFormat, tid, err, "error encoding protected part")
	}
	m := hmac.New(h.New, key)
	m.Write(data)
	if !hmac.Equal(m.Sum(nil), msg.Protection.RightAlign()) {
		return WrapError(KindBadMessageCheck, tid, errors.New("mac mismatch"), "protection is invalid")
	}
	return nil
}
