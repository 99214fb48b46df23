package config

import (
	"github.com/samber/oops"
)

// IPVersion restricts which address family the transport may connect over.
type IPVersion int

const (
	// IPv4AndIPv6 allows both address families, the default.
	IPv4AndIPv6 IPVersion = iota
	// IPv4Only requires that the connection be over IPv4.
	IPv4Only
	// IPv6Only requires that the connection be over IPv6.
	IPv6Only
)

func (v IPVersion) String() string {
	switch v {
	case IPv4Only:
		return "ipv4"
	case IPv6Only:
		return "ipv6"
	default:
		return "any"
	}
}

// ParseIPVersion maps the config-file spelling to an IPVersion.
func ParseIPVersion(s string) (IPVersion, error) {
	switch s {
	case "", "any":
		return IPv4AndIPv6, nil
	case "ipv4":
		return IPv4Only, nil
	case "ipv6":
		return IPv6Only, nil
	}
	return IPv4AndIPv6, oops.Errorf("unknown ip version %q", s)
}

// CryptoWishList lists the algorithms offered in our KEXINIT, in preference
// order. The KEX engine serializes these verbatim, so order matters.
type CryptoWishList struct {
	KexAlgorithms      []string
	ServerHostKeyAlgos []string
	Ciphers            []string
	MACs               []string
	CompressionMethods []string
}

// default preference orders: CTR modes first, CBC legacy last.
var (
	defaultKexAlgorithms = []string{
		"diffie-hellman-group-exchange-sha256",
		"diffie-hellman-group14-sha256",
		"diffie-hellman-group14-sha1",
		"diffie-hellman-group1-sha1",
	}
	defaultHostKeyAlgos = []string{"ssh-ed25519", "rsa-sha2-256", "ssh-rsa"}
	defaultCiphers      = []string{
		"aes128-ctr", "aes192-ctr", "aes256-ctr",
		"aes128-cbc", "aes192-cbc", "aes256-cbc",
		"blowfish-cbc", "3des-cbc",
	}
	defaultMACs        = []string{"hmac-sha2-256", "hmac-sha1", "hmac-sha1-96"}
	defaultCompression = []string{"none"}
)

// DefaultCryptoWishList returns a fresh wish list with the package defaults.
// Callers may reorder or drop entries before handing it to the transport.
func DefaultCryptoWishList() *CryptoWishList {
	return &CryptoWishList{
		KexAlgorithms:      append([]string(nil), defaultKexAlgorithms...),
		ServerHostKeyAlgos: append([]string(nil), defaultHostKeyAlgos...),
		Ciphers:            append([]string(nil), defaultCiphers...),
		MACs:               append([]string(nil), defaultMACs...),
		CompressionMethods: append([]string(nil), defaultCompression...),
	}
}
