// Package config holds the protocol-level negotiation inputs (crypto wish
// list, DH group-exchange parameters, IP version preference) and the
// viper-backed client configuration used by the demo client. The transport
// itself only ever sees plain structs; nothing in this package persists
// protocol state.
package config
