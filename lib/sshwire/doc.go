// Package sshwire implements the RFC 4251 wire primitives and the small set
// of transport-level control packets (DISCONNECT, DEBUG, EXT_INFO) that the
// transport manager parses itself. Everything heavier — KEX payloads, auth
// and channel packets — belongs to the collaborators that register handlers
// on the transport.
package sshwire
