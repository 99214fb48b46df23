// Package sshcrypto provides the pluggable cipher, MAC, and compression
// leaves the transport installs when a key exchange completes. The transport
// only ever talks to the three small interfaces here; algorithm selection is
// the KEX engine's job.
package sshcrypto
