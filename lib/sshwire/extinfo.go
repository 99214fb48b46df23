package sshwire

import (
	"github.com/samber/oops"
)

// ExtensionInfo is an immutable snapshot of the extensions a server
// advertised in its most recent SSH_MSG_EXT_INFO (RFC 8308). The transport
// replaces its stored snapshot wholesale each time the server sends a new
// one, so readers always observe a consistent set.
type ExtensionInfo struct {
	extensions map[string][]byte
}

// NoExtInfoSeen returns the empty snapshot used before the server has sent
// any EXT_INFO.
func NoExtInfoSeen() *ExtensionInfo {
	return &ExtensionInfo{extensions: map[string][]byte{}}
}

// Extension returns the payload advertised for name, or nil and false if the
// server did not list it.
func (ei *ExtensionInfo) Extension(name string) ([]byte, bool) {
	v, ok := ei.extensions[name]
	return v, ok
}

// Names returns the advertised extension names in unspecified order.
func (ei *ExtensionInfo) Names() []string {
	names := make([]string, 0, len(ei.extensions))
	for name := range ei.extensions {
		names = append(names, name)
	}
	return names
}

// Len returns the number of advertised extensions.
func (ei *ExtensionInfo) Len() int {
	return len(ei.extensions)
}

// ParseExtInfo decodes an SSH_MSG_EXT_INFO payload into a fresh snapshot.
// Duplicate names keep the last occurrence, matching server intent.
func ParseExtInfo(payload []byte, length int) (*ExtensionInfo, error) {
	r := NewReader(payload, length)
	msgType, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	if msgType != MsgExtInfo {
		return nil, oops.Errorf("not an EXT_INFO packet (type %d)", msgType)
	}
	count, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	exts := make(map[string][]byte, count)
	for i := uint32(0); i < count; i++ {
		name, err := r.ReadString()
		if err != nil {
			return nil, oops.Wrapf(err, "EXT_INFO extension %d name", i)
		}
		value, err := r.ReadString()
		if err != nil {
			return nil, oops.Wrapf(err, "EXT_INFO extension %q value", string(name))
		}
		v := make([]byte, len(value))
		copy(v, value)
		exts[string(name)] = v
	}
	return &ExtensionInfo{extensions: exts}, nil
}

// BuildExtInfo encodes an EXT_INFO payload; used by tests and by servers
// embedded in them.
func BuildExtInfo(extensions map[string][]byte, order []string) []byte {
	w := NewWriter()
	w.WriteByte(MsgExtInfo)
	w.WriteUint32(uint32(len(order)))
	for _, name := range order {
		w.WriteString([]byte(name))
		w.WriteString(extensions[name])
	}
	return w.Bytes()
}
