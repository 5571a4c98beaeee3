package dict

// Type enumerates the semantic AVP value types this codec understands,
// plus Unknown for AVPs absent from every loaded dictionary source.
type Type int

const (
	Unknown Type = iota
	OctetString
	Integer32
	Integer64
	Unsigned32
	Unsigned64
	Float32
	Float64
	Grouped
	Address
	AddressIPv4
	AddressIPv6
	Time
	UTF8String
	Identity
	DiameterURI
	Enumerated
)

var typeNames = map[string]Type{
	"OctetString": OctetString,
	"Integer32":   Integer32,
	"Integer64":   Integer64,
	"Unsigned32":  Unsigned32,
	"Unsigned64":  Unsigned64,
	"Float32":     Float32,
	"Float64":     Float64,
	"Grouped":     Grouped,
	"Address":     Address,
	"AddressIPv4": AddressIPv4,
	"AddressIPv6": AddressIPv6,
	"Time":        Time,
	"UTF8String":  UTF8String,
	"Identity":    Identity,
	"DiameterURI": DiameterURI,
	"Enumerated":  Enumerated,
}

var typeStrings = func() map[Type]string {
	m := make(map[Type]string, len(typeNames))
	for name, t := range typeNames {
		m[t] = name
	}
	m[Unknown] = "Unknown"
	return m
}()

func (t Type) String() string {
	if s, ok := typeStrings[t]; ok {
		return s
	}
	return "Unknown"
}

// parseType maps a dictionary source's textual type tag to a Type. An
// unrecognized tag is a dictionary-loading error, not a decode-time one.
func parseType(s string) (Type, bool) {
	t, ok := typeNames[s]
	return t, ok
}
