// Package avp implements the Diameter AVP (Attribute-Value Pair) wire
// codec: header encode/decode, vendor-id flag handling, 32-bit padding,
// length accounting, and the sixteen semantic value types dispatched
// through the dictionary's type tag.
package avp

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/francistor/diameter/dict"
	"github.com/francistor/diameter/diamerr"
	"github.com/francistor/diameter/logging"
	"github.com/francistor/diameter/metrics"
)

// Flag bits of the AVP header's flags octet.
const (
	FlagVendor    = 0x80
	FlagMandatory = 0x40
	FlagPrivate   = 0x20
	flagReserved  = 0x1F
)

// Avp is a decoded AVP: a header together with its typed value. Value's
// concrete Go type is determined by Type:
//
//	OctetString            []byte
//	Integer32               int32
//	Integer64               int64
//	Unsigned32              uint32
//	Unsigned64               uint64
//	Float32                 float32
//	Float64                 float64
//	Grouped                  []Avp
//	Address, AddressIPv4/6   net.IP
//	Time                   time.Time
//	UTF8String, Identity,
//	  DiameterURI            string
//	Enumerated               int32
type Avp struct {
	Code      uint32
	VendorID  uint32
	Mandatory bool
	Private   bool
	Name      string // resolved from the dictionary, empty if unknown
	Type      dict.Type
	Value     interface{}
}

// New constructs an Avp directly from an explicit type and value, with no
// dictionary involvement — encoding never needs a dictionary, only
// decoding does.
func New(code, vendorID uint32, mandatory bool, t dict.Type, value interface{}) (*Avp, error) {
	if _, err := valueLen(t, value); err != nil {
		return nil, err
	}
	return &Avp{
		Code:      code,
		VendorID:  vendorID,
		Mandatory: mandatory,
		Type:      t,
		Value:     value,
	}, nil
}

// NewNamed constructs an Avp by looking up name in d, converting value as
// needed for the declared type.
func NewNamed(d *dict.Dictionary, name string, value interface{}) (*Avp, error) {
	info, ok := d.GetAVPByName(name)
	if !ok {
		return nil, diamerr.Decodef("%s not found in dictionary", name)
	}

	converted, err := adaptValue(info, value)
	if err != nil {
		return nil, err
	}

	a, err := New(info.Code, info.VendorID, true, info.Type, converted)
	if err != nil {
		return nil, err
	}
	a.Name = info.Name
	return a, nil
}

// adaptValue bridges common Go literal types (string, int, etc.) to the
// Go type the codec expects for a given dictionary type, so callers can
// write NewNamed(d, "Result-Code", 2001) instead of uint32(2001).
func adaptValue(info dict.AVPInfo, value interface{}) (interface{}, error) {
	switch info.Type {
	case dict.Unsigned32:
		return toUint32(value)
	case dict.Unsigned64:
		return toUint64(value)
	case dict.Integer32:
		return toInt32(value)
	case dict.Integer64:
		return toInt64(value)
	case dict.Enumerated:
		if s, ok := value.(string); ok {
			code, ok := info.EnumValues[s]
			if !ok {
				return nil, diamerr.Decodef("%s is not a declared enum value for %s", s, info.Name)
			}
			return code, nil
		}
		return toInt32(value)
	case dict.Float32:
		return toFloat32(value)
	case dict.Float64:
		return toFloat64(value)
	case dict.Address, dict.AddressIPv4, dict.AddressIPv6:
		if s, ok := value.(string); ok {
			ip := net.ParseIP(s)
			if ip == nil {
				return nil, diamerr.Decodef("%q is not a valid IP address", s)
			}
			return ip, nil
		}
		return value, nil
	default:
		return value, nil
	}
}

func toUint32(v interface{}) (uint32, error) {
	switch n := v.(type) {
	case uint32:
		return n, nil
	case int:
		return uint32(n), nil
	case int32:
		return uint32(n), nil
	case int64:
		return uint32(n), nil
	case uint64:
		return uint32(n), nil
	default:
		return 0, diamerr.Encodef("cannot convert %T to Unsigned32", v)
	}
}

func toUint64(v interface{}) (uint64, error) {
	switch n := v.(type) {
	case uint64:
		return n, nil
	case int:
		return uint64(n), nil
	case int64:
		return uint64(n), nil
	case uint32:
		return uint64(n), nil
	default:
		return 0, diamerr.Encodef("cannot convert %T to Unsigned64", v)
	}
}

func toInt32(v interface{}) (int32, error) {
	switch n := v.(type) {
	case int32:
		return n, nil
	case int:
		return int32(n), nil
	case int64:
		return int32(n), nil
	default:
		return 0, diamerr.Encodef("cannot convert %T to Integer32", v)
	}
}

func toInt64(v interface{}) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	default:
		return 0, diamerr.Encodef("cannot convert %T to Integer64", v)
	}
}

func toFloat32(v interface{}) (float32, error) {
	switch n := v.(type) {
	case float32:
		return n, nil
	case float64:
		return float32(n), nil
	default:
		return 0, diamerr.Encodef("cannot convert %T to Float32", v)
	}
}

func toFloat64(v interface{}) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	default:
		return 0, diamerr.Encodef("cannot convert %T to Float64", v)
	}
}

// DataLen returns the number of octets the AVP occupies on the wire,
// including header and vendor-id, excluding padding.
func (a *Avp) DataLen() (int, error) {
	headerLen := 8
	if a.VendorID != 0 {
		headerLen = 12
	}
	vLen, err := valueLen(a.Type, a.Value)
	if err != nil {
		return 0, err
	}
	return headerLen + vLen, nil
}

// Len returns the number of octets the AVP occupies on the wire,
// including padding.
func (a *Avp) Len() int {
	n, err := a.DataLen()
	if err != nil {
		// Len() is documented as panic-free for already-valid AVPs;
		// callers that build invalid AVPs should check New()'s error
		// instead of relying on Len().
		return 0
	}
	return n + Padding(n)
}

// flags renders the header flags octet.
func (a *Avp) flags() byte {
	var f byte
	if a.VendorID != 0 {
		f |= FlagVendor
	}
	if a.Mandatory {
		f |= FlagMandatory
	}
	if a.Private {
		f |= FlagPrivate
	}
	return f
}

// WriteTo encodes the AVP, including trailing padding, to w. Returns the
// total number of bytes written.
func (a *Avp) WriteTo(w io.Writer) (int64, error) {
	dataLen, err := a.DataLen()
	if err != nil {
		return 0, err
	}

	if err := binary.Write(w, binary.BigEndian, a.Code); err != nil {
		return 0, diamerr.IO(err)
	}
	if err := binary.Write(w, binary.BigEndian, a.flags()); err != nil {
		return 4, diamerr.IO(err)
	}
	if err := writeUint24(w, uint32(dataLen)); err != nil {
		return 5, diamerr.IO(err)
	}

	written := int64(8)
	if a.VendorID != 0 {
		if err := binary.Write(w, binary.BigEndian, a.VendorID); err != nil {
			return written, diamerr.IO(err)
		}
		written += 4
	}

	if err := encodeValue(w, a.Type, a.Value); err != nil {
		return written, err
	}
	written = int64(dataLen)

	pad := Padding(dataLen)
	if pad > 0 {
		if _, err := w.Write(make([]byte, pad)); err != nil {
			return written, diamerr.IO(err)
		}
		written += int64(pad)
	}

	return written, nil
}

// MarshalBinary encodes the AVP including padding.
func (a *Avp) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := a.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeOptions tunes decode-time leniency, per the open questions in
// §9 of the specification.
type DecodeOptions struct {
	// Lenient, when true, decodes a top-level AVP whose (code, vendor-id)
	// is absent from the dictionary as OctetString instead of failing.
	// Never applies inside a Grouped AVP, where structure matters.
	Lenient bool
	// StrictPadding validates that padding octets are zero.
	StrictPadding bool
	// StrictFlags validates that reserved flag bits (0x1F) are zero.
	StrictFlags bool
}

// ReadFrom decodes one top-level AVP (including its padding) from r using
// d to resolve (code, vendor-id) to a semantic type. Returns the number
// of bytes consumed.
func ReadFrom(r io.Reader, d *dict.Dictionary, opts DecodeOptions) (Avp, int64, error) {
	return readFrom(r, d, opts, true)
}

func readFrom(r io.Reader, d *dict.Dictionary, opts DecodeOptions, topLevel bool) (Avp, int64, error) {
	var a Avp

	var code uint32
	if err := binary.Read(r, binary.BigEndian, &code); err != nil {
		return a, 0, diamerr.IO(err)
	}
	a.Code = code

	var flags byte
	if err := binary.Read(r, binary.BigEndian, &flags); err != nil {
		return a, 4, diamerr.IO(err)
	}
	if opts.StrictFlags && flags&flagReserved != 0 {
		return a, 5, diamerr.Decode("reserved flag bits must be zero")
	}
	hasVendor := flags&FlagVendor != 0
	a.Mandatory = flags&FlagMandatory != 0
	a.Private = flags&FlagPrivate != 0

	avpLen, err := readUint24(r)
	if err != nil {
		return a, 5, err
	}

	consumed := int64(8)
	headerLen := 8
	if hasVendor {
		if err := binary.Read(r, binary.BigEndian, &a.VendorID); err != nil {
			return a, consumed, diamerr.IO(err)
		}
		consumed += 4
		headerLen = 12
	}

	if int(avpLen) < headerLen {
		logging.L.Debugw("AVP length smaller than header", "code", a.Code, "avpLen", avpLen)
		return a, consumed, diamerr.Decode("AVP length smaller than header")
	}
	dataLen := int(avpLen) - headerLen

	a.Type = d.GetAVPType(a.Code, a.VendorID)
	if info, ok := d.GetAVPInfo(a.Code, a.VendorID); ok {
		a.Name = info.Name
	}

	if a.Type == dict.Unknown {
		metrics.DictionaryMisses.WithLabelValues().Inc()
		if topLevel && opts.Lenient {
			logging.L.Debugw("unknown AVP code decoded leniently as OctetString", "code", a.Code, "vendorId", a.VendorID)
			a.Type = dict.OctetString
		} else {
			logging.L.Debugw("unknown AVP code rejected", "code", a.Code, "vendorId", a.VendorID, "topLevel", topLevel)
			// Drain the value and padding so the stream stays aligned
			// even though this AVP is rejected.
			pad := Padding(dataLen)
			io.CopyN(io.Discard, r, int64(dataLen+pad))
			return a, consumed + int64(dataLen+pad), diamerr.Decode("unknown AVP code")
		}
	}

	if a.Type == dict.Grouped {
		value, n, err := readGroup(r, d, opts, dataLen)
		a.Value = value
		consumed += n
		if err != nil {
			return a, consumed, err
		}
	} else {
		value, err := decodeValue(r, a.Type, dataLen)
		if err != nil {
			return a, consumed, err
		}
		a.Value = value
		consumed += int64(dataLen)
	}

	pad := Padding(dataLen)
	if pad > 0 {
		padBytes := make([]byte, pad)
		if _, err := io.ReadFull(r, padBytes); err != nil {
			return a, consumed, diamerr.IO(err)
		}
		if opts.StrictPadding {
			for _, b := range padBytes {
				if b != 0 {
					logging.L.Debugw("nonzero padding", "code", a.Code)
					return a, consumed + int64(pad), diamerr.Decode("nonzero padding")
				}
			}
		}
		consumed += int64(pad)
	}

	return a, consumed, nil
}

// readGroup decodes a Grouped AVP's children from the dataLen-byte value
// budget.
func readGroup(r io.Reader, d *dict.Dictionary, opts DecodeOptions, dataLen int) ([]Avp, int64, error) {
	children := make([]Avp, 0)
	var consumed int64
	for consumed < int64(dataLen) {
		child, n, err := readFrom(r, d, opts, false)
		consumed += n
		if err != nil {
			return children, consumed, err
		}
		children = append(children, child)
	}
	if consumed != int64(dataLen) {
		logging.L.Errorw("grouped AVP truncated", "consumed", consumed, "dataLen", dataLen)
		return children, consumed, diamerr.Decode("grouped AVP truncated")
	}
	return children, consumed, nil
}

// FromBytes decodes exactly one top-level AVP from inputBytes.
func FromBytes(inputBytes []byte, d *dict.Dictionary, opts DecodeOptions) (Avp, int64, error) {
	return ReadFrom(bytes.NewReader(inputBytes), d, opts)
}

func readUint24(r io.Reader) (uint32, error) {
	var b [3]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, diamerr.IO(err)
	}
	return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2]), nil
}

func writeUint24(w io.Writer, v uint32) error {
	b := [3]byte{byte(v >> 16), byte(v >> 8), byte(v)}
	_, err := w.Write(b[:])
	return err
}

///////////////////////////////////////////////////////////////
// Grouped AVP manipulation
///////////////////////////////////////////////////////////////

// AddAVP appends a child to a Grouped AVP. No-op if the AVP is not
// Grouped.
func (a *Avp) AddAVP(child Avp) *Avp {
	if a.Type != dict.Grouped {
		return a
	}
	children, _ := a.Value.([]Avp)
	a.Value = append(children, child)
	return a
}

// GetAVP returns the first child with the given name. Returns a copy.
func (a *Avp) GetAVP(name string) (Avp, error) {
	children, ok := a.Value.([]Avp)
	if !ok {
		return Avp{}, diamerr.Client(fmt.Sprintf("%s is not a Grouped AVP", a.Name))
	}
	for i := range children {
		if children[i].Name == name {
			return children[i], nil
		}
	}
	return Avp{}, diamerr.Decodef("%s not found", name)
}

// GetAllAVP returns every child with the given name. Returns copies.
func (a *Avp) GetAllAVP(name string) []Avp {
	children, ok := a.Value.([]Avp)
	if !ok {
		return nil
	}
	result := make([]Avp, 0)
	for i := range children {
		if children[i].Name == name {
			result = append(result, children[i])
		}
	}
	return result
}

///////////////////////////////////////////////////////////////
// Value accessors
///////////////////////////////////////////////////////////////

// GetString renders the AVP's value as a human-readable string.
func (a *Avp) GetString() string {
	switch a.Type {
	case dict.OctetString:
		b, _ := a.Value.([]byte)
		return fmt.Sprintf("%x", b)
	case dict.Integer32:
		v, _ := a.Value.(int32)
		return fmt.Sprintf("%d", v)
	case dict.Integer64:
		v, _ := a.Value.(int64)
		return fmt.Sprintf("%d", v)
	case dict.Unsigned32:
		v, _ := a.Value.(uint32)
		return fmt.Sprintf("%d", v)
	case dict.Unsigned64:
		v, _ := a.Value.(uint64)
		return fmt.Sprintf("%d", v)
	case dict.Float32:
		v, _ := a.Value.(float32)
		return fmt.Sprintf("%f", v)
	case dict.Float64:
		v, _ := a.Value.(float64)
		return fmt.Sprintf("%f", v)
	case dict.Enumerated:
		v, _ := a.Value.(int32)
		return fmt.Sprintf("%d", v)
	case dict.Address, dict.AddressIPv4, dict.AddressIPv6:
		ip, _ := a.Value.(net.IP)
		return ip.String()
	case dict.Time:
		t, _ := a.Value.(time.Time)
		return t.Format(time.RFC3339)
	case dict.UTF8String, dict.Identity, dict.DiameterURI:
		s, _ := a.Value.(string)
		return s
	case dict.Grouped:
		children, _ := a.Value.([]Avp)
		parts := make([]string, 0, len(children))
		for i := range children {
			parts = append(parts, children[i].Name+"="+children[i].GetString())
		}
		return "{" + strings.Join(parts, ",") + "}"
	default:
		return ""
	}
}

// Check verifies, for a Grouped AVP, that it decoded with no structural
// error. It does not enforce occurrence constraints (out of scope).
func (a *Avp) Check() error {
	if a.Type != dict.Grouped {
		return nil
	}
	children, ok := a.Value.([]Avp)
	if !ok {
		return diamerr.Decode("grouped AVP value is not a slice of AVP")
	}
	for i := range children {
		if err := children[i].Check(); err != nil {
			return err
		}
	}
	return nil
}
