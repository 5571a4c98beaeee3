package avp

import (
	"encoding/binary"
	"io"
	"net"
	"time"
	"unicode/utf8"

	"github.com/francistor/diameter/dict"
	"github.com/francistor/diameter/diamerr"
)

// diameterEpoch is 1900-01-01T00:00:00Z, the RFC 868 reference instant
// Diameter Time values are seconds since.
var diameterEpoch = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)

// valueLen returns the exact on-wire octet count of value for the given
// type, excluding padding.
func valueLen(t dict.Type, value interface{}) (int, error) {
	switch t {
	case dict.OctetString:
		b, ok := value.([]byte)
		if !ok {
			return 0, diamerr.Encodef("OctetString value has type %T", value)
		}
		return len(b), nil

	case dict.Integer32, dict.Unsigned32, dict.Float32, dict.Enumerated:
		return 4, nil

	case dict.Integer64, dict.Unsigned64, dict.Float64:
		return 8, nil

	case dict.Grouped:
		avps, ok := value.([]Avp)
		if !ok {
			return 0, diamerr.Encodef("Grouped value has type %T", value)
		}
		total := 0
		for i := range avps {
			total += avps[i].Len()
		}
		return total, nil

	case dict.Address:
		ip, ok := value.(net.IP)
		if !ok {
			return 0, diamerr.Encodef("Address value has type %T", value)
		}
		if ip.To4() != nil {
			return 6, nil
		}
		return 18, nil

	case dict.AddressIPv4:
		return 4, nil

	case dict.AddressIPv6:
		return 16, nil

	case dict.Time:
		return 4, nil

	case dict.UTF8String, dict.Identity, dict.DiameterURI:
		s, ok := value.(string)
		if !ok {
			return 0, diamerr.Encodef("%s value has type %T", t, value)
		}
		return len(s), nil

	default:
		return 0, diamerr.Encodef("unsupported AVP type %s", t)
	}
}

// encodeValue writes value's on-wire representation (without padding) to w.
func encodeValue(w io.Writer, t dict.Type, value interface{}) error {
	switch t {
	case dict.OctetString:
		b, ok := value.([]byte)
		if !ok {
			return diamerr.Encodef("OctetString value has type %T", value)
		}
		_, err := w.Write(b)
		return diamerr.IO(err)

	case dict.Integer32:
		v, ok := value.(int32)
		if !ok {
			return diamerr.Encodef("Integer32 value has type %T", value)
		}
		return diamerr.IO(binary.Write(w, binary.BigEndian, v))

	case dict.Integer64:
		v, ok := value.(int64)
		if !ok {
			return diamerr.Encodef("Integer64 value has type %T", value)
		}
		return diamerr.IO(binary.Write(w, binary.BigEndian, v))

	case dict.Unsigned32:
		v, ok := value.(uint32)
		if !ok {
			return diamerr.Encodef("Unsigned32 value has type %T", value)
		}
		return diamerr.IO(binary.Write(w, binary.BigEndian, v))

	case dict.Unsigned64:
		v, ok := value.(uint64)
		if !ok {
			return diamerr.Encodef("Unsigned64 value has type %T", value)
		}
		return diamerr.IO(binary.Write(w, binary.BigEndian, v))

	case dict.Float32:
		v, ok := value.(float32)
		if !ok {
			return diamerr.Encodef("Float32 value has type %T", value)
		}
		return diamerr.IO(binary.Write(w, binary.BigEndian, v))

	case dict.Float64:
		v, ok := value.(float64)
		if !ok {
			return diamerr.Encodef("Float64 value has type %T", value)
		}
		return diamerr.IO(binary.Write(w, binary.BigEndian, v))

	case dict.Enumerated:
		v, ok := value.(int32)
		if !ok {
			return diamerr.Encodef("Enumerated value has type %T", value)
		}
		return diamerr.IO(binary.Write(w, binary.BigEndian, v))

	case dict.Grouped:
		avps, ok := value.([]Avp)
		if !ok {
			return diamerr.Encodef("Grouped value has type %T", value)
		}
		for i := range avps {
			if _, err := avps[i].WriteTo(w); err != nil {
				return err
			}
		}
		return nil

	case dict.Address:
		ip, ok := value.(net.IP)
		if !ok {
			return diamerr.Encodef("Address value has type %T", value)
		}
		if v4 := ip.To4(); v4 != nil {
			if err := binary.Write(w, binary.BigEndian, uint16(1)); err != nil {
				return diamerr.IO(err)
			}
			return diamerr.IO(binary.Write(w, binary.BigEndian, []byte(v4)))
		}
		if err := binary.Write(w, binary.BigEndian, uint16(2)); err != nil {
			return diamerr.IO(err)
		}
		return diamerr.IO(binary.Write(w, binary.BigEndian, []byte(ip.To16())))

	case dict.AddressIPv4:
		ip, ok := value.(net.IP)
		if !ok {
			return diamerr.Encodef("AddressIPv4 value has type %T", value)
		}
		v4 := ip.To4()
		if v4 == nil {
			return diamerr.Encode("AddressIPv4 value is not a valid IPv4 address")
		}
		return diamerr.IO(binary.Write(w, binary.BigEndian, []byte(v4)))

	case dict.AddressIPv6:
		ip, ok := value.(net.IP)
		if !ok {
			return diamerr.Encodef("AddressIPv6 value has type %T", value)
		}
		return diamerr.IO(binary.Write(w, binary.BigEndian, []byte(ip.To16())))

	case dict.Time:
		v, ok := value.(time.Time)
		if !ok {
			return diamerr.Encodef("Time value has type %T", value)
		}
		seconds := v.Sub(diameterEpoch).Seconds()
		if seconds < 0 || seconds > float64(^uint32(0)) {
			return diamerr.Encode("time out of range")
		}
		return diamerr.IO(binary.Write(w, binary.BigEndian, uint32(seconds)))

	case dict.UTF8String, dict.Identity, dict.DiameterURI:
		s, ok := value.(string)
		if !ok {
			return diamerr.Encodef("%s value has type %T", t, value)
		}
		_, err := io.WriteString(w, s)
		return diamerr.IO(err)

	default:
		return diamerr.Encodef("unsupported AVP type %s", t)
	}
}

// decodeValue reads length bytes (the value, excluding padding) from r and
// produces the matching Go value for type t.
func decodeValue(r io.Reader, t dict.Type, length int) (interface{}, error) {
	if length < 0 {
		return nil, diamerr.Decode("negative AVP value length")
	}

	switch t {
	case dict.OctetString:
		b := make([]byte, length)
		if _, err := io.ReadFull(r, b); err != nil {
			return nil, diamerr.IO(err)
		}
		return b, nil

	case dict.Integer32:
		if length != 4 {
			return nil, diamerr.Decode("Integer32 length must be 4")
		}
		var v int32
		if err := binary.Read(r, binary.BigEndian, &v); err != nil {
			return nil, diamerr.IO(err)
		}
		return v, nil

	case dict.Integer64:
		if length != 8 {
			return nil, diamerr.Decode("Integer64 length must be 8")
		}
		var v int64
		if err := binary.Read(r, binary.BigEndian, &v); err != nil {
			return nil, diamerr.IO(err)
		}
		return v, nil

	case dict.Unsigned32:
		if length != 4 {
			return nil, diamerr.Decode("Unsigned32 length must be 4")
		}
		var v uint32
		if err := binary.Read(r, binary.BigEndian, &v); err != nil {
			return nil, diamerr.IO(err)
		}
		return v, nil

	case dict.Unsigned64:
		if length != 8 {
			return nil, diamerr.Decode("Unsigned64 length must be 8")
		}
		var v uint64
		if err := binary.Read(r, binary.BigEndian, &v); err != nil {
			return nil, diamerr.IO(err)
		}
		return v, nil

	case dict.Float32:
		if length != 4 {
			return nil, diamerr.Decode("Float32 length must be 4")
		}
		var v float32
		if err := binary.Read(r, binary.BigEndian, &v); err != nil {
			return nil, diamerr.IO(err)
		}
		return v, nil

	case dict.Float64:
		if length != 8 {
			return nil, diamerr.Decode("Float64 length must be 8")
		}
		var v float64
		if err := binary.Read(r, binary.BigEndian, &v); err != nil {
			return nil, diamerr.IO(err)
		}
		return v, nil

	case dict.Enumerated:
		if length != 4 {
			return nil, diamerr.Decode("Enumerated length must be 4")
		}
		var v int32
		if err := binary.Read(r, binary.BigEndian, &v); err != nil {
			return nil, diamerr.IO(err)
		}
		return v, nil

	case dict.Address:
		if length != 6 && length != 18 {
			return nil, diamerr.Decode("Address length must be 6 or 18")
		}
		var family uint16
		if err := binary.Read(r, binary.BigEndian, &family); err != nil {
			return nil, diamerr.IO(err)
		}
		addr := make([]byte, length-2)
		if _, err := io.ReadFull(r, addr); err != nil {
			return nil, diamerr.IO(err)
		}
		return net.IP(addr), nil

	case dict.AddressIPv4:
		if length != 4 {
			return nil, diamerr.Decode("AddressIPv4 length must be 4")
		}
		b := make([]byte, 4)
		if _, err := io.ReadFull(r, b); err != nil {
			return nil, diamerr.IO(err)
		}
		return net.IP(b), nil

	case dict.AddressIPv6:
		if length != 16 {
			return nil, diamerr.Decode("AddressIPv6 length must be 16")
		}
		b := make([]byte, 16)
		if _, err := io.ReadFull(r, b); err != nil {
			return nil, diamerr.IO(err)
		}
		return net.IP(b), nil

	case dict.Time:
		if length != 4 {
			return nil, diamerr.Decode("Time length must be 4")
		}
		var seconds uint32
		if err := binary.Read(r, binary.BigEndian, &seconds); err != nil {
			return nil, diamerr.IO(err)
		}
		return diameterEpoch.Add(time.Duration(seconds) * time.Second), nil

	case dict.UTF8String, dict.Identity, dict.DiameterURI:
		b := make([]byte, length)
		if _, err := io.ReadFull(r, b); err != nil {
			return nil, diamerr.IO(err)
		}
		if !utf8.Valid(b) {
			return nil, diamerr.Decode("invalid UTF-8")
		}
		return string(b), nil

	default:
		return nil, diamerr.Decodef("unsupported AVP type %s", t)
	}
}

// Padding returns the number of zero octets needed after n octets of
// payload to reach the next multiple of 4.
func Padding(n int) int {
	return (4 - (n % 4)) % 4
}
