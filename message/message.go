// Package message implements the Diameter message codec: the fixed
// 20-octet header plus an ordered AVP sequence, with message-length
// maintained on insertion and round-tripped byte-for-byte on the wire.
package message

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/francistor/diameter/avp"
	"github.com/francistor/diameter/dict"
	"github.com/francistor/diameter/diamerr"
	"github.com/francistor/diameter/logging"
	"github.com/francistor/diameter/metrics"
)

// Well-known Result-Code values.
const (
	DiameterSuccess        = 2001
	DiameterLimitedSuccess = 2002

	DiameterUnknownPeer    = 3010
	DiameterRealmNotServed = 3003

	DiameterAuthenticationRejected = 4001

	DiameterUnknownSessionID = 5002
	DiameterUnableToComply   = 5012
)

// Command-flag bits of the command-flags octet.
const (
	FlagRequest        = 0x80
	FlagProxyable      = 0x40
	FlagError          = 0x20
	FlagRetransmission = 0x10
	flagReserved       = 0x0F
)

// headerLen is the fixed size of a Diameter message header.
const headerLen = 20

// Message is a Diameter message: a header plus an ordered sequence of
// top-level AVPs.
type Message struct {
	IsRequest        bool
	IsProxyable      bool
	IsError          bool
	IsRetransmission bool

	CommandCode   uint32
	ApplicationID uint32
	HopByHopID    uint32
	EndToEndID    uint32

	CommandName     string
	ApplicationName string

	AVPs []avp.Avp

	// length caches the encoded length (20 + sum of AVP Len()). It is
	// kept in sync by Add/AddAVP, recomputed by DeleteAllAVP, and taken
	// from the header by ReadFrom.
	length uint32
}

// New builds an empty request or answer with the given command/application
// identifiers and correlators. AVPs are added afterwards with Add/AddAVP.
func New(isRequest bool, commandCode, applicationID, hopByHopID, endToEndID uint32) *Message {
	return &Message{
		IsRequest:     isRequest,
		CommandCode:   commandCode,
		ApplicationID: applicationID,
		HopByHopID:    hopByHopID,
		EndToEndID:    endToEndID,
		AVPs:          make([]avp.Avp, 0),
		length:        headerLen,
	}
}

// NewAnswer builds an answer message correlated to request: same
// application, command and identifiers, IsRequest cleared.
func NewAnswer(request *Message) *Message {
	return &Message{
		CommandCode:     request.CommandCode,
		ApplicationID:   request.ApplicationID,
		CommandName:     request.CommandName,
		ApplicationName: request.ApplicationName,
		HopByHopID:      request.HopByHopID,
		EndToEndID:      request.EndToEndID,
		AVPs:            make([]avp.Avp, 0),
		length:          headerLen,
	}
}

// Add appends an AVP and maintains the cached message length.
func (m *Message) Add(a avp.Avp) *Message {
	m.AVPs = append(m.AVPs, a)
	m.length += uint32(a.Len())
	return m
}

// AddAVP constructs an AVP from the dictionary by name and appends it.
// Logs and leaves the message unchanged if name is not declared or value
// cannot be converted to the declared type.
func (m *Message) AddAVP(d *dict.Dictionary, name string, value interface{}) *Message {
	a, err := avp.NewNamed(d, name, value)
	if err != nil {
		logging.L.Debugw("AVP not added", "name", name, "error", err)
		return m
	}
	return m.Add(*a)
}

// Len returns the total encoded length of the message, including header.
func (m *Message) Len() uint32 {
	return m.length
}

// commandLabel renders the command as a metrics label: the resolved name
// when the dictionary knows it, the bare code otherwise.
func (m *Message) commandLabel() string {
	if m.CommandName != "" {
		return m.CommandName
	}
	return fmt.Sprintf("%d", m.CommandCode)
}

func (m *Message) commandFlags() byte {
	var f byte
	if m.IsRequest {
		f |= FlagRequest
	}
	if m.IsProxyable {
		f |= FlagProxyable
	}
	if m.IsError {
		f |= FlagError
	}
	if m.IsRetransmission {
		f |= FlagRetransmission
	}
	return f
}

// WriteTo encodes the message, including every AVP and its padding, to w.
func (m *Message) WriteTo(w io.Writer) (int64, error) {
	if err := binary.Write(w, binary.BigEndian, byte(1)); err != nil {
		return 0, diamerr.IO(err)
	}
	if err := writeUint24(w, m.length); err != nil {
		return 1, diamerr.IO(err)
	}
	if err := binary.Write(w, binary.BigEndian, m.commandFlags()); err != nil {
		return 4, diamerr.IO(err)
	}
	if err := writeUint24(w, m.CommandCode); err != nil {
		return 5, diamerr.IO(err)
	}
	if err := binary.Write(w, binary.BigEndian, m.ApplicationID); err != nil {
		return 8, diamerr.IO(err)
	}
	if err := binary.Write(w, binary.BigEndian, m.HopByHopID); err != nil {
		return 12, diamerr.IO(err)
	}
	if err := binary.Write(w, binary.BigEndian, m.EndToEndID); err != nil {
		return 16, diamerr.IO(err)
	}

	written := int64(headerLen)
	for i := range m.AVPs {
		n, err := m.AVPs[i].WriteTo(w)
		written += n
		if err != nil {
			logging.L.Debugw("encoding AVP failed", "command", m.commandLabel(), "error", err)
			return written, err
		}
	}

	if uint32(written) != m.length {
		err := diamerr.Encodef("message length mismatch: wrote %d, header says %d", written, m.length)
		logging.L.Errorw("message length mismatch", "command", m.commandLabel(), "wrote", written, "header", m.length)
		return written, err
	}

	metrics.MessagesEncoded.WithLabelValues(m.commandLabel()).Inc()
	return written, nil
}

// MarshalBinary encodes the full message.
func (m *Message) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := m.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ReadFrom decodes one Diameter message from r, resolving AVP types
// through d. Returns the number of bytes consumed.
func ReadFrom(r io.Reader, d *dict.Dictionary, opts avp.DecodeOptions) (*Message, int64, error) {
	m := &Message{AVPs: make([]avp.Avp, 0)}

	var version byte
	if err := binary.Read(r, binary.BigEndian, &version); err != nil {
		return nil, 0, diamerr.IO(err)
	}
	if version != 1 {
		logging.L.Debugw("unsupported diameter version", "version", version)
		return nil, 1, diamerr.Decodef("unsupported version %d", version)
	}

	msgLen, err := readUint24(r)
	if err != nil {
		return nil, 1, err
	}
	m.length = msgLen

	var flags byte
	if err := binary.Read(r, binary.BigEndian, &flags); err != nil {
		return nil, 4, diamerr.IO(err)
	}
	m.IsRequest = flags&FlagRequest != 0
	m.IsProxyable = flags&FlagProxyable != 0
	m.IsError = flags&FlagError != 0
	m.IsRetransmission = flags&FlagRetransmission != 0

	commandCode, err := readUint24(r)
	if err != nil {
		return nil, 5, err
	}
	m.CommandCode = commandCode

	if err := binary.Read(r, binary.BigEndian, &m.ApplicationID); err != nil {
		return nil, 8, diamerr.IO(err)
	}
	if err := binary.Read(r, binary.BigEndian, &m.HopByHopID); err != nil {
		return nil, 12, diamerr.IO(err)
	}
	if err := binary.Read(r, binary.BigEndian, &m.EndToEndID); err != nil {
		return nil, 16, diamerr.IO(err)
	}

	if app, ok := d.GetApplication(m.ApplicationID); ok {
		m.ApplicationName = app.Name
		if cmd, ok := app.CommandsByCode[m.CommandCode]; ok {
			m.CommandName = cmd.Name
		}
	}

	consumed := int64(headerLen)
	if int64(msgLen) < consumed {
		logging.L.Debugw("message length smaller than header", "msgLen", msgLen)
		return m, consumed, diamerr.Decode("message length mismatch")
	}

	for consumed < int64(msgLen) {
		a, n, err := avp.ReadFrom(r, d, opts)
		consumed += n
		if err != nil {
			logging.L.Debugw("decoding AVP failed", "command", m.commandLabel(), "error", err)
			return m, consumed, err
		}
		m.AVPs = append(m.AVPs, a)
	}

	if consumed != int64(msgLen) {
		logging.L.Errorw("message length mismatch on decode", "command", m.commandLabel(), "consumed", consumed, "msgLen", msgLen)
		return m, consumed, diamerr.Decode("message length mismatch")
	}

	metrics.MessagesDecoded.WithLabelValues(m.commandLabel()).Inc()

	return m, consumed, nil
}

// FromBytes decodes exactly one message from inputBytes.
func FromBytes(inputBytes []byte, d *dict.Dictionary, opts avp.DecodeOptions) (*Message, int64, error) {
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
