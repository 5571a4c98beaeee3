package client

import (
	"bytes"
	"context"
	"net"
	"testing"
	"time"

	"github.com/francistor/diameter/avp"
	"github.com/francistor/diameter/dict"
	"github.com/francistor/diameter/message"
)

func testDict(t *testing.T) *dict.Dictionary {
	t.Helper()
	xmlSrc := `<diameter-dictionary>
		<avp-vendor id="0">
			<avp code="263" name="Session-Id" type="UTF8String"/>
			<avp code="268" name="Result-Code" type="Unsigned32"/>
		</avp-vendor>
		<application id="16777238" name="Gx">
			<command code="272" name="Credit-Control"/>
		</application>
	</diameter-dictionary>`
	d, err := dict.Load(bytes.NewReader([]byte(xmlSrc)))
	if err != nil {
		t.Fatalf("loading test dictionary: %v", err)
	}
	return d
}

// echoServer accepts one connection, decodes one request and writes back
// a correlated answer carrying Result-Code 2001.
func echoServer(t *testing.T, d *dict.Dictionary) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		request, _, err := message.ReadFrom(conn, d, avp.DecodeOptions{})
		if err != nil {
			return
		}

		answer := message.NewAnswer(request)
		answer.AddAVP(d, "Result-Code", uint32(2001))
		answer.WriteTo(conn)
	}()

	return ln.Addr().String()
}

func TestSendReceivesCorrelatedAnswer(t *testing.T) {
	d := testDict(t)
	addr := echoServer(t, d)

	c := New(Config{
		Address:      addr,
		DialTimeout:  time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: time.Second,
	}, d)

	if err := c.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer c.Close()

	request, err := message.NewRequest(d, "Gx", "Credit-Control")
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	request.AddAVP(d, "Session-Id", "test;1;1")

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	answer, err := c.Send(ctx, request)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	if answer.HopByHopID != request.HopByHopID || answer.EndToEndID != request.EndToEndID {
		t.Error("answer identifiers do not match request")
	}
	if answer.GetResultCode() != 2001 {
		t.Errorf("Result-Code = %d, want 2001", answer.GetResultCode())
	}
}

func TestSendBeforeConnectFails(t *testing.T) {
	d := testDict(t)
	c := New(Config{Address: "127.0.0.1:1"}, d)

	request, _ := message.NewRequest(d, "Gx", "Credit-Control")
	if _, err := c.Send(context.Background(), request); err == nil {
		t.Error("expected error sending before Connect")
	}
}

func TestCloseWithoutConnectIsNoop(t *testing.T) {
	d := testDict(t)
	c := New(Config{}, d)
	if err := c.Close(); err != nil {
		t.Errorf("Close on unconnected client: %v", err)
	}
}
