package message

import (
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/francistor/diameter/dict"
	"github.com/francistor/diameter/diamerr"
)

var nextHopByHopID uint32
var nextEndToEndID uint32

func init() {
	source := rand.NewSource(time.Now().UnixNano())
	randgen := rand.New(source)
	nextHopByHopID = randgen.Uint32()

	// RFC 6733 §3: implementations MAY set the high order 12 bits of the
	// End-to-End identifier to the low order 12 bits of current time, and
	// the low order 20 bits to a random value.
	nowSeconds := uint32(time.Now().Unix())
	nextEndToEndID = (nowSeconds&0xFFF)<<20 | randgen.Uint32()&0xFFFFF
}

// NextHopByHopID returns a fresh Hop-by-Hop identifier, unique within this
// process.
func NextHopByHopID() uint32 {
	return atomic.AddUint32(&nextHopByHopID, 1)
}

// NextEndToEndID returns a fresh End-to-End identifier, unique within
// this process.
func NextEndToEndID() uint32 {
	return atomic.AddUint32(&nextEndToEndID, 1)
}

// NewRequest builds a request message for appName/commandName, resolved
// through d, with freshly generated Hop-by-Hop and End-to-End ids.
func NewRequest(d *dict.Dictionary, appName, commandName string) (*Message, error) {
	app, ok := d.GetApplicationByName(appName)
	if !ok {
		return nil, diamerr.Decodef("application %s not found", appName)
	}
	cmd, ok := app.CommandsByName[commandName]
	if !ok {
		return nil, diamerr.Decodef("command %s not found in application %s", commandName, appName)
	}

	m := New(true, cmd.Code, app.Code, NextHopByHopID(), NextEndToEndID())
	m.ApplicationName = app.Name
	m.CommandName = cmd.Name
	return m, nil
}
