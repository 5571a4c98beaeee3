// Command diameter-client sends one Diameter request and prints the
// answer. Grounded on the teacher's main.go flag-parsing and
// config-init shape, simplified to the spec's synchronous
// connect/send/close client shell — no peer accepter loop, no CER/CEA
// negotiation.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/francistor/diameter/client"
	"github.com/francistor/diameter/config"
	"github.com/francistor/diameter/logging"
	"github.com/francistor/diameter/message"
	"github.com/francistor/diameter/record"
)

func main() {
	addrPtr := flag.String("address", "localhost:3868", "host:port of the Diameter peer")
	appPtr := flag.String("application", "Credit-Control", "application name to resolve the command in")
	commandPtr := flag.String("command", "Credit-Control", "command name to send")
	userNamePtr := flag.String("username", "", "value for the User-Name AVP, if non-empty")
	timeoutPtr := flag.Duration("timeout", 5*time.Second, "dial/read/write timeout")
	verbosePtr := flag.Bool("verbose", false, "enable development logging")
	recordDSNPtr := flag.String("record-dsn", "", "MySQL DSN to record the answer into, if non-empty")
	recordTablePtr := flag.String("record-table", "diameter_records", "table name used when -record-dsn is set")

	flag.Parse()

	if *verbosePtr {
		logging.InitDevelopment()
	} else {
		logging.Init()
	}

	cfg := config.FromEnv(config.ClientConfig{
		Address:      *addrPtr,
		DialTimeout:  *timeoutPtr,
		ReadTimeout:  *timeoutPtr,
		WriteTimeout: *timeoutPtr,
	})

	d, err := config.BuildDictionary(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "building dictionary:", err)
		os.Exit(1)
	}

	request, err := message.NewRequest(d, *appPtr, *commandPtr)
	if err != nil {
		fmt.Fprintln(os.Stderr, "building request:", err)
		os.Exit(1)
	}
	if *userNamePtr != "" {
		request.AddAVP(d, "User-Name", *userNamePtr)
	}

	c := client.New(client.Config{
		Address:      cfg.Address,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}, d)

	if err := c.Connect(); err != nil {
		fmt.Fprintln(os.Stderr, "connecting:", err)
		os.Exit(1)
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeoutPtr)
	defer cancel()

	answer, err := c.Send(ctx, request)
	if err != nil {
		fmt.Fprintln(os.Stderr, "sending request:", err)
		os.Exit(1)
	}

	fmt.Printf("Result-Code: %s\n", answer.GetStringAVP("Result-Code"))
	for _, a := range answer.AVPs {
		fmt.Printf("%s = %s\n", a.Name, a.GetString())
	}

	if *recordDSNPtr != "" {
		if err := recordAnswer(*recordDSNPtr, *recordTablePtr, answer); err != nil {
			fmt.Fprintln(os.Stderr, "recording answer:", err)
			os.Exit(1)
		}
	}
}

// recordAnswer inserts the answer's AVPs as one row into table, creating
// it first if it does not already exist.
func recordAnswer(dsn, table string, answer *message.Message) error {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return fmt.Errorf("opening %s: %w", table, err)
	}
	defer db.Close()

	names := make([]string, len(answer.AVPs))
	for i, a := range answer.AVPs {
		names[i] = a.Name
	}

	if _, err := db.Exec(record.CreateTableSQL(table, names)); err != nil {
		return fmt.Errorf("provisioning %s: %w", table, err)
	}

	return record.NewWriter(db, table, names).Write(answer)
}
