// Command gattdemo drives a gatt.Server over an in-process loopback
// transport, the way ctl/ctl.go and kr/kr.go drive the agent over a unix
// socket: a small urfave/cli surface wraps a handful of canned requests so
// the ATT/GATT core can be exercised without any real HCI/L2CAP transport.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/op/go-logging"
	"github.com/satori/go.uuid"
	"github.com/urfave/cli"

	"github.com/kryptco-kr/gattcore/att"
	"github.com/kryptco-kr/gattcore/gatt"
	gattuuid "github.com/kryptco-kr/gattcore/uuid"
)

var log = logging.MustGetLogger("gattdemo")

func setupLogging() {
	backend := logging.NewLogBackend(os.Stderr, "", 0)
	formatted := logging.NewBackendFormatter(backend, logging.MustStringFormatter(
		`%{time:15:04:05.000} %{level:.4s} %{module}: %{message}`,
	))
	logging.SetBackend(formatted)
}

// loopbackTransport logs every outbound PDU instead of putting it on the
// air, standing in for the real L2CAP fixed channel.
type loopbackTransport struct{}

func (loopbackTransport) SendPacket(tcbIdx int, pdu []byte) error {
	log.Infof("bearer %d <- %s", tcbIdx, color.CyanString("% X", pdu))
	return nil
}

// demoDatabase is a minimal GAP-like service: one primary service with a
// single readable/writable characteristic, laid out with BuildServiceTable
// exactly as a real registration from the upper layer would be.
func demoDatabase() gatt.AttDatabase {
	value := []byte("hello, gatt")
	svc := gatt.ServiceDef{
		UUID: gattuuid.FromUint16(0x180A), // Device Information Service
		Characteristics: []gatt.CharacteristicDef{
			{
				UUID:        gattuuid.FromUint16(0x2A29), // Manufacturer Name String
				Permissions: gatt.Readable | gatt.WritableWithResponse,
				Value:       value,
			},
		},
	}
	rows := gatt.BuildServiceTable([]gatt.ServiceDef{svc}, 1)
	return gatt.NewStaticDatabase(rows)
}

func runServe(c *cli.Context) error {
	// A per-run session tag for log correlation. This is a plain RFC4122
	// UUID, never the Bluetooth uuid.UUID that travels on the wire.
	session := uuid.NewV4()
	log.Noticef("starting demo GATT server, session=%s", session)

	db := demoDatabase()
	transport := loopbackTransport{}
	server := gatt.NewServer(db, transport, 0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go server.Serve(ctx)
	defer server.Stop()

	for _, pdu := range [][]byte{
		{byte(att.ReadByGroupTypeRequestCode), 1, 0, 0xFF, 0xFF, 0x00, 0x28},
		{byte(att.ReadRequestCode), 2, 0},
		{byte(att.WriteRequestCode), 2, 0, 'h', 'i'},
	} {
		log.Infof("bearer 0 -> %s", color.GreenString("% X", pdu))
		server.Dispatch(pdu)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	if c.Bool("once") {
		return nil
	}
	<-stop
	log.Notice("stopping")
	return nil
}

func runUUID(c *cli.Context) error {
	arg := c.Args().First()
	if arg == "" {
		return cli.NewExitError("usage: gattdemo uuid <128-bit UUID string, hyphenated or 32 hex digits>", 1)
	}
	u, ok := gattuuid.ParseHyphenated(arg)
	if !ok {
		u, ok = gattuuid.ParseHexLoose(arg)
	}
	if !ok {
		return cli.NewExitError(fmt.Sprintf("could not parse %q as a UUID", arg), 1)
	}
	fmt.Printf("canonical: %s\n", color.GreenString("%s", u))
	if v, ok := u.TryTo16Bit(); ok {
		fmt.Printf("16-bit:    %s\n", color.CyanString("0x%04X", v))
	} else if v, ok := u.TryTo32Bit(); ok {
		fmt.Printf("32-bit:    %s\n", color.CyanString("0x%08X", v))
	} else {
		fmt.Println("128-bit:   " + color.YellowString("(no short form)"))
	}
	return nil
}

func main() {
	setupLogging()

	app := cli.NewApp()
	app.Name = "gattdemo"
	app.Usage = "exercise the ATT/GATT server core without a real transport"
	app.Commands = []cli.Command{
		{
			Name:  "serve",
			Usage: "start a demo server and dispatch a few canned PDUs at it",
			Flags: []cli.Flag{
				cli.BoolFlag{Name: "once", Usage: "dispatch the canned PDUs and exit instead of waiting for a signal"},
			},
			Action: runServe,
		},
		{
			Name:   "uuid",
			Usage:  "parse a UUID and show its shortest wire form",
			Action: runUUID,
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}
