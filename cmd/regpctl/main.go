// Command regpctl is a small command-line client for a register-protocol
// device reachable over TCP: read and write its registers, or dump a raw
// response frame for inspection.
package main

import (
	"fmt"
	"log"
	"net"
	"time"

	"github.com/scigolib/regp"
	"github.com/scigolib/regp/internal/core"
	"github.com/scigolib/regp/internal/io"
	"github.com/scigolib/regp/internal/table"
	"github.com/spf13/cobra"
	"github.com/xyproto/env/v2"
)

func main() {
	addr := env.Str("REGP_ADDR", "127.0.0.1:9000")
	timeout := env.Duration("REGP_TIMEOUT", 5*time.Second)

	var blockSize int

	rootCmd := &cobra.Command{
		Use:   "regpctl",
		Short: "Read and write a remote register-protocol device's registers",
	}
	rootCmd.PersistentFlags().StringVar(&addr, "addr", addr, "device address (host:port), overrides REGP_ADDR")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", timeout, "dial/response timeout, overrides REGP_TIMEOUT")
	rootCmd.PersistentFlags().IntVar(&blockSize, "block-size", 256, "receive buffer size in bytes")

	readCmd := &cobra.Command{
		Use:   "read <address> <count>",
		Short: "Read count words starting at address",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			address, n, err := parseAddrCount(args)
			if err != nil {
				return err
			}
			dev, conn, err := dial(addr, timeout, blockSize)
			if err != nil {
				return err
			}
			defer conn.Close()

			if err := dev.ReqRead(address, n); err != nil {
				return fmt.Errorf("read request: %w", err)
			}
			frame, err := dev.Recv()
			if err != nil {
				return fmt.Errorf("read response: %w", err)
			}
			if frame.Header.Meta != 0 {
				return fmt.Errorf("device responded with error code %d", frame.Header.Meta)
			}
			for i := 0; i < len(frame.Payload)/2; i++ {
				v, _ := core.ReadUint(frame.Payload[i*2:i*2+2], core.Width16, core.OrderNative)
				fmt.Printf("%d: %d\n", address+uint32(i), v)
			}
			return nil
		},
	}

	writeCmd := &cobra.Command{
		Use:   "write <address> <value>...",
		Short: "Write one or more 16-bit words starting at address",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			address, values, err := parseAddrValues(args)
			if err != nil {
				return err
			}
			dev, conn, err := dial(addr, timeout, blockSize)
			if err != nil {
				return err
			}
			defer conn.Close()

			if err := dev.ReqWrite(address, values); err != nil {
				return fmt.Errorf("write request: %w", err)
			}
			frame, err := dev.Recv()
			if err != nil {
				return fmt.Errorf("write response: %w", err)
			}
			if frame.Header.Meta != 0 {
				return fmt.Errorf("device responded with error code %d", frame.Header.Meta)
			}
			fmt.Printf("wrote %d word(s) at address %d\n", len(values), address)
			return nil
		},
	}

	dumpCmd := &cobra.Command{
		Use:   "dump <address> <count>",
		Short: "Read count words and print the raw response frame",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			address, n, err := parseAddrCount(args)
			if err != nil {
				return err
			}
			dev, conn, err := dial(addr, timeout, blockSize)
			if err != nil {
				return err
			}
			defer conn.Close()
			dev.EnableDiagnostics(256, 8)

			if err := dev.ReqRead(address, n); err != nil {
				return fmt.Errorf("read request: %w", err)
			}
			frame, err := dev.Recv()
			if err != nil {
				return fmt.Errorf("read response: %w", err)
			}
			fmt.Printf("type=%d meta=%d sequence=%d address=%d blocksize=%d payload=% x\n",
				frame.Header.Type, frame.Header.Meta, frame.Header.Sequence,
				frame.Header.Address, frame.Header.Blocksize, frame.Payload)
			fmt.Println(dev.Diagnostics().Dump())
			if avg, ok := dev.Diagnostics().AvgLatency(); ok {
				fmt.Printf("round-trip latency: %.6fs\n", avg)
			}
			return nil
		},
	}

	rootCmd.AddCommand(readCmd, writeCmd, dumpCmd)
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

// dial connects to addr and wraps the connection in a Device bound to an
// empty placeholder table: a client never serves requests against its own
// table, it only issues them and reads back the remote device's answers.
func dial(addr string, timeout time.Duration, blockSize int) (*regp.Device, net.Conn, error) {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	placeholder := table.NewTable([]*table.Area{table.MakeMemoryArea(0, 1, 0)}, nil, false)
	_ = placeholder.Init()
	dev := regp.New(regp.TransportTCP, conn, placeholder, io.NewHeapAllocator(blockSize))
	return dev, conn, nil
}

func parseAddrCount(args []string) (address, n uint32, err error) {
	address, err = parseUint32(args[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid address %q: %w", args[0], err)
	}
	n, err = parseUint32(args[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid count %q: %w", args[1], err)
	}
	return address, n, nil
}

func parseAddrValues(args []string) (address uint32, values []table.RegisterAtom, err error) {
	address, err = parseUint32(args[0])
	if err != nil {
		return 0, nil, fmt.Errorf("invalid address %q: %w", args[0], err)
	}
	values = make([]table.RegisterAtom, 0, len(args)-1)
	for _, a := range args[1:] {
		v, err := parseUint32(a)
		if err != nil {
			return 0, nil, fmt.Errorf("invalid value %q: %w", a, err)
		}
		values = append(values, table.RegisterAtom(v))
	}
	return address, values, nil
}

func parseUint32(s string) (uint32, error) {
	var v uint32
	_, err := fmt.Sscanf(s, "%d", &v)
	return v, err
}
