package regp

import (
	"net"
	"testing"
	"time"

	"github.com/scigolib/regp/internal/io"
	"github.com/scigolib/regp/internal/table"
	"github.com/stretchr/testify/require"
)

func newLinearTable(t *testing.T, size uint32) *Table {
	t.Helper()
	area := table.MakeMemoryArea(0, size, table.AreaReadable|table.AreaWriteable)
	tbl := table.NewTable([]*Area{area}, nil, false)
	require.Equal(t, table.InitOK, tbl.Init().Code)
	return tbl
}

// TestDeviceRoundTripOverPipe exercises a client Device issuing a write
// then a read against a server Device's bound table over an in-memory
// full-duplex connection.
func TestDeviceRoundTripOverPipe(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	defer serverConn.Close()
	defer clientConn.Close()

	serverTable := newLinearTable(t, 16)
	server := New(TransportTCP, serverConn, serverTable, io.NewHeapAllocator(256))
	client := New(TransportTCP, clientConn, newLinearTable(t, 16), io.NewHeapAllocator(256))

	serverErrs := make(chan error, 2)
	go func() { serverErrs <- server.Serve() }()

	require.NoError(t, client.ReqWrite(4, []table.RegisterAtom{0xBEEF}))
	_, err := client.Recv()
	require.NoError(t, err)
	require.NoError(t, <-serverErrs)

	go func() { serverErrs <- server.Serve() }()
	require.NoError(t, client.ReqRead(4, 1))
	resp, err := client.Recv()
	require.NoError(t, err)
	require.NoError(t, <-serverErrs)
	require.NotNil(t, resp)
	require.Equal(t, []byte{0xEF, 0xBE}, resp.Payload)
}

func TestDialTCPConnectsAndReturnsDevice(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		require.NoError(t, err)
		accepted <- conn
	}()

	tbl := newLinearTable(t, 4)
	dev, conn, err := DialTCP(ln.Addr().String(), tbl, io.NewHeapAllocator(128))
	require.NoError(t, err)
	require.NotNil(t, dev)
	defer conn.Close()

	select {
	case server := <-accepted:
		defer server.Close()
	case <-time.After(time.Second):
		t.Fatal("server never accepted connection")
	}
}
