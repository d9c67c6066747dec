// Command regpfuzz replays a captured register-protocol frame (or a run
// of pseudo-random bytes) through the header and frame decoders, the
// standalone counterpart to the go test -fuzz target in
// internal/protocol/fuzz_test.go — useful for minimizing and re-checking
// a corpus entry outside of `go test`.
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"

	"github.com/scigolib/regp/internal/protocol"
)

func main() {
	hexInput := flag.String("hex", "", "hex-encoded frame bytes to replay")
	count := flag.Int("random", 0, "instead of -hex, run this many random byte streams")
	seed := flag.Int64("seed", 1, "seed for -random")
	flag.Parse()

	switch {
	case *hexInput != "":
		data, err := hex.DecodeString(*hexInput)
		if err != nil {
			log.Fatalf("decode -hex: %v", err)
		}
		replay(data)
	case *count > 0:
		r := rand.New(rand.NewSource(*seed))
		for i := 0; i < *count; i++ {
			data := make([]byte, r.Intn(64))
			r.Read(data)
			replay(data)
		}
	default:
		fmt.Fprintln(os.Stderr, "usage: regpfuzz -hex <bytes> | -random <count> [-seed N]")
		os.Exit(2)
	}
}

func replay(data []byte) {
	h, n, err := protocol.DecodeHeader(data)
	if err != nil {
		fmt.Printf("header: reject (%v)\n", err)
		return
	}
	fmt.Printf("header: ok consumed=%d type=%d version=%d\n", n, h.Type, h.Version)

	f, err := protocol.DecodeFrame(data)
	if err != nil {
		fmt.Printf("frame:  reject (%v)\n", err)
		return
	}
	fmt.Printf("frame:  ok address=%d blocksize=%d payload=%d byte(s)\n",
		f.Header.Address, f.Header.Blocksize, len(f.Payload))
}
