package protocol

import (
	"fmt"
	"syscall"

	"github.com/scigolib/regp/internal/core"
)

func errShort(need, have int) error {
	return fmt.Errorf("need %d bytes, have %d", need, have)
}

// errBadMsg reports a structurally malformed header: bad version, a
// reserved option bit set, an illegal type, an out-of-range meta nibble,
// or a truncated buffer.
func errBadMsg(why string) error {
	return core.WrapError("protocol.DecodeHeader", fmt.Errorf("%w: %s", syscall.EBADMSG, why))
}

// errIllegalSeq reports a header whose checksum does not match its
// recomputed value.
func errIllegalSeq(why string) error {
	return core.WrapError("protocol.DecodeHeader", fmt.Errorf("%w: %s", syscall.EILSEQ, why))
}

// errProto reports a payload whose checksum does not match.
func errProto(why string) error {
	return core.WrapError("protocol.checkPayload", fmt.Errorf("%w: %s", syscall.EPROTO, why))
}

// errFault reports a payload whose size is implausible for its frame type.
func errFault(why string) error {
	return core.WrapError("protocol.payloadPlausible", fmt.Errorf("%w: %s", syscall.EFAULT, why))
}
