// Package framing implements the wire framing shared by the agent socket
// and the Frontend Channel: a JSON object serialized as UTF-8, terminated
// by a single NUL byte, bounded to 256 KiB.
package framing

import (
	"bufio"
	"encoding/json"
	"io"

	"github.com/oidcd/oidcd/internal/ierrors"
)

// MaxMessageSize is the framing length cap: 256 KiB.
const MaxMessageSize = 256 * 1024

// terminator is the single byte that ends every message.
const terminator = 0x00

// WriteMessage marshals v to JSON and writes it to w followed by a single
// NUL byte. It returns an Internal error if v doesn't marshal or exceeds
// MaxMessageSize — the dispatcher should never be asked to write a
// response this large.
func WriteMessage(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return ierrors.Wrap(ierrors.KindInternal, "failed to marshal message", err)
	}
	if len(data) > MaxMessageSize {
		return ierrors.New(ierrors.KindInternal, "message exceeds framing size limit")
	}
	data = append(data, terminator)
	if _, err := w.Write(data); err != nil {
		return ierrors.Wrap(ierrors.KindNetworkError, "failed to write message", err)
	}
	return nil
}

// ReadMessage reads a single NUL-terminated JSON message from r and
// unmarshals it into v. The read is capped at MaxMessageSize+1 bytes so a
// peer that never sends a terminator can't force unbounded buffering.
func ReadMessage(r *bufio.Reader, v any) error {
	data := make([]byte, 0, 4096)
	for {
		b, err := r.ReadByte()
		if err != nil {
			if err == io.EOF && len(data) == 0 {
				return io.EOF
			}
			return ierrors.Wrap(ierrors.KindNetworkError, "failed to read message", err)
		}
		if b == terminator {
			break
		}
		data = append(data, b)
		if len(data) > MaxMessageSize {
			return ierrors.New(ierrors.KindBadRequest, "message exceeds framing size limit")
		}
	}
	if err := json.Unmarshal(data, v); err != nil {
		return ierrors.Wrap(ierrors.KindBadRequest, "malformed JSON message", err)
	}
	return nil
}
