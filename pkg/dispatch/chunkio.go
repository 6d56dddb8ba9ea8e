package dispatch

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"io"
)

// sentinel marks the end of a chunked message, the Go counterpart of
// ProcessTree.py's "[[MSG_OVER]]" string.
const sentinel = "[[MSG_OVER]]"

// defaultChunkSize matches chunk_send's default of one million bytes.
const defaultChunkSize = 1000000

// ChunkSend gob-encodes obj and writes it to w as a sequence of
// length-prefixed frames of at most chunkSize bytes, followed by a
// sentinel frame. Every ackInterval frames it blocks on a single byte
// from ackR before continuing, bounding how much unacknowledged data is
// ever in flight — the chunked transport described in spec §5 "Message
// discipline", grounded on ProcessTree.py's chunk_send.
func ChunkSend(w io.Writer, ackR io.Reader, obj any, chunkSize, ackInterval int) error {
	if chunkSize < 1 {
		chunkSize = defaultChunkSize
	}
	if ackInterval < 1 {
		ackInterval = 10
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(obj); err != nil {
		return fmt.Errorf("dispatch: encode: %w", err)
	}
	data := buf.Bytes()

	ack := make([]byte, 1)
	sinceAck := 0
	for start := 0; start < len(data); start += chunkSize {
		end := start + chunkSize
		if end > len(data) {
			end = len(data)
		}
		if err := writeFrame(w, data[start:end]); err != nil {
			return fmt.Errorf("dispatch: write chunk: %w", err)
		}
		sinceAck++
		if sinceAck >= ackInterval {
			if _, err := io.ReadFull(ackR, ack); err != nil {
				return fmt.Errorf("dispatch: await ack: %w", err)
			}
			sinceAck = 0
		}
	}
	if err := writeFrame(w, []byte(sentinel)); err != nil {
		return fmt.Errorf("dispatch: write sentinel: %w", err)
	}
	return nil
}

// ChunkRecv reads frames written by ChunkSend until the sentinel arrives,
// writing a single ack byte to ackW every ackInterval frames, then
// gob-decodes the reassembled payload into dst (a pointer).
func ChunkRecv(r io.Reader, ackW io.Writer, ackInterval int, dst any) error {
	if ackInterval < 1 {
		ackInterval = 10
	}

	var buf bytes.Buffer
	received := 0
	for {
		frame, err := readFrame(r)
		if err != nil {
			return fmt.Errorf("dispatch: read frame: %w", err)
		}
		if string(frame) == sentinel {
			break
		}
		buf.Write(frame)
		received++
		if received >= ackInterval {
			if _, err := ackW.Write([]byte{1}); err != nil {
				return fmt.Errorf("dispatch: write ack: %w", err)
			}
			received = 0
		}
	}
	if err := gob.NewDecoder(&buf).Decode(dst); err != nil {
		return fmt.Errorf("dispatch: decode: %w", err)
	}
	return nil
}

func writeFrame(w io.Writer, p []byte) error {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(p)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := w.Write(p)
	return err
}

func readFrame(r io.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	p := make([]byte, n)
	if _, err := io.ReadFull(r, p); err != nil {
		return nil, err
	}
	return p, nil
}
