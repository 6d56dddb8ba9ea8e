package dispatch

import (
	"bytes"
	"io"
	"sync"
	"testing"
)

type payload struct {
	Regions []int32
	Label   string
}

func TestChunkSendRecvRoundTrip(t *testing.T) {
	ackR, ackW := io.Pipe()

	var wire bytes.Buffer
	send := payload{Regions: []int32{1, 2, 3, 4, 5}, Label: "batch-7"}

	var wg sync.WaitGroup
	wg.Add(1)
	var sendErr error
	go func() {
		defer wg.Done()
		sendErr = ChunkSend(&wire, ackR, send, 8, 2)
	}()

	// Keep acking for as long as the sender is blocked waiting on one,
	// without committing to a fixed ack count (that depends on the exact
	// gob-encoded byte length, which this test shouldn't need to predict).
	// CloseWithError unblocks any in-flight write once the sender is done.
	go func() {
		ack := []byte{1}
		for {
			if _, err := ackW.Write(ack); err != nil {
				return
			}
		}
	}()

	wg.Wait()
	ackW.CloseWithError(io.EOF)
	if sendErr != nil {
		t.Fatalf("ChunkSend: %v", sendErr)
	}

	var got payload
	if err := ChunkRecv(&wire, io.Discard, 2, &got); err != nil {
		t.Fatalf("ChunkRecv: %v", err)
	}
	if got.Label != "batch-7" || len(got.Regions) != 5 {
		t.Fatalf("got = %+v", got)
	}
	for i, r := range got.Regions {
		if r != int32(i+1) {
			t.Errorf("Regions[%d] = %d, want %d", i, r, i+1)
		}
	}
}

func TestChunkSendRecvSmallPayloadNoAcks(t *testing.T) {
	var wire bytes.Buffer
	send := payload{Regions: []int32{9}, Label: "x"}

	if err := ChunkSend(&wire, nil, send, 1<<20, 10); err != nil {
		t.Fatalf("ChunkSend: %v", err)
	}

	var got payload
	if err := ChunkRecv(&wire, io.Discard, 10, &got); err != nil {
		t.Fatalf("ChunkRecv: %v", err)
	}
	if got.Label != "x" || len(got.Regions) != 1 || got.Regions[0] != 9 {
		t.Fatalf("got = %+v", got)
	}
}
