package recognizer

import (
	"errors"
	"fmt"
	"io"
	"os"
	"testing"
)

func TestIsStreamClosed(t *testing.T) {
	closed := []error{
		io.EOF,
		io.ErrClosedPipe,
		os.ErrClosed,
		fmt.Errorf("read |0: %w", os.ErrClosed),
	}
	for _, err := range closed {
		if !IsStreamClosed(err) {
			t.Fatalf("expected %v to be a stream-closed error", err)
		}
	}
	if IsStreamClosed(errors.New("permission denied")) {
		t.Fatal("unexpected stream-closed classification")
	}
}
