package cli

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadLine_TrimsAndSplits(t *testing.T) {
	r := NewNonBlockingReader(strings.NewReader("  2 urgent  \n\nfilter ignore\ndone"))
	ctx := context.Background()

	var lines []string
	for {
		line, err := r.ReadLine(ctx)
		if err != nil {
			require.ErrorIs(t, err, io.EOF)
			break
		}
		lines = append(lines, line)
	}

	assert.Equal(t, []string{"2 urgent", "", "filter ignore", "done"}, lines)
}

func TestReadLine_EmptyInput(t *testing.T) {
	_, err := NewNonBlockingReader(strings.NewReader("")).ReadLine(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestReadLine_CanceledBeforeRead(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewNonBlockingReader(strings.NewReader("1 urgent\n")).ReadLine(ctx)
	assert.ErrorIs(t, err, ErrInputCancelled)
}

func TestReadLine_CanceledWhileWaiting(t *testing.T) {
	pr, pw := io.Pipe()
	t.Cleanup(func() {
		_ = pw.Close()
		_ = pr.Close()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := NewNonBlockingReader(pr).ReadLine(ctx)
	assert.ErrorIs(t, err, ErrInputCancelled)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestNewNonBlockingReader_NilPanics(t *testing.T) {
	assert.Panics(t, func() { NewNonBlockingReader(nil) })
}
