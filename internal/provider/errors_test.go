package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"

	"atlantic-photo/internal/model"
)

type timeoutErr struct{ timeout bool }

func (e timeoutErr) Error() string   { return "net failure" }
func (e timeoutErr) Timeout() bool   { return e.timeout }
func (e timeoutErr) Temporary() bool { return false }

var _ net.Error = timeoutErr{}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "deadline", err: fmt.Errorf("post: %w", context.DeadlineExceeded), want: KindTimeout},
		{name: "net timeout", err: timeoutErr{timeout: true}, want: KindTimeout},
		{name: "net failure", err: &net.OpError{Op: "dial", Err: errors.New("connection refused")}, want: KindNetwork},
		{name: "other", err: errors.New("boom"), want: KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Classify("upload", tt.err)

			var perr *Error
			assert.ErrorAs(t, err, &perr)
			assert.Equal(t, tt.want, perr.Kind)
			assert.ErrorIs(t, err, model.ErrUpstreamProvider)
			assert.ErrorIs(t, err, tt.err)
		})
	}

	assert.NoError(t, Classify("upload", nil))

	already := providerError("delete", 500, errors.New("x"))
	assert.Same(t, already, Classify("upload", already))
}

func TestQRCode(t *testing.T) {
	png, err := QRCode("https://example.com/media/x.png", 0)
	assert.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), png[:4])
}
