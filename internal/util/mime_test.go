package util

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSniffMIME(t *testing.T) {
	t.Parallel()

	t.Run("png header is detected and replayed", func(t *testing.T) {
		payload := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 1024)...)

		mimeType, r, err := SniffMIME(bytes.NewReader(payload))
		require.NoError(t, err)
		require.Equal(t, "image/png", mimeType)

		replayed, err := io.ReadAll(r)
		require.NoError(t, err)
		require.Equal(t, payload, replayed)
	})

	t.Run("short text input", func(t *testing.T) {
		mimeType, r, err := SniffMIME(strings.NewReader("hello"))
		require.NoError(t, err)
		require.Equal(t, "text/plain; charset=utf-8", mimeType)

		replayed, err := io.ReadAll(r)
		require.NoError(t, err)
		require.Equal(t, "hello", string(replayed))
	})

	t.Run("empty input", func(t *testing.T) {
		mimeType, _, err := SniffMIME(strings.NewReader(""))
		require.NoError(t, err)
		require.Equal(t, "text/plain; charset=utf-8", mimeType)
	})
}

func TestIsUploadableImageMIME(t *testing.T) {
	t.Parallel()

	require.True(t, IsUploadableImageMIME("image/png"))
	require.True(t, IsUploadableImageMIME(" IMAGE/JPEG "))
	require.True(t, IsUploadableImageMIME("image/webp; q=1"))
	require.False(t, IsUploadableImageMIME("image/svg+xml"))
	require.False(t, IsUploadableImageMIME("text/plain; charset=utf-8"))

	require.Equal(t, ".jpg", ExtensionForMIME("image/jpeg"))
	require.Equal(t, "", ExtensionForMIME("application/pdf"))
}

func TestIsImageExtension(t *testing.T) {
	t.Parallel()

	require.True(t, IsImageExtension(".png"))
	require.True(t, IsImageExtension(".jfif"))
	require.True(t, IsImageExtension(" .JPEG "))
	require.False(t, IsImageExtension(".svg"))
	require.False(t, IsImageExtension(".pdf"))
	require.False(t, IsImageExtension(""))
}
