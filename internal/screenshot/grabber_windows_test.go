//go:build windows

package screenshot

import (
	"testing"

	"cabalhelper/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateDIBPixels(t *testing.T) {
	screenDC, _, _ := procGetDC.Call(0)
	require.NotZero(t, screenDC)
	defer procReleaseDC.Call(0, screenDC)

	memDC, _, _ := procCreateCompatibleDC.Call(screenDC)
	require.NotZero(t, memDC)
	defer procDeleteDC.Call(memDC)

	hBitmap, pix, err := createDIB(memDC, 4, 3)
	require.NoError(t, err)
	defer procDeleteObject.Call(hBitmap)
	require.Len(t, pix, 4*4*3)

	// BGRA пиксель (1,2)
	stride := 4 * 4
	copy(pix[2*stride+4:], []byte{10, 20, 30, 0})

	img := cropBGRA(pix, stride, types.NewRect(1, 2, 2, 1))
	assert.Equal(t, []uint8{30, 20, 10, 255}, img.Pix[:4])
}
