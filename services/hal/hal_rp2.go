//go:build rp2040 || rp2350

package hal

import "ddscode-go/services/hal/internal/platform"

// NewBoard configures the board's DDS SPI bus at speedHz.
func NewBoard(speedHz uint32) (Registry, error) {
	reg, err := platform.NewBoard(speedHz)
	if err != nil {
		return nil, err
	}
	return reg, nil
}
