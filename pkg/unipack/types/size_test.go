package types_test

import (
	"testing"

	"github.com/jamesainslie/unipack/pkg/unipack/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSize(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr error
	}{
		{in: "0", want: 0},
		{in: "1024", want: 1024},
		{in: "512B", want: 512},
		{in: "100K", want: 100 * types.KiB},
		{in: "100kb", want: 100 * types.KiB},
		{in: "1.5MiB", want: types.MiB + types.MiB/2},
		{in: " 2 GB ", want: 2 * types.GiB},
		{in: "1T", want: types.TiB},
		{in: "", wantErr: types.ErrInvalidSize},
		{in: "-5M", wantErr: types.ErrNegativeSize},
		{in: "12X", wantErr: types.ErrInvalidSize},
		{in: "M", wantErr: types.ErrInvalidSize},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := types.ParseSize(tt.in)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "0 B", types.FormatSize(0))
	assert.Equal(t, "1.0 KiB", types.FormatSize(1024))
	assert.Equal(t, "1.5 MiB", types.FormatSize(types.MiB+types.MiB/2))
	assert.Equal(t, "-2.0 KiB", types.FormatSize(-2048))
}

func TestFormatCount(t *testing.T) {
	assert.Equal(t, "1,234,567", types.FormatCount(1234567))
}

func TestUnits(t *testing.T) {
	assert.Equal(t, int64(1024), types.KiB)
	assert.Equal(t, int64(1024*1024), types.MiB)
	assert.Equal(t, int64(1024*1024*1024), types.GiB)
}
