package quote

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mandacaru/erp-api/internal/httperr"
)

func TestComputeTotals(t *testing.T) {
	tests := []struct {
		name      string
		lines     []Line
		distance  float64
		rate      float64
		wantItems float64
		wantTrip  float64
		wantTotal float64
	}{
		{
			name:      "items plus displacement",
			lines:     []Line{{2, 50}, {1, 30}},
			distance:  10,
			rate:      3,
			wantItems: 130,
			wantTrip:  30,
			wantTotal: 160,
		},
		{
			name:      "fractional quantities round per line",
			lines:     []Line{{1.333, 3}, {0.5, 1}},
			distance:  12.5,
			rate:      3,
			wantItems: 4.5,
			wantTrip:  37.5,
			wantTotal: 42,
		},
		{
			name:      "no displacement",
			lines:     []Line{{1, 0}},
			distance:  0,
			rate:      3,
			wantItems: 0,
			wantTrip:  0,
			wantTotal: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeTotals(tt.lines, tt.distance, tt.rate)
			require.NoError(t, err)
			assert.Equal(t, tt.wantItems, got.ValorItens)
			assert.Equal(t, tt.wantTrip, got.CustoDeslocamento)
			assert.Equal(t, tt.wantTotal, got.ValorTotal)
			assert.Len(t, got.Subtotals, len(tt.lines))
		})
	}
}

func TestComputeTotalsRejectsInvalidInput(t *testing.T) {
	_, err := ComputeTotals([]Line{{0, 1}}, 0, 3)
	assert.True(t, httperr.IsBusiness(err, "invalid_item_quantity"))

	_, err = ComputeTotals([]Line{{1, -1}}, 0, 3)
	assert.True(t, httperr.IsBusiness(err, "invalid_item_price"))

	_, err = ComputeTotals(nil, -1, 3)
	assert.True(t, httperr.IsBusiness(err, "invalid_distance"))
}

func TestStatusGuards(t *testing.T) {
	assert.NoError(t, CanApprove(StatusPending))
	for _, s := range []Status{StatusApproved, StatusRejected, StatusConverted, StatusCancelled} {
		assert.Error(t, CanApprove(s), s)
		assert.Error(t, CanEdit(s), s)
	}
}
