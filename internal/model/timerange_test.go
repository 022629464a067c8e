package model_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/confbook/booking-service/internal/model"
)

func at(hour, min int) time.Time {
	return time.Date(2024, 7, 15, hour, min, 0, 0, time.UTC)
}

func TestTimeRange_Overlaps(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		a, b model.TimeRange
		want bool
	}{
		{
			name: "partial overlap",
			a:    model.TimeRange{Start: at(10, 0), End: at(11, 0)},
			b:    model.TimeRange{Start: at(10, 30), End: at(11, 30)},
			want: true,
		},
		{
			name: "containment",
			a:    model.TimeRange{Start: at(9, 0), End: at(17, 0)},
			b:    model.TimeRange{Start: at(10, 0), End: at(11, 0)},
			want: true,
		},
		{
			name: "adjacent ranges do not overlap",
			a:    model.TimeRange{Start: at(9, 0), End: at(10, 0)},
			b:    model.TimeRange{Start: at(10, 0), End: at(11, 0)},
			want: false,
		},
		{
			name: "disjoint",
			a:    model.TimeRange{Start: at(9, 0), End: at(10, 0)},
			b:    model.TimeRange{Start: at(14, 0), End: at(15, 0)},
			want: false,
		},
		{
			name: "identical",
			a:    model.TimeRange{Start: at(9, 0), End: at(10, 0)},
			b:    model.TimeRange{Start: at(9, 0), End: at(10, 0)},
			want: true,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, tt.a.Overlaps(tt.b))
			// the predicate is symmetric
			require.Equal(t, tt.want, tt.b.Overlaps(tt.a))
		})
	}
}

func TestTimeRange_Contains(t *testing.T) {
	t.Parallel()
	r := model.TimeRange{Start: at(10, 0), End: at(11, 0)}

	require.True(t, r.Contains(at(10, 0)), "start is inside")
	require.True(t, r.Contains(at(10, 30)))
	require.False(t, r.Contains(at(11, 0)), "end is outside")
	require.False(t, r.Contains(at(9, 59)))
}

func TestTimeRange_IsValid(t *testing.T) {
	t.Parallel()
	require.True(t, model.TimeRange{Start: at(9, 0), End: at(10, 0)}.IsValid())
	require.False(t, model.TimeRange{Start: at(10, 0), End: at(10, 0)}.IsValid())
	require.False(t, model.TimeRange{Start: at(11, 0), End: at(10, 0)}.IsValid())
}
