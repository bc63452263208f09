package market

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"strategy-sim-go/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bar(day int, close float64) domain.Bar {
	return domain.Bar{
		Date:  time.Date(2024, time.January, day, 0, 0, 0, 0, time.UTC),
		Open:  close,
		High:  close + 1,
		Low:   close - 1,
		Close: close,
	}
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name        string
		bars        []domain.Bar
		expectIndex int
		expectError bool
	}{
		{name: "Valid series", bars: []domain.Bar{bar(1, 10), bar(2, 11), bar(3, 12)}},
		{name: "Empty series", bars: nil, expectError: true, expectIndex: -1},
		{name: "Duplicate date", bars: []domain.Bar{bar(1, 10), bar(1, 11)}, expectError: true, expectIndex: 1},
		{name: "Unsorted", bars: []domain.Bar{bar(2, 10), bar(1, 11)}, expectError: true, expectIndex: 1},
		{name: "Non-positive close", bars: []domain.Bar{bar(1, 10), {Date: bar(2, 0).Date, Open: 1, High: 2, Low: 1, Close: 0}}, expectError: true, expectIndex: 1},
		{name: "Infinite volume", bars: []domain.Bar{bar(1, 10), {Date: bar(2, 0).Date, Open: 1, High: 2, Low: 1, Close: 1, Volume: math.Inf(1)}}, expectError: true, expectIndex: 1},
		{name: "Missing date", bars: []domain.Bar{{Open: 1, High: 1, Low: 1, Close: 1}}, expectError: true, expectIndex: 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.bars)
			if !tc.expectError {
				assert.NoError(t, err)
				return
			}
			var inputErr *domain.InvalidInputError
			require.True(t, errors.As(err, &inputErr))
			assert.Equal(t, tc.expectIndex, inputErr.Index)
		})
	}
}

func TestReadCSV(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		data := "Date,Open,High,Low,Close,Adj Close,Volume\n" +
			"2024-01-02,100,105,99,104,104,1500\n" +
			"2024-01-03,104,106,101,102,102,1200\n"

		bars, err := ReadCSV(strings.NewReader(data))
		require.NoError(t, err)
		require.Len(t, bars, 2)
		assert.Equal(t, 104.0, bars[0].Close)
		assert.Equal(t, 1200.0, bars[1].Volume)
		assert.Equal(t, time.Date(2024, time.January, 3, 0, 0, 0, 0, time.UTC), bars[1].Date)
		assert.NoError(t, Validate(bars))
	})

	t.Run("MissingColumn", func(t *testing.T) {
		_, err := ReadCSV(strings.NewReader("Date,Open,High,Low,Close\n2024-01-02,1,1,1,1\n"))
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "volume")
	})

	t.Run("BadNumber", func(t *testing.T) {
		_, err := ReadCSV(strings.NewReader("date,open,high,low,close,volume\n2024-01-02,1,x,1,1,1\n"))
		var inputErr *domain.InvalidInputError
		require.True(t, errors.As(err, &inputErr))
		assert.Equal(t, 0, inputErr.Index)
	})
}

func TestWriteCSV(t *testing.T) {
	bars := []domain.Bar{bar(2, 100.5), bar(3, 101.25)}
	bars[1].Volume = 1500

	var buf strings.Builder
	require.NoError(t, WriteCSV(&buf, bars))
	assert.Equal(t, "Date,Open,High,Low,Close,Volume\n"+
		"2024-01-02,100.5,101.5,99.5,100.5,0\n"+
		"2024-01-03,101.25,102.25,100.25,101.25,1500\n", buf.String())

	back, err := ReadCSV(strings.NewReader(buf.String()))
	require.NoError(t, err)
	assert.Equal(t, bars, back)
}
