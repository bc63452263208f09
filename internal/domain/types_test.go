package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStrategyName(t *testing.T) {
	testCases := []struct {
		input    string
		expected StrategyName
	}{
		{"MAC", MovingAverageCrossover},
		{"MovingAverageCrossover", MovingAverageCrossover},
		{"mt", Momentum},
		{"MeanReversion", MeanReversion},
		{" MR ", MeanReversion},
		{"Breakout", Breakout},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			name, err := ParseStrategyName(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, name)
		})
	}

	_, err := ParseStrategyName("Scalper")
	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "strategy", cfgErr.Field)
}

func TestParseRiskTolerance(t *testing.T) {
	rt, err := ParseRiskTolerance("moderate")
	require.NoError(t, err)
	assert.Equal(t, RiskModerate, rt)

	_, err = ParseRiskTolerance("Extreme")
	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Contains(t, err.Error(), "risk_tolerance")
}

func TestErrorMessages(t *testing.T) {
	err := &InsufficientDataError{Strategy: Breakout, Required: 55, Got: 10}
	assert.Equal(t, "insufficient data: Breakout needs at least 55 bars, got 10", err.Error())

	assert.Equal(t, "invalid input: bar series is empty", (&InvalidInputError{Index: -1, Reason: "bar series is empty"}).Error())
	assert.Equal(t, "invalid input: bar 3: close must be positive", (&InvalidInputError{Index: 3, Reason: "close must be positive"}).Error())
}

func TestYearMonthAndReasons(t *testing.T) {
	ym := YearMonthOf(time.Date(2024, time.March, 31, 23, 0, 0, 0, time.UTC))
	assert.Equal(t, "2024-03", ym.String())

	r := Reasons{Triggers: []string{"Trailing Stop", TriggerEndOfPeriod}}
	assert.True(t, r.Has(TriggerEndOfPeriod))
	assert.False(t, r.Has("Hard Stop"))
}

func TestTradeJSONKeepsBreakEvenProfit(t *testing.T) {
	sell := Trade{Action: ActionSell, Date: time.Date(2024, time.May, 2, 0, 0, 0, 0, time.UTC), Price: 100, Size: 1, EntryPrice: 100}
	data, err := json.Marshal(sell)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"profit_pct":0`)
}
