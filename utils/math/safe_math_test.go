// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package math

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAdd(t *testing.T) {
	require := require.New(t)

	sum, err := Add[uint64](math.MaxUint64-1, 1)
	require.NoError(err)
	require.Equal(uint64(math.MaxUint64), sum)

	_, err = Add[uint64](math.MaxUint64, 1)
	require.ErrorIs(err, ErrOverflow)

	_, err = Add[uint8](200, 100)
	require.ErrorIs(err, ErrOverflow)
}

func TestSum(t *testing.T) {
	tests := []struct {
		name        string
		values      []uint64
		expected    uint64
		expectedErr error
	}{
		{
			name:     "empty",
			expected: 0,
		},
		{
			name:     "several",
			values:   []uint64{1, 2, 3, 4},
			expected: 10,
		},
		{
			name:        "overflow",
			values:      []uint64{math.MaxUint64, 0, 1},
			expectedErr: ErrOverflow,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require := require.New(t)

			total, err := Sum(test.values...)
			require.ErrorIs(err, test.expectedErr)
			require.Equal(test.expected, total)
		})
	}
}
