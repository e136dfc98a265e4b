// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package token

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// DefaultDecimals is the number of fractional digits of the destination
// token
const DefaultDecimals int32 = 6

var ErrInvalidAmountString = errors.New("invalid amount string")

// FormatAmount renders base units as a fixed-point decimal string
func FormatAmount(amount uint64, decimals int32) string {
	d := decimal.NewFromUint64(amount).Shift(-decimals)
	return d.StringFixed(decimals)
}

// ParseAmount converts a decimal string to base units. Values with more
// fractional digits than decimals, negative values and values that do not
// fit in 64 bits are rejected.
func ParseAmount(s string, decimals int32) (uint64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidAmountString, err)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("%w: negative amount", ErrInvalidAmountString)
	}
	units := d.Shift(decimals)
	if !units.Equal(units.Truncate(0)) {
		return 0, fmt.Errorf(
			"%w: more than %d fractional digits",
			ErrInvalidAmountString,
			decimals,
		)
	}
	if units.GreaterThan(decimal.NewFromUint64(math.MaxUint64)) {
		return 0, fmt.Errorf("%w: amount too large", ErrInvalidAmountString)
	}
	return units.BigInt().Uint64(), nil
}
