// Package format renders token metrics as display strings. Missing values
// render as "N/A" (or "0" / "$0" for the safe variants) so downstream
// consumers never see empty fields.
package format

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	smallThreshold = 0.001
	largeThreshold = 1000
)

var suffixes = []string{"", "K", "M", "B", "T"}

// FormatTimestamp converts a Unix timestamp in seconds to
// "YYYY-MM-DD HH:MM:SS". Zero and negative timestamps render as "N/A".
func FormatTimestamp(unixSeconds int64) string {
	if unixSeconds <= 0 {
		return "N/A"
	}
	return time.Unix(unixSeconds, 0).Format("2006-01-02 15:04:05")
}

// FormatTokenAmount converts an amount in the token's smallest unit to
// standard units and applies magnitude suffixes.
func FormatTokenAmount(amountRaw string, decimals int, suffixPrecision int) string {
	amountRaw = strings.TrimSpace(amountRaw)
	if amountRaw == "" {
		return "N/A"
	}
	if decimals < 0 || decimals > 30 {
		decimals = 18
	}

	// Strip grouping characters before parsing
	normalized := nonDigitPattern.ReplaceAllString(amountRaw, "")
	if normalized == "" || normalized == "-" {
		return "N/A"
	}

	raw, err := decimal.NewFromString(normalized)
	if err != nil {
		return "N/A"
	}
	standard := raw.Shift(int32(-decimals))
	return FormatNumberSuffix(standard.InexactFloat64(), suffixPrecision)
}

var nonDigitPattern = regexp.MustCompile(`[^\d-]`)

// FormatLargeNumber renders a number with thousands separators and a fixed
// number of decimal places.
func FormatLargeNumber(num float64, precision int) string {
	if math.IsNaN(num) || math.IsInf(num, 0) {
		return "N/A"
	}
	return withSeparators(num, precision)
}

// FormatCurrency renders a USD value. Zero renders as "$0.00", values below
// 0.001 use the compact zero-count notation ($0.0{N}XXX), values from 0.001
// to 1000 use separators with two decimals, and larger values use magnitude
// suffixes. Nil renders as "N/A".
func FormatCurrency(num *float64) string {
	if num == nil {
		return "N/A"
	}
	n := *num
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return "N/A"
	}

	abs := math.Abs(n)
	sign := ""
	if n < 0 {
		sign = "-"
	}

	switch {
	case n == 0:
		return "$0.00"
	case abs < smallThreshold:
		return sign + compactSmall(abs)
	case abs >= largeThreshold:
		return "$" + FormatNumberSuffix(n, 1)
	default:
		return "$" + withSeparators(n, 2)
	}
}

// compactSmall renders a sub-0.001 value as $0.0{N}XXX where N counts the
// leading zeros after the decimal point and XXX keeps three significant
// digits.
func compactSmall(abs float64) string {
	s := strconv.FormatFloat(abs, 'f', 30, 64)
	idx := strings.IndexByte(s, '.')
	if idx < 0 {
		return "$0.00"
	}
	frac := s[idx+1:]
	zeroCount := 0
	firstNonZero := -1
	for i := 0; i < len(frac); i++ {
		if frac[i] == '0' {
			zeroCount++
		} else {
			firstNonZero = i
			break
		}
	}
	if firstNonZero < 0 {
		return "$0.00"
	}
	end := firstNonZero + 3
	if end > len(frac) {
		end = len(frac)
	}
	return fmt.Sprintf("$0.0{%d}%s", zeroCount, frac[firstNonZero:end])
}

// FormatNumberSuffix formats a number using K/M/B/T magnitude suffixes.
// Values of one trillion and above always use the T suffix, so a
// quadrillion renders as "1,000.0T".
func FormatNumberSuffix(num float64, suffixPrecision int) string {
	return formatNumberSuffix(num, suffixPrecision, 2, 6)
}

func formatNumberSuffix(num float64, suffixPrecision, standardPrecision, smallPrecision int) string {
	if math.IsNaN(num) || math.IsInf(num, 0) {
		return "N/A"
	}
	abs := math.Abs(num)

	switch {
	case abs < 2.220446049250313e-16:
		return withSeparators(num, standardPrecision)
	case abs < 1:
		return withSeparators(num, smallPrecision)
	case abs < largeThreshold:
		return withSeparators(num, standardPrecision)
	case abs >= 1e12:
		return withSeparators(num/1e12, suffixPrecision) + "T"
	default:
		magnitude := int(math.Floor(math.Log10(abs) / 3))
		if magnitude > 4 {
			magnitude = 4
		}
		divisor := math.Pow(1000, float64(magnitude))
		return withSeparators(num/divisor, suffixPrecision) + suffixes[magnitude]
	}
}

// FormatCurrencySuffix formats a USD value with magnitude suffixes. Values
// under 1000 keep two decimals with no separator.
func FormatCurrencySuffix(value float64, precision int) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return "N/A"
	}

	abs := math.Abs(value)
	sign := ""
	if value < 0 {
		sign = "-"
	}

	switch {
	case abs < 1e3:
		return fmt.Sprintf("%s$%.2f", sign, abs)
	case abs < 1e6:
		return fmt.Sprintf("%s$%.*fK", sign, precision, abs/1e3)
	case abs < 1e9:
		return fmt.Sprintf("%s$%.*fM", sign, precision, abs/1e6)
	case abs < 1e12:
		return fmt.Sprintf("%s$%.*fB", sign, precision, abs/1e9)
	default:
		return fmt.Sprintf("%s$%.*fT", sign, precision, abs/1e12)
	}
}

// SafeCurrencySuffix is the nil-tolerant variant of FormatCurrencySuffix.
// Nil and non-finite values render as "$0".
func SafeCurrencySuffix(value *float64, precision int) string {
	if value == nil || math.IsNaN(*value) || math.IsInf(*value, 0) {
		return "$0"
	}
	return FormatCurrencySuffix(*value, precision)
}

// SafeNumberSuffix is the nil-tolerant variant of FormatNumberSuffix.
// Nil and non-finite values render as "0".
func SafeNumberSuffix(value *float64, precision int) string {
	if value == nil || math.IsNaN(*value) || math.IsInf(*value, 0) {
		return "0"
	}
	return FormatNumberSuffix(*value, precision)
}

// FormatPercentage renders a percentage value such as "12.34%". Nil renders
// as "N/A".
func FormatPercentage(value *float64, decimals int) string {
	if value == nil || math.IsNaN(*value) || math.IsInf(*value, 0) {
		return "N/A"
	}
	return strconv.FormatFloat(*value, 'f', decimals, 64) + "%"
}

var countSuffixPattern = regexp.MustCompile(`[KMBTkmbt]`)

// ProcessCountValue normalizes wallet and trade counts. Pre-formatted
// strings carrying a magnitude suffix pass through unchanged, values under
// 1000 are floored to integers, and larger values get a magnitude suffix.
func ProcessCountValue(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return "0"
	case string:
		if v == "" {
			return "0"
		}
		if countSuffixPattern.MatchString(v) {
			return v
		}
		parsed, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", ""), 64)
		if err != nil {
			return "0"
		}
		return formatCount(parsed)
	case float64:
		return formatCount(v)
	case float32:
		return formatCount(float64(v))
	case int:
		return formatCount(float64(v))
	case int64:
		return formatCount(float64(v))
	default:
		return "0"
	}
}

func formatCount(n float64) string {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return "0"
	}
	if n < largeThreshold {
		return strconv.FormatInt(int64(math.Floor(n)), 10)
	}
	return FormatNumberSuffix(n, 1)
}

// FormatUSD renders a plain USD amount with thousands separators and two
// decimals, no magnitude suffix. Nil renders as "N/A".
func FormatUSD(value *float64) string {
	if value == nil || math.IsNaN(*value) || math.IsInf(*value, 0) {
		return "N/A"
	}
	if *value < 0 {
		return "-$" + withSeparators(-*value, 2)
	}
	return "$" + withSeparators(*value, 2)
}

// MaskAddress shortens an address to its first and last four characters.
func MaskAddress(addr string) string {
	if len(addr) <= 8 {
		return addr
	}
	return addr[:4] + "..." + addr[len(addr)-4:]
}

// withSeparators renders a number with comma thousands separators and a
// fixed number of decimal places.
func withSeparators(num float64, precision int) string {
	if precision < 0 {
		precision = 0
	}
	s := strconv.FormatFloat(num, 'f', precision, 64)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart := s
	fracPart := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, fracPart = s[:i], s[i:]
	}

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, d := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	b.WriteString(fracPart)
	return b.String()
}
