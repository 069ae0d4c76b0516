// Package referral holds the pure parts of the referral tree: path
// construction, ancestor ordering, payout rates and code generation.
package referral

import (
	"strings"

	"github.com/shopspring/decimal"
)

// MaxDepth is the number of ancestor levels kept in a tree path and paid on claims.
const MaxDepth = 5

const separator = "."

var rewardRates = [MaxDepth]decimal.Decimal{
	decimal.RequireFromString("0.15"),
	decimal.RequireFromString("0.08"),
	decimal.RequireFromString("0.05"),
	decimal.RequireFromString("0.02"),
	decimal.RequireFromString("0.01"),
}

// Rate returns the share paid to the ancestor at level (1 = direct referrer).
// Levels outside 1..MaxDepth pay nothing.
func Rate(level int) decimal.Decimal {
	if level < 1 || level > MaxDepth {
		return decimal.Zero
	}
	return rewardRates[level-1]
}

// Segments splits a stored tree path, dropping empty segments.
func Segments(path string) []string {
	if path == "" {
		return nil
	}
	parts := strings.Split(path, separator)
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Ancestors returns the codes of a path ordered nearest ancestor first,
// capped at MaxDepth.
func Ancestors(path string) []string {
	segs := Segments(path)
	n := len(segs)
	if n > MaxDepth {
		n = MaxDepth
	}
	out := make([]string, 0, n)
	for i := len(segs) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, segs[i])
	}
	return out
}

// BuildTreePath returns the path for a user invited by referrerCode whose own
// path is referrerPath. The referrer's code is appended and the oldest
// ancestors drop off once the chain is longer than MaxDepth.
func BuildTreePath(referrerPath, referrerCode string) string {
	if referrerCode == "" {
		return ""
	}
	segs := append(Segments(referrerPath), referrerCode)
	if len(segs) > MaxDepth {
		segs = segs[len(segs)-MaxDepth:]
	}
	return strings.Join(segs, separator)
}
