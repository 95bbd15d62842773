package textnorm

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	rangeSep   = regexp.MustCompile(`[-~]`)
	tenThousds = regexp.MustCompile(`([\d.]+)万`)
	firstInt   = regexp.MustCompile(`(\d+)`)
)

// ParsePrice reads a price given as a number, a string with currency
// symbols and separators, or a range ("12.5-18", "3~5"); ranges yield the
// lower bound. Anything unparseable is 0.
func ParsePrice(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case float32:
		return float64(x)
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case json.Number:
		f, _ := x.Float64()
		return f
	case string:
		s := strings.NewReplacer("¥", "", "￥", "", ",", "", " ", "").Replace(x)
		s = strings.TrimSpace(rangeSep.Split(s, 2)[0])
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0
		}
		return f
	default:
		return 0
	}
}

// ParseSales reads a sales count given as a number, "1234笔" or the
// ten-thousand abbreviation "5.2万".
func ParseSales(v any) int {
	switch x := v.(type) {
	case int:
		return x
	case int64:
		return int(x)
	case float64:
		return int(x)
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return int(n)
		}
		f, _ := x.Float64()
		return int(f)
	case string:
		s := strings.NewReplacer(",", "", " ", "").Replace(x)
		if m := tenThousds.FindStringSubmatch(s); m != nil {
			f, err := strconv.ParseFloat(m[1], 64)
			if err == nil {
				return int(math.Round(f * 10000))
			}
		}
		if m := firstInt.FindStringSubmatch(s); m != nil {
			n, _ := strconv.Atoi(m[1])
			return n
		}
		return 0
	default:
		return 0
	}
}

// FirstInt returns the first run of digits in s, or fallback.
func FirstInt(s string, fallback int) int {
	if m := firstInt.FindStringSubmatch(s); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return n
		}
	}
	return fallback
}

// RatingFromPercent maps a repurchase rate like "33%" onto a 0-10 scale (3.3).
func RatingFromPercent(v any) float64 {
	s, ok := v.(string)
	if !ok || !strings.Contains(s, "%") {
		return 0
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(strings.ReplaceAll(s, "%", "")), 64)
	if err != nil {
		return 0
	}
	return f / 10
}

// AbsoluteURL adds the https scheme to protocol-relative URLs.
func AbsoluteURL(u string) string {
	u = strings.TrimSpace(u)
	if u == "" || strings.HasPrefix(u, "http") {
		return u
	}
	if strings.HasPrefix(u, "//") {
		return "https:" + u
	}
	return "https://" + u
}
