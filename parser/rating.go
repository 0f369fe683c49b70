package parser

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	ratingTokenRe  = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?(\s*%)?`)
	ratingLiteral  = regexp.MustCompile(`^[0-5](?:\.[0-9]+)?$`)
	percentRe      = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*%`)
	integerRe      = regexp.MustCompile(`\d[\d,]*`)
	distributionRe = regexp.MustCompile(`(?i)([1-5])\s*(?:-?\s*stars?|★)`)
	asciiStarsRe   = regexp.MustCompile(`[*\-]+`)
)

// ParseRating converts rating text into a value on a 0-5 scale. The first rule
// that matches wins:
//
//  1. a numeric literal between 0 and 5 ("4.5 out of 5")
//  2. star glyphs, filled over total ("★★★☆☆" or "***--")
//  3. a percentage scaled to 5 ("90%")
//
// Anything else yields 0.
func ParseRating(text string) float64 {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}
	if v, ok := numericRating(text); ok {
		return clampRating(v)
	}
	if v, ok := glyphRating(text); ok {
		return clampRating(v)
	}
	if m := percentRe.FindStringSubmatch(text); m != nil {
		pct, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			return clampRating(math.Round(pct/20*100) / 100)
		}
	}
	return 0
}

// numericRating returns the first plain number in range. Percent tokens and
// thousands-grouped counts are not rating literals.
func numericRating(text string) (float64, bool) {
	for _, m := range ratingTokenRe.FindAllStringSubmatch(text, -1) {
		if m[1] != "" {
			continue
		}
		if !ratingLiteral.MatchString(m[0]) {
			continue
		}
		v, err := strconv.ParseFloat(m[0], 64)
		if err == nil {
			return v, true
		}
	}
	return 0, false
}

func glyphRating(text string) (float64, bool) {
	filled := strings.Count(text, "★")
	empty := strings.Count(text, "☆")
	if filled+empty == 0 {
		// Only the first contiguous */- run counts; other dashes are separators.
		for _, run := range asciiStarsRe.FindAllString(text, -1) {
			if n := strings.Count(run, "*"); n > 0 {
				filled, empty = n, len(run)-n
				break
			}
		}
		if filled == 0 {
			return 0, false
		}
	}
	total := filled + empty
	if total == 0 {
		return 0, false
	}
	return math.Round(float64(filled)*5/float64(total)*100) / 100, true
}

func clampRating(v float64) float64 {
	return math.Max(0, math.Min(5, v))
}

// ParseReviewCount extracts the first integer, ignoring thousands separators.
func ParseReviewCount(text string) int {
	token := integerRe.FindString(text)
	if token == "" {
		return 0
	}
	n, err := strconv.Atoi(strings.ReplaceAll(token, ",", ""))
	if err != nil {
		return 0
	}
	return n
}

// ParseRatingDistribution reads histogram rows such as "5 star 1,204" into a
// star -> count map. Rows that don't name a star level are skipped.
func ParseRatingDistribution(rows []string) map[int]int {
	out := make(map[int]int)
	for _, row := range rows {
		loc := distributionRe.FindStringSubmatchIndex(row)
		if loc == nil {
			continue
		}
		star, _ := strconv.Atoi(row[loc[2]:loc[3]])
		rest := row[:loc[0]] + " " + row[loc[1]:]
		tokens := integerRe.FindAllString(rest, -1)
		if len(tokens) == 0 {
			continue
		}
		n, err := strconv.Atoi(strings.ReplaceAll(tokens[len(tokens)-1], ",", ""))
		if err != nil {
			continue
		}
		out[star] = n
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
