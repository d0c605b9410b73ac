package population

import (
	"math"
	"strings"
)

// Family is the closed set of population shapes the lab can generate
type Family int

const (
	Normal Family = iota
	Uniform
	RightSkewed
	LeftSkewed
	Bimodal
	UShape

	familyCount
)

// DefaultSize is the number of values in every generated population
const DefaultSize = 100_000

type familyInfo struct {
	name  string
	slug  string
	mean  float64
	sd    float64
	blurb string
}

var families = [familyCount]familyInfo{
	Normal: {
		name: "Normal", slug: "normal",
		mean: 50, sd: 15,
		blurb: "Gaussian with mean 50 and standard deviation 15",
	},
	Uniform: {
		name: "Uniform", slug: "uniform",
		mean: 50, sd: 100 / math.Sqrt(12),
		blurb: "every value in [0, 100] equally likely",
	},
	RightSkewed: {
		name: "Right Skewed", slug: "right-skewed",
		mean: 20, sd: 20,
		blurb: "exponential with mean 20, long right tail",
	},
	LeftSkewed: {
		name: "Left Skewed", slug: "left-skewed",
		mean: 80, sd: 20,
		blurb: "100 minus an exponential with mean 20, long left tail",
	},
	Bimodal: {
		name: "Bimodal", slug: "bimodal",
		mean: 50, sd: math.Sqrt(650),
		blurb: "half N(25, 5) and half N(75, 5)",
	},
	UShape: {
		name: "U-Shape", slug: "u-shape",
		mean: 50, sd: 100 * math.Sqrt(0.04/(0.16*1.4)),
		blurb: "100 x Beta(0.2, 0.2), mass piled at both ends",
	},
}

// All returns every family in display order
func All() []Family {
	out := make([]Family, 0, familyCount)
	for f := Family(0); f < familyCount; f++ {
		out = append(out, f)
	}
	return out
}

// Count is the number of families in the enumeration
func Count() int { return int(familyCount) }

// Valid reports whether f is a member of the enumeration
func (f Family) Valid() bool {
	return f >= 0 && f < familyCount
}

// String returns the display name, e.g. "Right Skewed"
func (f Family) String() string {
	if !f.Valid() {
		return "Unknown"
	}
	return families[f].name
}

// Slug returns the URL-safe tag, e.g. "right-skewed"
func (f Family) Slug() string {
	if !f.Valid() {
		return ""
	}
	return families[f].slug
}

// Description is a one-line explanation shown next to the family
func (f Family) Description() string {
	if !f.Valid() {
		return ""
	}
	return families[f].blurb
}

// TheoreticalMean is the mean of the generating distribution
func (f Family) TheoreticalMean() float64 {
	return families[f.OrDefault()].mean
}

// TheoreticalStdDev is the standard deviation of the generating distribution
func (f Family) TheoreticalStdDev() float64 {
	return families[f.OrDefault()].sd
}

// OrDefault maps values outside the enumeration to Normal
func (f Family) OrDefault() Family {
	if !f.Valid() {
		return Normal
	}
	return f
}

// Parse resolves a display name or slug, ignoring case, spaces, dashes and underscores
func Parse(tag string) (Family, bool) {
	key := normalize(tag)
	if key == "" {
		return Normal, false
	}
	for f := Family(0); f < familyCount; f++ {
		if normalize(families[f].name) == key || normalize(families[f].slug) == key {
			return f, true
		}
	}
	return Normal, false
}

// ParseOrDefault resolves tag and falls back to Normal for anything unrecognized
func ParseOrDefault(tag string) Family {
	f, _ := Parse(tag)
	return f
}

// MarshalText encodes the family as its slug
func (f Family) MarshalText() ([]byte, error) {
	return []byte(f.OrDefault().Slug()), nil
}

// UnmarshalText decodes a slug or display name; unknown tags decode as Normal
func (f *Family) UnmarshalText(text []byte) error {
	*f = ParseOrDefault(string(text))
	return nil
}

func normalize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch r {
		case ' ', '-', '_', '\t':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
