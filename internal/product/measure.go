package product

import (
	"regexp"
	"strconv"
)

var digitGroups = regexp.MustCompile(`\d+`)

// Measure is the numeric reading of a display spec such as "80-100 KM".
type Measure struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Value float64 `json:"value"` // representative value used for bucketing
}

// ParseMeasure extracts the digit groups of s. Two or more groups form a range
// whose value is the mean of the first two; a single group is used as is; no
// groups reads as zero. Separators are not interpreted, so "2.000W" yields
// the groups 2 and 0.
func ParseMeasure(s string) Measure {
	groups := digitGroups.FindAllString(s, 2)
	nums := make([]float64, 0, len(groups))
	for _, g := range groups {
		n, err := strconv.ParseFloat(g, 64)
		if err != nil {
			continue
		}
		nums = append(nums, n)
	}

	switch len(nums) {
	case 0:
		return Measure{}
	case 1:
		return Measure{Min: nums[0], Max: nums[0], Value: nums[0]}
	default:
		return Measure{Min: nums[0], Max: nums[1], Value: (nums[0] + nums[1]) / 2}
	}
}
