package analysis

// Rule is one entry of a scoring policy: when Applies holds for the input,
// the rule contributes Points and its Code is reported.
type Rule[T any] struct {
	Code        string
	Points      float64
	Explanation string
	Applies     func(T) bool
}

// Policy is an ordered rule table. Evaluation order only matters for First.
type Policy[T any] []Rule[T]

// Evaluate sums the points of every applicable rule and returns the rules that fired,
// in table order.
func (p Policy[T]) Evaluate(in T) (float64, []Rule[T]) {
	var total float64
	var fired []Rule[T]
	for _, r := range p {
		if r.Applies(in) {
			total += r.Points
			fired = append(fired, r)
		}
	}
	return total, fired
}

// First returns the first applicable rule.
func (p Policy[T]) First(in T) (Rule[T], bool) {
	for _, r := range p {
		if r.Applies(in) {
			return r, true
		}
	}
	return Rule[T]{}, false
}

// Codes lists the codes of the given rules.
func Codes[T any](rules []Rule[T]) []string {
	codes := make([]string, 0, len(rules))
	for _, r := range rules {
		codes = append(codes, r.Code)
	}
	return codes
}

// Band maps a value to points: the first band whose threshold is exceeded wins.
// Bands must be ordered from most to least severe.
type Band struct {
	Threshold float64
	Points    float64
}

// bandAbove returns the points of the highest band with value > threshold.
func bandAbove(value float64, bands []Band) float64 {
	for _, b := range bands {
		if value > b.Threshold {
			return b.Points
		}
	}
	return 0
}

// bandBelow returns the points of the first band with value < threshold.
func bandBelow(value float64, bands []Band) float64 {
	for _, b := range bands {
		if value < b.Threshold {
			return b.Points
		}
	}
	return 0
}
