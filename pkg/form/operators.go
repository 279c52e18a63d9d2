package form

import (
	"strconv"
	"strings"
	"time"
)

// Eligibility labels.
const (
	Eligible    = "Eligible"
	NotEligible = "Not Eligible"
)

const eligibilityAge = 18

// formula computes a derived value from the values found under its needles,
// passed in needle order.
type formula struct {
	needles []string
	eval    func(in []Value, today time.Time) Value
}

var formulas = map[CalculationType]formula{
	CalcAge: {
		needles: []string{NeedleDateOfBirth},
		eval:    calcAge,
	},
	CalcFullName: {
		needles: []string{NeedleFirstName, NeedleLastName},
		eval:    calcFullName,
	},
	CalcTotalCost: {
		needles: []string{NeedleQuantity, NeedleUnitPrice},
		eval:    calcTotalCost,
	},
	CalcBMI: {
		needles: []string{NeedleWeight, NeedleHeight},
		eval:    calcBMI,
	},
	CalcDaysUntilEvent: {
		needles: []string{NeedleEventDate},
		eval:    calcDaysUntilEvent,
	},
	CalcEligibilityStatus: {
		needles: []string{NeedleAge},
		eval:    calcEligibility,
	},
}

// Needles returns the label fragments the calculation type reads from.
func Needles(c CalculationType) []string {
	f, ok := formulas[c]
	if !ok {
		return nil
	}
	return append([]string(nil), f.needles...)
}

// empty is the result of a formula whose inputs are absent.
var empty = StringValue("")

// calcAge returns whole years since the birth date, clamped at zero.
// A missing or unparseable birth date yields the empty result.
func calcAge(in []Value, today time.Time) Value {
	birth, ok := in[0].AsDate()
	if !ok {
		return empty
	}
	return NumberValue(float64(wholeYears(birth, today)))
}

// calcFullName joins first and last name with one space.
func calcFullName(in []Value, _ time.Time) Value {
	first, last := in[0].Text(), in[1].Text()
	if first == "" && last == "" {
		return empty
	}
	return StringValue(strings.TrimSpace(first + " " + last))
}

// calcTotalCost multiplies quantity by unit price. Absent or non-numeric
// inputs count as zero, so the result is always a two-decimal amount.
func calcTotalCost(in []Value, _ time.Time) Value {
	quantity, _ := in[0].AsNumber()
	price, _ := in[1].AsNumber()
	return StringValue(fixed2(quantity * price))
}

// calcBMI divides weight by height squared when both are positive.
func calcBMI(in []Value, _ time.Time) Value {
	weight, _ := in[0].AsNumber()
	height, _ := in[1].AsNumber()
	if weight <= 0 || height <= 0 {
		return empty
	}
	return StringValue(fixed2(weight / (height * height)))
}

// calcDaysUntilEvent counts days from today's midnight to the event date,
// rounding partial days up. Past events are negative.
func calcDaysUntilEvent(in []Value, today time.Time) Value {
	event, ok := in[0].AsDate()
	if !ok {
		return empty
	}
	return NumberValue(float64(daysUntil(event, today)))
}

// calcEligibility compares the age input with the adult threshold.
// Zero is a number and is judged; a blank or non-numeric age is not, and
// yields the empty string rather than NotEligible.
func calcEligibility(in []Value, _ time.Time) Value {
	age, ok := in[0].AsNumber()
	if !ok {
		return empty
	}
	if age >= eligibilityAge {
		return StringValue(Eligible)
	}
	return StringValue(NotEligible)
}

// fixed2 formats n with exactly two decimals. Negative zero prints as zero.
func fixed2(n float64) string {
	if n == 0 {
		n = 0
	}
	return strconv.FormatFloat(n, 'f', 2, 64)
}
