package model

import (
	"bytes"
	"strconv"
)

// Legacy authoring clients send numeric fields as either JSON numbers or
// quoted strings ("10", "2.5"). FlexInt and FlexFloat absorb that at the
// schema boundary with a single explicit policy: numbers and numeric strings
// parse, everything else (null, empty, garbage) becomes zero. Logic further
// in never coerces.

// FlexInt is an int that unmarshals from a JSON number or numeric string.
type FlexInt int

func (f *FlexInt) UnmarshalJSON(b []byte) error {
	*f = FlexInt(parseFlex(b))
	return nil
}

// FlexFloat is a float64 that unmarshals from a JSON number or numeric string.
type FlexFloat float64

func (f *FlexFloat) UnmarshalJSON(b []byte) error {
	*f = FlexFloat(parseFlex(b))
	return nil
}

func parseFlex(b []byte) float64 {
	s := string(bytes.Trim(bytes.TrimSpace(b), `"`))
	if s == "" || s == "null" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
