package pset

import (
	"fmt"
	"strconv"
	"strings"
)

// FragmentHeader is the import line that precedes rendered fragments.
const FragmentHeader = "import FWCore.ParameterSet.Config as cms\n"

// Fragment renders the set as a cms.ESProducer configuration fragment:
//
//	trackCounting3D1st = cms.ESProducer("TrackCountingESProducer",
//	    impactParameterType = cms.int32(0),
//	    ...
//	)
func (s Set) Fragment() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s = cms.ESProducer(%s", s.Label, strconv.Quote(s.Plugin))
	if len(s.Entries) == 0 {
		b.WriteString(")\n")
		return b.String()
	}
	b.WriteString(",\n")
	for i, e := range s.Entries {
		fmt.Fprintf(&b, "    %s = cms.%s(%s)", e.Name, e.Value.Type(), Literal(e.Value))
		if i < len(s.Entries)-1 {
			b.WriteByte(',')
		}
		b.WriteByte('\n')
	}
	b.WriteString(")\n")
	return b.String()
}

// Literal renders a value the way it is written in a configuration file.
// Doubles always carry a decimal point or exponent.
func Literal(v Value) string {
	switch val := v.(type) {
	case String:
		return strconv.Quote(string(val))
	case Double:
		text := val.Text()
		if !strings.ContainsAny(text, ".eE") {
			text += ".0"
		}
		return text
	default:
		return v.Text()
	}
}
