package text

import (
	"github.com/go-text/typesetting/di"
	"golang.org/x/text/unicode/bidi"
)

// firstRTL is the first code point of the Hebrew block. Text below it has
// no strong right-to-left characters.
const firstRTL = 0x0590

// visualRuns splits a line into directional runs in visual order.
func visualRuns(line []rune) []run {
	if !needsBidi(line) {
		return []run{{start: 0, end: len(line), dir: di.DirectionLTR}}
	}

	p := bidi.Paragraph{}
	if _, err := p.SetString(string(line)); err != nil {
		slogger().Debug("bidi fallback to LTR", "err", err)
		return []run{{start: 0, end: len(line), dir: di.DirectionLTR}}
	}
	ordering, err := p.Order()
	if err != nil {
		slogger().Debug("bidi fallback to LTR", "err", err)
		return []run{{start: 0, end: len(line), dir: di.DirectionLTR}}
	}

	runs := make([]run, 0, ordering.NumRuns())
	for i := 0; i < ordering.NumRuns(); i++ {
		r := ordering.Run(i)
		// Pos reports rune indices with an inclusive end.
		start, end := r.Pos()
		end++
		if start < 0 || end > len(line) || start >= end {
			continue
		}
		dir := di.DirectionLTR
		if r.Direction() == bidi.RightToLeft {
			dir = di.DirectionRTL
		}
		runs = append(runs, run{start: start, end: end, dir: dir})
	}
	if len(runs) == 0 {
		return []run{{start: 0, end: len(line), dir: di.DirectionLTR}}
	}
	return runs
}

func needsBidi(line []rune) bool {
	for _, r := range line {
		if r >= firstRTL {
			return true
		}
	}
	return false
}
