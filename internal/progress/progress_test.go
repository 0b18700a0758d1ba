package progress

import "testing"

func TestDisabledReporterIsNoop(t *testing.T) {
	b := New(false)
	reporter := b.Reporter()
	reporter(0.5, "halfway")
	b.Finish("done")
}

func TestEnabledReporterAcceptsOutOfRangeFractions(t *testing.T) {
	b := New(true)
	reporter := b.Reporter()
	reporter(-1, "below zero")
	reporter(0, "start")
	reporter(0.42, "middle")
	reporter(1, "end")
	reporter(2, "above one")
	b.Finish("complete")
}
