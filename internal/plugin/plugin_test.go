package plugin

import "errors"

// fakeHost is a minimal Host for driving the manager in tests.
type fakeHost struct {
	moves       uint64
	accepted    uint64
	samples     uint64
	saveAs      string
	checkpoints int
}

func (h *fakeHost) NumMoves() uint64           { return h.moves }
func (h *fakeHost) NumAcceptedMoves() uint64   { return h.accepted }
func (h *fakeHost) IndependentSamples() uint64 { return h.samples }
func (h *fakeHost) Checkpoint()                { h.checkpoints++ }
func (h *fakeHost) SaveAs() string             { return h.saveAs }

// fakeSystem counts consistency checks and can be made to fail them.
type fakeSystem struct {
	verified  int
	verifyErr error
}

func (s *fakeSystem) VerifyEnergy() error {
	s.verified++
	return s.verifyErr
}

var errEnergyMismatch = errors.New("energy mismatch")

// recordingPlugin records every call it receives and answers with
// configurable results.
type recordingPlugin struct {
	action Action
	period TimeToRun

	runs  int
	logs  int
	saves int
}

func (p *recordingPlugin) Run(Host, System) Action { p.runs++; return p.action }
func (p *recordingPlugin) RunPeriod() TimeToRun    { return p.period }
func (p *recordingPlugin) Save(Host, System)       { p.saves++ }
func (p *recordingPlugin) Log(Host, System)        { p.logs++ }
