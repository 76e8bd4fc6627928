// Package metrics exposes sync counters. Components take a Recorder and
// default to NoopRecorder when metrics.listen is unset.
package metrics

// Recorder receives sync and session events.
type Recorder interface {
	IncDialFailure()
	IncSession()
	SetConnected(connected bool)
	IncSent()
	IncReceived()
	IncApplied()
	IncEcho()
	IncMalformed()
	IncMailboxDropped()
	IncWriteFailure()
	SetIndicator(on bool)
}

// NoopRecorder is a Recorder that does nothing.
type NoopRecorder struct{}

func (NoopRecorder) IncDialFailure()    {}
func (NoopRecorder) IncSession()        {}
func (NoopRecorder) SetConnected(bool)  {}
func (NoopRecorder) IncSent()           {}
func (NoopRecorder) IncReceived()       {}
func (NoopRecorder) IncApplied()        {}
func (NoopRecorder) IncEcho()           {}
func (NoopRecorder) IncMalformed()      {}
func (NoopRecorder) IncMailboxDropped() {}
func (NoopRecorder) IncWriteFailure()   {}
func (NoopRecorder) SetIndicator(bool)  {}
