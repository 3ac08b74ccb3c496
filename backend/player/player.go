package player

import (
	"github.com/harmonia-app/harmonia/backend/mediaprovider"
)

// The playback state (Stopped, Paused, or Playing).
type State int

const (
	Stopped State = iota
	Paused
	Playing
)

func (s State) String() string {
	switch s {
	case Playing:
		return "PLAYING"
	case Paused:
		return "PAUSED"
	default:
		return "STOPPED"
	}
}

// The current status of a playback engine.
type Status struct {
	State    State
	TimePos  float64
	Duration float64
}

// TrackPlayer is one of the two interchangeable playback engines behind the
// play queue. The engine that is not currently audible is kept preloaded with
// the upcoming track (via SetNextTrack) so the queue can crossfade into it.
type TrackPlayer interface {
	PlayTrack(track *mediaprovider.Track) error

	// SetNextTrack preloads the track that should begin playing when the
	// current one ends. A nil track clears any preloaded state.
	SetNextTrack(track *mediaprovider.Track) error

	Continue() error
	Pause() error
	Stop() error

	GetStatus() Status

	Destroy()

	// Event API
	OnFinished(func())
	OnPlaying(func())
	OnPaused(func())
	OnStopped(func())
}

// TrackPlayerCallbackImpl provides the callback registration boilerplate
// for TrackPlayer implementations.
type TrackPlayerCallbackImpl struct {
	onFinished func()
	onPlaying  func()
	onPaused   func()
	onStopped  func()
}

// Sets a callback which is invoked when the current track plays to completion.
func (p *TrackPlayerCallbackImpl) OnFinished(cb func()) {
	p.onFinished = cb
}

// Sets a callback which is invoked when the engine transitions to the Playing state.
func (p *TrackPlayerCallbackImpl) OnPlaying(cb func()) {
	p.onPlaying = cb
}

// Sets a callback which is invoked when the engine transitions to the Paused state.
func (p *TrackPlayerCallbackImpl) OnPaused(cb func()) {
	p.onPaused = cb
}

// Sets a callback which is invoked when the engine transitions to the Stopped state.
func (p *TrackPlayerCallbackImpl) OnStopped(cb func()) {
	p.onStopped = cb
}

func (p *TrackPlayerCallbackImpl) InvokeOnFinished() {
	if p.onFinished != nil {
		p.onFinished()
	}
}

func (p *TrackPlayerCallbackImpl) InvokeOnPlaying() {
	if p.onPlaying != nil {
		p.onPlaying()
	}
}

func (p *TrackPlayerCallbackImpl) InvokeOnPaused() {
	if p.onPaused != nil {
		p.onPaused()
	}
}

func (p *TrackPlayerCallbackImpl) InvokeOnStopped() {
	if p.onStopped != nil {
		p.onStopped()
	}
}
