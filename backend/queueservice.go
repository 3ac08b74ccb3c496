package backend

import (
	"context"
	"fmt"
	"log"

	"github.com/harmonia-app/harmonia/backend/mediaprovider"
	"github.com/harmonia-app/harmonia/backend/player"
)

// QueueService orchestrates the queue mutations behind the media tile
// actions: play, add-to-queue-next, and add-to-queue-later. Each request runs
// the same sequence: resolve the collection to tracks, apply the user's
// filter rules, mutate the shared PlayQueue, then notify the user.
//
// All requests pass through a single worker goroutine, so two near
// simultaneous actions (e.g. a double-clicked play while an append is in
// flight) are applied one after the other instead of interleaving their
// resolve and mutate steps and losing an update.
type QueueService struct {
	sm       *ServerManager
	cfg      *Config
	queue    *PlayQueue
	notifier Notifier

	requests chan queueRequest
}

type queueRequest struct {
	ref  mediaprovider.CollectionRef
	mode InsertQueueMode
	done chan struct{}
}

func NewQueueService(ctx context.Context, sm *ServerManager, cfg *Config, queue *PlayQueue, notifier Notifier) *QueueService {
	s := &QueueService{
		sm:       sm,
		cfg:      cfg,
		queue:    queue,
		notifier: notifier,
		requests: make(chan queueRequest, 16),
	}
	go s.serve(ctx)
	return s
}

// PlayCollection resolves and filters ref, then replaces the play queue with
// the result and starts playback from the first entry.
func (s *QueueService) PlayCollection(ref mediaprovider.CollectionRef) {
	s.submit(ref, Replace)
}

// AddNext resolves and filters ref, then inserts the result immediately
// after the currently audible track.
func (s *QueueService) AddNext(ref mediaprovider.CollectionRef) {
	s.submit(ref, InsertNext)
}

// AddLater resolves and filters ref, then appends the result to the tail of
// the play queue.
func (s *QueueService) AddLater(ref mediaprovider.CollectionRef) {
	s.submit(ref, Append)
}

func (s *QueueService) submit(ref mediaprovider.CollectionRef, mode InsertQueueMode) {
	s.requests <- queueRequest{ref: ref, mode: mode}
}

// SubmitAndWait is like the fire-and-forget entry points but blocks until the
// request has been fully processed. Used by callers that need to sequence
// further work after the mutation (and by tests).
func (s *QueueService) SubmitAndWait(ref mediaprovider.CollectionRef, mode InsertQueueMode) {
	done := make(chan struct{})
	s.requests <- queueRequest{ref: ref, mode: mode, done: done}
	<-done
}

func (s *QueueService) serve(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-s.requests:
			s.process(req)
			if req.done != nil {
				close(req.done)
			}
		}
	}
}

func (s *QueueService) process(req queueRequest) {
	server := s.sm.Server
	if server == nil {
		s.notifier.Notify(NotificationError, "Not connected to a server")
		return
	}

	tracks, err := mediaprovider.NewResolver(server).Resolve(req.ref)
	if err != nil {
		// queue is left exactly as it was
		log.Printf("error resolving %s %q: %v", req.ref.Kind, req.ref.ID, err)
		s.notifier.Notify(NotificationError,
			fmt.Sprintf("Failed to load %s", req.ref.Kind))
		return
	}

	// filters are re-read from config on every mutation
	result := s.cfg.FilterRules().Apply(tracks)

	switch req.mode {
	case Replace:
		s.queue.SetPlayQueue(result.Entries)
		s.queue.SetStatus(player.Playing)
		s.queue.FixPlayer2Index()
	case InsertNext, Append:
		wasIdle := s.queue.IsEmpty() || s.queue.Status() != player.Playing
		s.queue.AppendPlayQueue(result.Entries, req.mode)
		if wasIdle {
			s.queue.SetStatus(player.Playing)
			s.queue.FixPlayer2Index()
		}
	}

	s.notifier.Notify(NotificationInfo, playedSongsMessage(result, req.mode == Replace))
}
