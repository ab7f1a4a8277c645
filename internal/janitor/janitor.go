package janitor

import (
	"log"
	"sync"
	"time"

	"inkboard/internal/board"
)

// Engine is the gateway surface the janitor sweeps: live room usage
// plus eviction of rooms nobody occupies.
type Engine interface {
	ActivitySnapshot() map[string]board.RoomActivity
	EvictIdle(cutoff time.Time) []string
}

// Directory is the persistent room directory the janitor maintains.
type Directory interface {
	TouchRoom(id string, createdAt, lastActive time.Time, strokes, peakUsers int) error
	PruneIdle(cutoff time.Time) (int64, error)
}

type Config struct {
	Interval  time.Duration
	Retention time.Duration
}

func DefaultConfig() Config {
	return Config{
		Interval:  time.Minute,
		Retention: 24 * time.Hour,
	}
}

// Service periodically flushes per-room usage into the directory and
// retires rooms nobody has touched within the retention window. It runs
// entirely off the engine's mutation path.
type Service struct {
	engine    Engine
	directory Directory
	config    Config
	stop      chan struct{}
	wg        sync.WaitGroup
}

func New(engine Engine, directory Directory, config Config) *Service {
	return &Service{
		engine:    engine,
		directory: directory,
		config:    config,
		stop:      make(chan struct{}),
	}
}

func (s *Service) Start() {
	s.wg.Add(1)
	go s.run()
	log.Printf("Janitor started (interval: %v, retention: %v)",
		s.config.Interval, s.config.Retention)
}

func (s *Service) Stop() {
	close(s.stop)
	s.wg.Wait()
	log.Println("Janitor stopped")
}

func (s *Service) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			s.sweep()
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *Service) sweep() {
	for id, a := range s.engine.ActivitySnapshot() {
		if err := s.directory.TouchRoom(id, a.CreatedAt, a.LastActive, a.Strokes, a.PeakUsers); err != nil {
			log.Printf("Janitor: failed to record room %s: %v", id, err)
		}
	}

	cutoff := time.Now().Add(-s.config.Retention)

	if evicted := s.engine.EvictIdle(cutoff); len(evicted) > 0 {
		log.Printf("Janitor: evicted %d idle rooms", len(evicted))
	}

	if pruned, err := s.directory.PruneIdle(cutoff); err != nil {
		log.Printf("Janitor: prune failed: %v", err)
	} else if pruned > 0 {
		log.Printf("Janitor: pruned %d directory rows", pruned)
	}
}
