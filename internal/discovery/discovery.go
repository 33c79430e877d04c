// Package discovery locates artifact builder services on the local machine.
package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Endpoint is a discovered builder service.
type Endpoint struct {
	ID       string    `json:"id"` // URL-based identifier
	Name     string    `json:"name"`
	Version  string    `json:"version"`
	URL      string    `json:"url"`
	Status   string    `json:"status"` // "online", "offline"
	Latency  int64     `json:"latency"` // Response time in ms
	LastSeen time.Time `json:"lastSeen"`
}

// healthCard is the builder's health endpoint payload.
type healthCard struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Status  string `json:"status"`
}

// Config holds discovery configuration
type Config struct {
	// Ports to scan on localhost
	Ports []int
	// Custom URLs to check in addition to port scanning
	CustomURLs []string
	// Probe timeout per endpoint
	Timeout time.Duration
	// How often to refresh discovery
	RefreshInterval time.Duration
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Ports:           []int{8080, 8081, 8082},
		CustomURLs:      []string{},
		Timeout:         2 * time.Second,
		RefreshInterval: 30 * time.Second,
	}
}

// Service discovers and tracks available builder services.
type Service struct {
	cfg        *Config
	httpClient *http.Client
	logger     zerolog.Logger

	mu        sync.RWMutex
	endpoints map[string]*Endpoint
	onUpdate  func([]*Endpoint)

	stopCh  chan struct{}
	running bool
}

// NewService creates a discovery service.
func NewService(logger zerolog.Logger, cfg *Config) *Service {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	return &Service{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger.With().Str("component", "discovery").Logger(),
		endpoints:  make(map[string]*Endpoint),
		stopCh:     make(chan struct{}),
	}
}

// SetOnUpdate sets a callback fired after each scan.
func (s *Service) SetOnUpdate(fn func([]*Endpoint)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onUpdate = fn
}

// Start begins background discovery with periodic refresh.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.mu.Unlock()

	go s.Scan(ctx)

	go func() {
		ticker := time.NewTicker(s.cfg.RefreshInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.Scan(ctx)
			case <-s.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops background discovery.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		close(s.stopCh)
		s.running = false
	}
}

// Scan probes all candidate endpoints once and updates the tracked set.
func (s *Service) Scan(ctx context.Context) []*Endpoint {
	var wg sync.WaitGroup
	results := make(chan *Endpoint, len(s.cfg.Ports)+len(s.cfg.CustomURLs))

	for _, port := range s.cfg.Ports {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			url := fmt.Sprintf("http://localhost:%d", p)
			if ep := s.probe(ctx, url); ep != nil {
				results <- ep
			}
		}(port)
	}
	for _, url := range s.cfg.CustomURLs {
		wg.Add(1)
		go func(u string) {
			defer wg.Done()
			if ep := s.probe(ctx, u); ep != nil {
				results <- ep
			}
		}(url)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	s.mu.Lock()
	for _, ep := range s.endpoints {
		ep.Status = "offline"
	}
	for ep := range results {
		s.endpoints[ep.ID] = ep
	}
	list := s.sortedLocked()
	cb := s.onUpdate
	s.mu.Unlock()

	if cb != nil {
		cb(list)
	}
	return list
}

// probe checks one URL for a builder health card.
func (s *Service) probe(ctx context.Context, baseURL string) *Endpoint {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/v1/health", nil)
	if err != nil {
		return nil
	}

	start := time.Now()
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil
	}

	var card healthCard
	if err := json.NewDecoder(resp.Body).Decode(&card); err != nil {
		return nil
	}

	latency := time.Since(start).Milliseconds()
	s.logger.Debug().Str("url", baseURL).Int64("latencyMs", latency).Msg("Builder endpoint online")

	return &Endpoint{
		ID:       baseURL,
		Name:     card.Name,
		Version:  card.Version,
		URL:      baseURL,
		Status:   "online",
		Latency:  latency,
		LastSeen: time.Now(),
	}
}

// Endpoints returns all tracked endpoints, online first, fastest first.
func (s *Service) Endpoints() []*Endpoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedLocked()
}

// Best returns the fastest online endpoint, or nil when none responded.
func (s *Service) Best() *Endpoint {
	for _, ep := range s.Endpoints() {
		if ep.Status == "online" {
			return ep
		}
	}
	return nil
}

func (s *Service) sortedLocked() []*Endpoint {
	list := make([]*Endpoint, 0, len(s.endpoints))
	for _, ep := range s.endpoints {
		copied := *ep
		list = append(list, &copied)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Status != list[j].Status {
			return list[i].Status == "online"
		}
		return list[i].Latency < list[j].Latency
	})
	return list
}
