package showcase

import (
	"context"
	"sync"

	"property-portal/internal/application/properties"
	"property-portal/internal/application/retrieval"
	"property-portal/internal/domain"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Service keeps the home page's featured listings warm: one Featured
// retriever, refreshed on a cron schedule.
type Service struct {
	featured    *retrieval.Featured
	cron        *cron.Cron
	spec        string
	unsubscribe func()

	mu      sync.Mutex
	running bool
}

// NewService starts fetching limit featured listings immediately. refreshSpec
// is a robfig/cron spec; empty disables scheduled refreshes.
func NewService(ctx context.Context, api properties.API, limit int, refreshSpec string) *Service {
	s := &Service{
		featured: retrieval.NewFeatured(ctx, api, limit, retrieval.WithLogger(log.With().Str("component", "showcase").Logger())),
		cron:     cron.New(),
		spec:     refreshSpec,
	}
	s.unsubscribe = s.featured.Subscribe(logTransition)
	return s
}

func logTransition(st retrieval.State[[]domain.PropertyListing]) {
	switch {
	case st.Loading:
		log.Debug().Msg("Showcase: refreshing featured listings")
	case st.Failed():
		log.Warn().Str("error", st.Error).Msg("Showcase: refresh failed")
	default:
		log.Info().Int("count", len(st.Result)).Msg("Showcase: featured listings updated")
	}
}

// Start schedules periodic refreshes.
func (s *Service) Start() error {
	if s.spec == "" {
		log.Info().Msg("Showcase: scheduled refresh disabled")
		return nil
	}
	_, err := s.cron.AddFunc(s.spec, func() {
		s.featured.Refetch(context.Background())
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	s.mu.Lock()
	s.running = true
	s.mu.Unlock()
	log.Info().Str("spec", s.spec).Msg("Showcase: scheduler started")
	return nil
}

// Stop halts the scheduler and detaches the retriever.
func (s *Service) Stop() {
	s.mu.Lock()
	running := s.running
	s.running = false
	s.mu.Unlock()
	if running {
		<-s.cron.Stop().Done()
	}
	s.unsubscribe()
	s.featured.Close()
}

// Limit is the number of listings the showcase holds.
func (s *Service) Limit() int {
	return s.featured.Limit()
}

// Current returns the showcase state.
func (s *Service) Current() retrieval.State[[]domain.PropertyListing] {
	return s.featured.State()
}

// Refresh refetches now and returns the settled state.
func (s *Service) Refresh(ctx context.Context) retrieval.State[[]domain.PropertyListing] {
	return s.featured.Refetch(ctx)
}
