package service

import (
	"context"
	"fmt"

	"tekken-tracker/internal/api"
	"tekken-tracker/internal/config"
	"tekken-tracker/internal/constants"
	"tekken-tracker/internal/domain"
	"tekken-tracker/internal/metrics"
	"tekken-tracker/internal/normalizer"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// pageFetcher is the part of api.Client used to download profile pages.
type pageFetcher interface {
	FetchPage(ctx context.Context, url string) ([]byte, error)
}

// PlayerFetch is what one poll learned about a player from both sites.
type PlayerFetch struct {
	Name    string
	Records []domain.MatchRecord
	Profile domain.Profile
	// Sources counts the sites that answered; zero means nothing is known this cycle.
	Sources int
}

type MatchService struct {
	client  pageFetcher
	players []config.PlayerConfig
	metrics *metrics.Service
	logger  zerolog.Logger
}

func NewMatchService(client *api.Client, cfg *config.Config, m *metrics.Service, logger zerolog.Logger) *MatchService {
	return newMatchService(client, cfg.Players, m, logger)
}

func newMatchService(client pageFetcher, players []config.PlayerConfig, m *metrics.Service, logger zerolog.Logger) *MatchService {
	return &MatchService{client: client, players: players, metrics: m, logger: logger}
}

// FetchAll fetches every configured player in parallel. A failing player or site is logged and
// left out; it never cancels the other fetches. Results keep the configured order.
func (s *MatchService) FetchAll(ctx context.Context) []PlayerFetch {
	results := make([]PlayerFetch, len(s.players))

	var g errgroup.Group
	for i, p := range s.players {
		g.Go(func() error {
			results[i] = s.fetchPlayer(ctx, p)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (s *MatchService) fetchPlayer(ctx context.Context, p config.PlayerConfig) PlayerFetch {
	ctx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	defer cancel()

	var wavu *api.WavuProfile
	var ewgf *api.EwgfProfile

	var g errgroup.Group
	if p.WavuURL != "" {
		g.Go(func() error {
			var err error
			if wavu, err = s.fetchWavu(ctx, p.WavuURL); err != nil {
				s.fetchFailed(p.Name, string(domain.SourceWavu), err)
			}
			return nil
		})
	}
	if p.EwgfURL != "" {
		g.Go(func() error {
			var err error
			if ewgf, err = s.fetchEwgf(ctx, p.EwgfURL); err != nil {
				s.fetchFailed(p.Name, string(domain.SourceEwgf), err)
			}
			return nil
		})
	}
	_ = g.Wait()

	fetch := PlayerFetch{Name: p.Name}
	var ewgfMatches, wavuMatches []domain.MatchRecord
	if ewgf != nil {
		fetch.Sources++
		fetch.Profile.Rank = ewgf.Rank
		fetch.Profile.MainCharacter = ewgf.MainCharacter
		fetch.Profile.MatchupStats = ewgf.MatchupStats
		fetch.Profile.SkillProfile = ewgf.SkillProfile
		ewgfMatches = ewgf.Matches
	}
	if wavu != nil {
		fetch.Sources++
		fetch.Profile.Rating = wavu.Rating
		wavuMatches = wavu.Matches
	}
	// ewgf first: its records carry opponent ranks and characters
	fetch.Records = normalizer.Merge(ewgfMatches, wavuMatches)

	s.logger.Debug().
		Str("player", p.Name).
		Int("sources", fetch.Sources).
		Int("records", len(fetch.Records)).
		Str("rank", fetch.Profile.Rank).
		Msg("player fetched")

	return fetch
}

func (s *MatchService) fetchWavu(ctx context.Context, url string) (*api.WavuProfile, error) {
	body, err := s.client.FetchPage(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch wavu page: %w", err)
	}
	return api.ParseWavu(body)
}

func (s *MatchService) fetchEwgf(ctx context.Context, url string) (*api.EwgfProfile, error) {
	body, err := s.client.FetchPage(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch ewgf page: %w", err)
	}
	return api.ParseEwgf(body)
}

func (s *MatchService) fetchFailed(player, source string, err error) {
	s.logger.Warn().Err(err).Str("player", player).Str("source", source).Msg("failed to fetch profile")
	if s.metrics != nil {
		s.metrics.IncFetchFailure(source)
	}
}
