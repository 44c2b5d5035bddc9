package admin

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/iliyamo/cinema-web/internal/model"
	"github.com/iliyamo/cinema-web/internal/notify"
	"github.com/iliyamo/cinema-web/internal/validate"
)

func (s *Service) Movies(ctx context.Context) ([]model.Movie, error) {
	return s.b.AdminListMovies(ctx)
}

func (s *Service) CreateMovie(ctx context.Context, m model.Movie) (*model.Movie, error) {
	m = normalizeMovie(m)
	if err := validateMovie(m); err != nil {
		return nil, err
	}
	out, err := s.b.AdminCreateMovie(ctx, m)
	if err != nil {
		return nil, fmt.Errorf("create movie: %w", err)
	}
	s.log.Info("movie created", zap.Uint64("movie_id", out.ID))
	return out, nil
}

func (s *Service) UpdateMovie(ctx context.Context, id uint64, m model.Movie) (*model.Movie, error) {
	m = normalizeMovie(m)
	if err := validateMovie(m); err != nil {
		return nil, err
	}
	out, err := s.b.AdminUpdateMovie(ctx, id, m)
	if err != nil {
		return nil, fmt.Errorf("update movie %d: %w", id, err)
	}
	return out, nil
}

// DeleteMovie removes a movie once the user confirmed it.
func (s *Service) DeleteMovie(ctx context.Context, id uint64, d notify.Decision) error {
	if err := confirm(d, notify.DeleteMovie); err != nil {
		return err
	}
	if err := s.b.AdminDeleteMovie(ctx, id); err != nil {
		return fmt.Errorf("delete movie %d: %w", id, err)
	}
	s.log.Info("movie deleted", zap.Uint64("movie_id", id))
	return nil
}

func normalizeMovie(m model.Movie) model.Movie {
	m.Title = strings.TrimSpace(m.Title)
	m.Genre = strings.TrimSpace(m.Genre)
	m.Rating = strings.TrimSpace(m.Rating)
	m.PosterURL = strings.TrimSpace(m.PosterURL)
	m.ReleaseDate = strings.TrimSpace(m.ReleaseDate)
	return m
}

func validateMovie(m model.Movie) error {
	return invalid(validate.Fields(m))
}
