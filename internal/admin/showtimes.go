package admin

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/cinema-web/internal/model"
	"github.com/iliyamo/cinema-web/internal/notify"
	"github.com/iliyamo/cinema-web/internal/validate"
)

// FormOptions fills the movie and auditorium pickers of the showtime form.
type FormOptions struct {
	Movies      []model.Movie      `json:"movies"`
	Auditoriums []model.Auditorium `json:"auditoriums"`
}

func (s *Service) Showtimes(ctx context.Context) ([]model.Showtime, error) {
	return s.b.AdminListShowtimes(ctx)
}

// FormOptions loads both pickers concurrently; either failure fails the form.
func (s *Service) FormOptions(ctx context.Context) (*FormOptions, error) {
	var opts FormOptions
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		opts.Movies, err = s.b.AdminListMovies(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		opts.Auditoriums, err = s.b.AdminListAuditoriums(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load showtime form: %w", err)
	}
	return &opts, nil
}

func (s *Service) CreateShowtime(ctx context.Context, in model.ShowtimeInput) (*model.Showtime, error) {
	if err := validateShowtime(in); err != nil {
		return nil, err
	}
	out, err := s.b.AdminCreateShowtime(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("create showtime: %w", err)
	}
	s.log.Info("showtime created", zap.Uint64("showtime_id", out.ID), zap.Uint64("movie_id", in.MovieID))
	return out, nil
}

func (s *Service) UpdateShowtime(ctx context.Context, id uint64, in model.ShowtimeInput) (*model.Showtime, error) {
	if err := validateShowtime(in); err != nil {
		return nil, err
	}
	out, err := s.b.AdminUpdateShowtime(ctx, id, in)
	if err != nil {
		return nil, fmt.Errorf("update showtime %d: %w", id, err)
	}
	return out, nil
}

// DeleteShowtime removes a showtime once the user confirmed it.
func (s *Service) DeleteShowtime(ctx context.Context, id uint64, d notify.Decision) error {
	if err := confirm(d, notify.DeleteShowtime); err != nil {
		return err
	}
	if err := s.b.AdminDeleteShowtime(ctx, id); err != nil {
		return fmt.Errorf("delete showtime %d: %w", id, err)
	}
	s.log.Info("showtime deleted", zap.Uint64("showtime_id", id))
	return nil
}

func validateShowtime(in model.ShowtimeInput) error {
	return invalid(validate.Fields(in))
}
