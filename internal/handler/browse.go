package handler

import (
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/cinema-web/internal/api"
	"github.com/iliyamo/cinema-web/internal/display"
	"github.com/iliyamo/cinema-web/internal/model"
)

// PublicHandler serves the pages anyone can browse. Its responses depend on
// nothing but the request URL, so they sit behind the response cache.
type PublicHandler struct {
	Client *api.Client // anonymous
	Loc    *time.Location
	Now    func() time.Time
	Log    *zap.Logger
}

// MovieCard is a movie in the listing.
type MovieCard struct {
	ID          uint64 `json:"id"`
	Title       string `json:"title"`
	Genre       string `json:"genre"`
	Rating      string `json:"rating"`
	Duration    string `json:"duration"`
	ReleaseDate string `json:"release_date"`
	PosterURL   string `json:"poster_url,omitempty"`
	Format      string `json:"format,omitempty"`
}

// ShowtimeSlot is one bookable showtime in a day group.
type ShowtimeSlot struct {
	ID             uint64 `json:"id"`
	Time           string `json:"time"`
	Format         string `json:"format,omitempty"`
	Price          string `json:"price"`
	AvailableSeats int    `json:"available_seats"`
	Auditorium     string `json:"auditorium,omitempty"`
	Cinema         string `json:"cinema,omitempty"`
}

// DayGroup holds the showtimes of one calendar day.
type DayGroup struct {
	Date      string         `json:"date"`
	Label     string         `json:"label"`
	Showtimes []ShowtimeSlot `json:"showtimes"`
}

// MovieShowtimes groups the showtimes of one movie by day.
type MovieShowtimes struct {
	Movie MovieCard  `json:"movie"`
	Days  []DayGroup `json:"days"`
}

func card(m model.Movie) MovieCard {
	return MovieCard{
		ID:          m.ID,
		Title:       m.Title,
		Genre:       m.Genre,
		Rating:      m.Rating,
		Duration:    display.Duration(m.DurationMinutes),
		ReleaseDate: m.ReleaseDate,
		PosterURL:   m.PosterURL,
		Format:      m.Type,
	}
}

// Movies handles GET /movies. ?q filters by title, ?genre by genre.
func (h *PublicHandler) Movies(c echo.Context) error {
	movies, err := h.Client.ListMovies(c.Request().Context())
	if err != nil {
		return backendError(c, h.Log, err, "Movies not found", "Could not load movies")
	}
	q := strings.ToLower(strings.TrimSpace(c.QueryParam("q")))
	genre := strings.TrimSpace(c.QueryParam("genre"))

	items := make([]MovieCard, 0, len(movies))
	for _, m := range movies {
		if q != "" && !strings.Contains(strings.ToLower(m.Title), q) {
			continue
		}
		if genre != "" && genre != "all" && !strings.EqualFold(m.Genre, genre) {
			continue
		}
		items = append(items, card(m))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Movie handles GET /movies/:id: the movie with its showtimes by day.
func (h *PublicHandler) Movie(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badID(c, "movie")
	}

	var (
		movie     *model.Movie
		showtimes []model.Showtime
	)
	g, ctx := errgroup.WithContext(c.Request().Context())
	g.Go(func() error {
		var err error
		movie, err = h.Client.GetMovie(ctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		showtimes, err = h.Client.ListShowtimes(ctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		return backendError(c, h.Log, err, "Movie not found", "Could not load movie")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"movie":       card(*movie),
		"description": movie.Description,
		"days":        h.byDay(showtimes),
	})
}

// Showtimes handles GET /showtimes, grouped by movie then day. ?movie=<id>
// narrows to one movie.
func (h *PublicHandler) Showtimes(c echo.Context) error {
	var movieID uint64
	if raw := c.QueryParam("movie"); raw != "" && raw != "all" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movie filter"})
		}
		movieID = id
	}
	showtimes, err := h.Client.ListShowtimes(c.Request().Context(), movieID)
	if err != nil {
		return backendError(c, h.Log, err, "Showtimes not found", "Could not load showtimes")
	}

	byMovie := map[uint64][]model.Showtime{}
	movies := map[uint64]model.Movie{}
	var order []uint64
	for _, st := range showtimes {
		mid := st.MovieID
		if st.Movie != nil {
			mid = st.Movie.ID
			movies[mid] = *st.Movie
		}
		if _, seen := byMovie[mid]; !seen {
			order = append(order, mid)
		}
		byMovie[mid] = append(byMovie[mid], st)
	}

	groups := make([]MovieShowtimes, 0, len(order))
	for _, mid := range order {
		m, ok := movies[mid]
		if !ok {
			m = model.Movie{ID: mid}
		}
		groups = append(groups, MovieShowtimes{Movie: card(m), Days: h.byDay(byMovie[mid])})
	}
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Movie.Title < groups[j].Movie.Title })
	return c.JSON(http.StatusOK, echo.Map{"items": groups})
}

// byDay groups showtimes by local calendar day, days and times ascending.
func (h *PublicHandler) byDay(showtimes []model.Showtime) []DayGroup {
	sorted := append([]model.Showtime(nil), showtimes...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, _ := display.ParseTime(sorted[i].StartTime)
		b, _ := display.ParseTime(sorted[j].StartTime)
		return a.Before(b)
	})

	now := h.Now()
	days := []DayGroup{}
	index := map[string]int{}
	for _, st := range sorted {
		key := display.DateKey(st.StartTime, h.Loc)
		i, ok := index[key]
		if !ok {
			i = len(days)
			index[key] = i
			days = append(days, DayGroup{Date: key, Label: display.DayLabel(st.StartTime, now, h.Loc)})
		}
		days[i].Showtimes = append(days[i].Showtimes, slot(st, h.Loc))
	}
	return days
}

func slot(st model.Showtime, loc *time.Location) ShowtimeSlot {
	sum := st.Summary()
	return ShowtimeSlot{
		ID:             st.ID,
		Time:           display.Clock(st.StartTime, loc),
		Format:         sum.Format,
		Price:          display.Money(st.Price),
		AvailableSeats: st.AvailableSeats,
		Auditorium:     sum.AuditoriumName,
		Cinema:         sum.CinemaName,
	}
}
