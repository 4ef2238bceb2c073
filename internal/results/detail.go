package results

import (
	"strings"

	"github.com/iliyamo/cinema-assistant/internal/model"
)

// Detail is the movie detail page.  Optional sections are nil/empty when the
// API did not send them so the template omits them instead of printing an
// empty label.
type Detail struct {
	Key            string
	Movie          string
	Theater        string
	TheaterAddress string
	Badges         []string // language, format, screen type
	Showtime       string
	Price          string
	Category       string
	Availability   string
	Available      bool

	PosterURL string // empty: no poster region at all
	Rating    string
	Duration  string
	Genre     string
}

// HasPoster reports whether the poster region should be rendered.
func (d Detail) HasPoster() bool { return d.PosterURL != "" }

// NewDetail builds the detail page for s.  It never fails: every field may
// be absent.
func NewDetail(key string, s model.ShowResult) Detail {
	d := Detail{
		Key:            key,
		Movie:          strings.TrimSpace(s.MovieName),
		Theater:        strings.TrimSpace(s.TheaterName),
		TheaterAddress: strings.TrimSpace(s.TheaterAddress),
		Showtime:       strings.TrimSpace(s.Showtime),
		Price:          strings.TrimSpace(s.Price.String()),
		Category:       strings.TrimSpace(s.Category),
		Availability:   AvailabilityLabel(s),
		Available:      s.IsAvailable,
		PosterURL:      s.Poster(),
		Rating:         strings.TrimSpace(s.Rating.String()),
		Duration:       strings.TrimSpace(s.Duration.String()),
		Genre:          strings.TrimSpace(s.Genre),
	}
	for _, b := range []string{s.Language, s.Format, s.ScreenType} {
		if b = strings.TrimSpace(b); b != "" {
			d.Badges = append(d.Badges, b)
		}
	}
	if d.Movie == "" {
		d.Movie = "Untitled show"
	}
	return d
}
