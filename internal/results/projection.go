// Package results projects the assistant's show records into the list and
// detail views, and keeps the records reachable by a generated key so the
// detail page never depends on how the browser navigated to it.
package results

import (
	"fmt"
	"strings"

	"github.com/iliyamo/cinema-assistant/internal/model"
)

// IsBlank reports whether every field of s is empty.  The API sometimes
// returns placeholder records like {} and those must not render as cards.
func IsBlank(s model.ShowResult) bool {
	for _, f := range []string{
		s.TheaterName, s.TheaterAddress, s.MovieName, s.Language, s.Format,
		s.PosterURL, s.PosterLocal, s.Rating.String(), s.Duration.String(), s.Genre,
		s.Showtime, s.ScreenType, s.Category, s.Price.String(), s.Availability,
	} {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return !s.IsAvailable
}

// AllBlank reports whether list is empty or holds only blank records.
func AllBlank(list []model.ShowResult) bool {
	for _, s := range list {
		if !IsBlank(s) {
			return false
		}
	}
	return true
}

// Card is the summary of one show in the results list.
type Card struct {
	Key          string `json:"key"`
	Movie        string `json:"movie"`
	Language     string `json:"language,omitempty"`
	Theater      string `json:"theater"`
	Showtime     string `json:"showtime"`
	Price        string `json:"price"`
	Availability string `json:"availability"`
	Available    bool   `json:"available"`
}

// Line renders the card on one line, e.g. "Leo / PVR / 7:00 PM / 250 / Available".
func (c Card) Line() string {
	return fmt.Sprintf("%s / %s / %s / %s / %s", c.Movie, c.Theater, c.Showtime, c.Price, c.Availability)
}

// View is the results panel: either the empty state or a list of cards.
type View struct {
	Empty bool
	Cards []Card
}

// Count is the number of cards, for "Showing N results".
func (v View) Count() int { return len(v.Cards) }

// Project builds the results panel.  keys, when non-nil, supplies the store
// key of each record by index; blank records are skipped.
func Project(list []model.ShowResult, keys []string) View {
	if AllBlank(list) {
		return View{Empty: true}
	}
	cards := make([]Card, 0, len(list))
	for i, s := range list {
		if IsBlank(s) {
			continue
		}
		c := NewCard(s)
		if i < len(keys) {
			c.Key = keys[i]
		}
		cards = append(cards, c)
	}
	return View{Cards: cards}
}

// NewCard summarises one show.
func NewCard(s model.ShowResult) Card {
	return Card{
		Movie:        strings.TrimSpace(s.MovieName),
		Language:     strings.TrimSpace(s.Language),
		Theater:      strings.TrimSpace(s.TheaterName),
		Showtime:     strings.TrimSpace(s.Showtime),
		Price:        strings.TrimSpace(s.Price.String()),
		Availability: AvailabilityLabel(s),
		Available:    s.IsAvailable,
	}
}

// AvailabilityLabel is "Available" for bookable shows; otherwise the API's
// own availability text, or "Sold Out" when it sent none.
func AvailabilityLabel(s model.ShowResult) string {
	if s.IsAvailable {
		return "Available"
	}
	if a := strings.TrimSpace(s.Availability); a != "" {
		return a
	}
	return "Sold Out"
}

// Summary renders every non-blank record as a Card line.
func Summary(list []model.ShowResult) []string {
	v := Project(list, nil)
	out := make([]string, 0, len(v.Cards))
	for _, c := range v.Cards {
		out = append(out, c.Line())
	}
	return out
}
