package model

import "strings"

// ShowResult is one bookable movie/theater/showtime/price tuple returned by
// the chat API.  It is read-only on this side of the wire.  Optional fields
// (poster, rating, duration, genre) are empty strings when the API omits them;
// rating, duration and price may arrive as numbers.
type ShowResult struct {
	TheaterName    string `json:"theater_name"`
	TheaterAddress string `json:"theater_address"`
	MovieName      string `json:"movie_name"`
	Language       string `json:"movie_language"`
	Format         string `json:"movie_format"`
	PosterURL      string `json:"movie_poster_url,omitempty"`
	PosterLocal    string `json:"movie_poster_local,omitempty"`
	Rating         Text   `json:"movie_rating,omitempty"`
	Duration       Text   `json:"movie_duration,omitempty"`
	Genre          string `json:"movie_genre,omitempty"`
	Showtime       string `json:"showtime"`
	ScreenType     string `json:"screen_type"`
	Category       string `json:"category"`
	Price          Text   `json:"price"`
	Availability   string `json:"availability"`
	IsAvailable    bool   `json:"is_available"`
}

// Poster returns the remote poster URL, falling back to the locally cached
// copy the API sometimes provides instead.
func (s ShowResult) Poster() string {
	if u := strings.TrimSpace(s.PosterURL); u != "" {
		return u
	}
	return strings.TrimSpace(s.PosterLocal)
}
