// Package booking is the mock seat-selection and payment flow.  Nothing here
// is sent anywhere: a Draft lives only as long as the booking page that owns
// it and is discarded when the visitor navigates away.
package booking

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// Rows and SeatsPerRow describe the fixed seat grid.
var Rows = []string{"A", "B", "C", "D", "E", "F"}

const SeatsPerRow = 10

// DefaultSeatPrice is charged per seat when the show carries no price.
const DefaultSeatPrice = 250

// bookedSeats are taken in every show of the mock.
var bookedSeats = map[string]bool{"A3": true, "A4": true, "B5": true, "C1": true, "C2": true, "D7": true}

// Step is the position in the two-step flow.
type Step string

const (
	StepSelecting Step = "selecting"
	StepPaying    Step = "paying"
)

var (
	ErrUnknownSeat    = errors.New("unknown seat")
	ErrSeatBooked     = errors.New("seat is already booked")
	ErrWrongStep      = errors.New("not allowed at this step")
	ErrNoSeats        = errors.New("no seats selected")
	ErrMissingPayment = errors.New("payment details incomplete")
)

// UserMessage is the alert shown for a rejected action.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrNoSeats):
		return "Please select at least one seat"
	case errors.Is(err, ErrMissingPayment):
		return "Please fill in all payment details"
	case errors.Is(err, ErrSeatBooked):
		return "That seat is already booked"
	case errors.Is(err, ErrUnknownSeat):
		return "That seat does not exist"
	case errors.Is(err, ErrWrongStep):
		return "That action is not available right now"
	}
	return "Something went wrong"
}

// Show is the context carried in from the detail page.
type Show struct {
	Key          string
	Movie        string
	Theater      string
	Showtime     string
	PricePerSeat int
}

// DefaultShow is used when the booking page is opened without a show.
func DefaultShow() Show {
	return Show{Movie: "Movie", Theater: "Theater", Showtime: "7:00 PM", PricePerSeat: DefaultSeatPrice}
}

// CardFields are the four inputs of the payment form.  They are not
// validated beyond being non-empty.
type CardFields struct {
	Name   string `form:"card_name"`
	Number string `form:"card_number"`
	Expiry string `form:"expiry_date"`
	CVV    string `form:"cvv"`
}

func (f CardFields) complete() bool {
	for _, v := range []string{f.Name, f.Number, f.Expiry, f.CVV} {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}

// Confirmation is the result of a successful mock payment.
type Confirmation struct {
	Seats   []string
	Total   int
	Message string
}

// Seat is one cell of the rendered grid.
type Seat struct {
	ID       string
	Number   int
	Booked   bool
	Selected bool
}

// Draft is the local, never-persisted state of one booking attempt.
type Draft struct {
	Show     Show
	Step     Step
	selected map[string]bool
	order    []string
}

// NewDraft starts a booking for show.  Missing show fields fall back to
// DefaultShow and a non-positive price to DefaultSeatPrice.
func NewDraft(show Show) *Draft {
	def := DefaultShow()
	if strings.TrimSpace(show.Movie) == "" {
		show.Movie = def.Movie
	}
	if strings.TrimSpace(show.Theater) == "" {
		show.Theater = def.Theater
	}
	if strings.TrimSpace(show.Showtime) == "" {
		show.Showtime = def.Showtime
	}
	if show.PricePerSeat <= 0 {
		show.PricePerSeat = DefaultSeatPrice
	}
	return &Draft{Show: show, Step: StepSelecting, selected: make(map[string]bool)}
}

// ValidSeat reports whether id names a seat of the grid, e.g. "C7".
func ValidSeat(id string) bool {
	if len(id) < 2 {
		return false
	}
	row := id[:1]
	n, err := strconv.Atoi(id[1:])
	if err != nil || n < 1 || n > SeatsPerRow {
		return false
	}
	for _, r := range Rows {
		if r == row {
			return id == fmt.Sprintf("%s%d", row, n)
		}
	}
	return false
}

// IsBooked reports whether id is one of the pre-booked seats.
func IsBooked(id string) bool { return bookedSeats[id] }

// Toggle adds id to the selection, or removes it if already selected.
func (d *Draft) Toggle(id string) error {
	id = strings.ToUpper(strings.TrimSpace(id))
	if d.Step != StepSelecting {
		return ErrWrongStep
	}
	if !ValidSeat(id) {
		return ErrUnknownSeat
	}
	if IsBooked(id) {
		return ErrSeatBooked
	}
	if d.selected[id] {
		delete(d.selected, id)
		for i, s := range d.order {
			if s == id {
				d.order = append(d.order[:i], d.order[i+1:]...)
				break
			}
		}
		return nil
	}
	d.selected[id] = true
	d.order = append(d.order, id)
	return nil
}

// Selected returns the selected seats in the order they were picked.
func (d *Draft) Selected() []string { return append([]string(nil), d.order...) }

// IsSelected reports whether id is in the selection.
func (d *Draft) IsSelected(id string) bool { return d.selected[id] }

// Total is the selected seat count times the per-seat price.
func (d *Draft) Total() int { return len(d.order) * d.Show.PricePerSeat }

// Proceed moves to the payment step.  An empty selection is rejected and the
// draft stays on the selection step.
func (d *Draft) Proceed() error {
	if d.Step != StepSelecting {
		return ErrWrongStep
	}
	if len(d.order) == 0 {
		return ErrNoSeats
	}
	d.Step = StepPaying
	return nil
}

// Pay submits the mock payment form.  Any empty field is rejected; the
// input is not kept, so the visitor re-enters it.
func (d *Draft) Pay(card CardFields) (Confirmation, error) {
	if d.Step != StepPaying {
		return Confirmation{}, ErrWrongStep
	}
	if !card.complete() {
		return Confirmation{}, ErrMissingPayment
	}
	seats := d.Selected()
	return Confirmation{
		Seats:   seats,
		Total:   d.Total(),
		Message: fmt.Sprintf("Booking confirmed! %d seats booked for %s", len(seats), d.Show.Movie),
	}, nil
}

// Grid returns the seat grid by row for rendering.
func (d *Draft) Grid() [][]Seat {
	out := make([][]Seat, 0, len(Rows))
	for _, r := range Rows {
		row := make([]Seat, 0, SeatsPerRow)
		for n := 1; n <= SeatsPerRow; n++ {
			id := fmt.Sprintf("%s%d", r, n)
			row = append(row, Seat{ID: id, Number: n, Booked: IsBooked(id), Selected: d.selected[id]})
		}
		out = append(out, row)
	}
	return out
}

// BookedSeats lists the pre-booked seats, sorted.
func BookedSeats() []string {
	out := make([]string, 0, len(bookedSeats))
	for id := range bookedSeats {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// PriceFromDisplay extracts a whole price from a display string such as
// "₹250", "250.00" or "Rs. 1,200".  It returns def when no digits are found.
func PriceFromDisplay(display string, def int) int {
	var b strings.Builder
	for _, r := range display {
		if r == '.' && b.Len() > 0 {
			break
		}
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	n, err := strconv.Atoi(b.String())
	if err != nil || n <= 0 {
		return def
	}
	return n
}
