package model

import "time"

// DateLayout is the wire and storage format of an event date.
const DateLayout = "2006-01-02"

// Event is an ecosystem event managed by admins and listed to founders.
//
// Fields:
//  ID          – primary key identifier.
//  Title       – short title.
//  Description – free text.
//  Date        – day of the event (DATE column, no time component).
//  Location    – where it takes place.
type Event struct {
	ID          uint64    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Date        time.Time `json:"-"`
	Location    string    `json:"location"`
}

// DateString renders Date as YYYY-MM-DD.
func (e Event) DateString() string { return e.Date.Format(DateLayout) }
