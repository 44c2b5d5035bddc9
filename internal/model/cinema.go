package model

// Cinema is the venue an auditorium belongs to.
type Cinema struct {
	ID       uint64 `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location,omitempty"`
}

// Auditorium is a screening room inside a cinema.
type Auditorium struct {
	ID       uint64  `json:"id"`
	Name     string  `json:"name"`
	CinemaID uint64  `json:"cinema_id,omitempty"`
	Capacity int     `json:"capacity,omitempty"`
	Cinema   *Cinema `json:"cinema,omitempty"`
}

// CinemaName returns the name of the owning cinema or "" when unknown.
func (a *Auditorium) CinemaName() string {
	if a == nil || a.Cinema == nil {
		return ""
	}
	return a.Cinema.Name
}
