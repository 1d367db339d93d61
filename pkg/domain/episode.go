package domain

import "time"

// Episode is a numbered meetup occurrence in a city. Several recordings share one episode.
type Episode struct {
	ID     string     `json:"id"`
	City   string     `json:"city"`
	Number int        `json:"number"`
	Title  string     `json:"title"`
	Date   *time.Time `json:"date"`
}
