package libraryclient

import (
	"net/url"
	"sync"
	"time"

	"meetup-library/pkg/domain"
	"meetup-library/pkg/library"
)

// State is the catalog filter state mirrored in the URL query. Picker changes commit at once;
// typed search text commits through a Debouncer.
type State struct {
	mu       sync.Mutex
	filter   library.Filter
	onChange func(library.Filter)
	search   *Debouncer
}

// NewState creates filter state starting at initial. onChange receives every committed filter
// and is typically where the URL is rewritten and a search is started.
func NewState(initial library.Filter, delay time.Duration, onChange func(library.Filter)) *State {
	s := &State{filter: initial, onChange: onChange}
	s.search = NewDebouncer(delay, s.commitQuery)
	s.search.Sync(initial.Query)
	return s
}

// Filter returns the committed filter.
func (s *State) Filter() library.Filter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

// SearchInput returns the text in the search box, committed or not.
func (s *State) SearchInput() string {
	return s.search.Value()
}

// SetLocation selects a location. The empty location clears it.
func (s *State) SetLocation(loc domain.Location) {
	s.update(func(f *library.Filter) { f.Location = loc })
}

// SetTag selects a tag.
func (s *State) SetTag(tag string) {
	s.update(func(f *library.Filter) { f.Tag = tag })
}

// SetEpisode selects an episode.
func (s *State) SetEpisode(id string) {
	s.update(func(f *library.Filter) { f.Episode = id })
}

// Type records search box input; the query commits once typing pauses.
func (s *State) Type(q string) {
	s.search.Input(q)
}

// ApplyURL adopts filter state from URL query values, for example after back navigation.
// The search query is kept as typed while a keystroke is still uncommitted.
func (s *State) ApplyURL(values url.Values) {
	next := library.ParseFilter(values)
	if !s.search.Sync(next.Query) {
		next.Query = s.Filter().Query
	}
	s.update(func(f *library.Filter) { *f = next })
}

// URL returns the query values for the committed filter.
func (s *State) URL() url.Values {
	return s.Filter().Values()
}

// Close drops a pending uncommitted query.
func (s *State) Close() {
	s.search.Stop()
}

func (s *State) commitQuery(q string) {
	s.update(func(f *library.Filter) { *f = f.WithQuery(q) })
}

func (s *State) update(apply func(*library.Filter)) {
	s.mu.Lock()
	prev := s.filter
	apply(&s.filter)
	next := s.filter
	s.mu.Unlock()

	if next != prev && s.onChange != nil {
		s.onChange(next)
	}
}
