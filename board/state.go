package board

// DefaultToyName is the display name given to the toy created on first run.
const DefaultToyName = "My Toy"

// State is the global application state: the ordered set of toys plus the
// id of the currently active toy.
type State struct {
	Toys        []*Toy
	ActiveToyID string
}

// NewState returns the fresh-install state: a single default toy, active.
func NewState() *State {
	t := NewToy(DefaultToyName)
	return &State{
		Toys:        []*Toy{t},
		ActiveToyID: t.ID,
	}
}

// Toy returns the toy with the given id, if present.
func (s *State) Toy(id string) (*Toy, bool) {
	for _, t := range s.Toys {
		if t.ID == id {
			return t, true
		}
	}
	return nil, false
}

// ActiveToy returns the currently active toy. The active id invariant
// guarantees the lookup succeeds on any state built through this package;
// a nil return means the state was constructed by hand and not repaired.
func (s *State) ActiveToy() *Toy {
	if t, ok := s.Toy(s.ActiveToyID); ok {
		return t
	}
	return nil
}

// AddToy appends a new empty toy with default settings and returns it.
func (s *State) AddToy(name string) *Toy {
	t := NewToy(name)
	s.Toys = append(s.Toys, t)
	return t
}

// RemoveToy deletes the toy with the given id and returns it so the caller
// can release the resource handles its buttons still own. Removing the only
// remaining toy fails with ErrLastToy and leaves the state unchanged. If the
// removed toy was active, the active id moves to the first remaining toy.
func (s *State) RemoveToy(id string) (*Toy, error) {
	if len(s.Toys) <= 1 {
		return nil, ErrLastToy
	}
	for i, t := range s.Toys {
		if t.ID == id {
			s.Toys = append(s.Toys[:i], s.Toys[i+1:]...)
			if s.ActiveToyID == id {
				s.ActiveToyID = s.Toys[0].ID
			}
			return t, nil
		}
	}
	return nil, ErrToyNotFound
}

// SetActive switches the active toy.
func (s *State) SetActive(id string) error {
	if _, ok := s.Toy(id); !ok {
		return ErrToyNotFound
	}
	s.ActiveToyID = id
	return nil
}

// Repair restores the state invariants after deserialization of untrusted
// input: an empty toy list gains a default toy, and a dangling active id is
// reassigned to the first toy. It returns the state for chaining.
func (s *State) Repair() *State {
	if len(s.Toys) == 0 {
		t := NewToy(DefaultToyName)
		s.Toys = []*Toy{t}
	}
	if _, ok := s.Toy(s.ActiveToyID); !ok {
		s.ActiveToyID = s.Toys[0].ID
	}
	return s
}
