package targets

import "sort"

// Store is the live target set of one session. It is owned by a single game
// loop and is not safe for concurrent use.
type Store struct {
	targets map[int]*Target
}

func NewStore() *Store {
	return &Store{
		targets: make(map[int]*Target),
	}
}

func (s *Store) Put(t *Target) {
	s.targets[t.ID] = t
}

func (s *Store) Get(id int) *Target {
	return s.targets[id]
}

// Remove deletes the target and reports whether it was live.
func (s *Store) Remove(id int) bool {
	if _, ok := s.targets[id]; !ok {
		return false
	}
	delete(s.targets, id)
	return true
}

// GetList returns the live targets ordered by id.
func (s *Store) GetList() []*Target {
	targetList := make([]*Target, 0, len(s.targets))
	for _, t := range s.targets {
		targetList = append(targetList, t)
	}
	sort.Slice(targetList, func(i, j int) bool { return targetList[i].ID < targetList[j].ID })
	return targetList
}

func (s *Store) Len() int {
	return len(s.targets)
}

func (s *Store) Clear() {
	s.targets = make(map[int]*Target)
}
