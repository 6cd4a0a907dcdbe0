package targets

// Resolution is the outcome of one pointer event against the live set.
type Resolution struct {
	Hit    bool
	Target *Target
	Band   int
	Points int
}

// Resolve credits at most one target: the first in live whose hit test
// succeeds. Which of several overlapping targets wins is not specified.
func Resolve(p Point, live []*Target) Resolution {
	if !p.Valid() {
		return Resolution{Band: -1}
	}
	for _, t := range live {
		if h := t.HitTest(p); h.Hit {
			return Resolution{Hit: true, Target: t, Band: h.Band, Points: h.Points}
		}
	}
	return Resolution{Band: -1}
}
