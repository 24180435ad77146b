package workflow

// Level is one step of an approval plan: the level number and the set of
// users eligible to resolve it. Eligibility is a union: any listed approver
// resolves the level.
type Level struct {
	Number      int
	ApproverIDs []uint
}

// Eligible returns true if the user may resolve this level
func (l Level) Eligible(userID uint) bool {
	for _, id := range l.ApproverIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// Primary returns the approver a new record at this level is assigned to
func (l Level) Primary() uint {
	return l.ApproverIDs[0]
}

// Plan is the ordered sequence of approval levels computed for one expense.
// Levels are strictly ascending with no duplicates.
type Plan struct {
	Levels []Level
}

// HighestLevel returns the last level number of the plan
func (p *Plan) HighestLevel() int {
	if len(p.Levels) == 0 {
		return 0
	}
	return p.Levels[len(p.Levels)-1].Number
}

// LevelFor returns the plan entry for a level number
func (p *Plan) LevelFor(number int) (Level, bool) {
	for _, l := range p.Levels {
		if l.Number == number {
			return l, true
		}
	}
	return Level{}, false
}
