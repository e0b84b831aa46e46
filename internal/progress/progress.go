package progress

// Progress is one user's cumulative question history: four sets of question
// IDs. An ID in Correct or Incorrect is always in Used, and never in both at
// once (the latest outcome wins).
type Progress struct {
	Used      map[string]bool
	Correct   map[string]bool
	Incorrect map[string]bool
	Marked    map[string]bool
}

func New() Progress {
	return Progress{
		Used:      map[string]bool{},
		Correct:   map[string]bool{},
		Incorrect: map[string]bool{},
		Marked:    map[string]bool{},
	}
}

// Record notes the outcome of one attempted question, overwriting any earlier
// outcome for the same ID.
func (p Progress) Record(id string, correct bool) {
	p.Used[id] = true
	if correct {
		p.Correct[id] = true
		delete(p.Incorrect, id)
	} else {
		p.Incorrect[id] = true
		delete(p.Correct, id)
	}
}

// SetMark adds or removes id from the marked set.
func (p Progress) SetMark(id string, marked bool) {
	if marked {
		p.Marked[id] = true
	} else {
		delete(p.Marked, id)
	}
}
