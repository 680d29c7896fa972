package deconstruct

// Block is a maximal run of input characters sharing one filter. Left and
// Right are indices into the slice the block belongs to; -1 means there is
// no neighbor on that side.
type Block struct {
	Filter FilterID
	Text   string
	// Start and End are rune offsets into the deconstructed sentence, End exclusive.
	Start int
	End   int
	Alive bool
	Left  int
	Right int
	// Rules lists the names of the rules that rewrote this block.
	Rules []string
}

// Contains reports whether the rune offset pos falls inside the block.
func (b *Block) Contains(pos int) bool {
	return pos >= b.Start && pos < b.End
}

// arena holds every block created during one deconstruction pass, dead or alive.
type arena []*Block

func (a arena) liveLeft(i int) int {
	j := a[i].Left
	for j >= 0 && !a[j].Alive {
		j = a[j].Left
	}
	return j
}

func (a arena) liveRight(i int) int {
	j := a[i].Right
	for j >= 0 && !a[j].Alive {
		j = a[j].Right
	}
	return j
}

// relink points i at its nearest live neighbors and points them back at i.
func (a arena) relink(i int) {
	l, r := a.liveLeft(i), a.liveRight(i)
	a[i].Left, a[i].Right = l, r
	if l >= 0 {
		a[l].Right = i
	}
	if r >= 0 {
		a[r].Left = i
	}
}

// compact returns the live blocks with neighbor indices rewritten to
// positions in the returned slice.
func (a arena) compact() []*Block {
	out := make([]*Block, 0, len(a))
	for _, b := range a {
		if b.Alive {
			out = append(out, b)
		}
	}
	for i, b := range out {
		b.Left, b.Right = i-1, i+1
		if i == len(out)-1 {
			b.Right = -1
		}
	}
	return out
}
