package fx

// DefaultCapacity is the pool size used when none is configured.
const DefaultCapacity = 2048

const nilSlot int32 = -1

// Particle is one pool slot. A slot is live while Owner is set and Life > 0.
type Particle struct {
	Owner InstanceID

	X, Y     float64
	VX, VY   float64
	Rotation float64
	Spin     float64
	Scale    float64

	BaseOpacity float64
	Opacity     float64

	Life    int // remaining ticks
	MaxLife int
	Age     int
	Born    uint64 // tick the particle was spawned in
	Phase   float64
}

// Pool is a fixed-capacity particle store.
//
// Free slots form a stack; live slots form a doubly linked list in spawn
// order, so iteration order is stable between frames and slots can be
// released while iterating.
type Pool struct {
	slots []Particle
	next  []int32
	prev  []int32
	free  []int32
	head  int32
	tail  int32
	live  int

	owners map[InstanceID]int
}

// NewPool allocates every slot up front.
func NewPool(capacity int) *Pool {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	p := &Pool{
		slots:  make([]Particle, capacity),
		next:   make([]int32, capacity),
		prev:   make([]int32, capacity),
		free:   make([]int32, capacity),
		owners: make(map[InstanceID]int),
	}
	p.Reset()
	return p
}

// Reset frees every slot.
func (p *Pool) Reset() {
	n := len(p.slots)
	p.free = p.free[:n]
	for i := range p.slots {
		p.slots[i] = Particle{}
		p.next[i] = nilSlot
		p.prev[i] = nilSlot
		// Low slots are handed out first.
		p.free[i] = int32(n - 1 - i)
	}
	p.head = nilSlot
	p.tail = nilSlot
	p.live = 0
	clear(p.owners)
}

// Acquire claims a free slot for owner and appends it to the live list.
// It never grows the pool; when full it returns ErrPoolExhausted.
func (p *Pool) Acquire(owner InstanceID) (int, error) {
	if owner == NoInstance {
		return -1, errNoOwner
	}
	n := len(p.free)
	if n == 0 {
		return -1, ErrPoolExhausted
	}
	idx := p.free[n-1]
	p.free = p.free[:n-1]

	p.slots[idx] = Particle{Owner: owner}
	p.prev[idx] = p.tail
	p.next[idx] = nilSlot
	if p.tail != nilSlot {
		p.next[p.tail] = idx
	} else {
		p.head = idx
	}
	p.tail = idx

	p.live++
	p.owners[owner]++
	return int(idx), nil
}

// Release returns slot to the free stack. Releasing a free or out-of-range
// slot is a no-op.
func (p *Pool) Release(slot int) {
	if slot < 0 || slot >= len(p.slots) {
		return
	}
	part := &p.slots[slot]
	if part.Owner == NoInstance {
		return
	}
	owner := part.Owner
	idx := int32(slot)

	if p.prev[idx] != nilSlot {
		p.next[p.prev[idx]] = p.next[idx]
	} else {
		p.head = p.next[idx]
	}
	if p.next[idx] != nilSlot {
		p.prev[p.next[idx]] = p.prev[idx]
	} else {
		p.tail = p.prev[idx]
	}
	p.next[idx] = nilSlot
	p.prev[idx] = nilSlot

	part.Owner = NoInstance
	part.Life = 0
	p.free = append(p.free, idx)
	p.live--

	if c := p.owners[owner] - 1; c > 0 {
		p.owners[owner] = c
	} else {
		delete(p.owners, owner)
	}
}

// At returns the particle stored in slot.
func (p *Pool) At(slot int) *Particle {
	return &p.slots[slot]
}

// IsLive reports whether slot holds a live particle.
func (p *Pool) IsLive(slot int) bool {
	if slot < 0 || slot >= len(p.slots) {
		return false
	}
	part := &p.slots[slot]
	return part.Owner != NoInstance && part.Life > 0
}

// Each visits claimed slots in spawn order. fn may release the slot it is
// given but no other.
func (p *Pool) Each(fn func(slot int, part *Particle)) {
	for i := p.head; i != nilSlot; {
		next := p.next[i]
		fn(int(i), &p.slots[i])
		i = next
	}
}

// Live returns the number of claimed slots.
func (p *Pool) Live() int { return p.live }

// Capacity returns the fixed slot count.
func (p *Pool) Capacity() int { return len(p.slots) }

// Free returns the number of unclaimed slots.
func (p *Pool) Free() int { return len(p.free) }

// OwnedBy returns how many claimed slots belong to owner.
func (p *Pool) OwnedBy(owner InstanceID) int {
	return p.owners[owner]
}
