package fx

import (
	"errors"
	"math/rand"
	"testing"
)

func TestPoolAcquireUntilExhausted(t *testing.T) {
	p := NewPool(4)

	for i := 0; i < 4; i++ {
		slot, err := p.Acquire(1)
		if err != nil {
			t.Fatalf("Acquire #%d failed: %v", i, err)
		}
		if slot != i {
			t.Errorf("Acquire #%d = slot %d, expected low slots first", i, slot)
		}
	}

	if _, err := p.Acquire(1); !errors.Is(err, ErrPoolExhausted) {
		t.Errorf("Acquire on full pool: err = %v, expected ErrPoolExhausted", err)
	}
	if p.Capacity() != 4 {
		t.Errorf("Capacity() = %d, pool must never grow", p.Capacity())
	}
	if p.Live() != 4 || p.Free() != 0 {
		t.Errorf("Live/Free = %d/%d, expected 4/0", p.Live(), p.Free())
	}
}

func TestPoolAcquireRequiresOwner(t *testing.T) {
	p := NewPool(2)
	if _, err := p.Acquire(NoInstance); err == nil {
		t.Error("Acquire(NoInstance) should fail")
	}
	if p.Live() != 0 {
		t.Errorf("Live() = %d after rejected acquire", p.Live())
	}
}

func TestPoolReleaseIdempotent(t *testing.T) {
	p := NewPool(3)
	a, _ := p.Acquire(1)
	b, _ := p.Acquire(2)

	p.Release(a)
	p.Release(a)
	p.Release(-1)
	p.Release(99)

	if p.Live() != 1 {
		t.Errorf("Live() = %d, expected 1", p.Live())
	}
	if p.Free() != 2 {
		t.Errorf("Free() = %d, expected 2", p.Free())
	}
	if p.OwnedBy(1) != 0 || p.OwnedBy(2) != 1 {
		t.Errorf("OwnedBy = %d/%d, expected 0/1", p.OwnedBy(1), p.OwnedBy(2))
	}
	if p.At(b).Owner != 2 {
		t.Errorf("slot %d lost its owner", b)
	}
}

func TestPoolEachSpawnOrder(t *testing.T) {
	p := NewPool(8)
	var slots []int
	for i := 0; i < 5; i++ {
		s, _ := p.Acquire(InstanceID(i + 1))
		slots = append(slots, s)
	}

	// Free a middle slot, then reuse it: the new particle goes to the back.
	p.Release(slots[2])
	reused, _ := p.Acquire(9)

	var owners []InstanceID
	p.Each(func(_ int, part *Particle) {
		owners = append(owners, part.Owner)
	})

	expected := []InstanceID{1, 2, 4, 5, 9}
	if len(owners) != len(expected) {
		t.Fatalf("Each visited %d slots, expected %d", len(owners), len(expected))
	}
	for i := range expected {
		if owners[i] != expected[i] {
			t.Errorf("Each order[%d] = %d, expected %d", i, owners[i], expected[i])
		}
	}
	if reused != slots[2] {
		t.Errorf("reused slot = %d, expected freed slot %d", reused, slots[2])
	}
}

func TestPoolReleaseDuringEach(t *testing.T) {
	p := NewPool(6)
	for i := 0; i < 6; i++ {
		p.Acquire(InstanceID(i%2 + 1))
	}

	visited := 0
	p.Each(func(slot int, part *Particle) {
		visited++
		if part.Owner == 1 {
			p.Release(slot)
		}
	})

	if visited != 6 {
		t.Errorf("visited %d slots, expected 6", visited)
	}
	if p.Live() != 3 || p.OwnedBy(1) != 0 {
		t.Errorf("Live() = %d, OwnedBy(1) = %d, expected 3 and 0", p.Live(), p.OwnedBy(1))
	}
}

func TestPoolConservation(t *testing.T) {
	const capacity = 32
	p := NewPool(capacity)
	rng := rand.New(rand.NewSource(7))

	var held []int
	acquired, released := 0, 0
	for step := 0; step < 5000; step++ {
		if rng.Intn(3) > 0 {
			slot, err := p.Acquire(InstanceID(rng.Intn(4) + 1))
			if err == nil {
				held = append(held, slot)
				acquired++
			} else if len(held) != capacity {
				t.Fatalf("step %d: exhausted with %d held", step, len(held))
			}
		} else if len(held) > 0 {
			i := rng.Intn(len(held))
			p.Release(held[i])
			held[i] = held[len(held)-1]
			held = held[:len(held)-1]
			released++
		}

		if p.Live() > capacity {
			t.Fatalf("step %d: Live() = %d exceeds capacity", step, p.Live())
		}
		if p.Live() != acquired-released {
			t.Fatalf("step %d: Live() = %d, expected %d", step, p.Live(), acquired-released)
		}
		if p.Live()+p.Free() != capacity {
			t.Fatalf("step %d: Live+Free = %d", step, p.Live()+p.Free())
		}
	}
}

func TestPoolReset(t *testing.T) {
	p := NewPool(4)
	p.Acquire(1)
	p.Acquire(2)
	p.Reset()

	if p.Live() != 0 || p.Free() != 4 {
		t.Errorf("after Reset Live/Free = %d/%d", p.Live(), p.Free())
	}
	count := 0
	p.Each(func(int, *Particle) { count++ })
	if count != 0 {
		t.Errorf("Each visited %d slots after Reset", count)
	}
	if slot, _ := p.Acquire(3); slot != 0 {
		t.Errorf("first Acquire after Reset = %d, expected 0", slot)
	}
}

func TestNewPoolDefaultCapacity(t *testing.T) {
	if got := NewPool(0).Capacity(); got != DefaultCapacity {
		t.Errorf("NewPool(0).Capacity() = %d, expected %d", got, DefaultCapacity)
	}
}
