package oxml

import "encoding/binary"

const (
	cacheSlots = 256
	cacheMask  = cacheSlots - 1

	// number of slots probed in a fixed table before the
	// chained table takes over
	maxProbe = 8
)

type hashFunc func([]byte) uint32

// fnv1a is the 32 bit FNV-1a hash.
func fnv1a(b []byte) uint32 {
	h := uint32(2166136261)
	for _, c := range b {
		h ^= uint32(c)
		h *= 16777619
	}
	return h
}

type shortSlot struct {
	key  uint64
	hash uint32
	n    uint8
	// index+1 into NameCache.names, 0 marks a free slot
	slot int32
}

type mediumSlot struct {
	k0, k1 uint64
	hash   uint32
	n      uint8
	slot   int32
}

// NameCache interns element and attribute names.
// Keys of up to 8 and up to 16 bytes live in fixed open addressing tables
// compared by packed words, longer keys and probe overflows go to a
// chained table. A NameCache is not safe for concurrent use.
type NameCache struct {
	hash    hashFunc
	short   [cacheSlots]shortSlot
	medium  [cacheSlots]mediumSlot
	chained map[uint32][]int32
	names   []Name
	text    []string
}

// NewNameCache creates an empty NameCache.
func NewNameCache() *NameCache {
	return newNameCache(fnv1a)
}

func newNameCache(h hashFunc) *NameCache {
	return &NameCache{
		hash:  h,
		names: make([]Name, 0, 64),
		text:  make([]string, 0, 64),
	}
}

// Len returns the number of distinct names interned so far.
func (thiz *NameCache) Len() int {
	return len(thiz.names)
}

// Reset forgets all interned names.
func (thiz *NameCache) Reset() {
	thiz.short = [cacheSlots]shortSlot{}
	thiz.medium = [cacheSlots]mediumSlot{}
	thiz.chained = nil
	thiz.names = thiz.names[:0]
	thiz.text = thiz.text[:0]
}

// Intern returns the Name for the qualified text b. The returned Name
// does not reference b.
func (thiz *NameCache) Intern(b []byte) Name {
	h := thiz.hash(b)
	if len(b) <= 8 {
		if n, ok := thiz.internShort(b, h); ok {
			return n
		}
	} else if len(b) <= 16 {
		if n, ok := thiz.internMedium(b, h); ok {
			return n
		}
	}
	return thiz.internChained(b, h)
}

// InternString is Intern for a string key.
func (thiz *NameCache) InternString(s string) Name {
	return thiz.Intern(bs(s))
}

func pack(b []byte) uint64 {
	var buf [8]byte
	copy(buf[:], b)
	return binary.LittleEndian.Uint64(buf[:])
}

func (thiz *NameCache) internShort(b []byte, h uint32) (Name, bool) {
	k := pack(b)
	n := uint8(len(b))
	for i := uint32(0); i < maxProbe; i++ {
		s := &thiz.short[(h+i)&cacheMask]
		if s.slot == 0 {
			idx := thiz.add(b)
			*s = shortSlot{key: k, hash: h, n: n, slot: idx + 1}
			return thiz.names[idx], true
		}
		if s.hash == h && s.n == n && s.key == k {
			return thiz.names[s.slot-1], true
		}
	}
	return Name{}, false
}

func (thiz *NameCache) internMedium(b []byte, h uint32) (Name, bool) {
	k0 := pack(b[:8])
	k1 := pack(b[8:])
	n := uint8(len(b))
	for i := uint32(0); i < maxProbe; i++ {
		s := &thiz.medium[(h+i)&cacheMask]
		if s.slot == 0 {
			idx := thiz.add(b)
			*s = mediumSlot{k0: k0, k1: k1, hash: h, n: n, slot: idx + 1}
			return thiz.names[idx], true
		}
		if s.hash == h && s.n == n && s.k0 == k0 && s.k1 == k1 {
			return thiz.names[s.slot-1], true
		}
	}
	return Name{}, false
}

func (thiz *NameCache) internChained(b []byte, h uint32) Name {
	for _, idx := range thiz.chained[h] {
		if thiz.text[idx] == string(b) {
			return thiz.names[idx]
		}
	}
	if thiz.chained == nil {
		thiz.chained = make(map[uint32][]int32)
	}
	idx := thiz.add(b)
	thiz.chained[h] = append(thiz.chained[h], idx)
	return thiz.names[idx]
}

func (thiz *NameCache) add(b []byte) int32 {
	s := string(b)
	idx := int32(len(thiz.names))
	n := Name{Local: s, Slot: idx}
	for i := 0; i < len(s); i++ {
		if s[i] == ':' {
			n.Prefix = s[:i]
			n.Local = s[i+1:]
			break
		}
	}
	thiz.names = append(thiz.names, n)
	thiz.text = append(thiz.text, s)
	return idx
}
