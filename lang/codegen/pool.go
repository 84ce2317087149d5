package codegen

// stringPool interns string-literal constants encountered while
// lowering expressions, giving each distinct literal a stable index
// into Output.Strings, addressed by the OpLstr pseudo-op (lang/mips's
// stand-in for a read-only constant-pool segment; the original's
// Literal::String case was left as `todo!()`).
type stringPool struct {
	strings []string
	index   map[string]int32
}

func newStringPool() *stringPool {
	return &stringPool{index: make(map[string]int32)}
}

func (p *stringPool) intern(s string) int32 {
	if i, ok := p.index[s]; ok {
		return i
	}
	i := int32(len(p.strings))
	p.strings = append(p.strings, s)
	p.index[s] = i
	return i
}
