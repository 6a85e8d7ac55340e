package analyzer

// Candidate is one (declaring file, declared name) pair produced by a
// SymbolResolver. The engine probes the candidate's function and class ids
// against the node set; the first hit wins.
type Candidate struct {
	File string // root-relative source file
	Name string // declared symbol name
}

// CalleeRef describes an unresolved call target: the file containing the
// call site, the receiver identifier for property accesses (may be empty),
// and the callee name that missed the registry.
type CalleeRef struct {
	File   string
	Object string
	Name   string
}

// SymbolResolver is the tier-2 fallback capability. Implementations return
// zero or more candidate declaration sites for a callee reference; returning
// nothing is the normal outcome for unresolvable targets. The engine treats
// every implementation as best-effort and never reports its misses.
type SymbolResolver interface {
	Resolve(ref CalleeRef) []Candidate
}

// importResolver is the default SymbolResolver: a textual heuristic over the
// import bindings collected in pass 1. A callee whose name (or receiver, for
// namespace imports) was imported from an internal file is assumed to be
// declared there.
type importResolver struct {
	bindings map[string]map[string]string // file -> local name -> internal file
}

func newImportResolver(bindings map[string]map[string]string) *importResolver {
	return &importResolver{bindings: bindings}
}

func (r *importResolver) Resolve(ref CalleeRef) []Candidate {
	local := r.bindings[ref.File]
	if local == nil {
		return nil
	}

	var out []Candidate
	if ref.Object != "" {
		if target, ok := local[ref.Object]; ok {
			out = append(out, Candidate{File: target, Name: ref.Name})
		}
	}
	if target, ok := local[ref.Name]; ok {
		out = append(out, Candidate{File: target, Name: ref.Name})
	}
	return out
}
