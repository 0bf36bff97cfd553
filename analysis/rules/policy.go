package rules

import L "github.com/cs-au-dk/gotaint/analysis/lattice"

// ResolverChoices returns the taints a conflict resolving callback may
// produce for an entry present in both containers. The callback is never
// inspected: it can only return one of the two values it is handed, so the
// candidates are the existing and the incoming value.
func ResolverChoices(existing, incoming L.Taint) []L.Taint {
	return []L.Taint{existing, incoming}
}

// merged is the taint of the merge of two containers. Entries held by only
// one of them survive as they are, and every shared entry holds one of the
// choices of the resolver.
func merged(existing, incoming L.Taint) L.Taint {
	return L.JoinAll(ResolverChoices(existing, incoming)...).
		Join(existing).
		Join(incoming)
}
