package sqlmodel

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainNode is the hash domain for SQL-model nodes.
// The version suffix allows the identity algorithm to change later.
const DomainNode = "lazyq/sqlmodel/node/v1"

// hashWithDomain computes SHA256(domain + 0x00 + data) as lowercase hex.
// The null separator keeps domain and data unambiguous.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// computeHash derives the structural identity of n from its own fields and
// the hashes of its references.
func (n *Node) computeHash() (string, error) {
	refs := make(map[string]any, len(n.refs))
	for k, ref := range n.refs {
		refs[k] = ref.hash
	}

	obj := map[string]any{
		"name":                 n.name,
		"template":             n.template,
		"values":               n.values,
		"references":           refs,
		"materialization":      string(n.materialization),
		"materialization_name": n.materializationName,
	}

	canonical, err := marshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("node %q: failed to marshal: %w", n.name, err)
	}
	return hashWithDomain(DomainNode, canonical), nil
}
