package tenant

// NamespacePrefix prefixes every tenant database name, keeping tenant
// namespaces visually distinct from the master database and anything else
// sharing the cluster.
const NamespacePrefix = "tenant_"

// NamespaceFor maps a canonical organization name to its tenant database
// name. Side-effect free: the database itself is created lazily by the store
// on first write, so locating a namespace that was never written is valid.
func NamespaceFor(canonicalName string) string {
	return NamespacePrefix + canonicalName
}
