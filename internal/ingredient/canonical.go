package ingredient

// AliasMap maps cleaned alias names to a user's canonical ingredient names.
type AliasMap map[string]string

// Canonical resolves a name through the alias map after cleaning. Unaliased
// names resolve to their cleaned form.
func Canonical(aliases AliasMap, name string) string {
	cleaned := Clean(name)
	if canonical, ok := aliases[cleaned]; ok {
		return canonical
	}
	return cleaned
}
