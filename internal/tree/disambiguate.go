package tree

// DisambiguationSuffix is appended to a title until it no longer collides.
const DisambiguationSuffix = "1"

// Disambiguate assigns every page a unique DisplayName in a single forward
// pass. Earlier pages keep their title; later duplicates get suffixed.
func Disambiguate(pages []*Page) {
	seen := make(map[string]struct{}, len(pages))
	for _, p := range pages {
		name := p.Source.Title()
		for {
			if _, taken := seen[name]; !taken {
				break
			}
			name += DisambiguationSuffix
		}
		seen[name] = struct{}{}
		p.DisplayName = name
	}
}
