package registry

// PackReference identifies one pack at one version inside a bundle.
type PackReference struct {
	ID      string `json:"id"`
	Version string `json:"version"`
}

// PackData is the registry description of a pack.
type PackData struct {
	ID       string        `json:"id"`
	Versions []PackVersion `json:"versions"`
	Display  PackDisplay   `json:"display"`
}

// PackDisplay holds presentation data for a pack.
type PackDisplay struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Icon        string           `json:"icon"`
	Hidden      bool             `json:"hidden"`
	WebPage     *string          `json:"webPage,omitempty"`
	URLs        *PackDisplayURLs `json:"urls,omitempty"`
}

// PackDisplayURLs are the external links of a pack.
type PackDisplayURLs struct {
	Homepage *string `json:"homepage,omitempty"`
	Source   *string `json:"source,omitempty"`
	Discord  *string `json:"discord,omitempty"`
}

// PackVersion is a single published version of a pack.
type PackVersion struct {
	Name         string               `json:"name"`
	Downloads    PackVersionDownloads `json:"downloads"`
	Supports     []string             `json:"supports"`
	Dependencies []PackReference      `json:"dependencies,omitempty"`
}

// PackVersionDownloads are the raw download links of a pack version.
type PackVersionDownloads struct {
	Datapack     *string `json:"datapack,omitempty"`
	ResourcePack *string `json:"resourcepack,omitempty"`
}

// NewestVersion returns the newest version supporting the given Minecraft
// version. Versions are ordered oldest first.
func (p PackData) NewestVersion(minecraftVersion string) (PackVersion, bool) {
	for i := len(p.Versions) - 1; i >= 0; i-- {
		for _, s := range p.Versions[i].Supports {
			if s == minecraftVersion {
				return p.Versions[i], true
			}
		}
	}
	return PackVersion{}, false
}

// PackBundle is a bundle published on the registry.
type PackBundle struct {
	Owner   string          `json:"owner"`
	Name    string          `json:"name"`
	Version string          `json:"version"`
	Packs   []PackReference `json:"packs"`
	Public  bool            `json:"public"`
	UID     *string         `json:"uid,omitempty"`
}
