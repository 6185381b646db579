package install

import (
	"errors"
	"fmt"
)

// ErrUnsupportedVersion is returned when no compatibility entry exists for a
// Minecraft version.
var ErrUnsupportedVersion = errors.New("unsupported Minecraft version")

// CompatEntry lists the companion mod downloads for one Minecraft version.
// Primary is Paxi, Optional is YUNG's API (required by newer Paxi builds) and
// FabricAPI is the matching Fabric API build.
type CompatEntry struct {
	Primary   string
	Optional  string
	FabricAPI string
}

// HasOptional reports whether the entry ships an optional companion mod.
func (e CompatEntry) HasOptional() bool { return e.Optional != "" }

const (
	paxi117  = "https://www.curseforge.com/api/v1/mods/418881/files/3120081/download"
	paxi1171 = "https://www.curseforge.com/api/v1/mods/418881/files/3425423/download"
	paxi118  = "https://www.curseforge.com/api/v1/mods/418881/files/3631270/download"
	paxi1182 = "https://www.curseforge.com/api/v1/mods/418881/files/3706642/download"
	paxi119  = "https://cdn.modrinth.com/data/CU0PAyzb/versions/PGslvGfk/Paxi-1.19.2-Fabric-3.0.jar"
	paxi1194 = "https://cdn.modrinth.com/data/CU0PAyzb/versions/t0EvcKWk/Paxi-1.19.4-Fabric-3.2.0.jar"
	paxi120  = "https://cdn.modrinth.com/data/CU0PAyzb/versions/UVPLKCqf/Paxi-1.20-Fabric-4.0.jar"

	yungs118  = "https://www.curseforge.com/api/v1/mods/421649/files/4428185/download"
	yungs119  = "https://cdn.modrinth.com/data/Ua7DFN59/versions/IxuGYnWF/YungsApi-1.19.2-Fabric-3.8.9.jar"
	yungs1194 = "https://cdn.modrinth.com/data/Ua7DFN59/versions/h32n7OPC/YungsApi-1.19.4-Fabric-3.10.1.jar"
	yungs120  = "https://cdn.modrinth.com/data/Ua7DFN59/versions/NmrTF2A5/YungsApi-1.20-Fabric-4.0.1.jar"
)

// CompatTable maps an exact Minecraft version to its companion mods. Adding a
// version is a data change only.
var CompatTable = map[string]CompatEntry{
	"1.17": {
		Primary:   paxi117,
		FabricAPI: "https://cdn.modrinth.com/data/P7dR8mSH/versions/0.36.0%2B1.17/fabric-api-0.36.0%2B1.17.jar",
	},
	"1.17.1": {
		Primary:   paxi1171,
		Optional:  yungs118,
		FabricAPI: "https://cdn.modrinth.com/data/P7dR8mSH/versions/0.46.1%2B1.17/fabric-api-0.46.1%2B1.17.jar",
	},
	"1.18": {
		Primary:   paxi118,
		FabricAPI: "https://cdn.modrinth.com/data/P7dR8mSH/versions/0.44.0%2B1.18/fabric-api-0.44.0%2B1.18.jar",
	},
	"1.18.1": {
		Primary:   paxi118,
		Optional:  yungs118,
		FabricAPI: "https://cdn.modrinth.com/data/P7dR8mSH/versions/0.46.6%2B1.18/fabric-api-0.46.6%2B1.18.jar",
	},
	"1.18.2": {
		Primary:   paxi1182,
		Optional:  yungs118,
		FabricAPI: "https://cdn.modrinth.com/data/P7dR8mSH/versions/95QMsRyb/fabric-api-0.76.0%2B1.18.2.jar",
	},
	"1.19": {
		Primary:   paxi119,
		Optional:  yungs119,
		FabricAPI: "https://cdn.modrinth.com/data/P7dR8mSH/versions/0.58.0%2B1.19/fabric-api-0.58.0%2B1.19.jar",
	},
	"1.19.2": {
		Primary:   paxi119,
		Optional:  yungs119,
		FabricAPI: "https://cdn.modrinth.com/data/P7dR8mSH/versions/fO05PwUR/fabric-api-0.76.1%2B1.19.2.jar",
	},
	"1.19.4": {
		Primary:   paxi1194,
		Optional:  yungs1194,
		FabricAPI: "https://cdn.modrinth.com/data/P7dR8mSH/versions/LKgVmlZB/fabric-api-0.87.0%2B1.19.4.jar",
	},
	"1.20": {
		Primary:   paxi120,
		Optional:  yungs120,
		FabricAPI: "https://cdn.modrinth.com/data/P7dR8mSH/versions/n2c5lxAo/fabric-api-0.83.0%2B1.20.jar",
	},
	"1.20.1": {
		Primary:   paxi120,
		Optional:  yungs120,
		FabricAPI: "https://cdn.modrinth.com/data/P7dR8mSH/versions/1sf8i9fy/fabric-api-0.89.0%2B1.20.1.jar",
	},
}

// Lookup returns the compatibility entry for an exact version string.
func Lookup(minecraftVersion string) (CompatEntry, error) {
	e, ok := CompatTable[minecraftVersion]
	if !ok {
		return CompatEntry{}, fmt.Errorf("install: %w %q: no companion mods are published for it", ErrUnsupportedVersion, minecraftVersion)
	}
	return e, nil
}
