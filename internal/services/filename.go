package services

import (
	"fmt"
	"strings"

	"github.com/Lllllllleong/equipmentchecklist/internal/models"
)

// ArtifactExtension is the extension of every generated checklist file.
const ArtifactExtension = ".xlsx"

// reservedFilenameChars cannot appear in a filename on the shared Windows volume.
const reservedFilenameChars = `\/:*?"<>|`

// BuildFilename derives the artifact name from checklist metadata and identity fields.
// It is a pure function of its inputs.
func BuildFilename(def models.ChecklistDefinition, id models.IdentityFields) string {
	asset := orDefault(id.AssetTag, "SinAF")
	owner := strings.ReplaceAll(orDefault(id.OwnerName, "SinPropietario"), " ", "-")
	role := strings.ReplaceAll(orDefault(id.Role, "SinCargo"), " ", "-")

	name := fmt.Sprintf("Activo %s Checklist %s %s %s %s%s",
		asset, def.OrganizationName, def.DisplayType, owner, role, ArtifactExtension)
	return SanitizeFilename(name)
}

// SanitizeFilename replaces every reserved character with an underscore.
func SanitizeFilename(name string) string {
	for _, c := range reservedFilenameChars {
		name = strings.ReplaceAll(name, string(c), "_")
	}
	return name
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
