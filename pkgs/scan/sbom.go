package scan

import (
	"fmt"
	"os"

	"go.acuvity.ai/elemental"
)

// SBOM contains a list of hashes for the tools
// a server exposes.
type SBOM struct {
	Tools Hashes `json:"tools,omitzero"`
}

// LoadSBOM loads the SBOM file at the given path.
func LoadSBOM(path string) (sbom SBOM, err error) {

	data, err := os.ReadFile(path) // #nosec: G304
	if err != nil {
		return sbom, fmt.Errorf("unable to load sbom file at '%s': %w", path, err)
	}

	if err := elemental.Decode(elemental.EncodingTypeJSON, data, &sbom); err != nil {
		return sbom, fmt.Errorf("unable to decode content of sbom file: %w", err)
	}

	return sbom, nil
}

// Hashes are a list of Hash.
type Hashes []Hash

// Matches return nil if both receiver and o
// match, meaning len are identical, and all hashes
// on h match hashes on o.
func (h Hashes) Matches(o Hashes) error {
	return cmpH(h, o)
}

// Map converts the Hashes into a map[string]Hash keyed by the Hash Name.
func (h Hashes) Map() map[string]Hash {

	out := make(map[string]Hash, len(h))

	for _, i := range h {
		out[i.Name] = i
	}

	return out
}

// A Hash represent the hash of a tool or of one
// of its arguments.
type Hash struct {
	Name   string `json:"name"`
	Hash   string `json:"hash"`
	Params Hashes `json:"params,omitzero"`
}

func cmpH(a Hashes, b Hashes) error {

	if len(a) != len(b) {
		return fmt.Errorf("invalid len. left: %d right: %d", len(a), len(b))
	}

	am := a.Map()

	for _, h := range b {

		o, ok := am[h.Name]
		if !ok {
			return fmt.Errorf("'%s': missing", h.Name)
		}

		if h.Hash != o.Hash {
			return fmt.Errorf("'%s': hash mismatch", h.Name)
		}

		if err := cmpH(o.Params, h.Params); err != nil {
			return fmt.Errorf("'%s': invalid param: %w", h.Name, err)
		}
	}

	return nil
}
