package output

import (
	"encoding/json"
	"io"

	"github.com/bgricker/adoreport/internal/ado"
)

// JSONRenderer emits structured pipeline listings.
type JSONRenderer struct {
	out io.Writer
}

// NewJSON creates a JSON renderer writing to out.
func NewJSON(out io.Writer) *JSONRenderer {
	return &JSONRenderer{out: out}
}

// Listing captures the JSON output schema of the list command.
type Listing struct {
	Project     string              `json:"project"`
	Environment string              `json:"environment"`
	Path        string              `json:"path"`
	Filters     []string            `json:"filters,omitempty"`
	Pipelines   []ado.DefinitionRef `json:"pipelines"`
}

// Render encodes the listing as JSON.
func (j *JSONRenderer) Render(listing Listing) error {
	if listing.Pipelines == nil {
		listing.Pipelines = []ado.DefinitionRef{}
	}
	enc := json.NewEncoder(j.out)
	enc.SetIndent("", "  ")
	return enc.Encode(listing)
}
