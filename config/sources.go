package config

// SchemaVariant identifies the column set a CSV source must carry.
type SchemaVariant string

const (
	SchemaAreas  SchemaVariant = "areas"
	SchemaDLD    SchemaVariant = "dld"
	SchemaSimple SchemaVariant = "simple"
)

// Source represents one CSV data source configuration
type Source struct {
	Name   string        `json:"name"`
	URL    string        `json:"url"`
	Schema SchemaVariant `json:"schema"`
}

// DefaultSources is the built-in DLD source catalog
var DefaultSources = []Source{
	{
		Name:   "dld-areas",
		URL:    "https://www.dubaipulse.gov.ae/dataset/dld-lookup/resource/dld_areas.csv",
		Schema: SchemaAreas,
	},
	{
		Name:   "dld-transactions",
		URL:    "https://www.dubaipulse.gov.ae/dataset/dld-transactions/resource/dld_transactions.csv",
		Schema: SchemaDLD,
	},
	// Add more sources here as needed
}

// GetSourceNames returns the names of all configured sources
func GetSourceNames() []string {
	names := make([]string, len(DefaultSources))
	for i, src := range DefaultSources {
		names[i] = src.Name
	}
	return names
}

// GetSourceByName returns a source configuration by name
func GetSourceByName(name string) *Source {
	for _, src := range DefaultSources {
		if src.Name == name {
			return &src
		}
	}
	return nil
}
