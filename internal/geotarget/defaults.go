package geotarget

// DefaultCountries is the target list used when none is configured: the
// major English-language markets plus the larger Caribbean countries.
var DefaultCountries = []string{
	"United States",
	"Canada",
	"United Kingdom",

	"Jamaica",
	"Dominican Republic",
	"Trinidad and Tobago",
	"Puerto Rico",
	"Bahamas",
	"Barbados",
	"Guyana",
	"Suriname",
}
