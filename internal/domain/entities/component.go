package entities

// APICategory groups the APIs declared by a component specification
type APICategory string

// API categories in processing order
const (
	CategoryExposed   APICategory = "ExposedAPIs"
	CategoryDependent APICategory = "DependentAPIs"
	CategorySecurity  APICategory = "SecurityAPIs"
)

// Categories returns all categories in the order they are processed
func Categories() []APICategory {
	return []APICategory{CategoryExposed, CategoryDependent, CategorySecurity}
}

// Label returns the heading used in progress output ("Exposed APIs")
func (c APICategory) Label() string {
	switch c {
	case CategoryExposed:
		return "Exposed APIs"
	case CategoryDependent:
		return "Dependent APIs"
	case CategorySecurity:
		return "Security APIs"
	default:
		return string(c)
	}
}

// APIRef is one API entry of a component specification
type APIRef struct {
	ID       string
	Name     string
	Required bool
}

// ComponentSpecification is the subset of a standard component YAML the runner needs
type ComponentSpecification struct {
	Name          string // metadata.name, informational
	ExposedAPIs   []APIRef
	DependentAPIs []APIRef
	SecurityAPIs  []APIRef
}

// APIs returns the API list for a category
func (c *ComponentSpecification) APIs(category APICategory) []APIRef {
	switch category {
	case CategoryExposed:
		return c.ExposedAPIs
	case CategoryDependent:
		return c.DependentAPIs
	case CategorySecurity:
		return c.SecurityAPIs
	default:
		return nil
	}
}
