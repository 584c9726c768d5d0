package catalog

// Canonical field names of the target product schema. The import
// pipeline projects source columns onto these names.
const (
	FieldName           = "name"
	FieldDescription    = "description"
	FieldPrice          = "price"
	FieldCompareAtPrice = "compareAtPrice"
	FieldSKU            = "sku"
	FieldCategory       = "category"
	FieldBrand          = "brand"
	FieldStockQuantity  = "stockQuantity"
	FieldImageURL       = "imageURL"
	FieldWeight         = "weight"
	FieldTags           = "tags"
)

// FieldDescriptor describes one canonical product attribute: its name,
// human-readable label, whether a value is mandatory, and the known
// source-side aliases it may appear under.
type FieldDescriptor struct {
	CanonicalName string
	DisplayLabel  string
	Required      bool
	Aliases       []string
}

// Catalog is the static registry of canonical target fields. It is
// built once at process start and never mutated afterwards.
type Catalog struct {
	fields []FieldDescriptor
	byName map[string]*FieldDescriptor
}

// New builds a Catalog from an ordered list of descriptors.
// Parameters:
//   - fields: descriptors in mapper scan order; canonical names must be unique.
// Returns:
//   - *Catalog: catalog instance with lookup index built.
func New(fields []FieldDescriptor) *Catalog {
	c := &Catalog{
		fields: fields,
		byName: make(map[string]*FieldDescriptor, len(fields)),
	}
	for i := range c.fields {
		c.byName[c.fields[i].CanonicalName] = &c.fields[i]
	}
	return c
}

// Fields returns the descriptors in scan order.
// Parameters: none.
// Returns:
//   - []FieldDescriptor: ordered descriptor list.
func (c *Catalog) Fields() []FieldDescriptor {
	return c.fields
}

// Get returns the descriptor for a canonical field name.
// Parameters:
//   - canonicalName: canonical field name to look up.
// Returns:
//   - *FieldDescriptor: descriptor if present.
//   - bool: true if the field exists in the catalog.
func (c *Catalog) Get(canonicalName string) (*FieldDescriptor, bool) {
	d, ok := c.byName[canonicalName]
	return d, ok
}

// Required returns the canonical names of all mandatory fields, in scan order.
// Parameters: none.
// Returns:
//   - []string: canonical names with the required flag set.
func (c *Catalog) Required() []string {
	var names []string
	for _, f := range c.fields {
		if f.Required {
			names = append(names, f.CanonicalName)
		}
	}
	return names
}

// Default returns the catalog of canonical product fields with the
// alias lists seen across common storefront and marketplace exports.
// Parameters: none.
// Returns:
//   - *Catalog: default product field catalog.
func Default() *Catalog {
	return New([]FieldDescriptor{
		{
			CanonicalName: FieldName,
			DisplayLabel:  "Product Name",
			Required:      true,
			Aliases:       []string{"title", "product_name", "product_title", "item_name", "name"},
		},
		{
			CanonicalName: FieldDescription,
			DisplayLabel:  "Description",
			Aliases:       []string{"description", "body_html", "product_description", "details", "long_description"},
		},
		{
			CanonicalName: FieldPrice,
			DisplayLabel:  "Price",
			Required:      true,
			Aliases:       []string{"price", "unit_price", "sale_price", "variant_price", "retail_price", "amount"},
		},
		{
			CanonicalName: FieldCompareAtPrice,
			DisplayLabel:  "Compare At Price",
			Aliases:       []string{"compare_at_price", "compare_price", "original_price", "list_price", "msrp", "rrp"},
		},
		{
			CanonicalName: FieldSKU,
			DisplayLabel:  "SKU",
			Aliases:       []string{"sku", "variant_sku", "sku_code", "item_sku", "article_number", "reference"},
		},
		{
			CanonicalName: FieldCategory,
			DisplayLabel:  "Category",
			Aliases:       []string{"category", "product_category", "product_type", "collection", "department"},
		},
		{
			CanonicalName: FieldBrand,
			DisplayLabel:  "Brand",
			Aliases:       []string{"brand", "vendor", "manufacturer", "maker", "supplier"},
		},
		{
			CanonicalName: FieldStockQuantity,
			DisplayLabel:  "Stock Quantity",
			Aliases:       []string{"stock", "stock_quantity", "quantity", "qty", "inventory", "inventory_quantity", "stock_level"},
		},
		{
			CanonicalName: FieldImageURL,
			DisplayLabel:  "Image URL",
			Aliases:       []string{"image", "image_url", "image_src", "picture", "photo_url", "main_image"},
		},
		{
			CanonicalName: FieldWeight,
			DisplayLabel:  "Weight",
			Aliases:       []string{"weight", "weight_kg", "item_weight", "grams"},
		},
		{
			CanonicalName: FieldTags,
			DisplayLabel:  "Tags",
			Aliases:       []string{"tags", "keywords", "labels"},
		},
	})
}
