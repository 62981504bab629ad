package catalog

const (
	queryExactText = `
		SELECT p.id, p.title, p.handle
		FROM products p
		WHERE p.title ILIKE $1
		   OR EXISTS (SELECT 1 FROM variants v WHERE v.product_id = p.id AND lower(v.sku) = lower($2))
		ORDER BY p.title, p.id
		LIMIT $3`

	queryFuzzyText = `
		SELECT p.id, p.title, p.handle
		FROM products p
		WHERE p.title ILIKE ANY($1)
		   OR EXISTS (SELECT 1 FROM variants v WHERE v.product_id = p.id AND v.sku ILIKE ANY($1))
		ORDER BY p.title, p.id
		LIMIT $2`

	queryProduct = `
		SELECT id, title, handle, status, product_type, tags, created_at,
		       length, width, height, dimension_unit
		FROM products
		WHERE id = $1`

	queryVariants = `
		SELECT v.id, v.sku, v.title, v.price::text, v.inventory_quantity, ii.cost::text
		FROM variants v
		LEFT JOIN inventory_items ii ON ii.id = v.inventory_item_id
		WHERE v.product_id = $1
		ORDER BY v.position, v.id`

	queryMedia = `
		SELECT url, alt_text
		FROM product_media
		WHERE product_id = $1
		ORDER BY position`

	// Filter queries share this projection; WHERE clauses are appended.
	queryProductList = `
		SELECT id, title, handle, status, product_type, tags, created_at
		FROM products`

	orderProductList = `
		ORDER BY created_at, id`
)
