package parser

// ItemSchema is the JSON Schema written next to content scraper output.
var ItemSchema = map[string]any{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"title":   "Item",
	"type":    "object",
	"properties": map[string]any{
		"title":       map[string]any{"type": "string"},
		"url":         map[string]any{"type": "string", "format": "uri"},
		"description": map[string]any{"type": "string", "maxLength": DescriptionLimit + len(ellipsis)},
		"image_url":   map[string]any{"type": "string", "format": "uri"},
		"timestamp":   map[string]any{"type": "string", "format": "date-time"},
		"tags": map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "string"},
		},
		"metadata": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"source":         map[string]any{"type": "string"},
				"author":         map[string]any{"type": "string"},
				"published_date": map[string]any{"type": "string"},
			},
		},
	},
	"required": []string{"title", "url", "timestamp"},
}

var priceSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"amount":              map[string]any{"type": "number", "minimum": 0},
		"currency":            map[string]any{"type": "string", "minLength": 3, "maxLength": 3},
		"formatted":           map[string]any{"type": "string"},
		"discounted":          map[string]any{"type": "boolean"},
		"original_amount":     map[string]any{"type": "number"},
		"original_formatted":  map[string]any{"type": "string"},
		"discount_percentage": map[string]any{"type": "integer"},
	},
	"required": []string{"amount", "currency", "formatted", "discounted"},
}

// ProductSchema is the JSON Schema written next to product scraper output.
var ProductSchema = map[string]any{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"title":   "Product",
	"type":    "object",
	"properties": map[string]any{
		"title":       map[string]any{"type": "string"},
		"url":         map[string]any{"type": "string", "format": "uri"},
		"description": map[string]any{"type": "string", "maxLength": DescriptionLimit + len(ellipsis)},
		"price":       priceSchema,
		"images": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"url": map[string]any{"type": "string", "format": "uri"},
					"alt": map[string]any{"type": "string"},
				},
				"required": []string{"url"},
			},
		},
		"variants": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name":      map[string]any{"type": "string"},
					"value":     map[string]any{"type": "string"},
					"price":     priceSchema,
					"available": map[string]any{"type": "boolean"},
					"selected":  map[string]any{"type": "boolean"},
				},
				"required": []string{"name", "available"},
			},
		},
		"reviews": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"author": map[string]any{"type": "string"},
					"rating": map[string]any{"type": "number", "minimum": 0, "maximum": 5},
					"title":  map[string]any{"type": "string"},
					"body":   map[string]any{"type": "string"},
					"date":   map[string]any{"type": "string"},
				},
				"required": []string{"rating", "body"},
			},
		},
		"rating": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"average":      map[string]any{"type": "number", "minimum": 0, "maximum": 5},
				"count":        map[string]any{"type": "integer", "minimum": 0},
				"distribution": map[string]any{"type": "object"},
			},
			"required": []string{"average", "count"},
		},
		"stock": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"in_stock":    map[string]any{"type": "boolean"},
				"stock_level": map[string]any{"type": []string{"integer", "string"}},
				"text":        map[string]any{"type": "string"},
				"assumed":     map[string]any{"type": "boolean"},
			},
			"required": []string{"in_stock"},
		},
		"metadata": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"sku":        map[string]any{"type": "string"},
				"brand":      map[string]any{"type": "string"},
				"category":   map[string]any{"type": "string"},
				"source":     map[string]any{"type": "string"},
				"scraped_at": map[string]any{"type": "string", "format": "date-time"},
			},
			"required": []string{"source", "scraped_at"},
		},
		"related_products": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"title":     map[string]any{"type": "string"},
					"url":       map[string]any{"type": "string", "format": "uri"},
					"price":     priceSchema,
					"image_url": map[string]any{"type": "string", "format": "uri"},
				},
				"required": []string{"title", "url"},
			},
		},
	},
	"required": []string{"title", "url", "price", "metadata"},
}
