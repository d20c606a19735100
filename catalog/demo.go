package catalog

import "github.com/rushteam/shoprec/core"

// DemoProducts 返回内置的 6 个示例商品，用于本地运行与测试。
// 每次调用返回新的切片与商品，调用方可以自由修改。
func DemoProducts() []*core.Product {
	return []*core.Product{
		{
			ID:          "1",
			Name:        "Organic Facial Serum",
			Price:       29.99,
			Rating:      4.8,
			Reviews:     124,
			Images:      []string{"/images/products/facial-serum-1.jpg", "/images/products/facial-serum-2.jpg"},
			Description: "A lightweight organic serum that nourishes and revitalizes skin with plant-based botanicals and vitamins.",
			Features:    []string{"100% organic ingredients", "Suitable for all skin types", "No synthetic fragrances"},
			Tags:        []string{"Plant-Based", "Dermatologist-Tested", "Cruelty-Free", "Vegan", "Eco-Friendly"},
			InStock:     true,
		},
		{
			ID:          "2",
			Name:        "Hydrating Face Cream",
			Price:       34.99,
			Rating:      4.9,
			Reviews:     89,
			Images:      []string{"/images/products/face-cream-1.jpg"},
			Description: "A rich vegan face cream that deeply hydrates skin and restores its natural moisture barrier.",
			Features:    []string{"24-hour hydration", "Fragrance free", "Recyclable packaging"},
			Tags:        []string{"Vegan", "Cruelty-Free", "Hydrating", "Fragrance-Free"},
			InStock:     true,
		},
		{
			ID:          "3",
			Name:        "Gentle Cleansing Foam",
			Price:       19.99,
			Rating:      4.7,
			Reviews:     56,
			Images:      []string{"/images/products/cleansing-foam-1.jpg"},
			Description: "A gentle plant-based cleansing foam that removes impurities without stripping sensitive skin.",
			Features:    []string{"pH balanced", "Soap free", "Suitable for sensitive skin"},
			Tags:        []string{"Plant-Based", "Cruelty-Free", "Sensitive-Skin"},
			InStock:     true,
		},
		{
			ID:          "4",
			Name:        "Vitamin C Brightening Mask",
			Price:       24.99,
			Rating:      4.6,
			Reviews:     42,
			Images:      []string{"/images/products/brightening-mask-1.jpg"},
			Description: "A vitamin C mask that brightens dull skin and evens out skin tone in ten minutes.",
			Features:    []string{"Vitamin C and E", "Weekly treatment", "Glass jar"},
			Tags:        []string{"Vegan", "Brightening", "Eco-Friendly"},
			InStock:     true,
		},
		{
			ID:          "5",
			Name:        "Bamboo Exfoliating Scrub",
			Price:       16.99,
			Rating:      4.5,
			Reviews:     38,
			Images:      []string{"/images/products/bamboo-scrub-1.jpg"},
			Description: "An eco-friendly bamboo scrub that gently exfoliates and polishes skin.",
			Features:    []string{"Biodegradable exfoliants", "Use twice weekly", "Plastic free"},
			Tags:        []string{"Eco-Friendly", "Plant-Based", "Exfoliating"},
			InStock:     true,
		},
		{
			ID:          "6",
			Name:        "Rosehip Night Oil",
			Price:       39.99,
			Rating:      4.4,
			Reviews:     27,
			Images:      []string{"/images/products/rosehip-oil-1.jpg"},
			Description: "An organic rosehip oil that repairs and renews skin overnight.",
			Features:    []string{"Cold pressed", "Rich in vitamin A", "Dropper bottle"},
			Tags:        []string{"Organic", "Anti-Aging", "Vegan"},
			InStock:     false,
		},
	}
}
