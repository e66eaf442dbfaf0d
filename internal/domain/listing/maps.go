package listing

// Marketplace numeric ids for brand, category and color. Refresh from the
// marketplace catalog endpoints when they drift.

// DepopBrands maps Depop brandId to a brand name.
var DepopBrands = map[int]string{
	1: "Nike", 2: "Adidas", 3: "Supreme", 4: "Vans", 5: "Converse", 6: "Jordan",
	7: "Puma", 8: "Reebok", 9: "New Balance", 10: "Carhartt", 11: "Champion",
	12: "The North Face", 13: "Patagonia", 14: "Ralph Lauren", 15: "Tommy Hilfiger",
	16: "Lacoste", 17: "Calvin Klein", 18: "Levi's", 19: "Wrangler", 20: "Lee",
	25: "Gucci", 26: "Prada", 27: "Louis Vuitton", 28: "Chanel", 29: "Burberry",
	30: "Balenciaga", 31: "Saint Laurent", 32: "Givenchy", 33: "Dior", 34: "Celine",
	35: "Bottega Veneta", 40: "Stussy", 41: "Palace", 42: "BAPE", 43: "Off-White",
	44: "Fear of God", 45: "Yeezy", 50: "Acne Studios", 51: "AMI Paris", 52: "A.P.C.",
	53: "Comme des Garcons", 54: "Rick Owens", 55: "Maison Margiela",
	56: "Yohji Yamamoto", 57: "Issey Miyake",
}

// DepopCategories maps Depop categoryId to a standard category.
var DepopCategories = map[int]string{
	1: "t-shirt", 2: "shirt", 3: "sweater", 4: "hoodie", 5: "sweatshirt", 6: "cardigan",
	10: "jeans", 11: "pants", 12: "shorts", 13: "skirt", 14: "leggings",
	20: "jacket", 21: "coat", 22: "blazer", 23: "vest",
	30: "dress", 31: "jumpsuit",
	40: "sneakers", 41: "boots", 42: "shoes", 43: "sandals", 44: "heels",
	50: "bag", 51: "backpack", 52: "handbag", 53: "wallet",
	60: "hat", 61: "belt", 62: "scarf", 63: "sunglasses", 64: "jewelry",
}

// DepopColors maps Depop color ids to a standard color.
var DepopColors = map[int]string{
	1: "black", 2: "white", 3: "grey", 4: "navy", 5: "blue", 6: "red", 7: "pink",
	8: "green", 9: "yellow", 10: "orange", 11: "purple", 12: "brown", 13: "beige",
	14: "cream", 15: "gold", 16: "silver", 17: "multicolor",
}

// GrailedCategories maps a Grailed category path, joined by " > ", to a standard category.
var GrailedCategories = map[string]string{
	"Menswear > Tops > T-Shirts":              "t-shirt",
	"Menswear > Tops > Shirts":                "shirt",
	"Menswear > Tops > Sweaters":              "sweater",
	"Menswear > Tops > Sweatshirts & Hoodies": "hoodie",
	"Menswear > Bottoms > Denim":              "jeans",
	"Menswear > Bottoms > Trousers":           "pants",
	"Menswear > Bottoms > Shorts":             "shorts",
	"Menswear > Outerwear > Jackets":          "jacket",
	"Menswear > Outerwear > Coats":            "coat",
	"Menswear > Footwear > Sneakers":          "sneakers",
	"Menswear > Footwear > Boots":             "boots",
	"Menswear > Accessories > Bags":           "bag",
	"Womenswear > Tops":                       "top",
	"Womenswear > Dresses":                    "dress",
}

// VintedCategories maps Vinted catalog_branch_id to a standard category.
var VintedCategories = map[int]string{
	1: "t-shirt", 2: "shirt", 5: "sweater", 8: "jeans", 10: "pants",
	12: "jacket", 15: "dress", 20: "sneakers", 25: "bag",
}

// VintedColors maps Vinted color_id to a standard color.
var VintedColors = map[int]string{
	1: "black", 2: "white", 3: "grey", 4: "blue", 5: "navy", 6: "red",
	7: "pink", 8: "green", 9: "yellow", 10: "beige", 11: "brown", 12: "purple",
}
