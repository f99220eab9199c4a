package vocab

import "github.com/terra-clan/cookoff-engine/internal/discovery"

func defaults() map[string][]string {
	return map[string][]string{
		discovery.CategoryCuisine: {
			"Russian", "Italian", "Mexican", "Indian", "Chinese", "Japanese", "American",
			"French", "Arabian", "Thai", "Spanish", "Mediterranean", "Korean", "Vietnamese",
		},
		discovery.CategoryDifficulty: {"Easy", "Medium", "Hard"},
		discovery.CategoryRatings:    {"1", "2", "3", "4", "5"},
		discovery.CategoryTags: {
			"Vegan", "Vegetarian", "Gluten-Free", "Dairy-Free", "Keto", "Paleo", "Low Carb",
			"High Protein", "Quick Meals", "Easy", "Healthy", "Comfort Food", "Spicy", "Sweet",
			"Savory", "Breakfast", "Lunch", "Dinner", "Snack", "Holiday",
		},
		discovery.CategoryRecency: {
			discovery.RecencyLast24Hours,
			discovery.RecencyLast7Days,
			discovery.RecencyLast30Days,
		},
	}
}
