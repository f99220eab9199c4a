package models

// Review is a single star rating left on a recipe
type Review struct {
	ID       int64  `json:"id"`
	RecipeID int64  `json:"recipe_id"`
	Author   string `json:"author"`
	Rating   int    `json:"rating" validate:"min=1,max=5"`
	Comment  string `json:"comment,omitempty"`
}

// Recipe is a catalog entry as served to the discovery screens.
// CreatedAt is kept as the raw string received from the API so that
// unparseable values can be ranked last instead of rejected.
type Recipe struct {
	ID            int64    `json:"id"`
	Title         string   `json:"title"`
	Notes         string   `json:"notes"`
	Author        string   `json:"author"`
	Tags          []string `json:"tags"`
	Cuisine       string   `json:"cuisine"`
	Difficulty    string   `json:"difficulty"`
	AverageRating float64  `json:"average_rating"`
	CreatedAt     *string  `json:"created_at,omitempty"`
	IsPublic      bool     `json:"is_public"`
	Likes         int      `json:"likes"`
	Reviews       []Review `json:"reviews,omitempty"`
}

// Default values for recipes created without a cuisine or difficulty
const (
	NotSet = "Not set"
)

// RatingFromReviews returns the mean rating of the given reviews, or 0 when
// there are none
func RatingFromReviews(reviews []Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	total := 0
	for _, r := range reviews {
		total += r.Rating
	}
	return float64(total) / float64(len(reviews))
}

// RefreshRating recomputes AverageRating from Reviews when reviews are loaded
func (r *Recipe) RefreshRating() {
	if r.Reviews != nil {
		r.AverageRating = RatingFromReviews(r.Reviews)
	}
}

// CreateRecipeRequest is the body accepted when adding a recipe to the catalog
type CreateRecipeRequest struct {
	Title      string   `json:"title" validate:"required,max=200"`
	Notes      string   `json:"notes"`
	Author     string   `json:"author" validate:"required"`
	Tags       []string `json:"tags"`
	Cuisine    string   `json:"cuisine"`
	Difficulty string   `json:"difficulty"`
	IsPublic   *bool    `json:"is_public"`
}
