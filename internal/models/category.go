package models

// Event categories are a fixed set; the stored value is the Russian name.
const (
	CategoryConcert    = "концерт"
	CategoryLecture    = "лекция"
	CategoryExhibition = "выставка"
)

var Categories = []string{CategoryConcert, CategoryLecture, CategoryExhibition}

func IsValidCategory(category string) bool {
	for _, c := range Categories {
		if c == category {
			return true
		}
	}
	return false
}
