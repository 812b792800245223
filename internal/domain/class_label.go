package domain

// classLabels - человекочитаемые названия классов снимков.
var classLabels = map[string]string{
	"COVID":  "COVID-19",
	"Lung":   "Lung Opacity",
	"Normal": "Normal",
	"Viral":  "Viral Pneumonia",
}

// PrettyLabel возвращает название класса для вывода. Неизвестные метки возвращаются как есть.
func PrettyLabel(label string) string {
	if pretty, ok := classLabels[label]; ok {
		return pretty
	}

	return label
}

// Classification - результат голосования k ближайших соседей.
type Classification struct {
	Label  string
	Counts []LabelCount
}

// LabelCount - число соседей с данной меткой.
type LabelCount struct {
	Label string
	Count int
}
