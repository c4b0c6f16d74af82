package ml

// Category is the verdict shown to the user.
type Category string

const (
	CategoryGood Category = "GOOD"
	CategoryBad  Category = "BAD"
)

// DisplayMessage is the rendered form of a prediction.
type DisplayMessage struct {
	Category Category `json:"category"`
	Severity string   `json:"severity"`
	Icon     string   `json:"icon"`
	Text     string   `json:"text"`
}

// Present maps a label to its message. Only LabelGood reads as good.
func Present(label Label) DisplayMessage {
	if label == LabelGood {
		return DisplayMessage{
			Category: CategoryGood,
			Severity: "success",
			Icon:     "✔️",
			Text:     "This wine is of GOOD quality! 🎉",
		}
	}
	return DisplayMessage{
		Category: CategoryBad,
		Severity: "error",
		Icon:     "✖️",
		Text:     "This wine is of BAD quality. 😢",
	}
}
