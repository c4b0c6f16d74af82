package ml

import "testing"

func TestPresent(t *testing.T) {
	testCases := []struct {
		label    Label
		category Category
		severity string
	}{
		{LabelGood, CategoryGood, "success"},
		{LabelBad, CategoryBad, "error"},
		{Label(2), CategoryBad, "error"},
		{Label(-1), CategoryBad, "error"},
	}

	for _, tc := range testCases {
		msg := Present(tc.label)
		if msg.Category != tc.category {
			t.Errorf("Present(%d).Category = %s, expected %s", tc.label, msg.Category, tc.category)
		}
		if msg.Severity != tc.severity {
			t.Errorf("Present(%d).Severity = %s, expected %s", tc.label, msg.Severity, tc.severity)
		}
		if msg.Icon == "" || msg.Text == "" {
			t.Errorf("Present(%d) returned empty icon or text", tc.label)
		}
	}
}
