package keyboard

import tele "gopkg.in/telebot.v4"

// ReplyButtons builds a resized reply keyboard from rows of labels. Empty rows are skipped.
func ReplyButtons(rows ...[]string) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{ResizeKeyboard: true}
	keyboard := make([]tele.Row, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		buttons := make([]tele.Btn, 0, len(row))
		for _, label := range row {
			buttons = append(buttons, markup.Text(label))
		}
		keyboard = append(keyboard, markup.Row(buttons...))
	}
	markup.Reply(keyboard...)
	return markup
}

// ReplyColumn builds a reply keyboard with every label on its own row.
func ReplyColumn(labels ...string) *tele.ReplyMarkup {
	rows := make([][]string, 0, len(labels))
	for _, label := range labels {
		rows = append(rows, []string{label})
	}
	return ReplyButtons(rows...)
}

// Labels flattens the reply keyboard of markup back into button labels, row by row.
func Labels(markup *tele.ReplyMarkup) []string {
	if markup == nil {
		return nil
	}
	var labels []string
	for _, row := range markup.ReplyKeyboard {
		for _, btn := range row {
			labels = append(labels, btn.Text)
		}
	}
	return labels
}
