package domain

// Progress summarizes an active session for display.
type Progress struct {
	FormID        string `json:"form_id"`
	FormName      string `json:"form_name"`
	FilledCount   int    `json:"filled_count"`
	TotalRequired int    `json:"total_required"`
	// NextFieldLabel is nil once every required field is collected.
	NextFieldLabel *string `json:"next_field_label"`
}

// ProgressOf computes the progress indicator of a session over its form.
func ProgressOf(form FormDefinition, s *DialogueSession) Progress {
	p := Progress{FormID: form.ID, FormName: form.Name}
	for _, field := range form.Fields {
		if !field.Required {
			continue
		}
		p.TotalRequired++
		if _, ok := s.Collected[field.ID]; ok {
			p.FilledCount++
		}
	}
	if next, ok := form.NextRequired(s.Collected); ok {
		label := next.Label
		p.NextFieldLabel = &label
	}
	return p
}

// Reply is the engine's answer to one user turn.
type Reply struct {
	Text string `json:"text"`
	// Progress is set while a form session is active after this turn.
	Progress *Progress `json:"progress,omitempty"`
	// Document is set on the turn that completed a form.
	Document *Document `json:"document,omitempty"`
}
