package wienerzeit

// Lines lays a Phrase out as the lines shown on the panel, top to bottom.
// The first line is always "Es ist" and the last is the hour name; the
// qualifier gets its own line when present.  An empty lead-in still occupies
// a line so the hour name lands in the same place for "punkt Zwei" and
// "fünf nach Zwei".
func Lines(p Phrase) []string {
	if len(p.Qualifier) > 2 {
		return []string{"Es ist", p.LeadIn, p.Qualifier, p.HourName}
	}
	return []string{"Es ist", p.LeadIn, p.HourName}
}
