package gx

// Diagnostics counts GPU submissions. A Context owns one and clears it on
// every Clear.
type Diagnostics struct {
	// DrawCallCount is the number of GPU draw submissions.
	DrawCallCount int
	// DrawnImagesCount is the number of primitives submitted.
	DrawnImagesCount int
	// DrawRenderer lists the renderer of every submission, in order.
	DrawRenderer []string
}

// Clear resets the counters.
func (d *Diagnostics) Clear() {
	d.DrawCallCount = 0
	d.DrawnImagesCount = 0
	d.DrawRenderer = d.DrawRenderer[:0]
}

func (d *Diagnostics) record(renderer string, primitives int) {
	if d == nil {
		return
	}
	d.DrawCallCount++
	d.DrawnImagesCount += primitives
	d.DrawRenderer = append(d.DrawRenderer, renderer)
}
