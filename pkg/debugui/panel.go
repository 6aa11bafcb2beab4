package debugui

import (
	"fortio.org/log"
)

// Folder groups sliders under a collapsible title.
type Folder struct {
	Title   string
	Open    bool
	sliders []*Slider
}

// Add binds target to a new slider. Invalid bindings are logged and
// skipped: the returned error is an *InputBindingError and the folder is
// unchanged.
func (f *Folder) Add(name string, target *float64, lo, hi, step float64) (*Slider, error) {
	if err := validate(target, lo, hi, step); err != nil {
		bindErr := &InputBindingError{Folder: f.Title, Name: name, Err: err}
		log.Warnf("Skipping slider: %v", bindErr)
		return nil, bindErr
	}
	s := &Slider{Name: name, Min: lo, Max: hi, Step: step, target: target}
	f.sliders = append(f.sliders, s)
	return s, nil
}

// Sliders returns the bound sliders in insertion order.
func (f *Folder) Sliders() []*Slider {
	return f.sliders
}

// Slider returns the slider with the given name, or nil.
func (f *Folder) Slider(name string) *Slider {
	for _, s := range f.sliders {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// Line is one rendered panel row.
type Line struct {
	Text     string
	Selected bool
	Header   bool
}

// row addresses a folder header (slider < 0) or one of its sliders.
type row struct {
	folder, slider int
}

// Panel is the root of the tweak UI.
type Panel struct {
	Title   string
	Visible bool

	folders  []*Folder
	selected int
}

// NewPanel creates a visible, empty panel.
func NewPanel(title string) *Panel {
	return &Panel{Title: title, Visible: true}
}

// AddFolder appends a closed folder.
func (p *Panel) AddFolder(title string) *Folder {
	f := &Folder{Title: title}
	p.folders = append(p.folders, f)
	return f
}

// Folders returns the folders in insertion order.
func (p *Panel) Folders() []*Folder {
	return p.folders
}

// Toggle shows or hides the panel.
func (p *Panel) Toggle() {
	p.Visible = !p.Visible
}

func (p *Panel) rows() []row {
	var rows []row
	for i, f := range p.folders {
		rows = append(rows, row{folder: i, slider: -1})
		if f.Open {
			for j := range f.sliders {
				rows = append(rows, row{folder: i, slider: j})
			}
		}
	}
	return rows
}

func (p *Panel) current() (row, bool) {
	rows := p.rows()
	if len(rows) == 0 {
		return row{}, false
	}
	p.selected = max(0, min(len(rows)-1, p.selected))
	return rows[p.selected], true
}

// Next moves the selection down, wrapping around.
func (p *Panel) Next() {
	p.move(1)
}

// Prev moves the selection up, wrapping around.
func (p *Panel) Prev() {
	p.move(-1)
}

func (p *Panel) move(d int) {
	n := len(p.rows())
	if n == 0 {
		return
	}
	p.selected = ((p.selected+d)%n + n) % n
}

// Selected returns the selected slider, or nil when a folder header is
// selected.
func (p *Panel) Selected() *Slider {
	r, ok := p.current()
	if !ok || r.slider < 0 {
		return nil
	}
	return p.folders[r.folder].sliders[r.slider]
}

// ToggleFolder opens or closes the folder owning the selected row and
// moves the selection onto its header.
func (p *Panel) ToggleFolder() {
	r, ok := p.current()
	if !ok {
		return
	}
	f := p.folders[r.folder]
	f.Open = !f.Open
	for i, rr := range p.rows() {
		if rr.folder == r.folder && rr.slider < 0 {
			p.selected = i
			break
		}
	}
}

// Nudge moves the selected slider by n steps. It reports whether a slider
// was selected.
func (p *Panel) Nudge(n int) bool {
	s := p.Selected()
	if s == nil {
		return false
	}
	s.Nudge(n)
	return true
}

// Lines renders the panel. A hidden panel renders nothing.
func (p *Panel) Lines() []Line {
	if !p.Visible {
		return nil
	}
	const nameWidth, barWidth = 12, 10

	lines := []Line{{Text: p.Title, Header: true}}
	p.current()
	for i, r := range p.rows() {
		f := p.folders[r.folder]
		l := Line{Selected: i == p.selected}
		if r.slider < 0 {
			mark := "▸"
			if f.Open {
				mark = "▾"
			}
			l.Text = mark + " " + f.Title
			l.Header = true
		} else {
			l.Text = "  " + f.sliders[r.slider].Format(nameWidth, barWidth)
		}
		lines = append(lines, l)
	}
	return lines
}
