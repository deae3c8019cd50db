package client

// Composer is the note input form. It keeps the text being typed and hands
// it to the caller on submit.
type Composer struct {
	text string
}

func (c *Composer) SetText(text string) { c.text = text }

func (c *Composer) Text() string { return c.text }

// Submit passes the current text to handle and clears the field. Like a
// required form field it refuses to submit nothing at all; any further
// validation is up to handle.
func (c *Composer) Submit(handle func(text string)) bool {
	if c.text == "" {
		return false
	}
	handle(c.text)
	c.text = ""
	return true
}
