package reassign

import "os"

// [BAD]: Second Open drops the first file
func twice() {
	f, err := os.Open("a.txt")
	if err != nil {
		return
	}
	f, err = os.Open("b.txt") // want `close the previous value of "f" before reassigning`
	if err != nil {
		return
	}
	defer f.Close()
}

// [GOOD]: Closed before reassigning
func closedFirst() {
	f, err := os.Open("a.txt")
	if err != nil {
		return
	}
	f.Close()
	f, err = os.Open("b.txt")
	if err != nil {
		return
	}
	defer f.Close()
}

// [GOOD]: Branches assign once each
func branches(useB bool) {
	var f *os.File
	var err error
	if useB {
		f, err = os.Open("b.txt")
	} else {
		f, err = os.Open("a.txt")
	}
	if err != nil {
		return
	}
	defer f.Close()
}

type Client struct {
	conn *os.File
}

// [GOOD]: Alias written back to the variable it was copied from
func writeBack() {
	f, _ := os.Open("a.txt")
	g := f
	f = g
	f.Close()
}

// [GOOD]: Early return while the field is set
func (c *Client) Connect() error {
	if c.conn != nil {
		return nil
	}
	f, err := os.Open("a.txt")
	if err != nil {
		return err
	}
	c.conn = f
	return nil
}

// [BAD]: Field overwritten without closing the old value
func (c *Client) Reconnect() error {
	f, err := os.Open("a.txt")
	if err != nil {
		return err
	}
	c.conn = f // want `close the previous value of "c.conn" before reassigning`
	return nil
}

// [GOOD]: Old value closed first
func (c *Client) Reset() error {
	c.conn.Close()
	f, err := os.Open("a.txt")
	if err != nil {
		return err
	}
	c.conn = f
	return nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}
